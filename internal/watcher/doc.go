// Package watcher реализует наблюдателя за изменениями трекера.
//
// Watcher подписывается на события переходов статусов и изменений
// графа зависимостей, прогоняет детектор каскадов по родителю
// изменившегося контейнера и публикует рекомендации в tracker.cascade.
//
// Polling fallback по updated_at подхватывает изменения, события
// о которых были потеряны. Детекция идемпотентна, поэтому пересечение
// event-driven и polling путей безопасно.
package watcher
