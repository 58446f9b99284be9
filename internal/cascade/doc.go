// Package cascade содержит read-only детектор каскадных событий.
//
// После изменения статуса или зависимости детектор инспектирует
// родителя затронутого контейнера (feature для task, project для
// feature) и возвращает рекомендации переходов: all_tasks_complete,
// first_task_started.
//
// События — только рекомендации. Поле automatic сообщает, помечен ли
// переход в конфигурации безопасным для автоприменения, но применение
// всегда отдельный явный вызов через Resolver+Validator.
package cascade
