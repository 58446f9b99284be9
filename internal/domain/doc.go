// Package domain содержит основные типы предметной области.
//
// Иерархия контейнеров:
//   - Project — корневой уровень
//   - Feature — группа работ внутри project
//   - Task    — листовая единица работы
//
// Дополнительно:
//   - Dependency   — ребро графа зависимостей между tasks
//   - CascadeEvent — эфемерная рекомендация каскадного перехода
//
// Статусы контейнеров — строки, ключующиеся в активный flow
// (см. internal/workflow); фиксированы только стартовый и
// терминальные литералы.
package domain
