// Package tracker реализует service-слой трекера: единственную точку
// входа для всех операций над иерархией Project → Feature → Task.
//
// Каждая мутирующая операция следует одной последовательности:
//
//	lock scope → снимок состояния → валидация → запись → событие
//
// Слои под ним чистые и изолированные:
//   - workflow — flows, resolver и validator (без I/O)
//   - depgraph — граф зависимостей с проверкой циклов
//   - cascade — read-only детектор каскадных рекомендаций
//   - lockmgr — сериализация мутаций по сущности
//
// Запись статуса существует ровно в одном месте — updateStatus,
// вызываемом только из TransitionStatus после успешной валидации.
package tracker
