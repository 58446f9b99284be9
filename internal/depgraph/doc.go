// Package depgraph владеет направленным графом зависимостей между tasks.
//
// Гарантии:
//   - нет self-dependency и дубликатов (from, to, type)
//   - каноничный подграф BLOCKS всегда ацикличен: перед вставкой
//     выполняется поиск достижимости от приёмника к источнику
//   - IS_BLOCKED_BY хранится как обратный BLOCKS (единственное
//     каноничное ребро), RELATES_TO симметричен и из анализа
//     циклов исключён
//
// Проверка цикла и вставка — одно целое и выполняются под общим
// lock scope вызывающей стороны (internal/tracker).
package depgraph
