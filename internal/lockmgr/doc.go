// Package lockmgr сериализует конфликтующие мутации по сущностям.
//
// Менеджер блокировок ключует по (entityType, entityID):
//   - мутации одной сущности выполняются строго последовательно
//   - мутации разных сущностей свободно перемежаются
//     (глобального порядка нет)
//
// Операции над двумя сущностями (создание зависимости затрагивает
// обе конечные tasks) берут блокировки в каноничном отсортированном
// порядке. Ожидание — FIFO с таймаутом (retryable ConcurrencyError),
// удержание сверх hold timeout завершается принудительным
// освобождением.
package lockmgr
