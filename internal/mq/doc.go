// Package mq реализует обмен сообщениями через RabbitMQ.
//
// Компоненты:
//   - Connection — соединение с автоматическим reconnect
//   - Publisher — публикация событий трекера
//   - Consumer — потребление с ack/nack и graceful restart
//   - Topology — декларация exchanges, queues и bindings
//
// Поток событий:
//
//	API --(container.status_changed)--> tracker.containers --> Watcher
//	API --(dependency.changed)-------> tracker.dependencies --> Watcher
//	Watcher/Sweeper --(cascade.detected)--> tracker.cascade --> внешние агенты
//
// Каскадные события — рекомендации: трекер публикует их, но никогда
// не применяет переходы сам.
package mq
