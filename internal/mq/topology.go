package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeContainers   Exchange = "tracker.containers"
	ExchangeDependencies Exchange = "tracker.dependencies"
	ExchangeCascade      Exchange = "tracker.cascade"
)

// Queues — имена очередей.
const (
	QueueContainersChanged   Queue = "containers.changed"
	QueueDependenciesChanged Queue = "dependencies.changed"
	QueueCascadeEvents       Queue = "cascade.events"
)

// Routing keys.
const (
	RoutingKeyChanged  RoutingKey = "changed"
	RoutingKeyDetected RoutingKey = "detected"
)

// binding — одна связка exchange → queue.
type binding struct {
	exchange Exchange
	queue    Queue
	key      RoutingKey
}

// topology — полная схема обмена сообщениями трекера.
//
//	tracker.containers   → containers.changed   (переходы статусов; consumer: watcher)
//	tracker.dependencies → dependencies.changed (изменения графа; consumer: watcher)
//	tracker.cascade      → cascade.events       (рекомендации; consumers: внешние агенты)
var topology = []binding{
	{ExchangeContainers, QueueContainersChanged, RoutingKeyChanged},
	{ExchangeDependencies, QueueDependenciesChanged, RoutingKeyChanged},
	{ExchangeCascade, QueueCascadeEvents, RoutingKeyDetected},
}

// SetupTopology декларирует обменники, очереди и привязки.
// Идемпотентна: повторный вызов на существующей топологии безопасен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, b := range topology {
			if err := declareBinding(ch, b); err != nil {
				return err
			}
		}
		return nil
	})
}

// declareBinding создаёт exchange, queue и привязку между ними.
// Всё durable: топология и сообщения переживают рестарт брокера.
func declareBinding(ch *amqp.Channel, b binding) error {
	err := ch.ExchangeDeclare(
		string(b.exchange),
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", b.exchange, err)
	}

	_, err = ch.QueueDeclare(
		string(b.queue),
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", b.queue, err)
	}

	if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
	}

	return nil
}
