package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler — функция обработки сообщения.
// Ненулевая ошибка означает неудачную обработку: сообщение будет nack.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение с методами ack/nack.
type Delivery struct {
	// Message — распарсенное сообщение.
	Message Message

	// Raw — сырое AMQP сообщение.
	Raw amqp.Delivery
}

// Ack подтверждает успешную обработку сообщения.
func (d *Delivery) Ack() error {
	return d.Raw.Ack(false)
}

// Nack отклоняет сообщение.
// requeue=true — вернуть в очередь, false — отправить в DLQ.
func (d *Delivery) Nack(requeue bool) error {
	return d.Raw.Nack(false, requeue)
}

// Consumer потребляет сообщения из одной очереди RabbitMQ.
//
// Переживает разрывы соединения: при закрытии потока доставок ждёт
// сигнала ReconnectNotify и подписывается заново.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    string
	handler  Handler
	prefetch int

	stop context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue string

	// Handler — обработчик сообщений.
	Handler Handler

	// Prefetch — количество сообщений для предварительной загрузки.
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Start запускает цикл потребления. Блокирует до отмены контекста
// или вызова Stop.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.stop = cancel

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		stream, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
			if err := c.awaitReconnect(ctx); err != nil {
				return err
			}
			continue
		}

		c.logger.Info("consumer started")

		if err := c.drain(ctx, stream); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("delivery stream closed, resubscribing")
			if err := c.awaitReconnect(ctx); err != nil {
				return err
			}
		}
	}
}

// Stop прерывает цикл потребления.
func (c *Consumer) Stop() {
	if c.stop != nil {
		c.stop()
	}
}

// awaitReconnect блокирует до восстановления соединения.
func (c *Consumer) awaitReconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.conn.ReconnectNotify():
		c.logger.Info("reconnected, restarting consumer")
		return nil
	}
}

// subscribe выставляет prefetch и открывает поток доставок.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, fmt.Errorf("no channel available")
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	stream, err := ch.Consume(
		c.queue,
		"tracker-"+c.queue, // consumer tag
		false,              // auto-ack выключен, подтверждаем вручную
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return stream, nil
}

// drain читает поток доставок до его закрытия или отмены контекста.
func (c *Consumer) drain(ctx context.Context, stream <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-stream:
			if !ok {
				return fmt.Errorf("delivery stream closed")
			}
			c.dispatch(ctx, raw)
		}
	}
}

// dispatch декодирует одно сообщение и передаёт его обработчику.
func (c *Consumer) dispatch(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		// Сообщение не станет валидным при повторе — сразу в DLQ
		c.logger.Error("failed to unmarshal message", "error", err, "body", string(raw.Body))
		raw.Nack(false, false)
		return
	}

	c.logger.Debug("received message", "message_id", msg.ID, "type", msg.Type)

	if err := c.handler(ctx, &Delivery{Message: msg, Raw: raw}); err != nil {
		// Первая неудача — retry через очередь; повторная — в DLQ,
		// чтобы битое сообщение не крутилось бесконечно
		requeue := !raw.Redelivered
		c.logger.Error("handler failed",
			"message_id", msg.ID,
			"type", msg.Type,
			"requeue", requeue,
			"error", err,
		)
		raw.Nack(false, requeue)
		return
	}

	raw.Ack(false)
}

// ParsePayload приводит payload сообщения к конкретному типу.
//
// После json.Unmarshal всего сообщения payload оказывается map'ой;
// publisher кладёт в него структуру напрямую. Оба случая сводятся
// к типу T через повторную JSON сериализацию.
func ParsePayload[T any](msg *Message) (T, error) {
	var out T

	raw, ok := msg.Payload.(json.RawMessage)
	if !ok {
		encoded, err := json.Marshal(msg.Payload)
		if err != nil {
			return out, fmt.Errorf("marshal payload: %w", err)
		}
		raw = encoded
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal payload: %w", err)
	}

	return out, nil
}
