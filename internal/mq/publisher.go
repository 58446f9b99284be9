package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeStatusChanged     MessageType = "container.status_changed"
	MessageTypeDependencyChanged MessageType = "dependency.changed"
	MessageTypeCascadeDetected   MessageType = "cascade.detected"
)

// Действия над рёбрами зависимостей.
const (
	DependencyActionCreated = "created"
	DependencyActionDeleted = "deleted"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// StatusChangedPayload — payload для события перехода статуса.
type StatusChangedPayload struct {
	ContainerType string    `json:"container_type"` // project, feature или task
	ContainerID   uuid.UUID `json:"container_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Flow          string    `json:"flow"`
}

// DependencyChangedPayload — payload для события изменения графа зависимостей.
type DependencyChangedPayload struct {
	DependencyID uuid.UUID `json:"dependency_id"`
	FromTaskID   uuid.UUID `json:"from_task_id"`
	ToTaskID     uuid.UUID `json:"to_task_id"`
	Type         string    `json:"type"`   // BLOCKS или RELATES_TO
	Action       string    `json:"action"` // created или deleted
}

// CascadeDetectedPayload — payload для обнаруженной каскадной рекомендации.
//
// Tracker никогда не применяет рекомендацию сам: потребитель решает,
// выполнять ли предложенный переход.
type CascadeDetectedPayload struct {
	Event           string    `json:"event"` // all_tasks_complete или first_task_started
	TargetType      string    `json:"target_type"`
	TargetID        uuid.UUID `json:"target_id"`
	TargetName      string    `json:"target_name"`
	CurrentStatus   string    `json:"current_status"`
	SuggestedStatus string    `json:"suggested_status"`
	Flow            string    `json:"flow"`
	Automatic       bool      `json:"automatic"`
	Reason          string    `json:"reason"`
}

// publish заворачивает payload в Message и отправляет его в exchange.
func (p *Publisher) publish(ctx context.Context, exchange Exchange, key RoutingKey, msgType MessageType, payload any) error {
	msg := Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(key), false, false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", key,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishStatusChanged публикует событие о применённом переходе статуса.
// Потребитель: Watcher.
func (p *Publisher) PublishStatusChanged(ctx context.Context, payload StatusChangedPayload) error {
	return p.publish(ctx, ExchangeContainers, RoutingKeyChanged, MessageTypeStatusChanged, payload)
}

// PublishDependencyChanged публикует событие о создании или удалении ребра.
// Потребитель: Watcher.
func (p *Publisher) PublishDependencyChanged(ctx context.Context, payload DependencyChangedPayload) error {
	return p.publish(ctx, ExchangeDependencies, RoutingKeyChanged, MessageTypeDependencyChanged, payload)
}

// PublishCascadeDetected публикует обнаруженную каскадную рекомендацию.
// Потребители: внешние агенты (уведомления, автопереходы).
func (p *Publisher) PublishCascadeDetected(ctx context.Context, payload CascadeDetectedPayload) error {
	return p.publish(ctx, ExchangeCascade, RoutingKeyDetected, MessageTypeCascadeDetected, payload)
}
