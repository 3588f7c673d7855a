package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tutor-server/internal/interfaces"
	"tutor-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultTitleTaskQueue - очередь задач генерации названий комнат.
const DefaultTitleTaskQueue = "room_title_tasks"

// amqpPublisher - часть *amqp.Channel, нужная издателю.
type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQTitlePublisher публикует задачи в durable-очередь через exchange по умолчанию.
type RabbitMQTitlePublisher struct {
	ch        amqpPublisher
	queueName string
	logger    *zap.Logger
}

var _ interfaces.TitleTaskPublisher = (*RabbitMQTitlePublisher)(nil)

// NewRabbitMQTitlePublisher открывает канал и объявляет очередь.
func NewRabbitMQTitlePublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQTitlePublisher, error) {
	if conn == nil {
		return nil, errors.New("rabbitmq connection is nil")
	}
	if queueName == "" {
		queueName = DefaultTitleTaskQueue
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := declareTitleQueue(ch, queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}

	l := logger.Named("TitlePublisher")
	l.Info("Title task queue declared", zap.String("queue", queueName))
	return &RabbitMQTitlePublisher{ch: ch, queueName: queueName, logger: l}, nil
}

func declareTitleQueue(ch *amqp.Channel, queueName string) error {
	_, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}
	return nil
}

// PublishTitleTask отправляет задачу в очередь.
func (p *RabbitMQTitlePublisher) PublishTitleTask(ctx context.Context, payload models.TitleTaskPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal title task: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",          // exchange по умолчанию
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.TaskID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish title task",
			zap.String("taskID", payload.TaskID),
			zap.String("roomID", payload.RoomID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish title task: %w", err)
	}

	p.logger.Debug("Title task published",
		zap.String("taskID", payload.TaskID),
		zap.String("roomID", payload.RoomID.String()),
	)
	return nil
}

// Close закрывает канал.
func (p *RabbitMQTitlePublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
