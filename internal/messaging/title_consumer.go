package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"tutor-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// TitleTaskHandler выполняет задачу генерации названия.
type TitleTaskHandler interface {
	HandleTitleTask(ctx context.Context, payload models.TitleTaskPayload) error
}

// acknowledger - подтверждение одной доставки.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// TitleTaskConsumer читает задачи из очереди и передает их обработчику.
type TitleTaskConsumer struct {
	conn        *amqp.Connection
	handler     TitleTaskHandler
	logger      *zap.Logger
	queueName   string
	taskTimeout time.Duration

	mu          sync.Mutex
	channel     *amqp.Channel
	consumerTag string
	cancelFunc  context.CancelFunc
	stopChan    chan struct{}
}

// NewTitleTaskConsumer создает консьюмера. taskTimeout ограничивает одну задачу.
func NewTitleTaskConsumer(conn *amqp.Connection, handler TitleTaskHandler, queueName string, taskTimeout time.Duration, logger *zap.Logger) *TitleTaskConsumer {
	if queueName == "" {
		queueName = DefaultTitleTaskQueue
	}
	return &TitleTaskConsumer{
		conn:        conn,
		handler:     handler,
		logger:      logger.Named("TitleTaskConsumer"),
		queueName:   queueName,
		taskTimeout: taskTimeout,
		stopChan:    make(chan struct{}),
	}
}

// Start запускает обработку в отдельной горутине.
func (c *TitleTaskConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		return errors.New("title task consumer is already running")
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel for title consumer: %w", err)
	}
	if err := declareTitleQueue(ch, c.queueName); err != nil {
		ch.Close()
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("failed to set QoS for title consumer: %w", err)
	}

	c.consumerTag = fmt.Sprintf("title-consumer-%d", time.Now().UnixNano())
	msgs, err := ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to register consumer for '%s': %w", c.queueName, err)
	}
	c.channel = ch

	localCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	stopChan := c.stopChan

	c.logger.Info("Title task consumer started", zap.String("queue", c.queueName))

	go func() {
		defer close(stopChan)
		defer c.cleanupChannel()
		for {
			select {
			case <-localCtx.Done():
				c.logger.Info("Context cancelled, title task consumer stopping")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("RabbitMQ delivery channel closed, title task consumer stopping")
					return
				}
				c.handleDelivery(localCtx, &msg, msg.Body, msg.Redelivered)
			}
		}
	}()
	return nil
}

// handleDelivery: битое сообщение отбрасывается, ошибка обработчика
// возвращает сообщение в очередь один раз.
func (c *TitleTaskConsumer) handleDelivery(ctx context.Context, ack acknowledger, body []byte, redelivered bool) {
	var payload models.TitleTaskPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Error("Failed to decode title task", zap.Error(err), zap.ByteString("body", body))
		if nackErr := ack.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to nack malformed title task", zap.Error(nackErr))
		}
		return
	}

	log := c.logger.With(zap.String("taskID", payload.TaskID), zap.String("roomID", payload.RoomID.String()))

	taskCtx := ctx
	if c.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, c.taskTimeout)
		defer cancel()
	}

	if err := c.handler.HandleTitleTask(taskCtx, payload); err != nil {
		requeue := !redelivered && !errors.Is(err, models.ErrNotFound)
		log.Warn("Title task failed", zap.Bool("requeue", requeue), zap.Error(err))
		if nackErr := ack.Nack(false, requeue); nackErr != nil {
			log.Error("Failed to nack title task", zap.Error(nackErr))
		}
		return
	}

	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error("Failed to ack title task", zap.Error(ackErr))
	}
}

func (c *TitleTaskConsumer) cleanupChannel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Warn("Failed to close consumer channel", zap.Error(err))
		}
		c.channel = nil
	}
}

// Stop останавливает консьюмера и ждет завершения горутины.
func (c *TitleTaskConsumer) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	stopChan := c.stopChan
	c.cancelFunc = nil
	c.mu.Unlock()

	if cancel == nil {
		return errors.New("title task consumer is not running")
	}
	cancel()

	select {
	case <-stopChan:
	case <-time.After(5 * time.Second):
		c.logger.Warn("Timed out waiting for title task consumer to stop")
	}

	c.mu.Lock()
	c.stopChan = make(chan struct{})
	c.mu.Unlock()
	c.logger.Info("Title task consumer stopped")
	return nil
}
