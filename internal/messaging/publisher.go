package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ Publisher = (*rabbitPublisher)(nil)

// rabbitPublisher публикует сообщения в durable-очередь через default
// exchange. Канал защищен мьютексом: amqp-каналы не потокобезопасны.
type rabbitPublisher struct {
	ch        *amqp091.Channel
	queueName string
	logger    *zap.Logger
	mu        sync.Mutex
}

func NewRabbitPublisher(conn *amqp091.Connection, queueName string, logger *zap.Logger) (Publisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queueName, err)
	}

	return &rabbitPublisher{
		ch:        ch,
		queueName: queueName,
		logger:    logger.Named("RabbitPublisher").With(zap.String("queue", queueName)),
	}, nil
}

func (p *rabbitPublisher) Publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := p.ch.PublishWithContext(pubCtx,
		"",          // default exchange
		p.queueName, // routing key = имя очереди
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		p.logger.Error("не удалось опубликовать сообщение", zap.Error(err))
		return fmt.Errorf("failed to publish to %q: %w", p.queueName, err)
	}

	p.logger.Debug("сообщение опубликовано", zap.Int("bytes", len(body)))
	return nil
}

func (p *rabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}
