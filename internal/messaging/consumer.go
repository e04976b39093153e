package messaging

import (
	"context"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const maxConnectAttempts = 5

// Connect устанавливает соединение с RabbitMQ с повторами. Возвращает nil,
// если контекст отменен до успешного подключения.
func Connect(ctx context.Context, url string, reconnectDelay time.Duration, logger *zap.Logger) *amqp091.Connection {
	for attempt := 1; ; attempt++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			logger.Info("подключение к RabbitMQ установлено")
			return conn
		}

		logger.Error("не удалось подключиться к RabbitMQ", zap.Int("attempt", attempt), zap.Error(err))
		if attempt >= maxConnectAttempts {
			logger.Fatal("исчерпаны попытки подключения к RabbitMQ")
		}

		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			logger.Info("контекст отменен, прекращаем попытки подключения")
			return nil
		}
	}
}

// DeliveryHandler обрабатывает одно сообщение; true - ack, false - nack
// с возвратом в очередь.
type DeliveryHandler interface {
	HandleDelivery(ctx context.Context, delivery amqp091.Delivery) bool
}

// Consume объявляет durable-очередь и обрабатывает сообщения по одному
// (prefetch 1) до отмены контекста или закрытия канала. При закрытии канала
// возвращается: переподключение - забота вызывающего.
func Consume(ctx context.Context, conn *amqp091.Connection, queueName, consumerName string, handler DeliveryHandler, logger *zap.Logger) {
	if conn == nil {
		logger.Error("нет соединения с RabbitMQ, консьюмер не запущен")
		return
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("не удалось открыть канал консьюмера", zap.Error(err))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		logger.Error("не удалось объявить очередь", zap.String("queue", queueName), zap.Error(err))
		return
	}

	// По одной задаче за раз: отрисовка кадра долгая и дорогая.
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("не удалось настроить QoS", zap.Error(err))
		return
	}

	msgs, err := ch.Consume(q.Name, consumerName, false, false, false, false, nil)
	if err != nil {
		logger.Error("не удалось зарегистрировать консьюмера", zap.String("queue", q.Name), zap.Error(err))
		return
	}

	logger.Info("консьюмер запущен", zap.String("queue", q.Name))

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn("канал консьюмера закрыт")
				return
			}
			if handler.HandleDelivery(ctx, msg) {
				if ackErr := msg.Ack(false); ackErr != nil {
					logger.Error("не удалось подтвердить сообщение", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(ackErr))
				}
			} else {
				if nackErr := msg.Nack(false, true); nackErr != nil {
					logger.Error("не удалось вернуть сообщение в очередь", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(nackErr))
				}
			}
		case <-ctx.Done():
			logger.Info("контекст отменен, останавливаем консьюмера")
			return
		}
	}
}
