package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// analysisTask is the queue message scheduling one detached analysis run.
type analysisTask struct {
	MatchID string `json:"match_id"`
}

// RabbitMQ is the production task queue: analysis tasks are published to a
// durable queue and consumed by the worker loop in main. Implements
// service.TaskQueue.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *zap.Logger
}

// NewRabbitMQ connects to the broker and declares the durable queue.
func NewRabbitMQ(url, queueName string, logger *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	logger.Info("connected to RabbitMQ", zap.String("queue", q.Name))
	return &RabbitMQ{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

// Enqueue publishes an analysis task for the given match id.
func (r *RabbitMQ) Enqueue(ctx context.Context, matchID string) error {
	body, err := json.Marshal(analysisTask{MatchID: matchID})
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		pubCtx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume delivers queued match ids to handler until the channel closes.
// Malformed messages are dropped with a log line.
func (r *RabbitMQ) Consume(ctx context.Context, handler func(ctx context.Context, matchID string)) error {
	msgs, err := r.channel.Consume(
		r.queue.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			var task analysisTask
			if err := json.Unmarshal(d.Body, &task); err != nil {
				r.logger.Warn("invalid task payload", zap.Error(err))
				continue
			}
			handler(ctx, task.MatchID)
		}
	}()
	return nil
}

// Close shuts down the channel and connection.
func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}
