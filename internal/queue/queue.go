package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// InviteTask asks the background worker to invite every shortlisted
// candidate of one job.
type InviteTask struct {
	JobID uint `json:"job_id"`
}

// Queue is a durable RabbitMQ work queue for invite tasks.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	name    string
	logger  *zap.Logger
}

// Connect dials RabbitMQ and declares the durable invite queue.
func Connect(url, name string, logger *zap.Logger) (*Queue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", name, err)
	}

	logger.Info("connected to rabbitmq", zap.String("queue", name))

	return &Queue{conn: conn, channel: ch, name: name, logger: logger}, nil
}

// PublishInvite enqueues one invite task.
func (q *Queue) PublishInvite(ctx context.Context, task InviteTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal invite task: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = q.channel.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish invite task: %w", err)
	}

	q.logger.Info("invite task published", zap.Uint("job_id", task.JobID))
	return nil
}

// ConsumeInvites delivers tasks to the handler one at a time until the
// context is cancelled or the channel closes. Each task is acknowledged
// after the handler returns; there is no redelivery-based retry policy
// beyond broker defaults.
func (q *Queue) ConsumeInvites(ctx context.Context, handler func(context.Context, InviteTask)) error {
	deliveries, err := q.channel.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			var task InviteTask
			if err := json.Unmarshal(d.Body, &task); err != nil {
				q.logger.Warn("dropping malformed invite task", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}

			handler(ctx, task)
			_ = d.Ack(false)
		}
	}
}

// Close tears down the channel and connection.
func (q *Queue) Close() error {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
