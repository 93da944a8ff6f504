// Package queue carries verse-generation jobs from the API to the
// worker over RabbitMQ, with job status tracked in Redis so the API
// can answer polling requests without touching the broker.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// GenerationJob asks the worker to append count generated verses.
type GenerationJob struct {
	ID          string    `json:"id"`
	Count       int       `json:"count"`
	RequestedBy string    `json:"requestedBy"`
	EnqueuedAt  time.Time `json:"enqueuedAt"`
}

// AMQPJobQueue publishes and consumes generation jobs on a durable
// RabbitMQ queue.
type AMQPJobQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
}

// NewAMQPJobQueue dials the broker and declares the durable queue.
func NewAMQPJobQueue(url, queueName string, logger *slog.Logger) (*AMQPJobQueue, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("amqp url required")
	}
	queueName = strings.TrimSpace(queueName)
	if queueName == "" {
		return nil, errors.New("queue name required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPJobQueue{conn: conn, ch: ch, queue: queueName, logger: logger}, nil
}

// Enqueue publishes a job with persistent delivery.
func (q *AMQPJobQueue) Enqueue(ctx context.Context, job GenerationJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.EnqueuedAt,
		Body:         body,
	})
}

// Consume delivers jobs to handler one at a time until ctx is done.
// Handled jobs are acked; jobs the handler rejects are dropped rather
// than requeued so a poison message cannot loop forever.
func (q *AMQPJobQueue) Consume(ctx context.Context, handler func(context.Context, GenerationJob) error) error {
	if err := q.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := q.ch.ConsumeWithContext(ctx, q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			var job GenerationJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				q.logger.Warn("dropping malformed generation job", "message_id", d.MessageId, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			if err := handler(ctx, job); err != nil {
				q.logger.Error("generation job failed", "job_id", job.ID, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Close releases the channel and connection.
func (q *AMQPJobQueue) Close() {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}
