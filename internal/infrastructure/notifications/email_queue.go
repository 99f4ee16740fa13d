package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultEmailQueue is the Redis list consumed by the mail worker
const DefaultEmailQueue = "jobs:sendEmail"

// EmailJob is the envelope pushed onto the email queue
type EmailJob struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	EnqueuedAt time.Time           `json:"enqueuedAt"`
	Message    domain.EmailMessage `json:"message"`
}

// RedisEmailQueue enqueues email jobs on a Redis list for an external renderer
type RedisEmailQueue struct {
	client *redis.Client
	queue  string
	now    func() time.Time
}

// NewRedisEmailQueue creates an email queue writing to queue, or DefaultEmailQueue when empty
func NewRedisEmailQueue(client *redis.Client, queue string) *RedisEmailQueue {
	if queue == "" {
		queue = DefaultEmailQueue
	}
	return &RedisEmailQueue{client: client, queue: queue, now: time.Now}
}

// SendEmail enqueues msg for delivery
func (q *RedisEmailQueue) SendEmail(ctx context.Context, msg domain.EmailMessage) error {
	if msg.To == "" {
		return domain.InvalidParameter("Email recipient is required")
	}

	payload, err := json.Marshal(EmailJob{
		ID:         uuid.NewString(),
		Type:       "sendEmail",
		EnqueuedAt: q.now().UTC(),
		Message:    msg,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email job: %w", err)
	}

	if err := q.client.RPush(ctx, q.queue, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}
