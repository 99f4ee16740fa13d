package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/redis/go-redis/v9"
)

// Config bounds OTP traffic per account. Zero values disable the corresponding check.
type Config struct {
	MaxAttempts  int
	AttemptTTL   time.Duration
	ResendWindow time.Duration
}

// OTPLimiterImpl implements domain.OTPLimiter with Redis counters
type OTPLimiterImpl struct {
	client *redis.Client
	config Config
}

// NewOTPLimiter creates a Redis-backed OTP limiter
func NewOTPLimiter(client *redis.Client, config Config) domain.OTPLimiter {
	return &OTPLimiterImpl{client: client, config: config}
}

func resendKey(userID string) string   { return fmt.Sprintf("otp:res:%s", userID) }
func attemptsKey(userID string) string { return fmt.Sprintf("otp:att:%s", userID) }

// AllowIssue implements domain.OTPLimiter. A successful call opens a new resend
// window and resets the attempt counter for the fresh challenge.
func (l *OTPLimiterImpl) AllowIssue(ctx context.Context, userID string) error {
	if l.config.ResendWindow > 0 {
		ok, err := l.client.SetNX(ctx, resendKey(userID), 1, l.config.ResendWindow).Result()
		if err != nil {
			return fmt.Errorf("failed to set resend throttle: %w", err)
		}
		if !ok {
			return domain.ErrOTPResendLimit
		}
	}

	if err := l.client.Del(ctx, attemptsKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to reset attempts counter: %w", err)
	}
	return nil
}

// RegisterAttempt implements domain.OTPLimiter
func (l *OTPLimiterImpl) RegisterAttempt(ctx context.Context, userID string) error {
	if l.config.MaxAttempts <= 0 {
		return nil
	}

	key := attemptsKey(userID)
	attempts, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}
	if attempts == 1 && l.config.AttemptTTL > 0 {
		if err := l.client.Expire(ctx, key, l.config.AttemptTTL).Err(); err != nil {
			return fmt.Errorf("failed to set attempts ttl: %w", err)
		}
	}

	if attempts > int64(l.config.MaxAttempts) {
		return domain.ErrOTPMaxAttempts
	}
	return nil
}

// Reset implements domain.OTPLimiter
func (l *OTPLimiterImpl) Reset(ctx context.Context, userID string) error {
	return l.client.Del(ctx, attemptsKey(userID)).Err()
}
