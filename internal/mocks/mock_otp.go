package mocks

import (
	"context"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// MockOTPGenerator implements domain.OTPGenerator for testing
type MockOTPGenerator struct {
	GenerateFunc func() (domain.OTPChallenge, error)
}

var _ domain.OTPGenerator = (*MockOTPGenerator)(nil)

// NewMockOTPGenerator creates a generator that always returns code, valid for 15 minutes
func NewMockOTPGenerator(code string) *MockOTPGenerator {
	return &MockOTPGenerator{
		GenerateFunc: func() (domain.OTPChallenge, error) {
			return domain.OTPChallenge{Code: code, ExpiresAt: time.Now().Add(15 * time.Minute)}, nil
		},
	}
}

func (m *MockOTPGenerator) Generate() (domain.OTPChallenge, error) {
	return m.GenerateFunc()
}

// MockOTPLimiter implements domain.OTPLimiter for testing
type MockOTPLimiter struct {
	AllowIssueFunc      func(ctx context.Context, userID string) error
	RegisterAttemptFunc func(ctx context.Context, userID string) error
	ResetFunc           func(ctx context.Context, userID string) error
}

var _ domain.OTPLimiter = (*MockOTPLimiter)(nil)

// NewMockOTPLimiter creates a limiter that allows everything
func NewMockOTPLimiter() *MockOTPLimiter {
	return &MockOTPLimiter{}
}

func (m *MockOTPLimiter) AllowIssue(ctx context.Context, userID string) error {
	if m.AllowIssueFunc != nil {
		return m.AllowIssueFunc(ctx, userID)
	}
	return nil
}

func (m *MockOTPLimiter) RegisterAttempt(ctx context.Context, userID string) error {
	if m.RegisterAttemptFunc != nil {
		return m.RegisterAttemptFunc(ctx, userID)
	}
	return nil
}

func (m *MockOTPLimiter) Reset(ctx context.Context, userID string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, userID)
	}
	return nil
}
