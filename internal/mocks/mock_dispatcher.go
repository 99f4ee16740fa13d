package mocks

import (
	"context"
	"sync"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// SentSMS records one SendSMS call
type SentSMS struct {
	To   string
	Body string
}

// MockDispatcher implements domain.Dispatcher and records every message
type MockDispatcher struct {
	SendEmailFunc func(ctx context.Context, msg domain.EmailMessage) error
	SendSMSFunc   func(ctx context.Context, to, body string) error

	mu     sync.Mutex
	Emails []domain.EmailMessage
	SMS    []SentSMS
}

var _ domain.Dispatcher = (*MockDispatcher)(nil)

// NewMockDispatcher creates a new MockDispatcher with default behaviors
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) SendEmail(ctx context.Context, msg domain.EmailMessage) error {
	m.mu.Lock()
	m.Emails = append(m.Emails, msg)
	m.mu.Unlock()
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, msg)
	}
	return nil
}

func (m *MockDispatcher) SendSMS(ctx context.Context, to, body string) error {
	m.mu.Lock()
	m.SMS = append(m.SMS, SentSMS{To: to, Body: body})
	m.mu.Unlock()
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, to, body)
	}
	return nil
}

// LastEmail returns the most recent email, or nil
func (m *MockDispatcher) LastEmail() *domain.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Emails) == 0 {
		return nil
	}
	msg := m.Emails[len(m.Emails)-1]
	return &msg
}
