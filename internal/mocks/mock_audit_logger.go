package mocks

import (
	"context"
	"sync"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// MockAuditLogger implements domain.AuditLogger and keeps every event
type MockAuditLogger struct {
	mu     sync.Mutex
	Events []*domain.AuditEvent
}

var _ domain.AuditLogger = (*MockAuditLogger)(nil)

// NewMockAuditLogger creates a new MockAuditLogger
func NewMockAuditLogger() *MockAuditLogger {
	return &MockAuditLogger{}
}

func (m *MockAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// Count returns how many events of type t were logged
func (m *MockAuditLogger) Count(t domain.AuditEventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.EventType == t {
			n++
		}
	}
	return n
}
