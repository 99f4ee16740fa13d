package audit

import (
	"context"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
)

// SlogAuditLogger implements domain.AuditLogger by writing one structured line per event
type SlogAuditLogger struct {
	log logging.Logger
}

// NewSlogAuditLogger creates an audit logger on top of log
func NewSlogAuditLogger(log logging.Logger) *SlogAuditLogger {
	return &SlogAuditLogger{log: log.With("component", "audit")}
}

var _ domain.AuditLogger = (*SlogAuditLogger)(nil)

// LogEvent implements domain.AuditLogger
func (a *SlogAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	if event == nil {
		return
	}
	if c := domain.ClientContextFrom(ctx); c != nil && event.IPAddress == "" {
		event.WithClientContext(c)
	}

	args := []any{
		"event_type", string(event.EventType),
		"success", event.Success,
		"timestamp", event.Timestamp,
	}
	args = appendIf(args, "user_id", event.UserID)
	args = appendIf(args, "email", event.Email)
	args = appendIf(args, "phone", event.Phone)
	args = appendIf(args, "ip_address", event.IPAddress)
	args = appendIf(args, "user_agent", event.UserAgent)
	args = appendIf(args, "session_id", event.SessionID)
	args = appendIf(args, "error", event.ErrorMsg)
	for k, v := range event.Metadata {
		args = append(args, "meta_"+k, v)
	}

	if event.Success {
		a.log.Info(ctx, "audit", args...)
		return
	}
	a.log.Warn(ctx, "audit", args...)
}

func appendIf(args []any, key, value string) []any {
	if value == "" {
		return args
	}
	return append(args, key, value)
}
