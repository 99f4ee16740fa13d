package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Verification events
	OTPIssuedEvent        AuditEventType = "OTP_ISSUED"
	OTPIssueFailureEvent  AuditEventType = "OTP_ISSUE_FAILED"
	OTPVerifiedEvent      AuditEventType = "OTP_VERIFIED"
	OTPVerifyFailureEvent AuditEventType = "OTP_VERIFICATION_FAILED"
	PasswordResetEvent    AuditEventType = "PASSWORD_RESET"
	PasswordChangedEvent  AuditEventType = "PASSWORD_CHANGED"
	UsernameReminderEvent AuditEventType = "USERNAME_REMINDER_SENT"
	AdminCredentialsEvent AuditEventType = "ADMIN_CREDENTIALS_SENT"

	// Account events
	UserRegistrationEvent AuditEventType = "USER_REGISTERED"
	AdminCreatedEvent     AuditEventType = "ADMIN_CREATED"
	AccountDeletedEvent   AuditEventType = "ACCOUNT_DELETED"

	// Authentication events
	UserLoginEvent        AuditEventType = "USER_LOGIN"
	UserLoginFailureEvent AuditEventType = "USER_LOGIN_FAILED"
	UserLogoutEvent       AuditEventType = "USER_LOGOUT"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType AuditEventType    `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	ErrorMsg  string            `json:"error_msg,omitempty"`
	Success   bool              `json:"success"`
}

// AuditLogger records audit events. Implementations must not fail the calling operation.
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent)
}

// ClientContext represents client information extracted from HTTP request
type ClientContext struct {
	IPAddress string
	UserAgent string
	SessionID string
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, userID string) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]string),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithPhone sets the phone field
func (e *AuditEvent) WithPhone(phone string) *AuditEvent {
	e.Phone = phone
	return e
}

// WithClientContext sets client context information
func (e *AuditEvent) WithClientContext(ctx *ClientContext) *AuditEvent {
	if ctx != nil {
		e.IPAddress = ctx.IPAddress
		e.UserAgent = ctx.UserAgent
		e.SessionID = ctx.SessionID
	}
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key, value string) *AuditEvent {
	e.Metadata[key] = value
	return e
}
