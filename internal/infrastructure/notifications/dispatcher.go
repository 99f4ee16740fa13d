package notifications

import (
	"context"
	"fmt"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

// EmailSender delivers templated email
type EmailSender interface {
	SendEmail(ctx context.Context, msg domain.EmailMessage) error
}

// SMSSender delivers text messages
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// DispatcherImpl implements domain.Dispatcher over an email and an SMS transport
type DispatcherImpl struct {
	email EmailSender
	sms   SMSSender
}

// NewDispatcher combines the two transports
func NewDispatcher(email EmailSender, sms SMSSender) domain.Dispatcher {
	return &DispatcherImpl{email: email, sms: sms}
}

// SendEmail implements domain.Dispatcher. Failures wrap domain.ErrDispatchFailed.
func (d *DispatcherImpl) SendEmail(ctx context.Context, msg domain.EmailMessage) error {
	if err := d.email.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrDispatchFailed, msg.Template, err)
	}
	return nil
}

// SendSMS implements domain.Dispatcher. Failures wrap domain.ErrDispatchFailed.
func (d *DispatcherImpl) SendSMS(ctx context.Context, to, body string) error {
	if to == "" {
		return fmt.Errorf("%w: %w", domain.ErrDispatchFailed, domain.InvalidParameter("SMS recipient is required"))
	}
	if err := d.sms.SendSMS(ctx, to, body); err != nil {
		return fmt.Errorf("%w: sms: %w", domain.ErrDispatchFailed, err)
	}
	return nil
}
