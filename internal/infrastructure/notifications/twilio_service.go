package notifications

import (
	"context"
	"fmt"

	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST API used for SMS
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSMSSender sends SMS through Twilio
type TwilioSMSSender struct {
	api        messageCreator
	fromNumber string
	log        logging.Logger
}

// NewTwilioSMSSender creates a Twilio SMS sender. With an empty fromNumber
// messages are logged instead of sent.
func NewTwilioSMSSender(accountSID, authToken, fromNumber string, log logging.Logger) *TwilioSMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSMSSender{
		api:        client.Api,
		fromNumber: fromNumber,
		log:        log.With("component", "sms"),
	}
}

// SendSMS delivers body to the phone number to
func (t *TwilioSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if t.fromNumber == "" {
		t.log.Warn(ctx, "sms sender not configured, message not sent", "to", to)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(body)

	msg, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	if msg != nil && msg.Sid != nil {
		t.log.Debug(ctx, "sms sent", "to", to, "sid", *msg.Sid)
	}
	return nil
}
