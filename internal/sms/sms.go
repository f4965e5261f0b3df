package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"speakbook/internal/logger"
	"speakbook/internal/metrics"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var ErrInvalidNumber = errors.New("phone number must be in E.164 format")

type Sender interface {
	Send(ctx context.Context, to, body string) error
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type Twilio struct {
	api  messageCreator
	from string
}

func NewTwilio(accountSID, authToken, from string) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &Twilio{api: client.Api, from: from}
}

func (t *Twilio) Send(_ context.Context, to, body string) error {
	if !strings.HasPrefix(to, "+") {
		metrics.RecordSMS("rejected")
		return fmt.Errorf("%w: %q", ErrInvalidNumber, to)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		metrics.RecordSMS("failed")
		return fmt.Errorf("twilio create message: %w", err)
	}

	metrics.RecordSMS("sent")
	if resp != nil && resp.Sid != nil {
		logger.Debugf("SMS sent to %s, sid %s", to, *resp.Sid)
	}
	return nil
}

// Disabled drops messages. Used when no SMS credentials are configured.
type Disabled struct{}

func (Disabled) Send(_ context.Context, to, _ string) error {
	logger.Debugf("SMS disabled, skipping message to %s", to)
	return nil
}

// New picks Twilio when credentials are present.
func New(accountSID, authToken, from string) Sender {
	if accountSID == "" || authToken == "" || from == "" {
		return Disabled{}
	}
	return NewTwilio(accountSID, authToken, from)
}
