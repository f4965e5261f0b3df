package sms

import (
	"context"
	"errors"
	"os"
	"testing"

	"speakbook/internal/logger"

	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type stubCreator struct {
	params *openapi.CreateMessageParams
	err    error
}

func (s *stubCreator) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSend(t *testing.T) {
	stub := &stubCreator{}
	tw := &Twilio{api: stub, from: "+15550000000"}

	require.NoError(t, tw.Send(context.Background(), "+919999999999", "Session booked"))
	require.NotNil(t, stub.params)
	assert.Equal(t, "+919999999999", *stub.params.To)
	assert.Equal(t, "+15550000000", *stub.params.From)
	assert.Equal(t, "Session booked", *stub.params.Body)
}

func TestTwilioSend_RejectsLocalNumber(t *testing.T) {
	stub := &stubCreator{}
	tw := &Twilio{api: stub, from: "+15550000000"}

	err := tw.Send(context.Background(), "9999999999", "hi")
	assert.ErrorIs(t, err, ErrInvalidNumber)
	assert.Nil(t, stub.params)
}

func TestTwilioSend_APIError(t *testing.T) {
	tw := &Twilio{api: &stubCreator{err: errors.New("401")}, from: "+15550000000"}
	assert.Error(t, tw.Send(context.Background(), "+919999999999", "hi"))
}

func TestNew(t *testing.T) {
	assert.IsType(t, Disabled{}, New("", "", ""))
	assert.IsType(t, &Twilio{}, New("AC1", "token", "+15550000000"))
	assert.NoError(t, Disabled{}.Send(context.Background(), "x", "y"))
}
