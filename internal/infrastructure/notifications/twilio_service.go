package notifications

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender is the part of the twilio client the service uses
type SMSSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioService sends SMS reminders
type TwilioService struct {
	api        SMSSender
	fromNumber string
	log        logrus.FieldLogger
}

// NewTwilioService creates a new Twilio SMS sender
func NewTwilioService(accountSID, authToken, fromNumber string, log logrus.FieldLogger) *TwilioService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioService(client.Api, fromNumber, log)
}

func newTwilioService(api SMSSender, fromNumber string, log logrus.FieldLogger) *TwilioService {
	return &TwilioService{api: api, fromNumber: fromNumber, log: log}
}

// SendSMS logs instead of sending when no sender number is configured
func (t *TwilioService) SendSMS(to, message string) error {
	if t.fromNumber == "" {
		t.log.WithFields(logrus.Fields{"to": to, "channel": "sms"}).Info("sms delivery disabled, message dropped")
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	if _, err := t.api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}
