package notifications

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridService sends email reminders
type SendGridService struct {
	key  string
	from *sgmail.Email
	host string
	do   func(rest.Request) (*rest.Response, error)
	log  logrus.FieldLogger
}

func NewSendGridService(key, fromName, fromEmail string, log logrus.FieldLogger) *SendGridService {
	return &SendGridService{
		key:  key,
		from: sgmail.NewEmail(fromName, fromEmail),
		host: sendgridHost,
		do:   sendgrid.API,
		log:  log,
	}
}

// SendEmail logs instead of sending when no API key is configured
func (s *SendGridService) SendEmail(to, subject, body string) error {
	if s.key == "" {
		s.log.WithFields(logrus.Fields{"to": to, "channel": "email", "subject": subject}).
			Info("email delivery disabled, message dropped")
		return nil
	}

	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail("", to))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", body))

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := s.do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("failed to send email: sendgrid status %d", res.StatusCode)
	}
	return nil
}
