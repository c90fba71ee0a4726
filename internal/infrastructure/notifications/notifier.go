package notifications

// Notifier combines the SMS and email channels into a domain.NotificationService
type Notifier struct {
	sms   *TwilioService
	email *SendGridService
}

func NewNotifier(sms *TwilioService, email *SendGridService) *Notifier {
	return &Notifier{sms: sms, email: email}
}

func (n *Notifier) SendSMS(to, message string) error { return n.sms.SendSMS(to, message) }

func (n *Notifier) SendEmail(to, subject, body string) error {
	return n.email.SendEmail(to, subject, body)
}
