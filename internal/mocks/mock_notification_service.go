package mocks

import (
	"sync"

	"github.com/you/schoolsvc/domain"
)

// SentMessage is one notification captured by MockNotificationService
type SentMessage struct {
	Channel string
	To      string
	Subject string
	Body    string
}

// MockNotificationService implements domain.NotificationService interface for testing
type MockNotificationService struct {
	SendSMSFunc   func(to, message string) error
	SendEmailFunc func(to, subject, body string) error

	mu   sync.Mutex
	Sent []SentMessage
}

// NewMockNotificationService creates a new MockNotificationService with default behaviors
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendSMS records the message, then defers to SendSMSFunc
func (m *MockNotificationService) SendSMS(to, message string) error {
	m.record(SentMessage{Channel: "sms", To: to, Body: message})
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(to, message)
	}
	return nil
}

// SendEmail records the message, then defers to SendEmailFunc
func (m *MockNotificationService) SendEmail(to, subject, body string) error {
	m.record(SentMessage{Channel: "email", To: to, Subject: subject, Body: body})
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(to, subject, body)
	}
	return nil
}

func (m *MockNotificationService) record(msg SentMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
}

// Compile-time interface compliance verification
var _ domain.NotificationService = (*MockNotificationService)(nil)
