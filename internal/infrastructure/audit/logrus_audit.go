package audit

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/you/schoolsvc/domain"
)

// LogrusAuditLogger writes audit events as structured log entries
type LogrusAuditLogger struct {
	log logrus.FieldLogger
}

func NewLogrusAuditLogger(log logrus.FieldLogger) *LogrusAuditLogger {
	return &LogrusAuditLogger{log: log.WithField("component", "audit")}
}

// LogEvent implements domain.AuditLogger. Failed events log at warn level.
func (a *LogrusAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	if event == nil {
		return
	}
	if event.IPAddress == "" {
		event.WithClientContext(domain.ClientContextFrom(ctx))
	}

	fields := logrus.Fields{
		"event":   string(event.EventType),
		"user_id": event.UserID,
		"success": event.Success,
		"at":      event.Timestamp,
	}
	if event.Email != "" {
		fields["email"] = event.Email
	}
	if event.IPAddress != "" {
		fields["ip"] = event.IPAddress
	}
	if event.UserAgent != "" {
		fields["user_agent"] = event.UserAgent
	}
	if event.ErrorMsg != "" {
		fields["error"] = event.ErrorMsg
	}
	for k, v := range event.Metadata {
		fields["meta_"+k] = v
	}

	entry := a.log.WithFields(fields)
	if event.Success {
		entry.Info("audit")
		return
	}
	entry.Warn("audit")
}
