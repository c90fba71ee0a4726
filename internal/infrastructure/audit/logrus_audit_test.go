package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/schoolsvc/domain"
)

func TestLogrusAuditLogger(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	a := NewLogrusAuditLogger(log)

	ctx := domain.WithClientContext(context.Background(), &domain.ClientContext{IPAddress: "10.0.0.1", UserAgent: "curl"})
	a.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent, 7).
		WithEmail("a@school.test").
		WithMetadata("role", "teacher"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "USER_LOGIN", entry.Data["event"])
	assert.Equal(t, uint(7), entry.Data["user_id"])
	assert.Equal(t, "10.0.0.1", entry.Data["ip"])
	assert.Equal(t, "teacher", entry.Data["meta_role"])
	assert.Equal(t, "audit", entry.Data["component"])

	a.LogEvent(context.Background(), domain.NewAuditEvent(domain.UserLoginFailureEvent, 0).
		WithError(errors.New("invalid email or password")))
	entry = hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, false, entry.Data["success"])

	a.LogEvent(context.Background(), nil)
	assert.Len(t, hook.AllEntries(), 2)
}
