package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/metrics"
)

// ReminderReport summarises one reminder run
type ReminderReport struct {
	Overdue    int `json:"overdue"`
	Students   int `json:"students"`
	SMSSent    int `json:"smsSent"`
	EmailsSent int `json:"emailsSent"`
	Failures   int `json:"failures"`
}

// ReminderService notifies students and parents about overdue cycles
type ReminderService struct {
	payments domain.PaymentRepository
	students domain.StudentRepository
	notifier domain.NotificationService
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewReminderService(
	payments domain.PaymentRepository,
	students domain.StudentRepository,
	notifier domain.NotificationService,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *ReminderService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReminderService{
		payments: payments,
		students: students,
		notifier: notifier,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Run sends one reminder per student with overdue cycles. A failure for one
// student is logged and counted; the run continues.
func (r *ReminderService) Run(ctx context.Context) (*ReminderReport, error) {
	now := r.now()
	overdue, err := r.payments.ListOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue cycles: %w", err)
	}

	report := &ReminderReport{Overdue: len(overdue)}
	byStudent := map[uint][]domain.Payment{}
	var order []uint
	for _, p := range overdue {
		if _, ok := byStudent[p.StudentID]; !ok {
			order = append(order, p.StudentID)
		}
		byStudent[p.StudentID] = append(byStudent[p.StudentID], p)
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Students++
		log := r.log.WithField("student_id", id)

		student, err := r.students.FindByID(ctx, id)
		if err != nil {
			report.Failures++
			log.WithError(err).Warn("reminder skipped: student lookup failed")
			continue
		}
		msg := reminderText(student, byStudent[id])

		if student.ParentPhone != "" {
			err := r.notifier.SendSMS(student.ParentPhone, msg)
			r.metrics.Reminder("sms", err)
			if err != nil {
				report.Failures++
				log.WithError(err).Warn("reminder sms failed")
			} else {
				report.SMSSent++
			}
		}
		if student.Email != "" {
			err := r.notifier.SendEmail(student.Email, "Payment overdue", msg)
			r.metrics.Reminder("email", err)
			if err != nil {
				report.Failures++
				log.WithError(err).Warn("reminder email failed")
			} else {
				report.EmailsSent++
			}
		}
	}

	r.log.WithFields(logrus.Fields{
		"overdue":  report.Overdue,
		"students": report.Students,
		"sms":      report.SMSSent,
		"emails":   report.EmailsSent,
		"failures": report.Failures,
	}).Info("reminder run finished")
	return report, nil
}

func reminderText(s *domain.Student, cycles []domain.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s has %d unconfirmed payment cycle(s):", s.FirstName, s.LastName, len(cycles))
	for _, c := range cycles {
		fmt.Fprintf(&b, " group %d ended %s (%.2f due);", c.GroupID, c.CycleEndDate.Format("2006-01-02"), c.Amount-c.AmountPaid)
	}
	return strings.TrimSuffix(b.String(), ";")
}
