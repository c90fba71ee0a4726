package domain

import (
	"fmt"
	"sort"
	"time"
)

// DefaultLessonsPerCycle is the billing block size when a group does not set one
const DefaultLessonsPerCycle = 8

// Payment is one billing cycle of a student in a group
type Payment struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	StudentID         uint       `json:"studentId" gorm:"index:idx_payment_cycle,unique"`
	GroupID           uint       `json:"groupId" gorm:"index:idx_payment_cycle,unique"`
	CycleStartDate    time.Time  `json:"cycleStartDate" gorm:"index:idx_payment_cycle,unique"`
	CycleEndDate      time.Time  `json:"cycleEndDate" gorm:"index"`
	CycleLessonsCount int        `json:"cycleLessonsCount"`
	LastLessonDate    *time.Time `json:"lastLessonDate,omitempty"`
	Amount            float64    `json:"amount"`
	AmountPaid        float64    `json:"amountPaid"`
	PaymentDate       *time.Time `json:"paymentDate"`
	Confirmed         bool       `json:"confirmed" gorm:"index"`
	ConfirmedAt       *time.Time `json:"confirmedAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// PaymentState is the lifecycle position of a cycle
type PaymentState string

const (
	PaymentOpen                PaymentState = "open"
	PaymentPendingConfirmation PaymentState = "pending_confirmation"
	PaymentConfirmed           PaymentState = "confirmed"
)

// State derives the lifecycle state at now. Confirmed is terminal.
func (p *Payment) State(now time.Time) PaymentState {
	switch {
	case p.Confirmed:
		return PaymentConfirmed
	case now.After(p.CycleEndDate):
		return PaymentPendingConfirmation
	default:
		return PaymentOpen
	}
}

// CoveredUntil is the last lesson day the cycle bills. Cycles entered by
// hand carry no lesson dates and cover their whole period.
func (p *Payment) CoveredUntil() time.Time {
	if p.LastLessonDate != nil {
		return *p.LastLessonDate
	}
	return p.CycleEndDate
}

// LessonRecord is the outcome of recording one lesson. CyclePending is set
// when the lesson completed a billing block but the cycle could not be
// opened; the next recorded lesson retries.
type LessonRecord struct {
	Attendance   *Attendance `json:"attendance"`
	OpenedCycle  *Payment    `json:"openedCycle"`
	CyclePending bool        `json:"cyclePending"`
}

// Overdue reports an unconfirmed cycle whose end date has passed
func (p *Payment) Overdue(now time.Time) bool {
	return p.State(now) == PaymentPendingConfirmation
}

// PaymentFilter narrows payment listings; zero values are ignored
type PaymentFilter struct {
	StudentID uint
	GroupID   uint
	From      *time.Time
	To        *time.Time
}

// PaymentUpdate holds the fields an admin may edit on a cycle
type PaymentUpdate struct {
	Amount      *float64
	PaymentDate *time.Time
}

// PaymentStatus is the per-cycle view of a student's billing, projected from payments
type PaymentStatus struct {
	PaymentID      uint         `json:"paymentId"`
	GroupID        uint         `json:"groupId"`
	CycleStartDate time.Time    `json:"cycleStartDate"`
	CycleEndDate   time.Time    `json:"cycleEndDate"`
	LessonsCount   int          `json:"lessonsCount"`
	AmountDue      float64      `json:"amountDue"`
	AmountPaid     float64      `json:"amountPaid"`
	Confirmed      bool         `json:"confirmed"`
	State          PaymentState `json:"state"`
}

// ProjectPaymentStatus builds the status list ordered by group then cycle start
func ProjectPaymentStatus(payments []Payment, now time.Time) []PaymentStatus {
	out := make([]PaymentStatus, 0, len(payments))
	for i := range payments {
		p := &payments[i]
		out = append(out, PaymentStatus{
			PaymentID:      p.ID,
			GroupID:        p.GroupID,
			CycleStartDate: p.CycleStartDate,
			CycleEndDate:   p.CycleEndDate,
			LessonsCount:   p.CycleLessonsCount,
			AmountDue:      p.Amount,
			AmountPaid:     p.AmountPaid,
			Confirmed:      p.Confirmed,
			State:          p.State(now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].CycleStartDate.Before(out[j].CycleStartDate)
	})
	return out
}

// NoticeKind classifies an advisory payment signal
type NoticeKind string

const (
	NoticeCycleDue NoticeKind = "cycle_due"
	NoticeOverdue  NoticeKind = "overdue"
)

// NoticeSeverity orders notices for display
type NoticeSeverity string

const (
	SeverityWarning  NoticeSeverity = "warning"
	SeverityCritical NoticeSeverity = "critical"
)

// PaymentNotice is an advisory signal computed from ledger reads. It never blocks anything.
type PaymentNotice struct {
	Kind         NoticeKind     `json:"kind"`
	Severity     NoticeSeverity `json:"severity"`
	StudentID    uint           `json:"studentId"`
	GroupID      uint           `json:"groupId"`
	PaymentID    *uint          `json:"paymentId,omitempty"`
	LessonCount  int            `json:"lessonCount"`
	CycleEndDate *time.Time     `json:"cycleEndDate,omitempty"`
	Message      string         `json:"message"`
}

// BuildNotices evaluates the notification policy for one student in one group.
// cycles must all belong to that pair.
func BuildNotices(studentID, groupID uint, lessonCount, cycleLength int, cycles []Payment, now time.Time) []PaymentNotice {
	if cycleLength <= 0 {
		cycleLength = DefaultLessonsPerCycle
	}
	var notices []PaymentNotice

	var latest *Payment
	for i := range cycles {
		if latest == nil || cycles[i].CycleStartDate.After(latest.CycleStartDate) {
			latest = &cycles[i]
		}
	}
	if lessonCount >= cycleLength && (latest == nil || !latest.Confirmed) {
		n := PaymentNotice{
			Kind:        NoticeCycleDue,
			Severity:    SeverityWarning,
			StudentID:   studentID,
			GroupID:     groupID,
			LessonCount: lessonCount,
			Message:     fmt.Sprintf("%d lessons recorded; latest cycle is not confirmed", lessonCount),
		}
		if latest != nil {
			id := latest.ID
			end := latest.CycleEndDate
			n.PaymentID = &id
			n.CycleEndDate = &end
		}
		notices = append(notices, n)
	}

	for i := range cycles {
		c := &cycles[i]
		if !c.Overdue(now) {
			continue
		}
		id := c.ID
		end := c.CycleEndDate
		notices = append(notices, PaymentNotice{
			Kind:         NoticeOverdue,
			Severity:     SeverityCritical,
			StudentID:    studentID,
			GroupID:      groupID,
			PaymentID:    &id,
			LessonCount:  lessonCount,
			CycleEndDate: &end,
			Message:      fmt.Sprintf("cycle ended %s and is not confirmed", end.Format("2006-01-02")),
		})
	}
	return notices
}
