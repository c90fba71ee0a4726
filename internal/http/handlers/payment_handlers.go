package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/middleware"
	"github.com/you/schoolsvc/internal/http/respond"
)

// PaymentHandlers exposes the payment-cycle ledger
type PaymentHandlers struct {
	ledger domain.LedgerService
	policy domain.AccessPolicy
}

func NewPaymentHandlers(ledger domain.LedgerService, policy domain.AccessPolicy) *PaymentHandlers {
	return &PaymentHandlers{ledger: ledger, policy: policy}
}

// ownPayments narrows a payment query to what the caller may see. A read
// grant opens the payment routes to students, but only for their own
// cycles; a student without a reference link sees nothing.
func ownPayments(c *gin.Context, policy domain.AccessPolicy, f *domain.PaymentFilter) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return domain.ErrUnauthenticated
	}
	if user.Role != domain.RoleStudent {
		return nil
	}
	if user.ReferenceID == nil {
		return domain.ErrAccessDenied
	}
	ref := *user.ReferenceID
	if f.StudentID != 0 {
		ref = f.StudentID
	}
	if err := policy.CheckOwnership(user, domain.OwnerStudent, ref); err != nil {
		return err
	}
	f.StudentID = ref
	return nil
}

type createPaymentRequest struct {
	StudentID         uint    `json:"studentId" binding:"required"`
	GroupID           uint    `json:"groupId" binding:"required"`
	CycleStartDate    string  `json:"cycleStartDate" binding:"required"`
	CycleEndDate      string  `json:"cycleEndDate" binding:"required"`
	CycleLessonsCount int     `json:"cycleLessonsCount" binding:"min=0"`
	Amount            float64 `json:"amount" binding:"min=0"`
}

// updatePaymentRequest never carries confirmed; that only moves through Confirm
type updatePaymentRequest struct {
	Amount      *float64 `json:"amount"`
	PaymentDate *string  `json:"paymentDate"`
}

func paymentFilter(c *gin.Context) (domain.PaymentFilter, error) {
	var f domain.PaymentFilter
	var err error
	if f.StudentID, err = queryID(c, "studentId"); err != nil {
		return f, err
	}
	if f.GroupID, err = queryID(c, "groupId"); err != nil {
		return f, err
	}
	f.From, f.To, err = queryPeriod(c)
	return f, err
}

func (h *PaymentHandlers) List(c *gin.Context) {
	filter, err := paymentFilter(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := ownPayments(c, h.policy, &filter); err != nil {
		respond.Error(c, err)
		return
	}
	payments, err := h.ledger.ListPayments(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, payments)
}

func (h *PaymentHandlers) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	p, err := h.ledger.GetPayment(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	scope := domain.PaymentFilter{StudentID: p.StudentID}
	if err := ownPayments(c, h.policy, &scope); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, p)
}

// Create records a cycle entered directly by an admin
func (h *PaymentHandlers) Create(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	start, err := parseDate("cycleStartDate", req.CycleStartDate)
	if err != nil {
		respond.Error(c, err)
		return
	}
	end, err := parseDate("cycleEndDate", req.CycleEndDate)
	if err != nil {
		respond.Error(c, err)
		return
	}

	p := &domain.Payment{
		StudentID:         req.StudentID,
		GroupID:           req.GroupID,
		CycleStartDate:    start,
		CycleEndDate:      end,
		CycleLessonsCount: req.CycleLessonsCount,
		Amount:            req.Amount,
	}
	if err := h.ledger.CreatePayment(c.Request.Context(), p); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusCreated, p)
}

func (h *PaymentHandlers) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	upd := domain.PaymentUpdate{Amount: req.Amount}
	if req.PaymentDate != nil {
		var d time.Time
		if d, err = parseDate("paymentDate", *req.PaymentDate); err != nil {
			respond.Error(c, err)
			return
		}
		upd.PaymentDate = &d
	}

	p, err := h.ledger.UpdatePayment(c.Request.Context(), id, upd)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, p)
}

// Confirm marks a cycle as paid. Confirming twice returns the same cycle.
func (h *PaymentHandlers) Confirm(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	p, err := h.ledger.ConfirmPayment(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, p)
}

// Status is the per-cycle payment status of student :id
func (h *PaymentHandlers) Status(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	status, err := h.ledger.PaymentStatus(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, status)
}

func (h *PaymentHandlers) Notices(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	notices, err := h.ledger.Notices(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, notices)
}
