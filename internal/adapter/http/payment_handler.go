package http

import (
	"net/http"
	"time"

	"microfinance-backoffice/internal/domain/payment"
	loanuc "microfinance-backoffice/internal/usecase/loan"
	paymentuc "microfinance-backoffice/internal/usecase/payment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	uc    *paymentuc.Usecase
	loans *loanuc.Usecase
	log   *zap.Logger
	now   func() time.Time
}

func NewPaymentHandler(uc *paymentuc.Usecase, loans *loanuc.Usecase, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{uc: uc, loans: loans, log: log, now: func() time.Time { return time.Now().UTC() }}
}

type paymentIdentity struct {
	LoanApplicationID string `json:"loan_application_id" validate:"required,hex32"`
	CustomerID        string `json:"customer_id"         validate:"required,hex32"`
	AgentID           string `json:"agent_id"            validate:"required,hex32"`
	BranchID          string `json:"branch_id"           validate:"required,hex32"`
}

type recordPaymentReq struct {
	paymentIdentity
	PaymentDate     string          `json:"payment_date"     validate:"required,datetime=2006-01-02"`
	ExpectedAmount  decimal.Decimal `json:"expected_amount"  validate:"gte=0,dec2"`
	ActualAmount    decimal.Decimal `json:"actual_amount"    validate:"gte=0,dec2"`
	PaymentMethod   string          `json:"payment_method"   validate:"omitempty,oneof=cash bank_transfer mobile_money check"`
	Notes           *string         `json:"notes"            validate:"omitempty,max=1000"`
	ExpectedVersion *int64          `json:"expected_version" validate:"omitempty,gte=0"`
}

func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	var req recordPaymentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	method := payment.Method(req.PaymentMethod)
	if method == "" {
		method = payment.MethodCash
	}
	res, err := h.uc.RecordPayment(c.Request().Context(), paymentuc.RecordInput{
		Actor:             actor(c),
		LoanApplicationID: req.LoanApplicationID,
		CustomerID:        req.CustomerID,
		AgentID:           req.AgentID,
		BranchID:          req.BranchID,
		PaymentDate:       mustDate(req.PaymentDate),
		ExpectedAmount:    req.ExpectedAmount,
		ActualAmount:      req.ActualAmount,
		PaymentMethod:     method,
		Notes:             req.Notes,
		ExpectedVersion:   req.ExpectedVersion,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Schedule lists collections: a loan's full schedule with ?loan_id=, else
// the agent's collections for ?date= (today by default).
func (h *PaymentHandler) Schedule(c echo.Context) error {
	ctx := c.Request().Context()
	a := actor(c)

	if loanID := c.QueryParam("loan_id"); loanID != "" {
		if _, err := h.loans.Get(ctx, a, loanID); err != nil {
			return respondError(c, h.log, err)
		}
		out, err := h.uc.LoanSchedule(ctx, loanID)
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(http.StatusOK, out)
	}

	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "date must be formatted " + dateLayout})
	}
	if date.IsZero() {
		date = h.now()
	}
	agentID := c.QueryParam("agent_id")
	_, agentID = a.Scope("", agentID)
	if agentID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "agent_id or loan_id is required"})
	}
	out, err := h.uc.AgentSchedule(ctx, agentID, date)
	if err != nil {
		return respondError(c, h.log, err)
	}
	// sub-admins may only read agents of their own branch
	visible := out[:0]
	for _, p := range out {
		if a.Covers(p.BranchID, p.AgentID) {
			visible = append(visible, p)
		}
	}
	return c.JSON(http.StatusOK, visible)
}

func (h *PaymentHandler) Weekly(c echo.Context) error {
	week, err := parseDate(c.QueryParam("week_start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "week_start must be formatted " + dateLayout})
	}
	if week.IsZero() {
		week = h.now()
	}
	f := payment.WeeklyFilter{WeekStart: week, AgentID: c.QueryParam("agent_id"), BranchID: c.QueryParam("branch_id")}
	f.BranchID, f.AgentID = actor(c).Scope(f.BranchID, f.AgentID)
	out, err := h.uc.WeeklyTracking(c.Request().Context(), f)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

type weeklyReq struct {
	paymentIdentity
	WeekStart string          `json:"week_start" validate:"required,datetime=2006-01-02"`
	Day       string          `json:"day"        validate:"required"`
	Amount    decimal.Decimal `json:"amount"     validate:"gte=0,dec2"`
	Paid      bool            `json:"paid"`
}

func (h *PaymentHandler) UpdateWeekly(c echo.Context) error {
	var req weeklyReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	row, err := h.uc.UpdateWeeklyTracking(c.Request().Context(), paymentuc.WeeklyInput{
		Actor:             actor(c),
		LoanApplicationID: req.LoanApplicationID,
		CustomerID:        req.CustomerID,
		AgentID:           req.AgentID,
		BranchID:          req.BranchID,
		WeekStart:         mustDate(req.WeekStart),
		Day:               req.Day,
		Amount:            req.Amount,
		Paid:              req.Paid,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, row)
}

type transactionReq struct {
	LoanApplicationID *string         `json:"loan_application_id" validate:"omitempty,hex32"`
	CustomerID        string          `json:"customer_id"         validate:"required,hex32"`
	AgentID           string          `json:"agent_id"            validate:"required,hex32"`
	BranchID          string          `json:"branch_id"           validate:"required,hex32"`
	TransactionType   string          `json:"transaction_type"    validate:"required,oneof=loan_disbursement daily_payment penalty refund"`
	Amount            decimal.Decimal `json:"amount"              validate:"gt=0,dec2"`
	PaymentMethod     *string         `json:"payment_method"      validate:"omitempty,oneof=cash bank_transfer mobile_money check"`
	ReferenceNumber   string          `json:"reference_number"    validate:"omitempty,max=64"`
	Description       *string         `json:"description"         validate:"omitempty,max=1000"`
}

func (h *PaymentHandler) CreateTransaction(c echo.Context) error {
	var req transactionReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := paymentuc.TransactionInput{
		Actor:             actor(c),
		LoanApplicationID: req.LoanApplicationID,
		CustomerID:        req.CustomerID,
		AgentID:           req.AgentID,
		BranchID:          req.BranchID,
		TransactionType:   payment.TransactionType(req.TransactionType),
		Amount:            req.Amount,
		ReferenceNumber:   req.ReferenceNumber,
		Description:       req.Description,
	}
	if req.PaymentMethod != nil {
		m := payment.Method(*req.PaymentMethod)
		in.PaymentMethod = &m
	}
	tx, err := h.uc.CreateTransaction(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, tx)
}

func (h *PaymentHandler) Transactions(c echo.Context) error {
	f := payment.TransactionFilter{
		BranchID:   c.QueryParam("branch_id"),
		AgentID:    c.QueryParam("agent_id"),
		CustomerID: c.QueryParam("customer_id"),
		LoanID:     c.QueryParam("loan_id"),
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		d, err := parseDate(c.QueryParam(name))
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: name + " must be formatted " + dateLayout})
		}
		if !d.IsZero() {
			*dst = &d
		}
	}
	out, err := h.uc.Transactions(c.Request().Context(), actor(c), f)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
