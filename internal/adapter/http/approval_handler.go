package http

import (
	"net/http"

	ucApproval "microfinance-backoffice/internal/usecase/approval"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ApprovalHandler struct {
	uc  *ucApproval.Usecase
	log *zap.Logger
}

func NewApprovalHandler(uc *ucApproval.Usecase, log *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{uc: uc, log: log}
}

type approveLoanReq struct {
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

func (h *ApprovalHandler) ApproveLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req approveLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Approve(c.Request().Context(), ucApproval.ApproveInput{LoanID: loanID, Actor: actor(c), Notes: req.Notes})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type rejectLoanReq struct {
	Reason string `json:"rejection_reason" validate:"required,max=1000"`
}

func (h *ApprovalHandler) RejectLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req rejectLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), ucApproval.RejectInput{LoanID: loanID, Actor: actor(c), Reason: req.Reason})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Dates use the canonical `YYYY-MM-DD` of the DATE columns.
type disburseLoanReq struct {
	DisbursementDate string  `json:"disbursement_date" validate:"required,datetime=2006-01-02"`
	StartDate        string  `json:"start_date"        validate:"required,datetime=2006-01-02"`
	EndDate          string  `json:"end_date"          validate:"required,datetime=2006-01-02"`
	Notes            *string `json:"notes"             validate:"omitempty,max=1000"`
}

func (h *ApprovalHandler) DisburseLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req disburseLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Disburse(c.Request().Context(), ucApproval.DisburseInput{
		LoanID:           loanID,
		Actor:            actor(c),
		DisbursementDate: mustDate(req.DisbursementDate),
		StartDate:        mustDate(req.StartDate),
		EndDate:          mustDate(req.EndDate),
		Notes:            req.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) RepairSchedule(c echo.Context) error {
	dto, err := h.uc.RepairSchedule(c.Request().Context(), ucApproval.RepairInput{LoanID: c.Param("loan_id"), Actor: actor(c)})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) IncompleteSchedules(c echo.Context) error {
	out, err := h.uc.ListIncompleteSchedules(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
