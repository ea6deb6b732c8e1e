package http

import (
	"net/http"

	"microfinance-backoffice/internal/domain/loan"
	loanuc "microfinance-backoffice/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type LoanHandler struct {
	uc  *loanuc.Usecase
	log *zap.Logger
}

func NewLoanHandler(uc *loanuc.Usecase, log *zap.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, log: log}
}

type createLoanReq struct {
	CustomerID    string  `json:"customer_id"     validate:"required,hex32"`
	LoanProductID string  `json:"loan_product_id" validate:"required,hex32"`
	AgentID       string  `json:"agent_id"        validate:"omitempty,hex32"`
	BranchID      string  `json:"branch_id"       validate:"omitempty,hex32"`
	Purpose       *string `json:"purpose"         validate:"omitempty,max=500"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	a := actor(c)
	// agents and sub-admins may leave their own ids out
	branchID, agentID := a.Scope(req.BranchID, req.AgentID)
	if req.BranchID == "" {
		req.BranchID = branchID
	}
	if req.AgentID == "" {
		req.AgentID = agentID
	}
	dto, err := h.uc.Create(c.Request().Context(), loanuc.CreateLoanInput{
		Actor:         a,
		CustomerID:    req.CustomerID,
		LoanProductID: req.LoanProductID,
		AgentID:       req.AgentID,
		BranchID:      req.BranchID,
		Purpose:       req.Purpose,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	a, err := h.uc.Get(c.Request().Context(), actor(c), c.Param("loan_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), actor(c), loan.Filter{
		BranchID:   c.QueryParam("branch_id"),
		AgentID:    c.QueryParam("agent_id"),
		CustomerID: c.QueryParam("customer_id"),
		Status:     loan.Status(c.QueryParam("status")),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Products(c echo.Context) error {
	out, err := h.uc.Products(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
