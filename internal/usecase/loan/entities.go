package loan

import (
	"time"

	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/user"
)

type CreateLoanInput struct {
	Actor         *user.User
	CustomerID    string
	LoanProductID string
	AgentID       string
	BranchID      string
	Purpose       *string
}

type LoanDTO struct {
	ID             string              `json:"id"`
	CustomerID     string              `json:"customer_id"`
	LoanProductID  string              `json:"loan_product_id"`
	AgentID        string              `json:"agent_id"`
	BranchID       string              `json:"branch_id"`
	Purpose        *string             `json:"purpose,omitempty"`
	Status         loan.Status         `json:"status"`
	ScheduleStatus loan.ScheduleStatus `json:"schedule_status"`
	CreatedAt      time.Time           `json:"created_at"`
}

func toDTO(a *loan.Application) *LoanDTO {
	return &LoanDTO{
		ID:             a.ID,
		CustomerID:     a.CustomerID,
		LoanProductID:  a.LoanProductID,
		AgentID:        a.AgentID,
		BranchID:       a.BranchID,
		Purpose:        a.Purpose,
		Status:         a.Status,
		ScheduleStatus: a.ScheduleStatus,
		CreatedAt:      a.CreatedAt,
	}
}
