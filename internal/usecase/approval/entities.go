package approval

import (
	"time"

	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/user"
)

type ApproveInput struct {
	LoanID string
	Actor  *user.User
	Notes  *string
}

type RejectInput struct {
	LoanID string
	Actor  *user.User
	Reason string
}

type DisburseInput struct {
	LoanID           string
	Actor            *user.User
	DisbursementDate time.Time
	StartDate        time.Time
	EndDate          time.Time
	Notes            *string
}

type RepairInput struct {
	LoanID string
	Actor  *user.User
}

// DecisionDTO is the application state after an approval-table action.
type DecisionDTO struct {
	ID               string              `json:"id"`
	Status           loan.Status         `json:"status"`
	ApprovedBy       *string             `json:"approved_by,omitempty"`
	ApprovalDate     *time.Time          `json:"approval_date,omitempty"`
	RejectionReason  *string             `json:"rejection_reason,omitempty"`
	DisbursementDate *time.Time          `json:"disbursement_date,omitempty"`
	StartDate        *time.Time          `json:"start_date,omitempty"`
	EndDate          *time.Time          `json:"end_date,omitempty"`
	Notes            *string             `json:"notes,omitempty"`
	ScheduleStatus   loan.ScheduleStatus `json:"schedule_status"`
	// LedgerReference is set when a disbursement entry was written.
	LedgerReference string `json:"ledger_reference,omitempty"`
}

func toDTO(a *loan.Application) *DecisionDTO {
	return &DecisionDTO{
		ID:               a.ID,
		Status:           a.Status,
		ApprovedBy:       a.ApprovedBy,
		ApprovalDate:     a.ApprovalDate,
		RejectionReason:  a.RejectionReason,
		DisbursementDate: a.DisbursementDate,
		StartDate:        a.StartDate,
		EndDate:          a.EndDate,
		Notes:            a.Notes,
		ScheduleStatus:   a.ScheduleStatus,
	}
}
