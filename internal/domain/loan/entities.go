package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/user"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusDisbursed Status = "disbursed"
)

// ScheduleStatus tracks payment-schedule generation for a disbursement.
type ScheduleStatus string

const (
	ScheduleNone      ScheduleStatus = "none"
	SchedulePending   ScheduleStatus = "pending"
	ScheduleGenerated ScheduleStatus = "generated"
	ScheduleFailed    ScheduleStatus = "failed"
)

var (
	ErrNotFound                = errors.New("loan application not found")
	ErrProductNotFound         = errors.New("loan product not found")
	ErrInvalidTransition       = errors.New("loan application not in a state that allows this action")
	ErrAlreadyApproved         = errors.New("loan application already approved")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	ErrInactiveReference       = errors.New("referenced customer, product, agent or branch is missing or inactive")
	ErrOutOfScope              = errors.New("loan application is outside the approver's branch")
	ErrScheduleFailed          = errors.New("payment schedule generation failed; disbursement reverted")
	ErrScheduleIncomplete      = errors.New("payment schedule generation failed and disbursement could not be reverted")
	ErrScheduleNotRepairable   = errors.New("loan application has no incomplete schedule to repair")
	ErrScheduleInProgress      = errors.New("payment schedule generation is still in progress")
	ErrInvalidDates            = errors.New("repayment end date must not be before start date")
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusDisbursed},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Table: loan_products. Static catalog.
type Product struct {
	ID              string          `gorm:"primaryKey;size:32" json:"id"`
	Name            string          `gorm:"size:100;not null;uniqueIndex:ux_loan_products_name" json:"name"`
	PrincipalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"principal_amount"`
	DailyPayment    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"daily_payment"`
	DurationDays    int             `gorm:"not null" json:"duration_days"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	IsActive        bool            `gorm:"not null" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Product) TableName() string { return "loan_products" }

// Table: loan_applications.
type Application struct {
	ID               string         `gorm:"primaryKey;size:32" json:"id"`
	CustomerID       string         `gorm:"size:32;not null;index" json:"customer_id"`
	LoanProductID    string         `gorm:"size:32;not null" json:"loan_product_id"`
	AgentID          string         `gorm:"size:32;not null;index" json:"agent_id"`
	BranchID         string         `gorm:"size:32;not null;index" json:"branch_id"`
	Purpose          *string        `gorm:"type:text" json:"purpose,omitempty"`
	Status           Status         `gorm:"size:16;not null;index" json:"status"`
	ApprovedBy       *string        `gorm:"size:32" json:"approved_by,omitempty"`
	ApprovalDate     *time.Time     `gorm:"type:date" json:"approval_date,omitempty"`
	RejectionReason  *string        `gorm:"type:text" json:"rejection_reason,omitempty"`
	DisbursementDate *time.Time     `gorm:"type:date" json:"disbursement_date,omitempty"`
	StartDate        *time.Time     `gorm:"type:date" json:"start_date,omitempty"`
	EndDate          *time.Time     `gorm:"type:date" json:"end_date,omitempty"`
	Notes            *string        `gorm:"type:text" json:"notes,omitempty"`
	ScheduleStatus   ScheduleStatus `gorm:"size:16;not null;index" json:"schedule_status"`
	CreatedAt        time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Customer    *customer.Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	LoanProduct *Product           `gorm:"foreignKey:LoanProductID" json:"loan_product,omitempty"`
	Agent       *user.User         `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Branch      *branch.Branch     `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Approver    *user.User         `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
}

func (Application) TableName() string { return "loan_applications" }

func (a *Application) Approve(by string, on time.Time, notes *string) error {
	if a.Status == StatusApproved {
		return ErrAlreadyApproved
	}
	if !CanTransition(a.Status, StatusApproved) {
		return ErrInvalidTransition
	}
	a.Status = StatusApproved
	a.ApprovedBy = &by
	a.ApprovalDate = &on
	if notes != nil {
		a.Notes = notes
	}
	return nil
}

func (a *Application) Reject(by string, on time.Time, reason string) error {
	if !CanTransition(a.Status, StatusRejected) {
		return ErrInvalidTransition
	}
	a.Status = StatusRejected
	a.ApprovedBy = &by
	a.ApprovalDate = &on
	a.RejectionReason = &reason
	return nil
}

// Disburse moves the application to disbursed and marks its schedule pending.
func (a *Application) Disburse(disbursedOn, start, end time.Time, notes *string) error {
	if !CanTransition(a.Status, StatusDisbursed) {
		return ErrInvalidTransition
	}
	if end.Before(start) {
		return ErrInvalidDates
	}
	a.Status = StatusDisbursed
	a.DisbursementDate = &disbursedOn
	a.StartDate = &start
	a.EndDate = &end
	if notes != nil {
		a.Notes = notes
	}
	a.ScheduleStatus = SchedulePending
	return nil
}

// RevertDisbursement is the compensating step when schedule generation fails.
// It is the only backwards move and is not exposed as a lifecycle edge.
func (a *Application) RevertDisbursement() {
	a.Status = StatusApproved
	a.DisbursementDate = nil
	a.StartDate = nil
	a.EndDate = nil
	a.ScheduleStatus = ScheduleFailed
}

// ScheduleIncomplete reports a disbursement that has no generated schedule.
func (a *Application) ScheduleIncomplete() bool {
	return a.Status == StatusDisbursed && a.ScheduleStatus != ScheduleGenerated
}

// ScheduleRepairable reports whether a repair may take over generation. A
// pending schedule saved less than grace ago belongs to a generation still
// in flight.
func (a *Application) ScheduleRepairable(now time.Time, grace time.Duration) error {
	if !a.ScheduleIncomplete() || a.StartDate == nil {
		return ErrScheduleNotRepairable
	}
	if a.ScheduleStatus == SchedulePending && now.Sub(a.UpdatedAt) < grace {
		return ErrScheduleInProgress
	}
	return nil
}

// Filter fields combine with AND; empty fields are ignored.
type Filter struct {
	BranchID   string
	AgentID    string
	CustomerID string
	Status     Status
}
