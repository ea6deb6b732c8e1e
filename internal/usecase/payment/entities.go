package payment

import (
	"time"

	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/user"

	"github.com/shopspring/decimal"
)

type RecordInput struct {
	Actor             *user.User
	LoanApplicationID string
	CustomerID        string
	AgentID           string
	BranchID          string
	PaymentDate       time.Time
	ExpectedAmount    decimal.Decimal
	ActualAmount      decimal.Decimal
	PaymentMethod     payment.Method
	Notes             *string
	// ExpectedVersion turns the upsert into a compare-and-set; 0 means the
	// caller expects no record for that date yet.
	ExpectedVersion *int64
}

func (in RecordInput) identity() payment.Identity {
	return payment.Identity{
		LoanApplicationID: in.LoanApplicationID,
		CustomerID:        in.CustomerID,
		AgentID:           in.AgentID,
		BranchID:          in.BranchID,
	}
}

type RecordResult struct {
	Payment     *payment.DailyPayment `json:"payment"`
	Transaction *payment.Transaction  `json:"transaction"`
}

type WeeklyInput struct {
	Actor             *user.User
	LoanApplicationID string
	CustomerID        string
	AgentID           string
	BranchID          string
	WeekStart         time.Time
	Day               string
	Amount            decimal.Decimal
	Paid              bool
}

type TransactionInput struct {
	Actor             *user.User
	LoanApplicationID *string
	CustomerID        string
	AgentID           string
	BranchID          string
	TransactionType   payment.TransactionType
	Amount            decimal.Decimal
	PaymentMethod     *payment.Method
	ReferenceNumber   string
	Description       *string
}
