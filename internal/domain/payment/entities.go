package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
	MethodMobileMoney  Method = "mobile_money"
	MethodCheck        Method = "check"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileMoney, MethodCheck:
		return true
	}
	return false
}

type TransactionType string

const (
	TxLoanDisbursement TransactionType = "loan_disbursement"
	TxDailyPayment     TransactionType = "daily_payment"
	TxPenalty          TransactionType = "penalty"
	TxRefund           TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxLoanDisbursement, TxDailyPayment, TxPenalty, TxRefund:
		return true
	}
	return false
}

var (
	ErrNotFound           = errors.New("payment record not found")
	ErrVersionConflict    = errors.New("payment record was modified concurrently")
	ErrInvalidDay         = errors.New("day must be monday through saturday")
	ErrWeekStartNotMonday = errors.New("week start must be a monday")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrInvalidTxType      = errors.New("invalid transaction type")
)

// Identity is the tuple that keys a scheduled collection.
type Identity struct {
	LoanApplicationID string
	CustomerID        string
	AgentID           string
	BranchID          string
}

// Table: daily_payments. One row per collection day of a disbursed loan.
type DailyPayment struct {
	ID                string          `gorm:"primaryKey;size:32" json:"id"`
	LoanApplicationID string          `gorm:"size:32;not null;uniqueIndex:ux_daily_payments_loan_date,priority:1" json:"loan_application_id"`
	CustomerID        string          `gorm:"size:32;not null;index" json:"customer_id"`
	AgentID           string          `gorm:"size:32;not null;index:idx_daily_payments_agent_date,priority:1" json:"agent_id"`
	BranchID          string          `gorm:"size:32;not null;index" json:"branch_id"`
	PaymentDate       time.Time       `gorm:"type:date;not null;uniqueIndex:ux_daily_payments_loan_date,priority:2;index:idx_daily_payments_agent_date,priority:2" json:"payment_date"`
	ExpectedAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"expected_amount"`
	ActualAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"actual_amount"`
	PaymentMethod     *Method         `gorm:"size:20" json:"payment_method,omitempty"`
	IsPaid            bool            `gorm:"not null" json:"is_paid"`
	PaymentTime       *time.Time      `json:"payment_time,omitempty"`
	Notes             *string         `gorm:"type:text" json:"notes,omitempty"`
	Version           int64           `gorm:"not null" json:"version"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyPayment) TableName() string { return "daily_payments" }

// CollectedAmount is what a collection moves into the ledger: the actual
// amount, or the expected amount when nothing was entered.
func (d *DailyPayment) CollectedAmount() decimal.Decimal {
	if d.ActualAmount.IsZero() {
		return d.ExpectedAmount
	}
	return d.ActualAmount
}

// Table: weekly_tracking. Denormalized Monday to Saturday roster row.
type WeeklyTracking struct {
	ID                string          `gorm:"primaryKey;size:32" json:"id"`
	LoanApplicationID string          `gorm:"size:32;not null;uniqueIndex:ux_weekly_tracking_loan_week,priority:1" json:"loan_application_id"`
	CustomerID        string          `gorm:"size:32;not null" json:"customer_id"`
	AgentID           string          `gorm:"size:32;not null;index" json:"agent_id"`
	BranchID          string          `gorm:"size:32;not null;index" json:"branch_id"`
	WeekStart         time.Time       `gorm:"type:date;not null;uniqueIndex:ux_weekly_tracking_loan_week,priority:2;index" json:"week_start"`
	MondayPaid        bool            `gorm:"not null" json:"monday_paid"`
	MondayAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"monday_amount"`
	TuesdayPaid       bool            `gorm:"not null" json:"tuesday_paid"`
	TuesdayAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tuesday_amount"`
	WednesdayPaid     bool            `gorm:"not null" json:"wednesday_paid"`
	WednesdayAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"wednesday_amount"`
	ThursdayPaid      bool            `gorm:"not null" json:"thursday_paid"`
	ThursdayAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"thursday_amount"`
	FridayPaid        bool            `gorm:"not null" json:"friday_paid"`
	FridayAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"friday_amount"`
	SaturdayPaid      bool            `gorm:"not null" json:"saturday_paid"`
	SaturdayAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"saturday_amount"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WeeklyTracking) TableName() string { return "weekly_tracking" }

// Total sums the paid day amounts of the week.
func (w *WeeklyTracking) Total() decimal.Decimal {
	sum := decimal.Zero
	pairs := []struct {
		paid bool
		amt  decimal.Decimal
	}{
		{w.MondayPaid, w.MondayAmount},
		{w.TuesdayPaid, w.TuesdayAmount},
		{w.WednesdayPaid, w.WednesdayAmount},
		{w.ThursdayPaid, w.ThursdayAmount},
		{w.FridayPaid, w.FridayAmount},
		{w.SaturdayPaid, w.SaturdayAmount},
	}
	for _, p := range pairs {
		if p.paid {
			sum = sum.Add(p.amt)
		}
	}
	return sum
}

func (w *WeeklyTracking) SetDay(d Day, paid bool, amount decimal.Decimal) {
	switch d {
	case "monday":
		w.MondayPaid, w.MondayAmount = paid, amount
	case "tuesday":
		w.TuesdayPaid, w.TuesdayAmount = paid, amount
	case "wednesday":
		w.WednesdayPaid, w.WednesdayAmount = paid, amount
	case "thursday":
		w.ThursdayPaid, w.ThursdayAmount = paid, amount
	case "friday":
		w.FridayPaid, w.FridayAmount = paid, amount
	case "saturday":
		w.SaturdayPaid, w.SaturdayAmount = paid, amount
	}
}

// Day is a collection weekday; Sunday is not a collection day.
type Day string

var days = []Day{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// ParseDay accepts a weekday name in any case.
func ParseDay(s string) (Day, error) {
	d := Day(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range days {
		if v == d {
			return d, nil
		}
	}
	return "", ErrInvalidDay
}

func (d Day) PaidColumn() string   { return string(d) + "_paid" }
func (d Day) AmountColumn() string { return string(d) + "_amount" }

// Table: transactions. Append-only ledger.
type Transaction struct {
	ID                string          `gorm:"primaryKey;size:32" json:"id"`
	LoanApplicationID *string         `gorm:"size:32;index" json:"loan_application_id,omitempty"`
	CustomerID        string          `gorm:"size:32;not null;index" json:"customer_id"`
	AgentID           string          `gorm:"size:32;not null;index" json:"agent_id"`
	BranchID          string          `gorm:"size:32;not null;index" json:"branch_id"`
	TransactionType   TransactionType `gorm:"size:24;not null" json:"transaction_type"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentMethod     *Method         `gorm:"size:20" json:"payment_method,omitempty"`
	ReferenceNumber   string          `gorm:"size:40;index" json:"reference_number"`
	Description       *string         `gorm:"type:text" json:"description,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

// TransactionFilter bounds are inclusive: From is an instant, To a UTC day
// whose entries are all included.
type TransactionFilter struct {
	BranchID   string
	AgentID    string
	CustomerID string
	LoanID     string
	From, To   *time.Time
}

type WeeklyFilter struct {
	WeekStart time.Time
	AgentID   string
	BranchID  string
}
