package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyDayUpdate writes one day's paid/amount pair of a weekly row.
type WeeklyDayUpdate struct {
	Identity
	WeekStart time.Time
	Day       Day
	Amount    decimal.Decimal
	Paid      bool
}

type Repository interface {
	// UpsertDaily inserts or overwrites the record keyed by
	// (loan_application_id, payment_date) and bumps its version.
	UpsertDaily(ctx context.Context, d *DailyPayment) (*DailyPayment, error)
	GetDaily(ctx context.Context, loanID string, date time.Time) (*DailyPayment, error)
	// CreateDailyBatch inserts schedule rows, skipping dates that already exist.
	CreateDailyBatch(ctx context.Context, rows []DailyPayment) error
	ListDailyByAgentDate(ctx context.Context, agentID string, date time.Time) ([]DailyPayment, error)
	ListDailyByLoan(ctx context.Context, loanID string) ([]DailyPayment, error)

	UpsertWeeklyDay(ctx context.Context, u WeeklyDayUpdate) (*WeeklyTracking, error)
	// EnsureWeekly creates empty weekly rows, skipping existing weeks.
	EnsureWeekly(ctx context.Context, rows []WeeklyTracking) error
	ListWeekly(ctx context.Context, f WeeklyFilter) ([]WeeklyTracking, error)

	CreateTransaction(ctx context.Context, t *Transaction) error
	// ListTransactions returns newest first.
	ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error)
}
