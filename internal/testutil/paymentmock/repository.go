package paymentmock

import (
	"context"
	"time"

	domain "microfinance-backoffice/internal/domain/payment"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to nil, reads to context.Canceled.
type Repo struct {
	UpsertDailyFn          func(ctx context.Context, d *domain.DailyPayment) (*domain.DailyPayment, error)
	GetDailyFn             func(ctx context.Context, loanID string, date time.Time) (*domain.DailyPayment, error)
	CreateDailyBatchFn     func(ctx context.Context, rows []domain.DailyPayment) error
	ListDailyByAgentDateFn func(ctx context.Context, agentID string, date time.Time) ([]domain.DailyPayment, error)
	ListDailyByLoanFn      func(ctx context.Context, loanID string) ([]domain.DailyPayment, error)
	UpsertWeeklyDayFn      func(ctx context.Context, u domain.WeeklyDayUpdate) (*domain.WeeklyTracking, error)
	EnsureWeeklyFn         func(ctx context.Context, rows []domain.WeeklyTracking) error
	ListWeeklyFn           func(ctx context.Context, f domain.WeeklyFilter) ([]domain.WeeklyTracking, error)
	CreateTransactionFn    func(ctx context.Context, t *domain.Transaction) error
	ListTransactionsFn     func(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error)
}

func (m *Repo) UpsertDaily(ctx context.Context, d *domain.DailyPayment) (*domain.DailyPayment, error) {
	if m.UpsertDailyFn != nil {
		return m.UpsertDailyFn(ctx, d)
	}
	return nil, context.Canceled
}

func (m *Repo) GetDaily(ctx context.Context, loanID string, date time.Time) (*domain.DailyPayment, error) {
	if m.GetDailyFn != nil {
		return m.GetDailyFn(ctx, loanID, date)
	}
	return nil, context.Canceled
}

func (m *Repo) CreateDailyBatch(ctx context.Context, rows []domain.DailyPayment) error {
	if m.CreateDailyBatchFn != nil {
		return m.CreateDailyBatchFn(ctx, rows)
	}
	return nil
}

func (m *Repo) ListDailyByAgentDate(ctx context.Context, agentID string, date time.Time) ([]domain.DailyPayment, error) {
	if m.ListDailyByAgentDateFn != nil {
		return m.ListDailyByAgentDateFn(ctx, agentID, date)
	}
	return nil, context.Canceled
}

func (m *Repo) ListDailyByLoan(ctx context.Context, loanID string) ([]domain.DailyPayment, error) {
	if m.ListDailyByLoanFn != nil {
		return m.ListDailyByLoanFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) UpsertWeeklyDay(ctx context.Context, u domain.WeeklyDayUpdate) (*domain.WeeklyTracking, error) {
	if m.UpsertWeeklyDayFn != nil {
		return m.UpsertWeeklyDayFn(ctx, u)
	}
	return nil, context.Canceled
}

func (m *Repo) EnsureWeekly(ctx context.Context, rows []domain.WeeklyTracking) error {
	if m.EnsureWeeklyFn != nil {
		return m.EnsureWeeklyFn(ctx, rows)
	}
	return nil
}

func (m *Repo) ListWeekly(ctx context.Context, f domain.WeeklyFilter) ([]domain.WeeklyTracking, error) {
	if m.ListWeeklyFn != nil {
		return m.ListWeeklyFn(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	if m.CreateTransactionFn != nil {
		return m.CreateTransactionFn(ctx, t)
	}
	return nil
}

func (m *Repo) ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	if m.ListTransactionsFn != nil {
		return m.ListTransactionsFn(ctx, f)
	}
	return nil, context.Canceled
}
