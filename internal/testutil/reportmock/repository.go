package reportmock

import (
	"context"
	"time"

	domain "microfinance-backoffice/internal/domain/report"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CollectionTotalsFn func(ctx context.Context, branchID string, asOf time.Time) (domain.CollectionTotals, error)
	BranchSummariesFn  func(ctx context.Context) ([]domain.BranchSummary, error)
}

func (m *Repo) CollectionTotals(ctx context.Context, branchID string, asOf time.Time) (domain.CollectionTotals, error) {
	if m.CollectionTotalsFn != nil {
		return m.CollectionTotalsFn(ctx, branchID, asOf)
	}
	return domain.CollectionTotals{}, context.Canceled
}

func (m *Repo) BranchSummaries(ctx context.Context) ([]domain.BranchSummary, error) {
	if m.BranchSummariesFn != nil {
		return m.BranchSummariesFn(ctx)
	}
	return nil, context.Canceled
}
