package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CollectionTotals struct {
	Collected decimal.Decimal `db:"collected" json:"collected"`
	Expected  decimal.Decimal `db:"expected" json:"expected"`
}

// Rate returns collected/expected as a percentage, or nil when nothing was due.
func (t CollectionTotals) Rate() *decimal.Decimal {
	if t.Expected.IsZero() {
		return nil
	}
	r := t.Collected.Div(t.Expected).Mul(decimal.NewFromInt(100)).Round(2)
	return &r
}

type BranchSummary struct {
	BranchID       string          `db:"branch_id" json:"branch_id"`
	Applications   int64           `db:"applications" json:"applications"`
	Pending        int64           `db:"pending" json:"pending"`
	DisbursedTotal decimal.Decimal `db:"disbursed_total" json:"disbursed_total"`
}

// Repository runs read-only aggregates. An empty branchID covers all branches.
type Repository interface {
	CollectionTotals(ctx context.Context, branchID string, asOf time.Time) (CollectionTotals, error)
	BranchSummaries(ctx context.Context) ([]BranchSummary, error)
}
