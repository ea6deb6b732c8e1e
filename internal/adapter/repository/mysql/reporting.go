package mysql

import (
	"context"
	"database/sql"
	"time"

	"microfinance-backoffice/internal/domain/report"

	"github.com/jmoiron/sqlx"
)

// ReportingRepository runs read-only aggregates with hand-written SQL over
// the same connection pool gorm uses.
type ReportingRepository struct{ db *sqlx.DB }

// NewReportingRepository wraps db; driver is the gorm dialector name.
func NewReportingRepository(db *sql.DB, driver string) *ReportingRepository {
	name := driver
	switch driver {
	case "sqlite":
		name = "sqlite3"
	case "postgres":
		name = "pgx"
	}
	return &ReportingRepository{db: sqlx.NewDb(db, name)}
}

var _ report.Repository = (*ReportingRepository)(nil)

// CollectionTotals sums due and collected amounts of schedule rows up to and
// including asOf. An empty branchID covers all branches.
func (r *ReportingRepository) CollectionTotals(ctx context.Context, branchID string, asOf time.Time) (report.CollectionTotals, error) {
	q := `SELECT
	COALESCE(SUM(CASE WHEN is_paid THEN actual_amount ELSE 0 END), 0) AS collected,
	COALESCE(SUM(expected_amount), 0) AS expected
FROM daily_payments
WHERE payment_date <= ?`
	args := []any{asOf}
	if branchID != "" {
		q += " AND branch_id = ?"
		args = append(args, branchID)
	}
	var out report.CollectionTotals
	err := r.db.GetContext(ctx, &out, r.db.Rebind(q), args...)
	return out, err
}

// BranchSummaries groups application counts and disbursed principal by branch.
func (r *ReportingRepository) BranchSummaries(ctx context.Context) ([]report.BranchSummary, error) {
	q := `SELECT
	la.branch_id AS branch_id,
	COUNT(*) AS applications,
	SUM(CASE WHEN la.status = 'pending' THEN 1 ELSE 0 END) AS pending,
	COALESCE(SUM(CASE WHEN la.status = 'disbursed' THEN lp.principal_amount ELSE 0 END), 0) AS disbursed_total
FROM loan_applications la
JOIN loan_products lp ON lp.id = la.loan_product_id
GROUP BY la.branch_id
ORDER BY la.branch_id`
	var out []report.BranchSummary
	err := r.db.SelectContext(ctx, &out, q)
	return out, err
}
