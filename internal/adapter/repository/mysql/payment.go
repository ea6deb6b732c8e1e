package mysql

import (
	"context"
	"time"

	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/pkg/id"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

var dailyUpsertColumns = []string{
	"expected_amount", "actual_amount", "payment_method",
	"is_paid", "payment_time", "notes", "updated_at",
}

func (r *PaymentRepository) UpsertDaily(ctx context.Context, d *payment.DailyPayment) (*payment.DailyPayment, error) {
	if d.ID == "" {
		d.ID = id.NewID32()
	}
	if d.Version == 0 {
		d.Version = 1
	}
	set := clause.AssignmentColumns(dailyUpsertColumns)
	set = append(set, clause.Assignment{
		Column: clause.Column{Name: "version"},
		Value:  gorm.Expr("daily_payments.version + 1"),
	})
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "loan_application_id"}, {Name: "payment_date"}},
		DoUpdates: set,
	}).Create(d).Error
	if err != nil {
		return nil, err
	}
	// the stored row keeps its original id on conflict
	return r.GetDaily(ctx, d.LoanApplicationID, d.PaymentDate)
}

func (r *PaymentRepository) GetDaily(ctx context.Context, loanID string, date time.Time) (*payment.DailyPayment, error) {
	var out payment.DailyPayment
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ? AND payment_date = ?", loanID, date).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, payment.ErrNotFound)
	}
	return &out, nil
}

func (r *PaymentRepository) CreateDailyBatch(ctx context.Context, rows []payment.DailyPayment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, 100).Error
}

func (r *PaymentRepository) ListDailyByAgentDate(ctx context.Context, agentID string, date time.Time) ([]payment.DailyPayment, error) {
	var out []payment.DailyPayment
	err := r.db.WithContext(ctx).
		Where("agent_id = ? AND payment_date = ?", agentID, date).
		Order("customer_id ASC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ListDailyByLoan(ctx context.Context, loanID string) ([]payment.DailyPayment, error) {
	var out []payment.DailyPayment
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ?", loanID).
		Order("payment_date ASC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) UpsertWeeklyDay(ctx context.Context, u payment.WeeklyDayUpdate) (*payment.WeeklyTracking, error) {
	row := payment.WeeklyTracking{
		ID:                id.NewID32(),
		LoanApplicationID: u.LoanApplicationID,
		CustomerID:        u.CustomerID,
		AgentID:           u.AgentID,
		BranchID:          u.BranchID,
		WeekStart:         u.WeekStart,
	}
	row.SetDay(u.Day, u.Paid, u.Amount)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "loan_application_id"}, {Name: "week_start"}},
		DoUpdates: clause.AssignmentColumns([]string{u.Day.PaidColumn(), u.Day.AmountColumn(), "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	var out payment.WeeklyTracking
	err = r.db.WithContext(ctx).
		Where("loan_application_id = ? AND week_start = ?", u.LoanApplicationID, u.WeekStart).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, payment.ErrNotFound)
	}
	return &out, nil
}

func (r *PaymentRepository) EnsureWeekly(ctx context.Context, rows []payment.WeeklyTracking) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *PaymentRepository) ListWeekly(ctx context.Context, f payment.WeeklyFilter) ([]payment.WeeklyTracking, error) {
	q := r.db.WithContext(ctx).Where("week_start = ?", f.WeekStart)
	if f.AgentID != "" {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.BranchID != "" {
		q = q.Where("branch_id = ?", f.BranchID)
	}
	var out []payment.WeeklyTracking
	err := q.Order("customer_id ASC").Find(&out).Error
	return out, err
}

func (r *PaymentRepository) CreateTransaction(ctx context.Context, t *payment.Transaction) error {
	if t.ID == "" {
		t.ID = id.NewID32()
	}
	if t.ReferenceNumber == "" {
		t.ReferenceNumber = id.NewReference()
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *PaymentRepository) ListTransactions(ctx context.Context, f payment.TransactionFilter) ([]payment.Transaction, error) {
	q := r.db.WithContext(ctx)
	if f.BranchID != "" {
		q = q.Where("branch_id = ?", f.BranchID)
	}
	if f.AgentID != "" {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.LoanID != "" {
		q = q.Where("loan_application_id = ?", f.LoanID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		// To names a day and includes all of it
		y, m, d := f.To.UTC().Date()
		q = q.Where("created_at < ?", time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC))
	}
	var out []payment.Transaction
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}
