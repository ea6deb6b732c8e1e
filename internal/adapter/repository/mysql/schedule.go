package mysql

import (
	"context"
	"fmt"

	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/schedule"
	"microfinance-backoffice/pkg/id"

	"gorm.io/gorm"
)

// ProcedureScheduleGenerator delegates generation to the database procedure.
type ProcedureScheduleGenerator struct {
	db      *gorm.DB
	dialect string
}

func NewProcedureScheduleGenerator(db *gorm.DB) *ProcedureScheduleGenerator {
	return &ProcedureScheduleGenerator{db: db, dialect: db.Dialector.Name()}
}

func (g *ProcedureScheduleGenerator) Generate(ctx context.Context, req schedule.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	// postgres exposes it as a function, mysql as a procedure
	verb := "CALL"
	if g.dialect == "postgres" {
		verb = "SELECT"
	}
	sql := fmt.Sprintf("%s %s(?, ?, ?, ?, ?, ?)", verb, schedule.ProcedureName)
	err := g.db.WithContext(ctx).Exec(sql,
		req.LoanApplicationID,
		req.CustomerID,
		req.AgentID,
		req.BranchID,
		req.StartDate.Format("2006-01-02"),
		req.DurationDays,
	).Error
	if err != nil {
		return fmt.Errorf("%s: %w", schedule.ProcedureName, err)
	}
	return nil
}

// InlineScheduleGenerator writes the schedule rows itself: one unpaid daily
// record per collection day and an empty weekly row per covered week.
type InlineScheduleGenerator struct{ db *gorm.DB }

func NewInlineScheduleGenerator(db *gorm.DB) *InlineScheduleGenerator {
	return &InlineScheduleGenerator{db: db}
}

func (g *InlineScheduleGenerator) Generate(ctx context.Context, req schedule.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	who := payment.Identity{
		LoanApplicationID: req.LoanApplicationID,
		CustomerID:        req.CustomerID,
		AgentID:           req.AgentID,
		BranchID:          req.BranchID,
	}

	days := schedule.CollectionDays(req.StartDate, req.DurationDays)
	daily := make([]payment.DailyPayment, 0, len(days))
	var weekly []payment.WeeklyTracking
	seen := map[string]bool{}
	for _, d := range days {
		daily = append(daily, payment.DailyPayment{
			ID:                id.NewID32(),
			LoanApplicationID: who.LoanApplicationID,
			CustomerID:        who.CustomerID,
			AgentID:           who.AgentID,
			BranchID:          who.BranchID,
			PaymentDate:       d,
			ExpectedAmount:    req.DailyAmount,
			Version:           1,
		})
		ws := schedule.WeekStart(d)
		if key := ws.Format("2006-01-02"); !seen[key] {
			seen[key] = true
			weekly = append(weekly, payment.WeeklyTracking{
				ID:                id.NewID32(),
				LoanApplicationID: who.LoanApplicationID,
				CustomerID:        who.CustomerID,
				AgentID:           who.AgentID,
				BranchID:          who.BranchID,
				WeekStart:         ws,
			})
		}
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := &PaymentRepository{db: tx}
		if err := repo.CreateDailyBatch(ctx, daily); err != nil {
			return err
		}
		return repo.EnsureWeekly(ctx, weekly)
	})
}
