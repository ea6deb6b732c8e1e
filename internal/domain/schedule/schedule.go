package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ProcedureName is the stored procedure that builds a repayment schedule.
const ProcedureName = "create_weekly_payment_schedule"

var ErrInvalidRequest = errors.New("schedule request needs ids, a start date and a positive duration")

// Request carries what generation needs to build one daily record per
// collection day.
type Request struct {
	LoanApplicationID string
	CustomerID        string
	AgentID           string
	BranchID          string
	StartDate         time.Time
	DurationDays      int
	// DailyAmount is used by generators that compute rows themselves.
	DailyAmount decimal.Decimal
}

func (r Request) Validate() error {
	if r.LoanApplicationID == "" || r.CustomerID == "" || r.AgentID == "" || r.BranchID == "" {
		return ErrInvalidRequest
	}
	if r.StartDate.IsZero() || r.DurationDays <= 0 {
		return ErrInvalidRequest
	}
	return nil
}

// Generator produces the payment schedule of a disbursed loan.
type Generator interface {
	Generate(ctx context.Context, req Request) error
}

// Date truncates t to UTC midnight.
func Date(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of t's week. Sunday belongs to the week that
// started six days earlier.
func WeekStart(t time.Time) time.Time {
	d := Date(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func IsCollectionDay(t time.Time) bool { return t.Weekday() != time.Sunday }

// CollectionDays returns n collection dates from start on, skipping Sundays.
func CollectionDays(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := Date(start)
	for len(out) < n {
		if IsCollectionDay(d) {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}
