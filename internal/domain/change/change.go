package change

import (
	"context"
	"time"
)

// Event kinds. Wildcard matches all of them when subscribing.
const (
	Insert   = "INSERT"
	Update   = "UPDATE"
	Delete   = "DELETE"
	Wildcard = "*"
)

// Tables published on the feed.
const (
	TableCustomers        = "customers"
	TableLoanApplications = "loan_applications"
	TableDailyPayments    = "daily_payments"
	TableWeeklyTracking   = "weekly_tracking"
	TableTransactions     = "transactions"
	TableUsers            = "users"
)

type Change struct {
	Table    string    `json:"table"`
	Event    string    `json:"event"`
	RecordID string    `json:"record_id"`
	BranchID string    `json:"branch_id,omitempty"`
	At       time.Time `json:"at"`
}

// Matches reports whether c passes a subscription's table and event filter.
func (c Change) Matches(table, event string) bool {
	if table != Wildcard && table != c.Table {
		return false
	}
	return event == Wildcard || event == "" || event == c.Event
}

// Publisher announces committed mutations. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, c Change)
}

type Subscriber interface {
	Subscribe(ctx context.Context, table, event string) (<-chan Change, error)
}

type Nop struct{}

func (Nop) Publish(context.Context, Change) {}
