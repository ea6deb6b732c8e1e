package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/report"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/testutil/customermock"
	"microfinance-backoffice/internal/testutil/loanmock"
	"microfinance-backoffice/internal/testutil/paymentmock"
	"microfinance-backoffice/internal/testutil/reportmock"
	"microfinance-backoffice/internal/testutil/usermock"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var today = time.Date(2025, 9, 10, 14, 0, 0, 0, time.UTC) // a Wednesday

type fixture struct {
	customers *customermock.Repo
	loans     *loanmock.Repo
	payments  *paymentmock.Repo
	users     *usermock.Repo
	reports   *reportmock.Repo
}

func newFixture() *fixture {
	return &fixture{
		customers: &customermock.Repo{ListFn: func(context.Context, customer.Filter) ([]customer.Customer, error) {
			return []customer.Customer{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}, nil
		}},
		loans: &loanmock.Repo{ListFn: func(context.Context, loan.Filter) ([]loan.Application, error) {
			p := &loan.Product{PrincipalAmount: decimal.NewFromInt(30000)}
			return []loan.Application{
				{ID: "l1", Status: loan.StatusPending},
				{ID: "l2", Status: loan.StatusDisbursed, LoanProduct: p},
				{ID: "l3", Status: loan.StatusDisbursed, LoanProduct: p},
				{ID: "l4", Status: loan.StatusRejected},
			}, nil
		}},
		payments: &paymentmock.Repo{ListTransactionsFn: func(context.Context, payment.TransactionFilter) ([]payment.Transaction, error) {
			txs := make([]payment.Transaction, 12)
			for i := range txs {
				txs[i].ID = string(rune('a' + i))
			}
			return txs, nil
		}},
		users: &usermock.Repo{},
		reports: &reportmock.Repo{
			CollectionTotalsFn: func(context.Context, string, time.Time) (report.CollectionTotals, error) {
				return report.CollectionTotals{Collected: decimal.NewFromInt(1500), Expected: decimal.NewFromInt(3000)}, nil
			},
			BranchSummariesFn: func(context.Context) ([]report.BranchSummary, error) {
				return []report.BranchSummary{{BranchID: "b1", Applications: 4}}, nil
			},
		},
	}
}

func (f *fixture) usecase() *Usecase {
	uc := NewUsecase(f.customers, f.loans, f.payments, f.users, f.reports, zap.NewNop())
	uc.now = func() time.Time { return today }
	return uc
}

func TestAdmin_Metrics(t *testing.T) {
	f := newFixture()
	m, err := f.usecase().Admin(context.Background())
	if err != nil {
		t.Fatalf("Admin: %v", err)
	}
	if m.TotalCustomers != 3 || m.TotalLoans != 4 || m.PendingApprovals != 1 {
		t.Fatalf("unexpected counts: %+v", m)
	}
	if !m.TotalDisbursed.Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("total disbursed = %s", m.TotalDisbursed)
	}
	if m.CollectionRate == nil || !m.CollectionRate.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("collection rate = %v", m.CollectionRate)
	}
	if len(m.RecentTransactions) != recentTransactions || len(m.PendingLoans) != 1 {
		t.Fatalf("recent=%d pending=%d", len(m.RecentTransactions), len(m.PendingLoans))
	}
	if m.ActiveAgents != nil || len(m.Branches) != 1 {
		t.Fatalf("admin view must not carry agents and must carry branches: %+v", m)
	}
}

func TestAdmin_CollectionRateIsBestEffort(t *testing.T) {
	f := newFixture()
	f.reports.CollectionTotalsFn = nil
	f.reports.BranchSummariesFn = nil

	m, err := f.usecase().Admin(context.Background())
	if err != nil {
		t.Fatalf("Admin: %v", err)
	}
	if m.CollectionRate != nil || m.Branches != nil {
		t.Fatalf("failed aggregates must degrade to null: %+v", m)
	}
}

func TestAdmin_LoadFailureFails(t *testing.T) {
	f := newFixture()
	boom := errors.New("db down")
	f.loans.ListFn = func(context.Context, loan.Filter) ([]loan.Application, error) { return nil, boom }

	if _, err := f.usecase().Admin(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}

func TestBranch_ScopesEveryLoad(t *testing.T) {
	f := newFixture()
	var seen []string
	f.customers.ListFn = func(_ context.Context, fl customer.Filter) ([]customer.Customer, error) {
		if fl.BranchID != "b1" {
			t.Errorf("customers branch = %q", fl.BranchID)
		}
		return nil, nil
	}
	f.loans.ListFn = func(_ context.Context, fl loan.Filter) ([]loan.Application, error) {
		if fl.BranchID != "b1" {
			t.Errorf("loans branch = %q", fl.BranchID)
		}
		return nil, nil
	}
	f.users.ListFn = func(_ context.Context, fl user.Filter) ([]user.User, error) {
		if fl.BranchID != "b1" || fl.Role != user.RoleAgent || fl.Active == nil || !*fl.Active {
			t.Errorf("agents filter = %+v", fl)
		}
		return []user.User{{ID: "a1"}, {ID: "a2"}}, nil
	}
	f.reports.CollectionTotalsFn = func(_ context.Context, branchID string, asOf time.Time) (report.CollectionTotals, error) {
		seen = append(seen, branchID)
		if !asOf.Equal(time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("asOf = %s", asOf)
		}
		return report.CollectionTotals{}, nil
	}

	m, err := f.usecase().Branch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	if m.ActiveAgents == nil || *m.ActiveAgents != 2 || m.CollectionRate != nil {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if len(seen) != 1 || seen[0] != "b1" {
		t.Fatalf("collection totals called with %v", seen)
	}
}

func TestAgent_Metrics(t *testing.T) {
	f := newFixture()
	f.loans.ListFn = func(_ context.Context, fl loan.Filter) ([]loan.Application, error) {
		if fl.AgentID != "a1" || fl.Status != loan.StatusDisbursed {
			t.Errorf("loan filter = %+v", fl)
		}
		return []loan.Application{{ID: "l1"}, {ID: "l2"}}, nil
	}
	f.payments.ListDailyByAgentDateFn = func(_ context.Context, agentID string, date time.Time) ([]payment.DailyPayment, error) {
		return []payment.DailyPayment{
			{IsPaid: true, ExpectedAmount: decimal.NewFromInt(1500), ActualAmount: decimal.NewFromInt(1600)},
			{IsPaid: true, ExpectedAmount: decimal.NewFromInt(1500)},
			{IsPaid: false, ExpectedAmount: decimal.NewFromInt(2000)},
		}, nil
	}
	f.payments.ListWeeklyFn = func(_ context.Context, fl payment.WeeklyFilter) ([]payment.WeeklyTracking, error) {
		if fl.WeekStart.Weekday() != time.Monday || fl.AgentID != "a1" {
			t.Errorf("weekly filter = %+v", fl)
		}
		return []payment.WeeklyTracking{
			{MondayPaid: true, MondayAmount: decimal.NewFromInt(1500), TuesdayPaid: true, TuesdayAmount: decimal.NewFromInt(1500)},
			{MondayPaid: false, MondayAmount: decimal.NewFromInt(900)},
		}, nil
	}

	m, err := f.usecase().Agent(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Agent: %v", err)
	}
	if m.TotalCustomers != 3 || m.ActiveLoans != 2 {
		t.Fatalf("unexpected counts: %+v", m)
	}
	if m.CompletedCollections != 2 || m.PendingCollections != 1 {
		t.Fatalf("completed=%d pending=%d", m.CompletedCollections, m.PendingCollections)
	}
	if !m.TodayCollections.Equal(decimal.NewFromInt(3100)) || !m.WeeklyCollected.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("today=%s weekly=%s", m.TodayCollections, m.WeeklyCollected)
	}
}

func TestFor_PicksViewByRole(t *testing.T) {
	f := newFixture()
	f.payments.ListDailyByAgentDateFn = func(context.Context, string, time.Time) ([]payment.DailyPayment, error) { return nil, nil }
	f.payments.ListWeeklyFn = func(context.Context, payment.WeeklyFilter) ([]payment.WeeklyTracking, error) { return nil, nil }
	f.users.ListFn = func(context.Context, user.Filter) ([]user.User, error) { return nil, nil }
	uc := f.usecase()
	b := "b1"

	tests := []struct {
		actor *user.User
		check func(any) bool
	}{
		{&user.User{ID: "x", Role: user.RoleAdmin}, func(v any) bool { m, ok := v.(*Metrics); return ok && m.BranchID == "" }},
		{&user.User{ID: "s", Role: user.RoleSubAdmin, BranchID: &b}, func(v any) bool { m, ok := v.(*Metrics); return ok && m.BranchID == "b1" }},
		{&user.User{ID: "a", Role: user.RoleAgent, BranchID: &b}, func(v any) bool { m, ok := v.(*AgentMetrics); return ok && m.AgentID == "a" }},
	}
	for _, tt := range tests {
		t.Run(string(tt.actor.Role), func(t *testing.T) {
			v, err := uc.For(context.Background(), tt.actor)
			if err != nil {
				t.Fatalf("For: %v", err)
			}
			if !tt.check(v) {
				t.Fatalf("unexpected view %T %+v", v, v)
			}
		})
	}
}
