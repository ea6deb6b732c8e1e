package dashboard

import (
	"context"
	"time"

	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/report"
	"microfinance-backoffice/internal/domain/schedule"
	"microfinance-backoffice/internal/domain/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const recentTransactions = 10

type Usecase struct {
	customers customer.Repository
	loans     loan.Repository
	payments  payment.Repository
	users     user.Repository
	reports   report.Repository
	log       *zap.Logger
	now       func() time.Time
}

func NewUsecase(customers customer.Repository, loans loan.Repository, payments payment.Repository, users user.Repository, reports report.Repository, log *zap.Logger) *Usecase {
	return &Usecase{
		customers: customers,
		loans:     loans,
		payments:  payments,
		users:     users,
		reports:   reports,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// For picks the view matching the actor's role.
func (u *Usecase) For(ctx context.Context, actor *user.User) (any, error) {
	switch actor.Role {
	case user.RoleAdmin:
		return u.Admin(ctx)
	case user.RoleSubAdmin:
		if actor.BranchID == nil {
			return nil, user.ErrForbidden
		}
		return u.Branch(ctx, *actor.BranchID)
	default:
		return u.Agent(ctx, actor.ID)
	}
}

// Admin is the organisation-wide view with a per-branch breakdown.
func (u *Usecase) Admin(ctx context.Context) (*Metrics, error) {
	m, err := u.overview(ctx, "")
	if err != nil {
		return nil, err
	}
	branches, err := u.reports.BranchSummaries(ctx)
	if err != nil {
		u.log.Warn("branch summaries", zap.Error(err))
		return m, nil
	}
	m.Branches = branches
	return m, nil
}

// Branch is the sub-admin view: the admin metrics scoped to one branch plus
// its active agents.
func (u *Usecase) Branch(ctx context.Context, branchID string) (*Metrics, error) {
	return u.overview(ctx, branchID)
}

// overview loads independent data concurrently and derives the metrics
// only after every load has settled.
func (u *Usecase) overview(ctx context.Context, branchID string) (*Metrics, error) {
	var (
		customers []customer.Customer
		apps      []loan.Application
		txs       []payment.Transaction
		agents    []user.User
		rate      *decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		customers, err = u.customers.List(gctx, customer.Filter{BranchID: branchID})
		return err
	})
	g.Go(func() (err error) {
		apps, err = u.loans.List(gctx, loan.Filter{BranchID: branchID})
		return err
	})
	g.Go(func() (err error) {
		txs, err = u.payments.ListTransactions(gctx, payment.TransactionFilter{BranchID: branchID})
		return err
	})
	if branchID != "" {
		active := true
		g.Go(func() (err error) {
			agents, err = u.users.List(gctx, user.Filter{BranchID: branchID, Role: user.RoleAgent, Active: &active})
			return err
		})
	}
	g.Go(func() error {
		// best effort: a failing aggregate degrades to a null rate
		totals, err := u.reports.CollectionTotals(gctx, branchID, schedule.Date(u.now()))
		if err != nil {
			u.log.Warn("collection rate", zap.String("branch_id", branchID), zap.Error(err))
			return nil
		}
		rate = totals.Rate()
		return nil
	})
	if err := g.Wait(); err != nil {
		u.log.Error("load dashboard", zap.String("branch_id", branchID), zap.Error(err))
		return nil, err
	}

	m := &Metrics{
		BranchID:       branchID,
		TotalCustomers: len(customers),
		TotalLoans:     len(apps),
		TotalDisbursed: decimal.Zero,
		CollectionRate: rate,
		PendingLoans:   []loan.Application{},
	}
	for _, a := range apps {
		switch a.Status {
		case loan.StatusPending:
			m.PendingApprovals++
			m.PendingLoans = append(m.PendingLoans, a)
		case loan.StatusDisbursed:
			if a.LoanProduct != nil {
				m.TotalDisbursed = m.TotalDisbursed.Add(a.LoanProduct.PrincipalAmount)
			}
		}
	}
	if len(txs) > recentTransactions {
		txs = txs[:recentTransactions]
	}
	m.RecentTransactions = txs
	if branchID != "" {
		n := len(agents)
		m.ActiveAgents = &n
	}
	return m, nil
}

// Agent is the collection view: today's schedule and this week's totals.
func (u *Usecase) Agent(ctx context.Context, agentID string) (*AgentMetrics, error) {
	today := schedule.Date(u.now())
	var (
		customers []customer.Customer
		apps      []loan.Application
		due       []payment.DailyPayment
		weeks     []payment.WeeklyTracking
	)
	active := true
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		customers, err = u.customers.List(gctx, customer.Filter{AgentID: agentID, Active: &active})
		return err
	})
	g.Go(func() (err error) {
		apps, err = u.loans.List(gctx, loan.Filter{AgentID: agentID, Status: loan.StatusDisbursed})
		return err
	})
	g.Go(func() (err error) {
		due, err = u.payments.ListDailyByAgentDate(gctx, agentID, today)
		return err
	})
	g.Go(func() (err error) {
		weeks, err = u.payments.ListWeekly(gctx, payment.WeeklyFilter{WeekStart: schedule.WeekStart(today), AgentID: agentID})
		return err
	})
	if err := g.Wait(); err != nil {
		u.log.Error("load agent dashboard", zap.String("agent_id", agentID), zap.Error(err))
		return nil, err
	}

	m := &AgentMetrics{
		AgentID:          agentID,
		TotalCustomers:   len(customers),
		ActiveLoans:      len(apps),
		TodayCollections: decimal.Zero,
		WeeklyCollected:  decimal.Zero,
		Schedule:         due,
	}
	for i := range due {
		if due[i].IsPaid {
			m.CompletedCollections++
			m.TodayCollections = m.TodayCollections.Add(due[i].CollectedAmount())
		} else {
			m.PendingCollections++
		}
	}
	for i := range weeks {
		m.WeeklyCollected = m.WeeklyCollected.Add(weeks[i].Total())
	}
	return m, nil
}
