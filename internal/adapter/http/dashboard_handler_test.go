package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"microfinance-backoffice/internal/domain/change"
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
	"microfinance-backoffice/internal/usecase/dashboard"

	"go.uber.org/zap"
)

// stubFeed replays a fixed list of changes and then closes the stream.
type stubFeed struct {
	mu      sync.Mutex
	changes []change.Change
	table   string
	event   string
}

func (f *stubFeed) Subscribe(_ context.Context, table, event string) (<-chan change.Change, error) {
	f.mu.Lock()
	f.table, f.event = table, event
	f.mu.Unlock()
	ch := make(chan change.Change, len(f.changes))
	for _, c := range f.changes {
		ch <- c
	}
	close(ch)
	return ch, nil
}

type dashboardFixture struct {
	mu       sync.Mutex
	branches []string // branch filter of every customer load
	agents   []string
	h        *DashboardHandler
}

func newDashboardFixture(feed change.Subscriber) *dashboardFixture {
	f := &dashboardFixture{}
	customers := &customermock.Repo{
		ListFn: func(ctx context.Context, flt customer.Filter) ([]customer.Customer, error) {
			f.mu.Lock()
			f.branches = append(f.branches, flt.BranchID)
			f.agents = append(f.agents, flt.AgentID)
			f.mu.Unlock()
			return []customer.Customer{{ID: customerID}}, nil
		},
	}
	loans := &loanmock.Repo{
		ListFn: func(ctx context.Context, flt loan.Filter) ([]loan.Application, error) {
			return []loan.Application{{ID: loanID, Status: loan.StatusPending}}, nil
		},
	}
	payments := &paymentmock.Repo{
		ListTransactionsFn: func(ctx context.Context, flt payment.TransactionFilter) ([]payment.Transaction, error) {
			return nil, nil
		},
		ListDailyByAgentDateFn: func(ctx context.Context, id string, date time.Time) ([]payment.DailyPayment, error) {
			return nil, nil
		},
		ListWeeklyFn: func(ctx context.Context, flt payment.WeeklyFilter) ([]payment.WeeklyTracking, error) {
			return nil, nil
		},
	}
	users := &usermock.Repo{
		ListFn: func(ctx context.Context, flt user.Filter) ([]user.User, error) {
			return []user.User{*staff(user.RoleAgent)}, nil
		},
	}
	reports := &reportmock.Repo{
		CollectionTotalsFn: func(ctx context.Context, b string, asOf time.Time) (report.CollectionTotals, error) {
			return report.CollectionTotals{}, nil
		},
		BranchSummariesFn: func(ctx context.Context) ([]report.BranchSummary, error) {
			return nil, nil
		},
	}
	uc := dashboard.NewUsecase(customers, loans, payments, users, reports, zap.NewNop())
	f.h = NewDashboardHandler(uc, feed, zap.NewNop())
	return f
}

func TestDashboardMine_ViewFollowsRole(t *testing.T) {
	cases := []struct {
		role       user.Role
		wantBranch string
		wantAgent  string
		agentView  bool
	}{
		{user.RoleAdmin, "", "", false},
		{user.RoleSubAdmin, branchID, "", false},
		{user.RoleAgent, "", agentID, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			f := newDashboardFixture(&stubFeed{})
			c, rec := newCtx(newEchoWithValidator(), stdhttp.MethodGet, "/dashboard", nil, staff(tc.role))

			if err := f.h.Mine(c); err != nil {
				t.Fatalf("Mine error: %v", err)
			}
			if rec.Code != stdhttp.StatusOK {
				t.Fatalf("status = %d; body=%s", rec.Code, rec.Body.String())
			}
			if len(f.branches) != 1 || f.branches[0] != tc.wantBranch || f.agents[0] != tc.wantAgent {
				t.Fatalf("customer loads: branches=%v agents=%v", f.branches, f.agents)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("bad json: %v", err)
			}
			_, isAgent := body["agent_id"]
			if isAgent != tc.agentView {
				t.Fatalf("agent view = %v, want %v; body=%s", isAgent, tc.agentView, rec.Body.String())
			}
		})
	}
}

func TestDashboardBranch_SubAdminPinnedToOwnBranch(t *testing.T) {
	f := newDashboardFixture(&stubFeed{})
	c, rec := newCtx(newEchoWithValidator(), stdhttp.MethodGet, "/dashboard/branch?branch_id="+otherID, nil, staff(user.RoleSubAdmin))

	if err := f.h.Branch(c); err != nil {
		t.Fatalf("Branch error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK || f.branches[0] != branchID {
		t.Fatalf("status = %d, branches = %v", rec.Code, f.branches)
	}
	if !strings.Contains(rec.Body.String(), `"active_agents":1`) {
		t.Fatalf("expected active agent count; body=%s", rec.Body.String())
	}
}

func TestDashboardBranch_AdminNeedsBranch(t *testing.T) {
	f := newDashboardFixture(&stubFeed{})
	c, rec := newCtx(newEchoWithValidator(), stdhttp.MethodGet, "/dashboard/branch", nil, staff(user.RoleAdmin))

	if err := f.h.Branch(c); err != nil {
		t.Fatalf("Branch error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDashboardAgent(t *testing.T) {
	cases := []struct {
		name      string
		as        *user.User
		query     string
		want      int
		wantAgent string
	}{
		{"agent sees itself", staff(user.RoleAgent), "?agent_id=" + otherID, stdhttp.StatusOK, agentID},
		{"admin picks an agent", staff(user.RoleAdmin), "?agent_id=" + otherID, stdhttp.StatusOK, otherID},
		{"admin without agent", staff(user.RoleAdmin), "", stdhttp.StatusBadRequest, ""},
		{"sub-admin refused", staff(user.RoleSubAdmin), "?agent_id=" + agentID, stdhttp.StatusForbidden, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newDashboardFixture(&stubFeed{})
			c, rec := newCtx(newEchoWithValidator(), stdhttp.MethodGet, "/dashboard/agent"+tc.query, nil, tc.as)

			if err := f.h.Agent(c); err != nil {
				t.Fatalf("Agent error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d; body=%s", rec.Code, tc.want, rec.Body.String())
			}
			if tc.want != stdhttp.StatusOK {
				if len(f.agents) != 0 {
					t.Fatalf("refused request still loaded data: %v", f.agents)
				}
				return
			}
			if len(f.agents) != 1 || f.agents[0] != tc.wantAgent {
				t.Fatalf("loaded agents = %v, want %s", f.agents, tc.wantAgent)
			}
		})
	}
}

func TestDashboardLive_StreamsInitialMetrics(t *testing.T) {
	feed := &stubFeed{}
	f := newDashboardFixture(feed)
	c, rec := newCtx(newEchoWithValidator(), stdhttp.MethodGet, "/dashboard/live", nil, staff(user.RoleAdmin))

	// the feed closes right away, so the stream ends after the first frame
	if err := f.h.Live(c); err != nil {
		t.Fatalf("Live error: %v", err)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}
	body := rec.Body.String()
	if strings.Count(body, "event: metrics\n") != 1 || !strings.Contains(body, `"total_customers":1`) {
		t.Fatalf("unexpected stream: %q", body)
	}
	if feed.table != change.Wildcard || feed.event != change.Wildcard {
		t.Fatalf("subscribed to %s/%s, want everything", feed.table, feed.event)
	}
}
