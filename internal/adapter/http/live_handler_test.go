package http

import (
	stdhttp "net/http"
	"strings"
	"testing"

	"microfinance-backoffice/internal/domain/change"
	"microfinance-backoffice/internal/domain/user"

	"go.uber.org/zap"
)

func TestLiveSubscribe_RejectsBadFilters(t *testing.T) {
	cases := []struct {
		name  string
		table string
		query string
		want  int
	}{
		{"unknown table", "loan_products", "", stdhttp.StatusNotFound},
		{"bad event", change.TableCustomers, "?event=TRUNCATE", stdhttp.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewLiveHandler(&stubFeed{}, zap.NewNop())
			c, rec := newCtx(newEchoWithValidator(), stdhttp.MethodGet, "/live/"+tc.table+tc.query, nil, staff(user.RoleAdmin))
			c.SetParamNames("table")
			c.SetParamValues(tc.table)

			if err := h.Subscribe(c); err != nil {
				t.Fatalf("Subscribe error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestLiveSubscribe_FiltersForeignBranches(t *testing.T) {
	feed := &stubFeed{changes: []change.Change{
		{Table: change.TableCustomers, Event: change.Insert, RecordID: "own", BranchID: branchID},
		{Table: change.TableCustomers, Event: change.Insert, RecordID: "foreign", BranchID: otherID},
		{Table: change.TableCustomers, Event: change.Update, RecordID: "unscoped"},
	}}
	h := NewLiveHandler(feed, zap.NewNop())
	c, rec := newCtx(newEchoWithValidator(), stdhttp.MethodGet, "/live/customers", nil, staff(user.RoleAgent))
	c.SetParamNames("table")
	c.SetParamValues(change.TableCustomers)

	if err := h.Subscribe(c); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	body := rec.Body.String()
	if n := strings.Count(body, "event: change\n"); n != 2 {
		t.Fatalf("frames = %d, want 2; body=%q", n, body)
	}
	if strings.Contains(body, `"foreign"`) || !strings.Contains(body, `"own"`) || !strings.Contains(body, `"unscoped"`) {
		t.Fatalf("unexpected frames: %q", body)
	}
	if feed.table != change.TableCustomers || feed.event != change.Wildcard {
		t.Fatalf("subscribed to %s/%s", feed.table, feed.event)
	}
}

func TestLiveSubscribe_AdminSeesEveryBranch(t *testing.T) {
	feed := &stubFeed{changes: []change.Change{
		{Table: change.TableTransactions, Event: change.Insert, RecordID: "a", BranchID: branchID},
		{Table: change.TableTransactions, Event: change.Insert, RecordID: "b", BranchID: otherID},
	}}
	h := NewLiveHandler(feed, zap.NewNop())
	c, rec := newCtx(newEchoWithValidator(), stdhttp.MethodGet, "/live/transactions?event=INSERT", nil, staff(user.RoleAdmin))
	c.SetParamNames("table")
	c.SetParamValues(change.TableTransactions)

	if err := h.Subscribe(c); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if n := strings.Count(rec.Body.String(), "event: change\n"); n != 2 {
		t.Fatalf("frames = %d, want 2", n)
	}
	if feed.event != change.Insert {
		t.Fatalf("event filter = %q", feed.event)
	}
}
