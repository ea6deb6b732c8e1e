package http

import (
	"net/http"

	"microfinance-backoffice/internal/domain/change"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var liveTables = map[string]bool{
	change.TableCustomers:        true,
	change.TableLoanApplications: true,
	change.TableDailyPayments:    true,
	change.TableWeeklyTracking:   true,
	change.TableTransactions:     true,
	change.TableUsers:            true,
}

// LiveHandler relays the change feed of one table as server-sent events.
type LiveHandler struct {
	feed change.Subscriber
	log  *zap.Logger
}

func NewLiveHandler(feed change.Subscriber, log *zap.Logger) *LiveHandler {
	return &LiveHandler{feed: feed, log: log}
}

func (h *LiveHandler) Subscribe(c echo.Context) error {
	table := c.Param("table")
	if !liveTables[table] && table != change.Wildcard {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown table " + table})
	}
	event := c.QueryParam("event")
	switch event {
	case "", change.Wildcard, change.Insert, change.Update, change.Delete:
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "event must be INSERT, UPDATE, DELETE or *"})
	}
	if event == "" {
		event = change.Wildcard
	}

	ctx := c.Request().Context()
	src, err := h.feed.Subscribe(ctx, table, event)
	if err != nil {
		return respondError(c, h.log, err)
	}

	// non-admins only see changes of their own branch; unscoped changes
	// carry no branch and pass
	a := actor(c)
	out := make(chan change.Change)
	go func() {
		defer close(out)
		for ch := range src {
			if ch.BranchID != "" && !a.InBranch(ch.BranchID) {
				continue
			}
			select {
			case out <- ch:
			case <-ctx.Done():
				return
			}
		}
	}()
	return stream(c, "change", out)
}
