package http

import (
	"context"
	"net/http"

	"microfinance-backoffice/internal/domain/change"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/usecase/dashboard"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	uc   *dashboard.Usecase
	feed change.Subscriber
	log  *zap.Logger
}

func NewDashboardHandler(uc *dashboard.Usecase, feed change.Subscriber, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{uc: uc, feed: feed, log: log}
}

// Mine serves the dashboard matching the caller's role.
func (h *DashboardHandler) Mine(c echo.Context) error {
	out, err := h.uc.For(c.Request().Context(), actor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DashboardHandler) Admin(c echo.Context) error {
	out, err := h.uc.Admin(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Branch serves one branch overview. Sub-admins always get their own.
func (h *DashboardHandler) Branch(c echo.Context) error {
	branchID, _ := actor(c).Scope(c.QueryParam("branch_id"), "")
	if branchID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "branch_id is required"})
	}
	out, err := h.uc.Branch(c.Request().Context(), branchID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DashboardHandler) Agent(c echo.Context) error {
	a := actor(c)
	agentID := a.ID
	switch a.Role {
	case user.RoleAgent:
	case user.RoleAdmin:
		agentID = c.QueryParam("agent_id")
		if agentID == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "agent_id is required"})
		}
	default:
		// branch overviews cover sub-admins
		return respondError(c, h.log, user.ErrForbidden)
	}
	out, err := h.uc.Agent(c.Request().Context(), agentID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Live streams the caller's dashboard, recomputed whenever the change feed
// reports a mutation.
func (h *DashboardHandler) Live(c echo.Context) error {
	a := actor(c)
	compute := func(ctx context.Context) (any, error) { return h.uc.For(ctx, a) }
	ch, err := dashboard.Live(c.Request().Context(), h.feed, compute, h.log)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return stream(c, "metrics", ch)
}
