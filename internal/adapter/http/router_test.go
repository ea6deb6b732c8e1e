package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"microfinance-backoffice/internal/adapter/middleware"
	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/session"
	"microfinance-backoffice/internal/testutil/branchmock"
	branchuc "microfinance-backoffice/internal/usecase/branch"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const headerTestRole = "X-Test-Role"

// guardedEcho mounts the real route table. Only the branch handler is
// live; the guards must stop every other request before its handler.
func guardedEcho() *echo.Echo {
	repo := &branchmock.Repo{ListFn: func(ctx context.Context) ([]branch.Branch, error) {
		return []branch.Branch{{ID: branchID, Code: "IGD"}}, nil
	}}
	seat := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var snap session.Snapshot
			if r := c.Request().Header.Get(headerTestRole); r != "" {
				snap.Identity = staff(user.Role(r))
			}
			middleware.SetSnapshot(c, snap)
			return next(c)
		}
	}
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	r := &Routes{
		Branches:     NewBranchHandler(branchuc.NewUsecase(repo, zap.NewNop()), zap.NewNop()),
		Authenticate: seat,
		Idempotent:   passthrough,
	}
	e := newEchoWithValidator()
	r.Register(e)
	return e
}

func TestRoutes_Guards(t *testing.T) {
	cases := []struct {
		name     string
		method   string
		path     string
		role     user.Role
		want     int
		redirect string
	}{
		{"anonymous loans", stdhttp.MethodGet, "/loans", "", stdhttp.StatusUnauthorized, "/auth/login"},
		{"anonymous dashboard", stdhttp.MethodGet, "/dashboard", "", stdhttp.StatusUnauthorized, "/auth/login"},
		{"agent approves", stdhttp.MethodPost, "/loans/" + loanID + "/approve", user.RoleAgent, stdhttp.StatusForbidden, "/agent"},
		{"agent disburses", stdhttp.MethodPost, "/loans/" + loanID + "/disburse", user.RoleAgent, stdhttp.StatusForbidden, "/agent"},
		{"sub-admin repairs", stdhttp.MethodPost, "/loans/" + loanID + "/repair-schedule", user.RoleSubAdmin, stdhttp.StatusForbidden, "/subadmin"},
		{"sub-admin admin dashboard", stdhttp.MethodGet, "/dashboard/admin", user.RoleSubAdmin, stdhttp.StatusForbidden, "/subadmin"},
		{"agent staff list", stdhttp.MethodGet, "/staff", user.RoleAgent, stdhttp.StatusForbidden, "/agent"},
		{"agent creates branch", stdhttp.MethodPost, "/branches", user.RoleAgent, stdhttp.StatusForbidden, "/agent"},
		{"anonymous live feed", stdhttp.MethodGet, "/live/customers", "", stdhttp.StatusUnauthorized, "/auth/login"},
	}
	e := guardedEcho()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.role != "" {
				req.Header.Set(headerTestRole, string(tc.role))
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d; body=%s", rec.Code, tc.want, rec.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["redirect"] != tc.redirect {
				t.Fatalf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestRoutes_SignedInSkipsLogin(t *testing.T) {
	req := httptest.NewRequest(stdhttp.MethodPost, "/auth/signin", nil)
	req.Header.Set(headerTestRole, string(user.RoleSubAdmin))
	rec := httptest.NewRecorder()
	guardedEcho().ServeHTTP(rec, req)

	if rec.Code != stdhttp.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/subadmin" {
		t.Fatalf("status = %d, location = %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestRoutes_BranchListIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	guardedEcho().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/branches", nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d; body=%s", rec.Code, rec.Body.String())
	}
}
