package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"microfinance-backoffice/internal/adapter/middleware"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/session"

	"github.com/labstack/echo/v4"
)

var (
	adminID    = strings.Repeat("a", 32)
	branchID   = strings.Repeat("b", 32)
	customerID = strings.Repeat("c", 32)
	productID  = strings.Repeat("d", 32)
	loanID     = strings.Repeat("e", 32)
	agentID    = strings.Repeat("1", 32)
	subAdminID = strings.Repeat("2", 32)
	otherID    = strings.Repeat("9", 32)
)

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func staff(role user.Role) *user.User {
	u := &user.User{Role: role, IsActive: true}
	switch role {
	case user.RoleAdmin:
		u.ID = adminID
	case user.RoleSubAdmin:
		u.ID = subAdminID
		b := branchID
		u.BranchID = &b
	case user.RoleAgent:
		u.ID = agentID
		b := branchID
		u.BranchID = &b
	}
	return u
}

// newCtx builds a request context signed in as as; body may be a string
// sent verbatim, nil, or anything JSON-encodable.
func newCtx(e *echo.Echo, method, target string, body any, as *user.User) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		r = mustJSON(b)
	}
	req := httptest.NewRequest(method, target, r)
	if r != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetSnapshot(c, session.Snapshot{Identity: as})
	return c, rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("bad error json: %v; raw=%s", err, rec.Body.String())
	}
	return er
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
