package http

import (
	"strconv"
	"time"

	"microfinance-backoffice/internal/adapter/middleware"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/guard"

	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

// actor is set by the guard middleware on every protected route.
func actor(c echo.Context) *user.User { return middleware.Actor(c) }

// parseDate reads an optional YYYY-MM-DD value; empty yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func mustDate(s string) time.Time {
	t, _ := parseDate(s)
	return t
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// homeFor is where a signed-in user lands.
func homeFor(u *user.User) string {
	if u == nil {
		return guard.LoginPath
	}
	return guard.HomeFor(u.Role)
}

func boolQuery(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
