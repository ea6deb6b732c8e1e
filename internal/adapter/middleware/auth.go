package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"microfinance-backoffice/internal/domain/identity"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/guard"
	"microfinance-backoffice/internal/session"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CookieAccessToken carries the access token for clients that cannot set
// the Authorization header, such as EventSource.
const CookieAccessToken = "access_token"

const (
	ctxSnapshot  = "auth.snapshot"
	ctxSessionID = "auth.session_id"
	ctxToken     = "auth.token"
)

// Identifier resolves the staff profile and provider session behind a token.
type Identifier interface {
	CurrentUser(ctx context.Context, token string) (*user.User, *identity.Session, error)
}

func bearer(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if ck, err := r.Cookie(CookieAccessToken); err == nil {
		return ck.Value
	}
	return ""
}

// Authenticate stores the caller's session snapshot on the context. Missing
// or invalid tokens leave an anonymous snapshot; guards decide what that
// means for the route.
func Authenticate(id Identifier, reg *session.Registry, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearer(c.Request())
			if token == "" {
				SetSnapshot(c, session.Snapshot{})
				return next(c)
			}
			ctx := c.Request().Context()
			p, sess, err := id.CurrentUser(ctx, token)
			switch {
			case errors.Is(err, identity.ErrInvalidToken):
				SetSnapshot(c, session.Snapshot{})
				return next(c)
			case err != nil:
				log.Error("authenticate", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session lookup failed"})
			}

			snap, err := reg.Resolve(ctx, sess.ID, func(context.Context) (*user.User, error) { return p, nil })
			if err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session lookup failed"})
			}
			if !sess.ExpiresAt.IsZero() {
				reg.SetExpiry(sess.ID, sess.ExpiresAt)
			}
			// the row read for this request wins over the cached identity on deactivation
			if p == nil || !p.IsActive {
				snap.Identity = nil
			}
			SetSnapshot(c, snap)
			c.Set(ctxSessionID, sess.ID)
			c.Set(ctxToken, token)
			return next(c)
		}
	}
}

// SetSnapshot seats the resolved session on the request.
func SetSnapshot(c echo.Context, s session.Snapshot) { c.Set(ctxSnapshot, s) }

func Snapshot(c echo.Context) session.Snapshot {
	s, _ := c.Get(ctxSnapshot).(session.Snapshot)
	return s
}

// Actor is the signed-in staff member, nil when anonymous.
func Actor(c echo.Context) *user.User { return Snapshot(c).Identity }

func SessionID(c echo.Context) string {
	s, _ := c.Get(ctxSessionID).(string)
	return s
}

func AccessToken(c echo.Context) string {
	s, _ := c.Get(ctxToken).(string)
	return s
}

// Subject keys per-caller state such as idempotency records.
func Subject(c echo.Context) string {
	if a := Actor(c); a != nil {
		return a.ID
	}
	return ""
}

// Require turns a guard policy into middleware. A caller without identity
// gets 401, a caller with the wrong role 403; both carry the redirect.
func Require(policy func(session.Snapshot) guard.Decision) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := Snapshot(c)
			d := policy(snap)
			if d.Allow {
				return next(c)
			}
			if snap.Identity == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required", "redirect": d.Redirect})
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient role", "redirect": d.Redirect})
		}
	}
}

func RequireIdentity() echo.MiddlewareFunc { return Require(guard.RequireIdentity) }

func RequireRoles(roles ...user.Role) echo.MiddlewareFunc {
	return Require(func(s session.Snapshot) guard.Decision { return guard.RequireRoles(s, roles...) })
}

// PublicOnly sends signed-in callers to their home with 303 See Other.
func PublicOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if d := guard.PublicOnly(Snapshot(c)); !d.Allow {
				return c.Redirect(http.StatusSeeOther, d.Redirect)
			}
			return next(c)
		}
	}
}
