package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderRequestAt is optional; when sent it must be within maxClockSkew.
	HeaderRequestAt = "X-Request-At"
	HeaderReplayed  = "Idempotent-Replayed"

	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

// teeWriter copies the response body aside for the replay entry.
type teeWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func idempotencyError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// Idempotency replays the stored response of a mutating request carrying an
// Idempotency-Key already seen for the same path and subject, so a retried
// payment or disbursement never books twice. Requests without the header
// pass through. subject names the caller, normally the staff id set by
// Authenticate.
func Idempotency(rdb *redis.Client, ttl time.Duration, subject func(echo.Context) string, log *zap.Logger) echo.MiddlewareFunc {
	store := newReplayStore(rdb, ttl)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			clientKey := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if clientKey == "" {
				return next(c)
			}
			if !validKey(clientKey) {
				return idempotencyError(c, http.StatusBadRequest, "invalid Idempotency-Key format")
			}

			var reqAtMS int64
			if raw := req.Header.Get(HeaderRequestAt); raw != "" {
				at, err := parseRequestAt(raw)
				if err != nil {
					return idempotencyError(c, http.StatusBadRequest, err.Error())
				}
				now := time.Now().UTC()
				if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
					return idempotencyError(c, http.StatusBadRequest, HeaderRequestAt+" too skewed")
				}
				reqAtMS = at.UnixMilli()
			}

			who := "anonymous"
			if subject != nil {
				if s := subject(c); s != "" {
					who = s
				}
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			fp := fingerprint(body)
			key := replayKey(req.Method, req.URL.Path, who, clientKey)

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			ok, err := store.reserve(ctx, key, reservation{Pending: true, Fingerprint: fp, RequestAtMS: reqAtMS, At: time.Now().UTC()})
			if err != nil {
				log.Error("idempotency store", zap.String("key", key), zap.Error(err))
				return idempotencyError(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !ok {
				prev, err := store.load(ctx, key)
				if err != nil {
					log.Warn("idempotency load", zap.String("key", key), zap.Error(err))
				}
				switch {
				case prev.Fingerprint != "" && prev.Fingerprint != fp:
					return idempotencyError(c, http.StatusConflict, "Idempotency-Key reused with different body")
				case prev.replayable():
					log.Info("idempotent replay", zap.String("subject", who), zap.String("path", req.URL.Path))
					c.Response().Header().Set(HeaderReplayed, "true")
					return c.Blob(prev.Status, echo.MIMEApplicationJSON, prev.Body)
				}
				return idempotencyError(c, http.StatusConflict, "request is already in progress")
			}

			tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = tw
			if err := next(c); err != nil {
				c.Error(err)
			}

			// failed attempts are not replayed; the key may be retried
			if tw.status >= http.StatusInternalServerError {
				if err := store.release(context.Background(), key); err != nil {
					log.Warn("idempotency release", zap.String("key", key), zap.Error(err))
				}
				return nil
			}
			done := reservation{Status: tw.status, Body: tw.buf.Bytes(), Fingerprint: fp, RequestAtMS: reqAtMS, At: time.Now().UTC()}
			if err := store.finish(context.Background(), key, done); err != nil {
				log.Warn("idempotency save", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
