package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	collector = "cccccccccccccccccccccccccccccccc"
	hexKey    = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type idemFixture struct {
	mr   *miniredis.Miniredis
	rdb  *redis.Client
	e    *echo.Echo
	runs atomic.Int32
	who  atomic.Value
}

// newIdemFixture mounts a payment route and a per-loan disbursement route
// behind the middleware. respond decides each run's status.
func newIdemFixture(t *testing.T, respond func(run int32) int) *idemFixture {
	t.Helper()
	f := &idemFixture{mr: miniredis.RunT(t)}
	f.rdb = redis.NewClient(&redis.Options{Addr: f.mr.Addr()})
	t.Cleanup(func() { _ = f.rdb.Close() })
	f.who.Store(collector)

	h := func(c echo.Context) error {
		n := f.runs.Add(1)
		status := http.StatusCreated
		if respond != nil {
			status = respond(n)
		}
		return c.JSON(status, map[string]any{"run": n, "loan": c.Param("loan_id")})
	}
	f.e = echo.New()
	f.e.Use(Idempotency(f.rdb, time.Minute, func(echo.Context) string { return f.who.Load().(string) }, zap.NewNop()))
	f.e.POST("/payments", h)
	f.e.GET("/payments", h)
	f.e.POST("/loans/:loan_id/disburse", h)
	return f
}

func (f *idemFixture) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func keyed(k string) map[string]string { return map[string]string{HeaderIdempotencyKey: k} }

func TestIdempotency_ReadsPassThrough(t *testing.T) {
	f := newIdemFixture(t, func(int32) int { return http.StatusOK })
	if rec := f.do(http.MethodGet, "/payments", "", keyed("NOT-VALID")); rec.Code != http.StatusOK {
		t.Fatalf("GET => %d, want 200", rec.Code)
	}
}

func TestIdempotency_KeylessRequestsAlwaysRun(t *testing.T) {
	f := newIdemFixture(t, nil)
	for i := 0; i < 2; i++ {
		if rec := f.do(http.MethodPost, "/payments", `{"actual_amount":"1500"}`, nil); rec.Code != http.StatusCreated {
			t.Fatalf("want 201, got %d", rec.Code)
		}
	}
	if f.runs.Load() != 2 || len(f.mr.Keys()) != 0 {
		t.Fatalf("runs = %d, stored keys = %v", f.runs.Load(), f.mr.Keys())
	}
}

func TestIdempotency_RejectsMalformedHeaders(t *testing.T) {
	f := newIdemFixture(t, nil)
	cases := map[string]map[string]string{
		"bad key":           keyed("NOT-VALID"),
		"bad request-at":    {HeaderIdempotencyKey: hexKey, HeaderRequestAt: "yesterday"},
		"zoneless":          {HeaderIdempotencyKey: hexKey, HeaderRequestAt: "2025-09-05T10:00:00"},
		"skewed request-at": {HeaderIdempotencyKey: hexKey, HeaderRequestAt: time.Now().Add(-maxClockSkew - time.Minute).Format(time.RFC3339)},
	}
	for name, hdr := range cases {
		t.Run(name, func(t *testing.T) {
			if rec := f.do(http.MethodPost, "/payments", `{}`, hdr); rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}
		})
	}
	if f.runs.Load() != 0 {
		t.Fatalf("handler ran %d times", f.runs.Load())
	}
}

func TestIdempotency_RetriedPaymentIsReplayed(t *testing.T) {
	f := newIdemFixture(t, nil)
	hdr := map[string]string{
		HeaderIdempotencyKey: "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88",
		HeaderRequestAt:      time.Now().UTC().Format(time.RFC3339),
	}
	first := f.do(http.MethodPost, "/payments", `{"actual_amount":"1500"}`, hdr)
	again := f.do(http.MethodPost, "/payments", `{"actual_amount":"1500"}`, hdr)

	if first.Code != http.StatusCreated || again.Code != http.StatusCreated {
		t.Fatalf("codes = %d, %d", first.Code, again.Code)
	}
	if first.Body.String() != again.Body.String() || again.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("replay mismatch: %q vs %q", first.Body.String(), again.Body.String())
	}
	if f.runs.Load() != 1 {
		t.Fatalf("payment booked %d times", f.runs.Load())
	}
	if ttl := f.mr.TTL(replayKey(http.MethodPost, "/payments", collector, hdr[HeaderIdempotencyKey])); ttl != time.Minute {
		t.Fatalf("stored ttl = %s", ttl)
	}
}

func TestIdempotency_KeyScopedToConcreteLoan(t *testing.T) {
	f := newIdemFixture(t, nil)
	f.do(http.MethodPost, "/loans/"+strings.Repeat("1", 32)+"/disburse", `{}`, keyed(hexKey))
	rec := f.do(http.MethodPost, "/loans/"+strings.Repeat("2", 32)+"/disburse", `{}`, keyed(hexKey))

	if f.runs.Load() != 2 || rec.Header().Get(HeaderReplayed) != "" {
		t.Fatalf("second loan got a replay; runs = %d", f.runs.Load())
	}
	if !strings.Contains(rec.Body.String(), strings.Repeat("2", 32)) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestIdempotency_KeyScopedToCaller(t *testing.T) {
	f := newIdemFixture(t, nil)
	f.do(http.MethodPost, "/payments", `{}`, keyed(hexKey))
	f.who.Store("dddddddddddddddddddddddddddddddd")
	f.do(http.MethodPost, "/payments", `{}`, keyed(hexKey))
	if f.runs.Load() != 2 {
		t.Fatalf("same key from two staff must run twice, ran %d", f.runs.Load())
	}
}

func TestIdempotency_ServerErrorFreesKey(t *testing.T) {
	f := newIdemFixture(t, func(run int32) int {
		if run == 1 {
			return http.StatusInternalServerError
		}
		return http.StatusCreated
	})
	if rec := f.do(http.MethodPost, "/payments", `{}`, keyed(hexKey)); rec.Code != http.StatusInternalServerError {
		t.Fatalf("first => %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/payments", `{}`, keyed(hexKey)); rec.Code != http.StatusCreated || rec.Header().Get(HeaderReplayed) != "" {
		t.Fatalf("retry => %d, replayed=%q", rec.Code, rec.Header().Get(HeaderReplayed))
	}
}

func TestIdempotency_ClientErrorIsReplayed(t *testing.T) {
	f := newIdemFixture(t, func(int32) int { return http.StatusUnprocessableEntity })
	f.do(http.MethodPost, "/payments", `{}`, keyed(hexKey))
	rec := f.do(http.MethodPost, "/payments", `{}`, keyed(hexKey))
	if rec.Code != http.StatusUnprocessableEntity || f.runs.Load() != 1 {
		t.Fatalf("code = %d, runs = %d", rec.Code, f.runs.Load())
	}
}

func TestIdempotency_Conflicts(t *testing.T) {
	body := `{"actual_amount":"1500"}`
	cases := []struct {
		name string
		held reservation
		send string
	}{
		{"still running", reservation{Pending: true, Fingerprint: fingerprint([]byte(body))}, body},
		{"different body", reservation{Status: http.StatusCreated, Body: []byte(`{"run":1}`), Fingerprint: fingerprint([]byte(body))}, `{"actual_amount":"2000"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newIdemFixture(t, nil)
			store := newReplayStore(f.rdb, time.Minute)
			if err := store.finish(context.Background(), replayKey(http.MethodPost, "/payments", collector, hexKey), tc.held); err != nil {
				t.Fatal(err)
			}
			if rec := f.do(http.MethodPost, "/payments", tc.send, keyed(hexKey)); rec.Code != http.StatusConflict {
				t.Fatalf("want 409, got %d body=%s", rec.Code, rec.Body.String())
			}
			if f.runs.Load() != 0 {
				t.Fatalf("handler ran")
			}
		})
	}
}

func TestIdempotency_StoreDown(t *testing.T) {
	f := newIdemFixture(t, nil)
	f.mr.Close()
	if rec := f.do(http.MethodPost, "/payments", `{}`, keyed(hexKey)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Code)
	}
}
