package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"
)

// reservation is what the store holds for one Idempotency-Key: a pending
// marker while the handler runs, then the response to replay.
type reservation struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	RequestAtMS int64     `json:"request_at_ms,omitempty"`
	At          time.Time `json:"at"`
}

func (r reservation) replayable() bool { return !r.Pending && r.Status != 0 && len(r.Body) > 0 }

// replayStore keeps reservations in Redis. Pending markers expire after
// pendingTTL so a crashed request frees its key.
type replayStore struct {
	rdb        *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

func newReplayStore(rdb *redis.Client, ttl time.Duration) *replayStore {
	return &replayStore{rdb: rdb, ttl: ttl, pendingTTL: 60 * time.Second}
}

// replayKey scopes a client key by method, concrete path and caller, so the
// same key sent for two different loans never collides.
func replayKey(method, path, subject, key string) string {
	return "idemp:" + strings.ToLower(method) + ":" + path + ":" + subject + ":" + key
}

// reserve claims key; false means someone already holds it.
func (s *replayStore) reserve(ctx context.Context, key string, r reservation) (bool, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, b, s.pendingTTL).Result()
}

func (s *replayStore) load(ctx context.Context, key string) (reservation, error) {
	var r reservation
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	err = json.Unmarshal(b, &r)
	return r, err
}

func (s *replayStore) finish(ctx context.Context, key string, r reservation) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

func (s *replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func fingerprint(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// validKey accepts a UUID, a 32-char lowercase hex id or a KSUID.
func validKey(k string) bool {
	if reHex32.MatchString(k) {
		return true
	}
	if u, err := uuid.Parse(k); err == nil && len(k) == 36 && u.Version() >= 1 && u.Version() <= 5 {
		return true
	}
	_, err := ksuid.Parse(k)
	return err == nil
}

// parseRequestAt reads epoch seconds, epoch milliseconds or RFC3339 with a
// zone. Zoneless timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}
