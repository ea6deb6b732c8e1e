// Package session keeps the resolved staff identity of each provider
// session. Every write, whether from a direct call or a provider event, goes
// through Session.apply under the session lock, and updates carrying a
// sequence older than the last applied one are dropped.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"microfinance-backoffice/internal/domain/identity"
	"microfinance-backoffice/internal/domain/user"

	"go.uber.org/zap"
)

type Kind int

const (
	// Loaded replaces the identity after a resolution.
	Loaded Kind = iota
	SignedIn
	SignedOut
	UserUpdated
)

// Update is one state change. Seq is the provider event sequence; direct
// calls use 0, which is always applied but does not advance the sequence.
type Update struct {
	Kind     Kind
	Identity *user.User
	Seq      int64
}

// Snapshot is the read-only view handed to guards and handlers.
type Snapshot struct {
	Identity *user.User
	Loading  bool
}

const (
	// TombstoneTTL is how long a signed-out session keeps its sequence so
	// late events for it are still dropped.
	TombstoneTTL = 10 * time.Minute
	// SweepInterval paces the removal of expired sessions in Run.
	SweepInterval = time.Minute
)

type Session struct {
	mu       sync.Mutex
	id       string
	identity *user.User
	loading  bool
	seq      int64
	closed   bool
	expires  time.Time
}

func (s *Session) ID() string { return s.id }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Identity: s.identity, Loading: s.loading}
}

// apply reports whether u changed the session.
func (s *Session) apply(u Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	// a late resolution must not clobber an event applied meanwhile
	if u.Kind == Loaded && !s.loading {
		return false
	}
	if u.Seq != 0 {
		if u.Seq <= s.seq {
			return false
		}
		s.seq = u.Seq
	}
	switch u.Kind {
	case Loaded, SignedIn, UserUpdated:
		s.identity = u.Identity
		s.loading = false
	case SignedOut:
		s.identity = nil
		s.loading = false
		s.closed = true
	}
	return true
}

// Resolver loads the staff profile for a provider identity.
type Resolver interface {
	GetByAuthID(ctx context.Context, authID string) (*user.User, error)
}

// Registry owns all sessions of this process. Sessions live until their
// token expires; signed-out ones stay as closed tombstones for TombstoneTTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	resolve  Resolver
	ttl      time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// NewRegistry keeps a session for ttl after it is opened unless SetExpiry
// names the token's own expiry.
func NewRegistry(resolve Resolver, ttl time.Duration, log *zap.Logger) *Registry {
	return &Registry{
		sessions: map[string]*Session{},
		resolve:  resolve,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

// Open returns the session for sid, creating it in the loading state. A
// signed-out sid returns its closed tombstone.
func (r *Registry) Open(sid string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sid]
	if !ok {
		s = &Session{id: sid, loading: true, expires: r.now().Add(r.ttl)}
		r.sessions[sid] = s
	}
	return s
}

// Get returns a live session; tombstones are not reported.
func (r *Registry) Get(sid string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[sid]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s, !s.closed
}

// Len counts tracked sessions, tombstones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SetExpiry pins sid's lifetime to its token expiry.
func (r *Registry) SetExpiry(sid string, at time.Time) {
	s := r.Open(sid)
	s.mu.Lock()
	if !s.closed {
		s.expires = at
	}
	s.mu.Unlock()
}

// Apply routes an update to sid's session. A sign-out closes the session
// and keeps it as a tombstone holding the last sequence.
func (r *Registry) Apply(sid string, u Update) bool {
	s := r.Open(sid)
	changed := s.apply(u)
	if changed && u.Kind == SignedOut {
		s.mu.Lock()
		s.expires = r.now().Add(TombstoneTTL)
		s.mu.Unlock()
	}
	return changed
}

// Sweep drops sessions and tombstones whose expiry has passed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for sid, s := range r.sessions {
		s.mu.Lock()
		expired := !s.expires.IsZero() && !now.Before(s.expires)
		s.mu.Unlock()
		if expired {
			delete(r.sessions, sid)
			n++
		}
	}
	return n
}

// Resolve returns sid's snapshot, loading the identity on first use.
// A nil profile means the provider identity has no staff row.
func (r *Registry) Resolve(ctx context.Context, sid string, load func(context.Context) (*user.User, error)) (Snapshot, error) {
	s := r.Open(sid)
	if snap := s.Snapshot(); !snap.Loading {
		return snap, nil
	}
	p, err := load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s.apply(Update{Kind: Loaded, Identity: p})
	return s.Snapshot(), nil
}

func (r *Registry) sessionsOf(authID string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Session
	for _, s := range r.sessions {
		s.mu.Lock()
		match := !s.closed && s.identity != nil && s.identity.AuthID != nil && *s.identity.AuthID == authID
		s.mu.Unlock()
		if match {
			out = append(out, s)
		}
	}
	return out
}

// Handle applies one provider event.
func (r *Registry) Handle(ctx context.Context, ev identity.Event) {
	switch ev.Name {
	case identity.EventSignedIn:
		p, err := r.profile(ctx, ev.UserID)
		if err != nil {
			return
		}
		r.Apply(ev.SessionID, Update{Kind: SignedIn, Identity: p, Seq: ev.Seq})
	case identity.EventSignedOut:
		r.Apply(ev.SessionID, Update{Kind: SignedOut, Seq: ev.Seq})
	case identity.EventUserUpdated:
		p, err := r.profile(ctx, ev.UserID)
		if err != nil {
			return
		}
		for _, s := range r.sessionsOf(ev.UserID) {
			s.apply(Update{Kind: UserUpdated, Identity: p, Seq: ev.Seq})
		}
	}
}

func (r *Registry) profile(ctx context.Context, authID string) (*user.User, error) {
	p, err := r.resolve.GetByAuthID(ctx, authID)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			r.log.Warn("resolve session profile", zap.String("auth_id", authID), zap.Error(err))
			return nil, err
		}
		return nil, nil
	}
	return p, nil
}

// Run applies provider events in delivery order and sweeps expired
// sessions until ctx ends or the channel closes.
func (r *Registry) Run(ctx context.Context, events <-chan identity.Event) {
	tick := time.NewTicker(SweepInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Handle(ctx, ev)
		case <-tick.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.log.Debug("swept expired sessions", zap.Int("count", n))
			}
		}
	}
}
