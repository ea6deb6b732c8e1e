package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrInvalidCredentials  = errors.New("invalid login credentials")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidToken        = errors.New("invalid or expired session token")
	ErrInvalidConfirmation = errors.New("invalid confirmation token")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
)

// EventName follows the auth-state-change vocabulary of the provider.
type EventName string

const (
	EventSignedIn    EventName = "SIGNED_IN"
	EventSignedOut   EventName = "SIGNED_OUT"
	EventSignedUp    EventName = "SIGNED_UP"
	EventUserUpdated EventName = "USER_UPDATED"
)

// User is the provider-side authenticated identity, not the staff profile.
type User struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	EmailConfirmedAt *time.Time        `json:"email_confirmed_at,omitempty"`
	Metadata         map[string]string `json:"user_metadata,omitempty"`
}

func (u *User) Confirmed() bool { return u.EmailConfirmedAt != nil }

type Session struct {
	ID          string    `json:"session_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// Event is an auth-state change. Seq is assigned by the provider and grows
// monotonically, so consumers can drop out-of-order deliveries.
type Event struct {
	Name      EventName         `json:"event"`
	SessionID string            `json:"session_id,omitempty"`
	UserID    string            `json:"user_id"`
	Email     string            `json:"email,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Seq       int64             `json:"seq"`
	At        time.Time         `json:"at"`
}

type SignUpRequest struct {
	Email      string
	Password   string
	RedirectTo string
	Metadata   map[string]string
}

// Metadata keys attached at sign-up and read back by profile provisioning.
const (
	MetaFirstName = "first_name"
	MetaLastName  = "last_name"
	MetaPhone     = "phone"
	MetaRole      = "role"
	MetaBranchID  = "branch_id"
)

// Provider is the authentication service the back office delegates to.
type Provider interface {
	SignUp(ctx context.Context, req SignUpRequest) (*User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	// GetUser resolves the identity behind an access token.
	GetUser(ctx context.Context, token string) (*User, *Session, error)
	ResendVerification(ctx context.Context, email, redirectTo string) error
	ConfirmEmail(ctx context.Context, token string) (*User, error)
	// Subscribe delivers events until ctx is done; the channel is closed then.
	Subscribe(ctx context.Context) (<-chan Event, error)
}
