package authprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"microfinance-backoffice/internal/domain/identity"
	"microfinance-backoffice/pkg/id"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const minPasswordLen = 6

// Provider is a self-hosted authentication service: identities in the
// database, bcrypt passwords, HS256 access tokens and Redis-backed sessions.
type Provider struct {
	db     *gorm.DB
	rdb    *redis.Client
	log    *zap.Logger
	secret []byte
	issuer string
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

type Options struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost; tests lower it.
	BcryptCost int
}

func New(db *gorm.DB, rdb *redis.Client, log *zap.Logger, opt Options) *Provider {
	cost := opt.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := opt.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Provider{
		db:     db,
		rdb:    rdb,
		log:    log,
		secret: []byte(opt.Secret),
		issuer: opt.Issuer,
		ttl:    ttl,
		cost:   cost,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ identity.Provider = (*Provider)(nil)

func sessionKey(sid string) string { return "auth:session:" + sid }

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (p *Provider) SignUp(ctx context.Context, req identity.SignUpRequest) (*identity.User, error) {
	email := normalizeEmail(req.Email)
	if len(req.Password) < minPasswordLen {
		return nil, identity.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), p.cost)
	if err != nil {
		return nil, err
	}
	meta, err := json.Marshal(req.Metadata)
	if err != nil {
		return nil, err
	}

	now := p.now()
	token := uuid.NewString()
	row := &authIdentity{
		ID:                 uuid.NewString(),
		Email:              email,
		PasswordHash:       string(hash),
		ConfirmationToken:  &token,
		ConfirmationSentAt: &now,
		Metadata:           datatypes.JSON(meta),
	}
	if err := p.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, identity.ErrEmailTaken
		}
		return nil, err
	}
	p.sendConfirmation(row.Email, token, req.RedirectTo)

	u := row.toUser()
	p.publish(ctx, identity.Event{
		Name:     identity.EventSignedUp,
		UserID:   u.ID,
		Email:    u.Email,
		Metadata: u.Metadata,
	})
	return u, nil
}

// sendConfirmation has no mail transport; the link is logged for operators.
func (p *Provider) sendConfirmation(email, token, redirectTo string) {
	link := redirectTo
	if link != "" {
		if u, err := url.Parse(redirectTo); err == nil {
			q := u.Query()
			q.Set("token", token)
			u.RawQuery = q.Encode()
			link = u.String()
		}
	}
	p.log.Info("email confirmation issued", zap.String("email", email), zap.String("link", link))
}

func (p *Provider) findByEmail(ctx context.Context, email string) (*authIdentity, error) {
	var row authIdentity
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	row, err := p.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)) != nil {
		return nil, identity.ErrInvalidCredentials
	}
	if row.EmailConfirmedAt == nil {
		return nil, identity.ErrEmailNotConfirmed
	}

	now := p.now()
	sid := id.NewSessionID()
	token, exp, err := p.issueToken(row.ID, row.Email, sid, now)
	if err != nil {
		return nil, err
	}
	if err := p.rdb.Set(ctx, sessionKey(sid), row.ID, p.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if err := p.db.WithContext(ctx).Model(row).Update("last_sign_in_at", now).Error; err != nil {
		p.log.Warn("record sign-in time", zap.String("user_id", row.ID), zap.Error(err))
	}

	s := &identity.Session{ID: sid, AccessToken: token, ExpiresAt: exp, User: *row.toUser()}
	p.publish(ctx, identity.Event{Name: identity.EventSignedIn, SessionID: sid, UserID: row.ID, Email: row.Email})
	return s, nil
}

// SignOut revokes the session behind token. Revoking an already expired or
// revoked session is not an error.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	c, err := p.parseToken(token)
	if err != nil {
		return err
	}
	if err := p.rdb.Del(ctx, sessionKey(c.SessionID)).Err(); err != nil {
		return err
	}
	p.publish(ctx, identity.Event{Name: identity.EventSignedOut, SessionID: c.SessionID, UserID: c.Subject})
	return nil
}

func (p *Provider) GetUser(ctx context.Context, token string) (*identity.User, *identity.Session, error) {
	c, err := p.parseToken(token)
	if err != nil {
		return nil, nil, err
	}
	owner, err := p.rdb.Get(ctx, sessionKey(c.SessionID)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && owner != c.Subject) {
		return nil, nil, identity.ErrInvalidToken
	}
	if err != nil {
		return nil, nil, err
	}

	var row authIdentity
	if err := p.db.WithContext(ctx).Where("id = ?", c.Subject).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, identity.ErrInvalidToken
		}
		return nil, nil, err
	}
	u := row.toUser()
	s := &identity.Session{ID: c.SessionID, AccessToken: token, ExpiresAt: c.ExpiresAt.Time, User: *u}
	return u, s, nil
}

// ResendVerification issues a fresh confirmation token. Unknown and already
// confirmed addresses succeed silently so the endpoint does not leak accounts.
func (p *Provider) ResendVerification(ctx context.Context, email, redirectTo string) error {
	row, err := p.findByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if row.EmailConfirmedAt != nil {
		return nil
	}
	token := uuid.NewString()
	now := p.now()
	err = p.db.WithContext(ctx).Model(row).Updates(map[string]any{
		"confirmation_token":   token,
		"confirmation_sent_at": now,
	}).Error
	if err != nil {
		return err
	}
	p.sendConfirmation(row.Email, token, redirectTo)
	return nil
}

func (p *Provider) ConfirmEmail(ctx context.Context, token string) (*identity.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, identity.ErrInvalidConfirmation
	}
	var row authIdentity
	err := p.db.WithContext(ctx).Where("confirmation_token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, identity.ErrInvalidConfirmation
	}
	if err != nil {
		return nil, err
	}
	now := p.now()
	err = p.db.WithContext(ctx).Model(&row).Updates(map[string]any{
		"email_confirmed_at": now,
		"confirmation_token": nil,
	}).Error
	if err != nil {
		return nil, err
	}
	row.EmailConfirmedAt = &now
	u := row.toUser()
	p.publish(ctx, identity.Event{Name: identity.EventUserUpdated, UserID: u.ID, Email: u.Email, Metadata: u.Metadata})
	return u, nil
}
