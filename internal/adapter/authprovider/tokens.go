package authprovider

import (
	"fmt"
	"time"

	"microfinance-backoffice/internal/domain/identity"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

func (p *Provider) issueToken(userID, email, sessionID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(p.ttl)
	c := &claims{
		SessionID: sessionID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
	return s, exp, err
}

// parseToken validates signature, issuer and expiry.
func (p *Provider) parseToken(token string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c,
		func(t *jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	if c.Subject == "" || c.SessionID == "" {
		return nil, identity.ErrInvalidToken
	}
	return c, nil
}
