// Package auth issues and verifies the HS256 access tokens handed out at
// login, and remembers tokens revoked by logout or account deletion until
// they would expire.
package auth

import (
	"errors"
	"fmt"
	"time"

	"fintrack-server/src/models"

	"github.com/dgraph-io/ristretto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevoked      = errors.New("token has been revoked")
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked *ristretto.Cache
}

func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	revoked, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        1e5,
		MaxCost:            1e4,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("revocation list: %w", err)
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now, revoked: revoked}, nil
}

func (t *Tokens) Issue(u models.User) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing user or token id", ErrInvalidToken)
	}
	if _, found := t.revoked.Get(claims.ID); found {
		return nil, ErrRevoked
	}
	if _, found := t.revoked.Get(subjectKey(claims.UserID)); found {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke denies the token until its own expiry. Ristretto may drop a write
// under contention, so the entry is read back before reporting success.
func (t *Tokens) Revoke(c *Claims) error {
	if c == nil || c.ID == "" {
		return ErrInvalidToken
	}
	var remaining time.Duration
	if c.ExpiresAt == nil {
		remaining = t.ttl
	} else {
		remaining = c.ExpiresAt.Time.Sub(t.now())
	}
	if remaining <= 0 {
		return nil
	}
	// Lives at least as long as the token, measured on the wall clock.
	return t.deny(c.ID, remaining+time.Minute)
}

// RevokeUser denies every token issued to userID so far. No token outlives
// the configured lifetime, so the entry expires once the newest one would.
func (t *Tokens) RevokeUser(userID string) error {
	if userID == "" {
		return ErrInvalidToken
	}
	return t.deny(subjectKey(userID), t.ttl+time.Minute)
}

func (t *Tokens) deny(key string, ttl time.Duration) error {
	if !t.revoked.SetWithTTL(key, struct{}{}, 1, ttl) {
		return errors.New("revocation was not recorded")
	}
	t.revoked.Wait()
	if _, found := t.revoked.Get(key); !found {
		return errors.New("revocation was not recorded")
	}
	return nil
}

// subjectKey cannot collide with a token id, which is always a bare uuid.
func subjectKey(userID string) string {
	return "sub:" + userID
}

func (t *Tokens) Close() {
	t.revoked.Close()
}
