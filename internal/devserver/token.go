// ABOUTME: Bearer token issuing and validation for the dev server
// ABOUTME: HS256 JWTs with a unique ID so logout can revoke them

package devserver

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errRevoked = errors.New("token has been revoked")

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func newTokenManager(secret string, ttl time.Duration, now func() time.Time) (*tokenManager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("devserver: generating token secret: %w", err)
		}
		key = []byte(hex.EncodeToString(b))
	}
	return &tokenManager{
		secret:  key,
		ttl:     ttl,
		now:     now,
		revoked: make(map[string]time.Time),
	}, nil
}

// Issue creates a signed token for email
func (tm *tokenManager) Issue(email string) (string, error) {
	now := tm.now()
	claims := &tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// Validate verifies signature, expiry, and revocation
func (tm *tokenManager) Validate(raw string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()
	if _, ok := tm.revoked[claims.ID]; ok {
		return nil, errRevoked
	}
	return claims, nil
}

// Revoke invalidates a token until it would have expired anyway
func (tm *tokenManager) Revoke(c *tokenClaims) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	now := tm.now()
	for id, exp := range tm.revoked {
		if now.After(exp) {
			delete(tm.revoked, id)
		}
	}
	exp := now.Add(tm.ttl)
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}
	tm.revoked[c.ID] = exp
}
