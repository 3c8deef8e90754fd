package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultTokenTTL matches the seven day lifetime clients expect.
const DefaultTokenTTL = 7 * 24 * time.Hour

type tokenClaims struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens carrying {id, role}.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer constructs an issuer. A non-positive ttl uses DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs a token for principal and returns it with its expiry.
func (t *TokenIssuer) Issue(principal Principal) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, errors.New("token issuer: empty signing secret")
	}
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)
	claims := tokenClaims{
		ID:   principal.ID,
		Role: principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token issuer: sign: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses token and returns the principal it carries. Any signature,
// expiry or claim problem yields ErrUnauthenticated.
func (t *TokenIssuer) Verify(token string) (Principal, error) {
	claims := &tokenClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, ErrUnauthenticated
	}
	// jwt/v4 validates exp against the wall clock; re-check with the injected clock.
	if claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(t.now()) {
		return Principal{}, ErrUnauthenticated
	}
	if claims.ID == "" || !claims.Role.Valid() {
		return Principal{}, ErrUnauthenticated
	}
	return Principal{ID: claims.ID, Role: claims.Role}, nil
}
