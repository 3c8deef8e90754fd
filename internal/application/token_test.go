package application

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestTokenIssuer(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", 0, nil)

		token, expiresAt, err := issuer.Issue(Principal{ID: "worker-1", Role: RoleWorker})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if d := time.Until(expiresAt); d < DefaultTokenTTL-time.Minute || d > DefaultTokenTTL {
			t.Fatalf("expected default ttl, expires in %v", d)
		}
		principal, err := issuer.Verify(token)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if principal != (Principal{ID: "worker-1", Role: RoleWorker}) {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("expired tokens are rejected", func(t *testing.T) {
		now := time.Now()
		issuer := NewTokenIssuer("secret", time.Minute, func() time.Time { return now })
		token, _, err := issuer.Issue(Principal{ID: "s", Role: RoleStudent})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}

		later := NewTokenIssuer("secret", time.Minute, func() time.Time { return now.Add(2 * time.Minute) })
		if _, err := later.Verify(token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("unsigned tokens are rejected", func(t *testing.T) {
		claims := tokenClaims{ID: "admin-1", Role: RoleAdmin}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := NewTokenIssuer("secret", 0, nil).Verify(token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("unknown roles are rejected", func(t *testing.T) {
		claims := tokenClaims{ID: "x", Role: "ROOT", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := NewTokenIssuer("secret", 0, nil).Verify(token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("empty secret cannot sign", func(t *testing.T) {
		if _, _, err := NewTokenIssuer("", 0, nil).Issue(Principal{ID: "x", Role: RoleAdmin}); err == nil {
			t.Fatalf("expected error")
		}
	})
}
