package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/hostel-desk/internal/testfixtures"
)

var fastArgon2 = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func testHasher() PasswordHasher {
	return PasswordHasher{Algorithm: HashArgon2id, Argon2id: fastArgon2, BcryptCost: bcrypt.MinCost}
}

type credentialStub struct {
	*studentStore
	*workerStore
	admins map[string]Admin
}

func (c credentialStub) GetAdminByEmail(ctx context.Context, email string) (Admin, error) {
	admin, ok := c.admins[email]
	if !ok {
		return Admin{}, ErrNotFound
	}
	return admin, nil
}

type authFixture struct {
	svc      *AuthService
	students *studentStore
	workers  *workerStore
	admins   map[string]Admin
	tokens   *TokenIssuer
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	hasher := testHasher()

	mustHash := func(password string) string {
		hash, err := hasher.Hash(password)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		return hash
	}
	bcryptHash, err := bcrypt.GenerateFromPassword([]byte("Admin@123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	students := newStudentStore(nil)
	students.students["student-1"] = Student{ID: "student-1", Name: "Asha", Email: "asha@example.com", PasswordHash: mustHash("secret1")}

	workers := newWorkerStore(
		Worker{ID: "worker-1", Name: "Ravi", Phone: "8000000001", Active: true, PasswordHash: mustHash("tools1")},
		Worker{ID: "worker-2", Name: "Mina", Phone: "8000000002", Active: false, PasswordHash: mustHash("tools2")},
	)
	admins := map[string]Admin{
		"admin@example.com":  {ID: "admin-1", Name: "Admin", Email: "admin@example.com", Role: RoleAdmin, PasswordHash: string(bcryptHash)},
		"warden@example.com": {ID: "warden-1", Name: "Warden", Email: "warden@example.com", Role: RoleWarden, PasswordHash: mustHash("keys12")},
	}

	// Tokens are verified against the wall clock, so the issuer uses time.Now.
	tokens := NewTokenIssuer("test-secret", time.Hour, time.Now)
	ids := testfixtures.NewIDGenerator("new")
	svc := NewAuthService(credentialStub{studentStore: students, workerStore: workers, admins: admins}, students, tokens, hasher, ids.NextFunc(), time.Now)
	return authFixture{svc: svc, students: students, workers: workers, admins: admins, tokens: tokens}
}

func TestAuthService_LoginStudent(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("issues a token for valid credentials", func(t *testing.T) {
		result, err := f.svc.LoginStudent(context.Background(), LoginInput{Email: "  ASHA@example.com ", Password: "secret1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Role != RoleStudent || result.ID != "student-1" || result.Name != "Asha" {
			t.Fatalf("unexpected result %+v", result)
		}
		principal, err := f.svc.Authenticate(context.Background(), result.Token)
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		if principal != (Principal{ID: "student-1", Role: RoleStudent}) {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		for _, input := range []LoginInput{
			{Email: "asha@example.com", Password: "wrong"},
			{Email: "nobody@example.com", Password: "secret1"},
			{Email: "", Password: ""},
		} {
			_, err := f.svc.LoginStudent(context.Background(), input)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials for %+v, got %v", input, err)
			}
		}
	})
}

func TestAuthService_LoginAdmin(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("accepts bcrypt seeded admins", func(t *testing.T) {
		result, err := f.svc.LoginAdmin(context.Background(), LoginInput{Email: "admin@example.com", Password: "Admin@123"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Role != RoleAdmin {
			t.Fatalf("expected ADMIN, got %s", result.Role)
		}
	})

	t.Run("wardens carry their own role", func(t *testing.T) {
		result, err := f.svc.LoginAdmin(context.Background(), LoginInput{Email: "warden@example.com", Password: "keys12"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		principal, err := f.svc.Authenticate(context.Background(), result.Token)
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		if principal.Role != RoleWarden {
			t.Fatalf("expected WARDEN, got %s", principal.Role)
		}
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, err := f.svc.LoginAdmin(context.Background(), LoginInput{Email: "admin@example.com", Password: "admin@123"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unreadable hash never authenticates", func(t *testing.T) {
		f.admins["broken@example.com"] = Admin{ID: "broken", Email: "broken@example.com", Role: RoleAdmin, PasswordHash: "plaintext"}

		_, err := f.svc.LoginAdmin(context.Background(), LoginInput{Email: "broken@example.com", Password: "plaintext"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_LoginWorker(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("active worker signs in by phone", func(t *testing.T) {
		result, err := f.svc.LoginWorker(context.Background(), WorkerLoginInput{Phone: "8000000001", Password: "tools1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Role != RoleWorker || result.ID != "worker-1" {
			t.Fatalf("unexpected result %+v", result)
		}
	})

	t.Run("inactive worker is disabled", func(t *testing.T) {
		_, err := f.svc.LoginWorker(context.Background(), WorkerLoginInput{Phone: "8000000002", Password: "tools2"})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})

	t.Run("inactive worker with a wrong password gets no hint", func(t *testing.T) {
		_, err := f.svc.LoginWorker(context.Background(), WorkerLoginInput{Phone: "8000000002", Password: "nope"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown phone", func(t *testing.T) {
		_, err := f.svc.LoginWorker(context.Background(), WorkerLoginInput{Phone: "0000", Password: "tools1"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_RegisterStudent(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("creates the account and signs it in", func(t *testing.T) {
		result, err := f.svc.RegisterStudent(context.Background(), StudentInput{
			Name:     "Bilal",
			Email:    "Bilal@Example.com",
			Phone:    "9000000002",
			Password: "secret2",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Role != RoleStudent || result.ID != "new-1" {
			t.Fatalf("unexpected result %+v", result)
		}
		stored := f.students.students["new-1"]
		if stored.Email != "bilal@example.com" {
			t.Fatalf("expected normalized email, got %q", stored.Email)
		}
		if stored.PasswordHash == "secret2" || !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
			t.Fatalf("expected argon2id hash, got %q", stored.PasswordHash)
		}

		if _, err := f.svc.LoginStudent(context.Background(), LoginInput{Email: "bilal@example.com", Password: "secret2"}); err != nil {
			t.Fatalf("login after register: %v", err)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := f.svc.RegisterStudent(context.Background(), StudentInput{
			Name:     "Asha Again",
			Email:    "ASHA@example.com",
			Phone:    "9000000003",
			Password: "secret3",
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("short password is a validation error", func(t *testing.T) {
		_, err := f.svc.RegisterStudent(context.Background(), StudentInput{Name: "X", Email: "x@example.com", Phone: "1", Password: "12345"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["password"]; !ok {
			t.Fatalf("expected password error, got %v", vErr.FieldErrors)
		}
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("empty token", func(t *testing.T) {
		if _, err := f.svc.Authenticate(context.Background(), "  "); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := NewTokenIssuer("other-secret", time.Hour, time.Now)
		token, _, err := other.Issue(Principal{ID: "student-1", Role: RoleStudent})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if _, err := f.svc.Authenticate(context.Background(), token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := f.svc.Authenticate(context.Background(), "not.a.jwt"); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestPasswordHasher(t *testing.T) {
	t.Run("argon2id round trip", func(t *testing.T) {
		h := testHasher()
		hash, err := h.Hash("pa55word")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		if err := h.Verify(hash, "pa55word"); err != nil {
			t.Fatalf("verify: %v", err)
		}
		if err := h.Verify(hash, "pa55wore"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("bcrypt round trip", func(t *testing.T) {
		h := NewPasswordHasher(HashBcrypt, bcrypt.MinCost)
		hash, err := h.Hash("pa55word")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		if !strings.HasPrefix(hash, "$2") {
			t.Fatalf("expected bcrypt hash, got %q", hash)
		}
		if err := VerifyPassword(hash, "pa55word"); err != nil {
			t.Fatalf("verify: %v", err)
		}
		if err := VerifyPassword(hash, "nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown algorithm falls back to argon2id", func(t *testing.T) {
		h := NewPasswordHasher("scrypt", 0)
		if h.Algorithm != HashArgon2id || h.BcryptCost != bcrypt.DefaultCost {
			t.Fatalf("unexpected hasher %+v", h)
		}
	})

	t.Run("malformed hashes", func(t *testing.T) {
		if err := VerifyPassword("$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", "x"); !errors.Is(err, ErrInvalidPasswordHash) {
			t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
		}
		if err := VerifyPassword("nonsense", "x"); !errors.Is(err, ErrInvalidPasswordHash) {
			t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
		}
	})
}
