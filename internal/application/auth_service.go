package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/hostel-desk/internal/persistence"
)

// CredentialStore exposes account lookups required by the auth service.
type CredentialStore interface {
	GetStudentByEmail(ctx context.Context, email string) (Student, error)
	GetAdminByEmail(ctx context.Context, email string) (Admin, error)
	GetWorkerByPhone(ctx context.Context, phone string) (Worker, error)
}

// TokenSigner issues and verifies bearer tokens.
type TokenSigner interface {
	Issue(principal Principal) (string, time.Time, error)
	Verify(token string) (Principal, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService handles logins, student self-registration and token verification.
type AuthService struct {
	credentials    CredentialStore
	students       StudentRepository
	tokens         TokenSigner
	verifyPassword PasswordVerifier
	hashPassword   PasswordHashFunc
	idGenerator    func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, students StudentRepository, tokens TokenSigner, hasher PasswordHasher, idGenerator func() string, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(credentials, students, tokens, hasher, idGenerator, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, students StudentRepository, tokens TokenSigner, hasher PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		credentials:    credentials,
		students:       students,
		tokens:         tokens,
		verifyPassword: hasher.Verify,
		hashPassword:   hasher.Hash,
		idGenerator:    idGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}
	if s.tokens == nil {
		return fmt.Errorf("token signer not configured")
	}
	return nil
}

// LoginStudent authenticates a student by email and password.
func (s *AuthService) LoginStudent(ctx context.Context, input LoginInput) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	email := normalizeLoginEmail(input.Email)
	logger := s.loggerWith(ctx, "LoginStudent", "email", email)
	defer s.logOutcome(ctx, logger, &result, &err)

	if email == "" || input.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var student Student
	student, err = s.credentials.GetStudentByEmail(ctx, email)
	if err != nil {
		err = credentialLookupError(err)
		return
	}
	if err = s.checkPassword(student.PasswordHash, input.Password); err != nil {
		return
	}

	result, err = s.issue(Principal{ID: student.ID, Role: RoleStudent}, student.Name)
	return
}

// LoginAdmin authenticates an ADMIN or WARDEN account by email and password.
func (s *AuthService) LoginAdmin(ctx context.Context, input LoginInput) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	email := normalizeLoginEmail(input.Email)
	logger := s.loggerWith(ctx, "LoginAdmin", "email", email)
	defer s.logOutcome(ctx, logger, &result, &err)

	if email == "" || input.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var admin Admin
	admin, err = s.credentials.GetAdminByEmail(ctx, email)
	if err != nil {
		err = credentialLookupError(err)
		return
	}
	if err = s.checkPassword(admin.PasswordHash, input.Password); err != nil {
		return
	}
	if !admin.Role.IsStaff() {
		err = fmt.Errorf("admin %s has unexpected role %q", admin.ID, admin.Role)
		return
	}

	result, err = s.issue(Principal{ID: admin.ID, Role: admin.Role}, admin.Name)
	return
}

// LoginWorker authenticates a worker by phone and password. Inactive workers are refused.
func (s *AuthService) LoginWorker(ctx context.Context, input WorkerLoginInput) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	phone := strings.TrimSpace(input.Phone)
	logger := s.loggerWith(ctx, "LoginWorker", "phone", phone)
	defer s.logOutcome(ctx, logger, &result, &err)

	if phone == "" || input.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var worker Worker
	worker, err = s.credentials.GetWorkerByPhone(ctx, phone)
	if err != nil {
		err = credentialLookupError(err)
		return
	}
	if err = s.checkPassword(worker.PasswordHash, input.Password); err != nil {
		return
	}
	if !worker.Active {
		err = ErrAccountDisabled
		return
	}

	result, err = s.issue(Principal{ID: worker.ID, Role: RoleWorker}, worker.Name)
	return
}

// RegisterStudent creates a student account without staff involvement and signs it in.
func (s *AuthService) RegisterStudent(ctx context.Context, input StudentInput) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if s.students == nil {
		err = fmt.Errorf("student repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "RegisterStudent", "email", normalizeLoginEmail(input.Email))
	defer s.logOutcome(ctx, logger, &result, &err)

	var student Student
	student, err = createStudentAccount(ctx, s.students, input, s.hashPassword, s.idGenerator, s.now)
	if err != nil {
		return
	}

	result, err = s.issue(Principal{ID: student.ID, Role: RoleStudent}, student.Name)
	return
}

// Authenticate verifies a bearer token and returns the principal it carries.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.tokens == nil {
		return Principal{}, fmt.Errorf("AuthService not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrUnauthenticated
	}
	principal, err := s.tokens.Verify(token)
	if err != nil {
		s.loggerWith(ctx, "Authenticate").DebugContext(ctx, "token rejected", "error", err)
		return Principal{}, ErrUnauthenticated
	}
	return principal, nil
}

func (s *AuthService) checkPassword(hash, password string) error {
	if err := s.verifyPassword(hash, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrInvalidCredentials
		}
		// A stored hash we cannot parse still must not let the caller in.
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return nil
}

func (s *AuthService) issue(principal Principal, name string) (AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(principal)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, Role: principal.Role, ID: principal.ID, Name: name, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) logOutcome(ctx context.Context, logger *slog.Logger, result *AuthResult, err *error) {
	if *err != nil {
		logger.ErrorContext(ctx, "authentication failed", "error", *err, "error_kind", ErrorKind(*err))
		return
	}
	logger.With(
		"account_id", result.ID,
		"role", string(result.Role),
	).InfoContext(ctx, "authentication succeeded")
}

func normalizeLoginEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func credentialLookupError(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrInvalidCredentials
	}
	return err
}
