// Command seed-admin creates the administrative account used to bootstrap a
// fresh hostel database. Admins and wardens cannot register through the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/hostel-desk/internal/application"
	"github.com/example/hostel-desk/internal/config"
	"github.com/example/hostel-desk/internal/persistence"
	"github.com/example/hostel-desk/internal/persistence/sqlite"
)

const defaultPassword = "Admin@123"

type seedOptions struct {
	dsn        string
	name       string
	email      string
	phone      string
	role       string
	password   string
	hash       string
	bcryptCost int
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("failed to read .env", "error", err)
		os.Exit(1)
	}
	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func parseOptions(args []string, getenv func(string) string, output io.Writer) (seedOptions, error) {
	opts := seedOptions{}
	fs := flag.NewFlagSet("seed-admin", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.dsn, "db", envOr(getenv, "HOSTEL_SQLITE_DSN", "hostel.db"), "SQLite database path")
	fs.StringVar(&opts.name, "name", "Admin", "display name")
	fs.StringVar(&opts.email, "email", "admin@example.com", "login email")
	fs.StringVar(&opts.phone, "phone", "9999999999", "contact phone")
	fs.StringVar(&opts.role, "role", string(application.RoleAdmin), "ADMIN or WARDEN")
	fs.StringVar(&opts.password, "password", envOr(getenv, "HOSTEL_SEED_ADMIN_PASSWORD", defaultPassword), "initial password")
	fs.StringVar(&opts.hash, "hash", envOr(getenv, "HOSTEL_PASSWORD_HASH", string(application.HashArgon2id)), "argon2id or bcrypt")
	fs.IntVar(&opts.bcryptCost, "bcrypt-cost", 10, "bcrypt cost when -hash=bcrypt")
	if err := fs.Parse(args); err != nil {
		return seedOptions{}, err
	}

	opts.email = strings.ToLower(strings.TrimSpace(opts.email))
	opts.role = strings.ToUpper(strings.TrimSpace(opts.role))
	switch {
	case opts.email == "":
		return seedOptions{}, errors.New("email is required")
	case opts.role != string(application.RoleAdmin) && opts.role != string(application.RoleWarden):
		return seedOptions{}, fmt.Errorf("role must be ADMIN or WARDEN, got %q", opts.role)
	case opts.password == "":
		return seedOptions{}, errors.New("password is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout io.Writer, logger *slog.Logger) error {
	opts, err := parseOptions(args, getenv, stdout)
	if err != nil {
		return err
	}

	storage, err := sqlite.Open(opts.dsn)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()
	if err := storage.Migrate(ctx, logger); err != nil {
		return err
	}

	return seedAdmin(ctx, storage.Admins, opts, uuid.NewString, time.Now, stdout)
}

func seedAdmin(ctx context.Context, admins persistence.AdminRepository, opts seedOptions, idGenerator func() string, now func() time.Time, stdout io.Writer) error {
	if _, err := admins.GetAdminByEmail(ctx, opts.email); err == nil {
		fmt.Fprintf(stdout, "admin %s already exists\n", opts.email)
		return nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := application.NewPasswordHasher(application.HashAlgorithm(opts.hash), opts.bcryptCost).Hash(opts.password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	at := now().UTC()
	admin := persistence.Admin{
		ID:           idGenerator(),
		Name:         opts.name,
		Email:        opts.email,
		PasswordHash: hash,
		Role:         opts.role,
		Phone:        opts.phone,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	if err := admins.CreateAdmin(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	fmt.Fprintf(stdout, "created %s %s (%s)\n", admin.Role, admin.Email, admin.ID)
	return nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		return value
	}
	return fallback
}
