package migration

import (
	"context"
	"time"
)

// Migration is a single versioned SQL file.
type Migration struct {
	Version     string // numeric version, e.g. "001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // sha256 of SQL
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// MigrationStatus summarises applied and pending migrations.
type MigrationStatus struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// MigrationManager orchestrates the migration process.
type MigrationManager interface {
	RunMigrations(ctx context.Context) error
	GetPendingMigrations(ctx context.Context) ([]Migration, error)
	GetMigrationStatus(ctx context.Context) (*MigrationStatus, error)
}

// FileScanner discovers and parses migration files.
type FileScanner interface {
	ScanMigrations() ([]Migration, error)
	ValidateFileName(filename string) error
	ParseMigrationFile(path string) (*Migration, error)
}

// Executor applies migrations and tracks them in schema_migrations.
type Executor interface {
	InitializeVersionTable(ctx context.Context) error
	// ExecuteMigration runs the migration and records it in a single transaction.
	ExecuteMigration(ctx context.Context, migration Migration) (time.Duration, error)
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}
