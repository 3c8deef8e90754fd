package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

type migrationManager struct {
	scanner  FileScanner
	executor Executor
	logger   *slog.Logger
}

// NewMigrationManager creates a MigrationManager.
func NewMigrationManager(scanner FileScanner, executor Executor, logger *slog.Logger) MigrationManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &migrationManager{
		scanner:  scanner,
		executor: executor,
		logger:   logger.With("component", "migration"),
	}
}

// RunMigrations applies every pending migration in version order and stops at the first failure.
func (m *migrationManager) RunMigrations(ctx context.Context) error {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "schema up to date")
		return nil
	}

	for i, migration := range pending {
		logger := m.logger.With("version", migration.Version, "description", migration.Description)
		elapsed, err := m.executor.ExecuteMigration(ctx, migration)
		if err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}
		logger.InfoContext(ctx, "migration applied", "duration", elapsed, "position", i+1, "total", len(pending))
	}
	return nil
}

// GetPendingMigrations returns migrations that have not been applied yet, after
// verifying the sequence has no gaps and applied files are unchanged.
func (m *migrationManager) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := m.scanner.ScanMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, err
	}

	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	for _, item := range applied {
		number, _ := strconv.Atoi(item.Version)
		appliedByVersion[number] = item
	}

	var pending []Migration
	for _, migration := range available {
		number, _ := strconv.Atoi(migration.Version)
		record, ok := appliedByVersion[number]
		if !ok {
			pending = append(pending, migration)
			continue
		}
		if record.Checksum != "" && record.Checksum != migration.Checksum {
			return nil, NewMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return pending, nil
}

// GetMigrationStatus reports the current version and what is still pending.
func (m *migrationManager) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		PendingCount:      len(pending),
		AppliedMigrations: applied,
		PendingMigrations: pending,
	}
	highest := -1
	for _, item := range applied {
		if number, err := strconv.Atoi(item.Version); err == nil && number > highest {
			highest = number
			status.CurrentVersion = item.Version
		}
	}
	return status, nil
}

func validateSequence(available []Migration, applied []AppliedMigration) error {
	known := make(map[int]bool, len(available))
	for i, migration := range available {
		number, err := strconv.Atoi(migration.Version)
		if err != nil {
			return NewMigrationError(migration.Version, migration.FilePath, "validate sequence",
				fmt.Errorf("%w: version '%s' is not numeric", ErrInvalidVersion, migration.Version))
		}
		if i > 0 {
			previous, _ := strconv.Atoi(available[i-1].Version)
			if number != previous+1 {
				return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, previous+1)
			}
		}
		known[number] = true
	}

	for _, item := range applied {
		number, err := strconv.Atoi(item.Version)
		if err != nil {
			return NewDatabaseError(item.Version, "", "validate sequence",
				fmt.Errorf("%w: applied version '%s' is not numeric", ErrVersionTableCorrupt, item.Version))
		}
		if !known[number] {
			return fmt.Errorf("%w: applied migration %03d not found in available migrations", ErrVersionConflict, number)
		}
	}
	return nil
}
