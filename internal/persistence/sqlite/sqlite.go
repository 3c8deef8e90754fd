package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/hostel-desk/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the SQLite repositories over one connection pool.
type Storage struct {
	pool *ConnectionPool

	Admins        *AdminRepository
	Students      *StudentRepository
	Workers       *WorkerRepository
	Rooms         *RoomRepository
	Complaints    *ComplaintRepository
	Emergencies   *EmergencyRepository
	Notifications *NotificationRepository
	Attendance    *AttendanceRepository
}

// Open opens a database file with the production configuration.
func Open(dsn string) (*Storage, error) {
	return OpenWithConfig(migration.DefaultSQLiteConfig(dsn))
}

// OpenWithConfig opens storage with an explicit configuration.
func OpenWithConfig(config migration.SQLiteConfig) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:          pool,
		Admins:        NewAdminRepository(pool),
		Students:      NewStudentRepository(pool),
		Workers:       NewWorkerRepository(pool),
		Rooms:         NewRoomRepository(pool),
		Complaints:    NewComplaintRepository(pool),
		Emergencies:   NewEmergencyRepository(pool),
		Notifications: NewNotificationRepository(pool),
		Attendance:    NewAttendanceRepository(pool),
	}, nil
}

// Pool exposes the connection pool, mainly for tests.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.pool.DB()),
		logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}
