package sqlite

import (
	"context"
	"strings"

	"github.com/example/hostel-desk/internal/persistence"
)

// WorkerRepository implements persistence.WorkerRepository using SQLite.
type WorkerRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewWorkerRepository creates a new SQLite worker repository.
func NewWorkerRepository(pool *ConnectionPool) *WorkerRepository {
	return &WorkerRepository{pool: pool, mapper: NewErrorMapper()}
}

const workerColumns = `id, name, role, phone, duty_start_time, duty_end_time, active, password_hash, created_at, updated_at`

// CreateWorker inserts a worker. A taken phone number yields persistence.ErrDuplicate.
func (r *WorkerRepository) CreateWorker(ctx context.Context, worker persistence.Worker) error {
	if worker.ID == "" || worker.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO workers (`+workerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		worker.ID,
		worker.Name,
		worker.Role,
		strings.TrimSpace(worker.Phone),
		worker.DutyStartTime,
		worker.DutyEndTime,
		boolToInt(worker.Active),
		worker.PasswordHash,
		formatTime(worker.CreatedAt),
		formatTime(worker.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateWorker overwrites the worker's mutable fields.
func (r *WorkerRepository) UpdateWorker(ctx context.Context, worker persistence.Worker) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE workers
		SET name = ?, role = ?, phone = ?, duty_start_time = ?, duty_end_time = ?, active = ?, password_hash = ?, updated_at = ?
		WHERE id = ?`,
		worker.Name,
		worker.Role,
		strings.TrimSpace(worker.Phone),
		worker.DutyStartTime,
		worker.DutyEndTime,
		boolToInt(worker.Active),
		worker.PasswordHash,
		formatTime(worker.UpdatedAt),
		worker.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetWorker retrieves a worker by ID.
func (r *WorkerRepository) GetWorker(ctx context.Context, id string) (persistence.Worker, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = ?`, id)
	return r.scan(row)
}

// GetWorkerByPhone retrieves a worker by phone number.
func (r *WorkerRepository) GetWorkerByPhone(ctx context.Context, phone string) (persistence.Worker, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+workerColumns+` FROM workers WHERE phone = ?`, strings.TrimSpace(phone))
	return r.scan(row)
}

// ListWorkers returns workers ordered by name.
func (r *WorkerRepository) ListWorkers(ctx context.Context, filter persistence.WorkerFilter) ([]persistence.Worker, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Role != nil {
		clauses = append(clauses, "role = ?")
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		clauses = append(clauses, "active = ?")
		args = append(args, boolToInt(*filter.Active))
	}

	query := `SELECT ` + workerColumns + ` FROM workers`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var workers []persistence.Worker
	for rows.Next() {
		worker, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return workers, nil
}

func (r *WorkerRepository) scan(row rowScanner) (persistence.Worker, error) {
	var (
		worker               persistence.Worker
		active               int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&worker.ID,
		&worker.Name,
		&worker.Role,
		&worker.Phone,
		&worker.DutyStartTime,
		&worker.DutyEndTime,
		&active,
		&worker.PasswordHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Worker{}, r.mapper.MapError(err)
	}

	worker.Active = active != 0
	if worker.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Worker{}, err
	}
	if worker.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Worker{}, err
	}
	return worker, nil
}
