package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/hostel-desk/internal/persistence"
)

// AttendanceRepository implements persistence.AttendanceRepository using SQLite.
type AttendanceRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewAttendanceRepository creates a new SQLite attendance repository.
func NewAttendanceRepository(pool *ConnectionPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool, mapper: NewErrorMapper()}
}

const attendanceColumns = `id, worker_id, date, clock_in, clock_out, status, created_at, updated_at`

// RecordClockEvent upserts the (worker, date) record. Clock-in stamps clock_in
// and resets status to Present; clock-out stamps clock_out only. record.ID is
// used only when the row is created.
func (r *AttendanceRepository) RecordClockEvent(ctx context.Context, record persistence.Attendance, kind persistence.ClockKind, at time.Time) (persistence.Attendance, error) {
	if record.ID == "" || record.WorkerID == "" || record.Date == "" {
		return persistence.Attendance{}, persistence.ErrConstraintViolation
	}

	var column, onConflict string
	switch kind {
	case persistence.ClockIn:
		column = "clock_in"
		onConflict = "clock_in = excluded.clock_in, status = 'Present'"
	case persistence.ClockOut:
		column = "clock_out"
		onConflict = "clock_out = excluded.clock_out"
	default:
		return persistence.Attendance{}, fmt.Errorf("%w: unknown clock kind %q", persistence.ErrConstraintViolation, kind)
	}

	stamp := formatTime(at)
	query := `
		INSERT INTO attendance (id, worker_id, date, ` + column + `, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'Present', ?, ?)
		ON CONFLICT (worker_id, date) DO UPDATE SET ` + onConflict + `, updated_at = excluded.updated_at
		RETURNING ` + attendanceColumns

	row := r.pool.DB().QueryRowContext(ctx, query, record.ID, record.WorkerID, record.Date, stamp, stamp, stamp)
	return r.scan(row)
}

// CreateAbsence inserts an Absent record and reports false when the worker already has one for the day.
func (r *AttendanceRepository) CreateAbsence(ctx context.Context, record persistence.Attendance) (bool, error) {
	result, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO attendance (id, worker_id, date, status, created_at, updated_at)
		VALUES (?, ?, ?, 'Absent', ?, ?)
		ON CONFLICT (worker_id, date) DO NOTHING`,
		record.ID, record.WorkerID, record.Date, formatTime(record.CreatedAt), formatTime(record.UpdatedAt))
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListAttendance returns a worker's records, most recent day first.
func (r *AttendanceRepository) ListAttendance(ctx context.Context, filter persistence.AttendanceFilter) ([]persistence.Attendance, error) {
	clauses := []string{"worker_id = ?"}
	args := []any{filter.WorkerID}
	if filter.From != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, filter.To)
	}

	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE `+strings.Join(clauses, " AND ")+` ORDER BY date DESC`,
		args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.Attendance
	for rows.Next() {
		record, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

func (r *AttendanceRepository) scan(row rowScanner) (persistence.Attendance, error) {
	var (
		record               persistence.Attendance
		clockIn, clockOut    sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&record.ID, &record.WorkerID, &record.Date, &clockIn, &clockOut, &record.Status, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Attendance{}, r.mapper.MapError(err)
	}

	if record.ClockIn, err = parseNullableTime("clock_in", clockIn); err != nil {
		return persistence.Attendance{}, err
	}
	if record.ClockOut, err = parseNullableTime("clock_out", clockOut); err != nil {
		return persistence.Attendance{}, err
	}
	if record.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Attendance{}, err
	}
	if record.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Attendance{}, err
	}
	return record, nil
}
