package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/hostel-desk/internal/persistence"
)

// ComplaintRepository implements persistence.ComplaintRepository using SQLite.
type ComplaintRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewComplaintRepository creates a new SQLite complaint repository.
func NewComplaintRepository(pool *ConnectionPool) *ComplaintRepository {
	return &ComplaintRepository{pool: pool, mapper: NewErrorMapper()}
}

const complaintSelect = `
	SELECT c.id, c.student_id, c.category, c.description, c.status, c.priority,
		c.assigned_worker_id, c.assigned_by_id, c.completed_at, c.created_at, c.updated_at,
		s.name, s.room_no
	FROM complaints c
	LEFT JOIN students s ON s.id = c.student_id`

// CreateComplaint inserts the complaint and its initial history row atomically.
func (r *ComplaintRepository) CreateComplaint(ctx context.Context, complaint persistence.Complaint, entry persistence.ComplaintHistory) error {
	if complaint.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO complaints (id, student_id, category, description, status, priority,
				assigned_worker_id, assigned_by_id, completed_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			complaint.ID,
			complaint.StudentID,
			complaint.Category,
			complaint.Description,
			complaint.Status,
			complaint.Priority,
			nullableString(complaint.AssignedWorkerID),
			nullableString(complaint.AssignedByID),
			formatNullableTime(complaint.CompletedAt),
			formatTime(complaint.CreatedAt),
			formatTime(complaint.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertHistory(ctx, tx, entry)
	})
}

// UpdateComplaint overwrites the complaint's mutable fields and appends entry, atomically.
func (r *ComplaintRepository) UpdateComplaint(ctx context.Context, complaint persistence.Complaint, entry persistence.ComplaintHistory) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE complaints
			SET status = ?, priority = ?, assigned_worker_id = ?, assigned_by_id = ?, completed_at = ?, updated_at = ?
			WHERE id = ?`,
			complaint.Status,
			complaint.Priority,
			nullableString(complaint.AssignedWorkerID),
			nullableString(complaint.AssignedByID),
			formatNullableTime(complaint.CompletedAt),
			formatTime(complaint.UpdatedAt),
			complaint.ID,
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
		return r.insertHistory(ctx, tx, entry)
	})
}

func (r *ComplaintRepository) insertHistory(ctx context.Context, tx *sql.Tx, entry persistence.ComplaintHistory) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO complaint_history (id, complaint_id, old_status, new_status, changed_by, changed_by_type, notes, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ComplaintID,
		entry.OldStatus,
		entry.NewStatus,
		entry.ChangedBy,
		entry.ChangedByType,
		entry.Notes,
		formatTime(entry.ChangedAt),
	)
	return r.mapper.MapError(err)
}

// GetComplaint retrieves a complaint by ID with its student snapshot.
func (r *ComplaintRepository) GetComplaint(ctx context.Context, id string) (persistence.Complaint, error) {
	row := r.pool.DB().QueryRowContext(ctx, complaintSelect+` WHERE c.id = ?`, id)
	return r.scan(row)
}

// ListComplaints returns matching complaints, newest first.
func (r *ComplaintRepository) ListComplaints(ctx context.Context, filter persistence.ComplaintFilter) ([]persistence.Complaint, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.StudentID != nil {
		clauses = append(clauses, "c.student_id = ?")
		args = append(args, *filter.StudentID)
	}
	if filter.AssignedWorkerID != nil {
		clauses = append(clauses, "c.assigned_worker_id = ?")
		args = append(args, *filter.AssignedWorkerID)
	}
	if filter.Status != nil {
		clauses = append(clauses, "c.status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Category != nil {
		clauses = append(clauses, "c.category = ?")
		args = append(args, *filter.Category)
	}

	query := complaintSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var complaints []persistence.Complaint
	for rows.Next() {
		complaint, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, complaint)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return complaints, nil
}

// ListComplaintHistory returns the audit trail of a complaint in the order it was written.
func (r *ComplaintRepository) ListComplaintHistory(ctx context.Context, complaintID string) ([]persistence.ComplaintHistory, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, complaint_id, old_status, new_status, changed_by, changed_by_type, notes, changed_at
		FROM complaint_history
		WHERE complaint_id = ?
		ORDER BY changed_at ASC, rowid ASC`, complaintID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.ComplaintHistory
	for rows.Next() {
		var (
			entry     persistence.ComplaintHistory
			changedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.ComplaintID, &entry.OldStatus, &entry.NewStatus,
			&entry.ChangedBy, &entry.ChangedByType, &entry.Notes, &changedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if entry.ChangedAt, err = parseTime("changed_at", changedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}

func (r *ComplaintRepository) scan(row rowScanner) (persistence.Complaint, error) {
	var (
		complaint                  persistence.Complaint
		assignedWorker, assignedBy sql.NullString
		completedAt                sql.NullString
		createdAt, updatedAt       string
		studentName                sql.NullString
		studentRoom                sql.NullInt64
	)
	err := row.Scan(
		&complaint.ID,
		&complaint.StudentID,
		&complaint.Category,
		&complaint.Description,
		&complaint.Status,
		&complaint.Priority,
		&assignedWorker,
		&assignedBy,
		&completedAt,
		&createdAt,
		&updatedAt,
		&studentName,
		&studentRoom,
	)
	if err != nil {
		return persistence.Complaint{}, r.mapper.MapError(err)
	}

	complaint.AssignedWorkerID = stringPtr(assignedWorker)
	complaint.AssignedByID = stringPtr(assignedBy)
	if complaint.CompletedAt, err = parseNullableTime("completed_at", completedAt); err != nil {
		return persistence.Complaint{}, err
	}
	if complaint.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Complaint{}, err
	}
	if complaint.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Complaint{}, err
	}
	if studentName.Valid {
		complaint.Student = &persistence.StudentSnapshot{Name: studentName.String, RoomNo: intPtr(studentRoom)}
	}
	return complaint, nil
}
