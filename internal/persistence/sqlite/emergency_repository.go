package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/hostel-desk/internal/persistence"
)

// EmergencyRepository implements persistence.EmergencyRepository using SQLite.
type EmergencyRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewEmergencyRepository creates a new SQLite emergency repository.
func NewEmergencyRepository(pool *ConnectionPool) *EmergencyRepository {
	return &EmergencyRepository{pool: pool, mapper: NewErrorMapper()}
}

const emergencySelect = `
	SELECT e.id, e.student_id, e.description, e.room_no, e.status, e.reported_at,
		e.responded_at, e.responded_by, e.resolved_at, e.created_at, e.updated_at,
		s.name, s.room_no
	FROM emergencies e
	LEFT JOIN students s ON s.id = e.student_id`

// CreateEmergency inserts a new emergency.
func (r *EmergencyRepository) CreateEmergency(ctx context.Context, emergency persistence.Emergency) error {
	if emergency.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO emergencies (id, student_id, description, room_no, status, reported_at,
			responded_at, responded_by, resolved_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		emergency.ID,
		emergency.StudentID,
		emergency.Description,
		emergency.RoomNo,
		emergency.Status,
		formatTime(emergency.ReportedAt),
		formatNullableTime(emergency.RespondedAt),
		nullableString(emergency.RespondedBy),
		formatNullableTime(emergency.ResolvedAt),
		formatTime(emergency.CreatedAt),
		formatTime(emergency.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateEmergency overwrites status and response fields.
func (r *EmergencyRepository) UpdateEmergency(ctx context.Context, emergency persistence.Emergency) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE emergencies
		SET status = ?, responded_at = ?, responded_by = ?, resolved_at = ?, updated_at = ?
		WHERE id = ?`,
		emergency.Status,
		formatNullableTime(emergency.RespondedAt),
		nullableString(emergency.RespondedBy),
		formatNullableTime(emergency.ResolvedAt),
		formatTime(emergency.UpdatedAt),
		emergency.ID,
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

// GetEmergency retrieves an emergency by ID.
func (r *EmergencyRepository) GetEmergency(ctx context.Context, id string) (persistence.Emergency, error) {
	row := r.pool.DB().QueryRowContext(ctx, emergencySelect+` WHERE e.id = ?`, id)
	return r.scan(row)
}

// ListEmergencies returns matching emergencies, most recently reported first.
func (r *EmergencyRepository) ListEmergencies(ctx context.Context, filter persistence.EmergencyFilter) ([]persistence.Emergency, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != nil {
		clauses = append(clauses, "e.status = ?")
		args = append(args, *filter.Status)
	}
	if filter.StudentID != nil {
		clauses = append(clauses, "e.student_id = ?")
		args = append(args, *filter.StudentID)
	}

	query := emergencySelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY e.reported_at DESC, e.id DESC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var emergencies []persistence.Emergency
	for rows.Next() {
		emergency, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		emergencies = append(emergencies, emergency)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return emergencies, nil
}

func (r *EmergencyRepository) scan(row rowScanner) (persistence.Emergency, error) {
	var (
		emergency                        persistence.Emergency
		reportedAt, createdAt, updatedAt string
		respondedAt, resolvedAt          sql.NullString
		respondedBy                      sql.NullString
		studentName                      sql.NullString
		studentRoom                      sql.NullInt64
	)
	err := row.Scan(
		&emergency.ID,
		&emergency.StudentID,
		&emergency.Description,
		&emergency.RoomNo,
		&emergency.Status,
		&reportedAt,
		&respondedAt,
		&respondedBy,
		&resolvedAt,
		&createdAt,
		&updatedAt,
		&studentName,
		&studentRoom,
	)
	if err != nil {
		return persistence.Emergency{}, r.mapper.MapError(err)
	}

	emergency.RespondedBy = stringPtr(respondedBy)
	if emergency.ReportedAt, err = parseTime("reported_at", reportedAt); err != nil {
		return persistence.Emergency{}, err
	}
	if emergency.RespondedAt, err = parseNullableTime("responded_at", respondedAt); err != nil {
		return persistence.Emergency{}, err
	}
	if emergency.ResolvedAt, err = parseNullableTime("resolved_at", resolvedAt); err != nil {
		return persistence.Emergency{}, err
	}
	if emergency.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Emergency{}, err
	}
	if emergency.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Emergency{}, err
	}
	if studentName.Valid {
		emergency.Student = &persistence.StudentSnapshot{Name: studentName.String, RoomNo: intPtr(studentRoom)}
	}
	return emergency, nil
}
