package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/hostel-desk/internal/persistence"
)

// StudentRepository implements persistence.StudentRepository using SQLite.
type StudentRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewStudentRepository creates a new SQLite student repository.
func NewStudentRepository(pool *ConnectionPool) *StudentRepository {
	return &StudentRepository{pool: pool, mapper: NewErrorMapper()}
}

const studentColumns = `id, name, email, phone, room_no, password_hash, join_date, emergency_contact, created_at, updated_at`

// CreateStudent inserts a student and, when a room is set, claims a bed in it.
// A full room yields persistence.ErrCapacityExceeded; an unknown room persistence.ErrForeignKey.
func (r *StudentRepository) CreateStudent(ctx context.Context, student persistence.Student) error {
	if student.ID == "" || student.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := adjustOccupancy(ctx, tx, nil, student.RoomNo, formatTime(student.UpdatedAt)); err != nil {
			return r.mapper.MapError(err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO students (`+studentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			student.ID,
			student.Name,
			normalizeEmail(student.Email),
			student.Phone,
			nullableInt(student.RoomNo),
			student.PasswordHash,
			formatTime(student.JoinDate),
			student.EmergencyContact,
			formatTime(student.CreatedAt),
			formatTime(student.UpdatedAt),
		)
		return r.mapper.MapError(err)
	})
}

// UpdateStudent overwrites the student's mutable fields. Moving to another
// room releases the old bed and claims the new one in the same transaction.
func (r *StudentRepository) UpdateStudent(ctx context.Context, student persistence.Student) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var current sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT room_no FROM students WHERE id = ?`, student.ID).Scan(&current)
		if err != nil {
			return r.mapper.MapError(err)
		}

		if err := adjustOccupancy(ctx, tx, intPtr(current), student.RoomNo, formatTime(student.UpdatedAt)); err != nil {
			return r.mapper.MapError(err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE students
			SET name = ?, email = ?, phone = ?, room_no = ?, password_hash = ?, emergency_contact = ?, updated_at = ?
			WHERE id = ?`,
			student.Name,
			normalizeEmail(student.Email),
			student.Phone,
			nullableInt(student.RoomNo),
			student.PasswordHash,
			student.EmergencyContact,
			formatTime(student.UpdatedAt),
			student.ID,
		)
		return r.mapper.MapError(err)
	})
}

// GetStudent retrieves a student by ID.
func (r *StudentRepository) GetStudent(ctx context.Context, id string) (persistence.Student, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	return r.scan(row)
}

// GetStudentByEmail retrieves a student by case-insensitive email.
func (r *StudentRepository) GetStudentByEmail(ctx context.Context, email string) (persistence.Student, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE email = ?`, normalizeEmail(email))
	return r.scan(row)
}

// ListStudents returns every student, newest first.
func (r *StudentRepository) ListStudents(ctx context.Context) ([]persistence.Student, error) {
	return r.list(ctx, `SELECT `+studentColumns+` FROM students ORDER BY created_at DESC, id ASC`)
}

// ListStudentsByRoom returns the students living in roomNo ordered by name.
func (r *StudentRepository) ListStudentsByRoom(ctx context.Context, roomNo int) ([]persistence.Student, error) {
	return r.list(ctx, `SELECT `+studentColumns+` FROM students WHERE room_no = ? ORDER BY name ASC, id ASC`, roomNo)
}

func (r *StudentRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Student, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var students []persistence.Student
	for rows.Next() {
		student, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return students, nil
}

func (r *StudentRepository) scan(row rowScanner) (persistence.Student, error) {
	var (
		student                        persistence.Student
		roomNo                         sql.NullInt64
		joinDate, createdAt, updatedAt string
	)
	err := row.Scan(
		&student.ID,
		&student.Name,
		&student.Email,
		&student.Phone,
		&roomNo,
		&student.PasswordHash,
		&joinDate,
		&student.EmergencyContact,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Student{}, r.mapper.MapError(err)
	}

	student.RoomNo = intPtr(roomNo)
	if student.JoinDate, err = parseTime("join_date", joinDate); err != nil {
		return persistence.Student{}, err
	}
	if student.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Student{}, err
	}
	if student.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Student{}, err
	}
	return student, nil
}
