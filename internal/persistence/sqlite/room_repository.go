package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/hostel-desk/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool, mapper: NewErrorMapper()}
}

const roomColumns = `room_no, floor, capacity, current_occupancy, room_type, created_at, updated_at`

// CreateRoom inserts a new room. A taken room number yields persistence.ErrDuplicate.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.RoomNo,
		room.Floor,
		room.Capacity,
		room.CurrentOccupancy,
		room.RoomType,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateRoom updates floor, capacity and room type. Occupancy is owned by the
// student repository and is never written here.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE rooms
		SET floor = ?, capacity = ?, room_type = ?, updated_at = ?
		WHERE room_no = ?`,
		room.Floor,
		room.Capacity,
		room.RoomType,
		formatTime(room.UpdatedAt),
		room.RoomNo,
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

// GetRoom retrieves a room by number.
func (r *RoomRepository) GetRoom(ctx context.Context, roomNo int) (persistence.Room, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE room_no = ?`, roomNo)
	return r.scan(row)
}

// ListRooms returns rooms ordered by room number.
func (r *RoomRepository) ListRooms(ctx context.Context, filter persistence.RoomFilter) ([]persistence.Room, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Floor != nil {
		clauses = append(clauses, "floor = ?")
		args = append(args, *filter.Floor)
	}
	if filter.AvailableOnly {
		clauses = append(clauses, "current_occupancy < capacity")
	}

	query := `SELECT ` + roomColumns + ` FROM rooms`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY room_no ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room unless a student still references it, in which
// case persistence.ErrInUse is returned. The check and delete share a transaction.
func (r *RoomRepository) DeleteRoom(ctx context.Context, roomNo int) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var occupants int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE room_no = ?`, roomNo).Scan(&occupants); err != nil {
			return r.mapper.MapError(err)
		}
		if occupants > 0 {
			return persistence.ErrInUse
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE room_no = ?`, roomNo)
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
	})
}

func (r *RoomRepository) scan(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		createdAt, updatedAt string
	)
	if err := row.Scan(&room.RoomNo, &room.Floor, &room.Capacity, &room.CurrentOccupancy, &room.RoomType, &createdAt, &updatedAt); err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}

	var err error
	if room.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

// adjustOccupancy moves one occupant between rooms inside tx. from/to may be nil.
// An unknown target room yields persistence.ErrForeignKey.
func adjustOccupancy(ctx context.Context, tx *sql.Tx, from, to *int, updatedAt string) error {
	if from != nil && to != nil && *from == *to {
		return nil
	}
	if from != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE rooms SET current_occupancy = current_occupancy - 1, updated_at = ?
			WHERE room_no = ? AND current_occupancy > 0`, updatedAt, *from); err != nil {
			return err
		}
	}
	if to == nil {
		return nil
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE rooms SET current_occupancy = current_occupancy + 1, updated_at = ?
		WHERE room_no = ? AND current_occupancy < capacity`, updatedAt, *to)
	if err != nil {
		return err
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE room_no = ?`, *to).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: room %d does not exist", persistence.ErrForeignKey, *to)
	}
	if err != nil {
		return err
	}
	return persistence.ErrCapacityExceeded
}
