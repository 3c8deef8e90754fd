package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/hostel-desk/internal/persistence"
)

// RoomQuery narrows room listings.
type RoomQuery struct {
	Floor         *int
	AvailableOnly bool
}

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, roomNo int) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	DeleteRoom(ctx context.Context, roomNo int) error
	ListRooms(ctx context.Context, query RoomQuery) ([]Room, error)
}

// OccupantDirectory lists the students living in a room.
type OccupantDirectory interface {
	ListStudentsByRoom(ctx context.Context, roomNo int) ([]Student, error)
}

const (
	msgRoomExists   = "Room number already exists"
	msgRoomOccupied = "Cannot delete room with assigned students"
)

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms     RoomRepository
	occupants OccupantDirectory
	now       func() time.Time
	logger    *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, occupants OccupantDirectory, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, occupants, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, occupants OccupantDirectory, now func() time.Time, logger *slog.Logger) *RoomService {
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, occupants: occupants, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new, empty room. Only admins may create rooms.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.ID,
		"room_no", params.Input.RoomNo,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room created")
	}()

	if params.Principal.Role != RoleAdmin {
		err = ErrForbidden
		return
	}

	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	room = Room{
		RoomNo:           params.Input.RoomNo,
		Floor:            params.Input.Floor,
		Capacity:         params.Input.Capacity,
		CurrentOccupancy: 0,
		RoomType:         strings.TrimSpace(params.Input.RoomType),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	var persisted Room
	persisted, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	room = persisted
	return
}

// GetRoom returns a room with the students currently assigned to it.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, roomNo int) (details RoomDetails, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}
	if principal.Role == RoleWorker || !principal.Role.Valid() {
		err = ErrForbidden
		return
	}

	details.Room, err = s.rooms.GetRoom(ctx, roomNo)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}
	if s.occupants != nil {
		details.Students, err = s.occupants.ListStudentsByRoom(ctx, roomNo)
		if err != nil {
			s.loggerWith(ctx, "GetRoom", "room_no", roomNo).
				ErrorContext(ctx, "failed to list occupants", "error", err)
			return RoomDetails{}, err
		}
	}
	if details.Students == nil {
		details.Students = []Student{}
	}
	return
}

// UpdateRoom applies a partial update. Capacity may not drop below current occupancy.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.ID,
		"room_no", params.RoomNo,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomNo)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	updated := existing
	if params.Input.Floor != nil {
		updated.Floor = *params.Input.Floor
	}
	if params.Input.Capacity != nil {
		updated.Capacity = *params.Input.Capacity
	}
	if params.Input.RoomType != nil {
		updated.RoomType = strings.TrimSpace(*params.Input.RoomType)
	}
	if updated.Capacity < existing.CurrentOccupancy {
		err = fieldError("capacity", fmt.Sprintf("capacity cannot be lower than current occupancy (%d)", existing.CurrentOccupancy))
		return
	}
	updated.UpdatedAt = s.now()

	room, err = s.rooms.UpdateRoom(ctx, updated)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	return
}

// DeleteRoom removes a room that no student references. Only admins may delete rooms.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomNo int) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if principal.Role != RoleAdmin {
		return ErrForbidden
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.ID,
		"room_no", roomNo,
	)

	if err := s.rooms.DeleteRoom(ctx, roomNo); err != nil {
		err = mapRoomRepoError(err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "room deleted")
	return nil
}

// ListRooms returns rooms ordered by room number for students and staff.
func (s *RoomService) ListRooms(ctx context.Context, params ListRoomsParams) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if params.Principal.Role == RoleWorker || !params.Principal.Role.Valid() {
		err = ErrForbidden
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"principal_id", params.Principal.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms listed")
	}()

	rooms, err = s.rooms.ListRooms(ctx, RoomQuery{Floor: params.Floor, AvailableOnly: params.AvailableOnly})
	if err != nil {
		err = mapRoomRepoError(err)
	}
	return
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return newConflict(msgRoomExists)
	}
	if errors.Is(err, persistence.ErrInUse) {
		return newConflict(msgRoomOccupied)
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("capacity", "capacity must be positive and not below current occupancy")
	}
	return err
}
