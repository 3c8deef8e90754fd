package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/hostel-desk/internal/application"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	GetRoom(ctx context.Context, principal application.Principal, roomNo int) (application.RoomDetails, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomNo int) error
	ListRooms(ctx context.Context, params application.ListRoomsParams) ([]application.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req application.RoomInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.ID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.ID)
	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{Principal: principal, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_no", room.RoomNo).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRoomDTO(room))
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomNo, ok := pathRoomNo(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomNo)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	details, err := h.service.GetRoom(r.Context(), principal, roomNo)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.ID, "room_no", roomNo).ErrorContext(r.Context(), "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomDetailsResponse{
		Room:     toRoomDTO(details.Room),
		Students: toStudentDTOs(details.Students),
	})
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	roomNo, ok := pathRoomNo(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomNo)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req application.RoomUpdateInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.ID, "room_no", roomNo, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode room update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.ID, "room_no", roomNo)
	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{Principal: principal, RoomNo: roomNo, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "room update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	roomNo, ok := pathRoomNo(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomNo)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.ID, "room_no", roomNo)
	if err := h.service.DeleteRoom(r.Context(), principal, roomNo); err != nil {
		logger.ErrorContext(r.Context(), "room delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, "Room deleted successfully")
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.ID)

	params := application.ListRoomsParams{Principal: principal}
	if raw := queryString(r, "floor"); raw != nil {
		floor, err := strconv.Atoi(*raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{FieldErrors: map[string]string{"floor": "floor must be a number"}})
			return
		}
		params.Floor = &floor
	}
	available, err := queryBool(r, "available")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	params.AvailableOnly = available != nil && *available

	rooms, err := h.service.ListRooms(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(rooms)).InfoContext(r.Context(), "rooms listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTOs(rooms))
}

type roomDetailsResponse struct {
	Room     roomDTO      `json:"room"`
	Students []studentDTO `json:"students"`
}

type roomDTO struct {
	RoomNo           int    `json:"roomNo"`
	Floor            int    `json:"floor"`
	Capacity         int    `json:"capacity"`
	CurrentOccupancy int    `json:"currentOccupancy"`
	RoomType         string `json:"roomType,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		RoomNo:           room.RoomNo,
		Floor:            room.Floor,
		Capacity:         room.Capacity,
		CurrentOccupancy: room.CurrentOccupancy,
		RoomType:         room.RoomType,
		CreatedAt:        formatTime(room.CreatedAt),
		UpdatedAt:        formatTime(room.UpdatedAt),
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
