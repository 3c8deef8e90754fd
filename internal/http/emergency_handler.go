package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/hostel-desk/internal/application"
)

type emergencyService interface {
	CreateEmergency(ctx context.Context, params application.CreateEmergencyParams) (application.Emergency, error)
	ListEmergencies(ctx context.Context, params application.ListEmergenciesParams) ([]application.Emergency, error)
	ListStudentEmergencies(ctx context.Context, principal application.Principal, studentID string) ([]application.Emergency, error)
	UpdateEmergencyStatus(ctx context.Context, params application.UpdateEmergencyStatusParams) (application.Emergency, error)
}

type EmergencyHandler struct {
	service   emergencyService
	responder responder
	logger    *slog.Logger
}

func NewEmergencyHandler(service emergencyService, logger *slog.Logger) *EmergencyHandler {
	base := defaultLogger(logger)
	return &EmergencyHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EmergencyHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EmergencyHandler", operation, attrs...)
}

func (h *EmergencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req application.EmergencyInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.ID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode emergency", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.ID, "room_no", req.RoomNo)
	emergency, err := h.service.CreateEmergency(r.Context(), application.CreateEmergencyParams{Principal: principal, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "emergency report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("emergency_id", emergency.ID).WarnContext(r.Context(), "emergency reported")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEmergencyDTO(emergency))
}

func (h *EmergencyHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.ID)

	params := application.ListEmergenciesParams{Principal: principal}
	if status := queryString(r, "status"); status != nil {
		value := application.EmergencyStatus(*status)
		params.Status = &value
	}

	emergencies, err := h.service.ListEmergencies(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "emergency list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEmergencyDTOs(emergencies))
}

func (h *EmergencyHandler) ListForStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	emergencies, err := h.service.ListStudentEmergencies(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "ListForStudent", "principal_id", principal.ID, "student_id", id).ErrorContext(r.Context(), "student emergency list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEmergencyDTOs(emergencies))
}

func (h *EmergencyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req application.EmergencyStatusInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "UpdateStatus", "principal_id", principal.ID, "emergency_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode status change", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateStatus", "principal_id", principal.ID, "emergency_id", id, "status", req.Status)
	emergency, err := h.service.UpdateEmergencyStatus(r.Context(), application.UpdateEmergencyStatusParams{Principal: principal, EmergencyID: id, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "emergency status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "emergency status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEmergencyDTO(emergency))
}

type emergencyDTO struct {
	ID          string              `json:"id"`
	StudentID   string              `json:"studentId"`
	Student     *studentSnapshotDTO `json:"student,omitempty"`
	Description string              `json:"description"`
	RoomNo      int                 `json:"roomNo"`
	Status      string              `json:"status"`
	ReportedAt  string              `json:"reportedAt"`
	RespondedAt *string             `json:"respondedAt"`
	RespondedBy *string             `json:"respondedBy"`
	ResolvedAt  *string             `json:"resolvedAt"`
}

func toEmergencyDTO(emergency application.Emergency) emergencyDTO {
	return emergencyDTO{
		ID:          emergency.ID,
		StudentID:   emergency.StudentID,
		Student:     toStudentSnapshotDTO(emergency.Student),
		Description: emergency.Description,
		RoomNo:      emergency.RoomNo,
		Status:      string(emergency.Status),
		ReportedAt:  formatTime(emergency.ReportedAt),
		RespondedAt: formatTimePtr(emergency.RespondedAt),
		RespondedBy: emergency.RespondedBy,
		ResolvedAt:  formatTimePtr(emergency.ResolvedAt),
	}
}

func toEmergencyDTOs(emergencies []application.Emergency) []emergencyDTO {
	out := make([]emergencyDTO, 0, len(emergencies))
	for _, emergency := range emergencies {
		out = append(out, toEmergencyDTO(emergency))
	}
	return out
}
