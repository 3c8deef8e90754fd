package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/hostel-desk/internal/application"
)

type studentService interface {
	CreateStudent(ctx context.Context, params application.CreateStudentParams) (application.Student, error)
	GetStudent(ctx context.Context, principal application.Principal, studentID string) (application.Student, error)
	UpdateStudent(ctx context.Context, params application.UpdateStudentParams) (application.Student, error)
	ListStudents(ctx context.Context, principal application.Principal) ([]application.Student, error)
}

type StudentHandler struct {
	service   studentService
	responder responder
	logger    *slog.Logger
}

func NewStudentHandler(service studentService, logger *slog.Logger) *StudentHandler {
	base := defaultLogger(logger)
	return &StudentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StudentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StudentHandler", operation, attrs...)
}

func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.ID)

	students, err := h.service.ListStudents(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "student list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(students)).InfoContext(r.Context(), "students listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStudentDTOs(students))
}

func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req application.StudentInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.ID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode student request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.ID)
	student, err := h.service.CreateStudent(r.Context(), application.CreateStudentParams{Principal: principal, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "student creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("student_id", student.ID).InfoContext(r.Context(), "student created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toStudentDTO(student))
}

func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.ID, "student_id", id)

	student, err := h.service.GetStudent(r.Context(), principal, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "student lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStudentDTO(student))
}

func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req application.StudentUpdateInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.ID, "student_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode student update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.ID, "student_id", id)
	student, err := h.service.UpdateStudent(r.Context(), application.UpdateStudentParams{Principal: principal, StudentID: id, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "student update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "student updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStudentDTO(student))
}

type studentDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	RoomNo           *int   `json:"roomNo"`
	JoinDate         string `json:"joinDate"`
	EmergencyContact string `json:"emergencyContact,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

func toStudentDTO(student application.Student) studentDTO {
	return studentDTO{
		ID:               student.ID,
		Name:             student.Name,
		Email:            student.Email,
		Phone:            student.Phone,
		RoomNo:           student.RoomNo,
		JoinDate:         formatTime(student.JoinDate),
		EmergencyContact: student.EmergencyContact,
		CreatedAt:        formatTime(student.CreatedAt),
		UpdatedAt:        formatTime(student.UpdatedAt),
	}
}

func toStudentDTOs(students []application.Student) []studentDTO {
	out := make([]studentDTO, 0, len(students))
	for _, student := range students {
		out = append(out, toStudentDTO(student))
	}
	return out
}
