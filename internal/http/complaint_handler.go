package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/hostel-desk/internal/application"
)

type complaintService interface {
	CreateComplaint(ctx context.Context, params application.CreateComplaintParams) (application.Complaint, error)
	ListStudentComplaints(ctx context.Context, principal application.Principal, studentID string) ([]application.Complaint, error)
	ListComplaints(ctx context.Context, params application.ListComplaintsParams) ([]application.Complaint, error)
	GetComplaintHistory(ctx context.Context, principal application.Principal, complaintID string) ([]application.ComplaintHistory, error)
	AssignComplaint(ctx context.Context, params application.AssignComplaintParams) (application.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, params application.UpdateComplaintStatusParams) (application.Complaint, error)
	EscalateComplaint(ctx context.Context, principal application.Principal, complaintID string) (application.Complaint, error)
}

type ComplaintHandler struct {
	service   complaintService
	responder responder
	logger    *slog.Logger
}

func NewComplaintHandler(service complaintService, logger *slog.Logger) *ComplaintHandler {
	base := defaultLogger(logger)
	return &ComplaintHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ComplaintHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ComplaintHandler", operation, attrs...)
}

func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req application.ComplaintInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.ID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode complaint", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.ID)
	complaint, err := h.service.CreateComplaint(r.Context(), application.CreateComplaintParams{Principal: principal, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "complaint creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("complaint_id", complaint.ID).InfoContext(r.Context(), "complaint filed")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toComplaintDTO(complaint))
}

func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.ID)

	params := application.ListComplaintsParams{Principal: principal, Category: queryString(r, "category")}
	if status := queryString(r, "status"); status != nil {
		value := application.ComplaintStatus(*status)
		params.Status = &value
	}

	complaints, err := h.service.ListComplaints(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "complaint list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(complaints)).InfoContext(r.Context(), "complaints listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toComplaintDTOs(complaints))
}

func (h *ComplaintHandler) ListForStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListForStudent", "principal_id", principal.ID, "student_id", id)

	complaints, err := h.service.ListStudentComplaints(r.Context(), principal, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "student complaint list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toComplaintDTOs(complaints))
}

func (h *ComplaintHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	history, err := h.service.GetComplaintHistory(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "History", "principal_id", principal.ID, "complaint_id", id).ErrorContext(r.Context(), "history lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toHistoryDTOs(history))
}

func (h *ComplaintHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req application.AssignInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Assign", "principal_id", principal.ID, "complaint_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode assignment", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Assign", "principal_id", principal.ID, "complaint_id", id, "worker_id", req.WorkerID)
	complaint, err := h.service.AssignComplaint(r.Context(), application.AssignComplaintParams{Principal: principal, ComplaintID: id, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "complaint assignment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "complaint assigned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toComplaintDTO(complaint))
}

func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req application.StatusInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "UpdateStatus", "principal_id", principal.ID, "complaint_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode status change", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateStatus", "principal_id", principal.ID, "complaint_id", id, "status", req.Status)
	complaint, err := h.service.UpdateComplaintStatus(r.Context(), application.UpdateComplaintStatusParams{Principal: principal, ComplaintID: id, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "complaint status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "complaint status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toComplaintDTO(complaint))
}

func (h *ComplaintHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Escalate", "principal_id", principal.ID, "complaint_id", id)

	complaint, err := h.service.EscalateComplaint(r.Context(), principal, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "complaint escalation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "complaint escalated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toComplaintDTO(complaint))
}

type studentSnapshotDTO struct {
	Name   string `json:"name"`
	RoomNo *int   `json:"roomNo"`
}

func toStudentSnapshotDTO(snapshot *application.StudentSnapshot) *studentSnapshotDTO {
	if snapshot == nil {
		return nil
	}
	return &studentSnapshotDTO{Name: snapshot.Name, RoomNo: snapshot.RoomNo}
}

type complaintDTO struct {
	ID             string              `json:"id"`
	StudentID      string              `json:"studentId"`
	Student        *studentSnapshotDTO `json:"student,omitempty"`
	Category       string              `json:"category"`
	Description    string              `json:"description"`
	Status         string              `json:"status"`
	Priority       string              `json:"priority"`
	AssignedWorker *string             `json:"assignedWorker"`
	AssignedBy     *string             `json:"assignedBy"`
	CompletedAt    *string             `json:"completedAt"`
	CreatedAt      string              `json:"createdAt"`
	UpdatedAt      string              `json:"updatedAt"`
}

func toComplaintDTO(complaint application.Complaint) complaintDTO {
	return complaintDTO{
		ID:             complaint.ID,
		StudentID:      complaint.StudentID,
		Student:        toStudentSnapshotDTO(complaint.Student),
		Category:       complaint.Category,
		Description:    complaint.Description,
		Status:         string(complaint.Status),
		Priority:       string(complaint.Priority),
		AssignedWorker: complaint.AssignedWorkerID,
		AssignedBy:     complaint.AssignedByID,
		CompletedAt:    formatTimePtr(complaint.CompletedAt),
		CreatedAt:      formatTime(complaint.CreatedAt),
		UpdatedAt:      formatTime(complaint.UpdatedAt),
	}
}

func toComplaintDTOs(complaints []application.Complaint) []complaintDTO {
	out := make([]complaintDTO, 0, len(complaints))
	for _, complaint := range complaints {
		out = append(out, toComplaintDTO(complaint))
	}
	return out
}

type actorDTO struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type historyDTO struct {
	ID          string   `json:"id"`
	ComplaintID string   `json:"complaint"`
	OldStatus   string   `json:"oldStatus"`
	NewStatus   string   `json:"newStatus"`
	ChangedBy   actorDTO `json:"changedBy"`
	Notes       string   `json:"notes,omitempty"`
	ChangedAt   string   `json:"changedAt"`
}

func toHistoryDTOs(history []application.ComplaintHistory) []historyDTO {
	out := make([]historyDTO, 0, len(history))
	for _, entry := range history {
		out = append(out, historyDTO{
			ID:          entry.ID,
			ComplaintID: entry.ComplaintID,
			OldStatus:   string(entry.OldStatus),
			NewStatus:   string(entry.NewStatus),
			ChangedBy:   actorDTO{Kind: string(entry.ChangedBy.Kind), ID: entry.ChangedBy.ID},
			Notes:       entry.Notes,
			ChangedAt:   formatTime(entry.ChangedAt),
		})
	}
	return out
}
