package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/hostel-desk/internal/application"
)

type workerService interface {
	CreateWorker(ctx context.Context, params application.CreateWorkerParams) (application.Worker, error)
	GetWorker(ctx context.Context, principal application.Principal, workerID string) (application.Worker, error)
	UpdateWorker(ctx context.Context, params application.UpdateWorkerParams) (application.Worker, error)
	ListWorkers(ctx context.Context, params application.ListWorkersParams) ([]application.Worker, error)
}

type workerTaskService interface {
	ListWorkerTasks(ctx context.Context, principal application.Principal, workerID string) ([]application.Complaint, error)
}

type attendanceService interface {
	ClockEvent(ctx context.Context, params application.ClockEventParams) (application.Attendance, error)
	ListAttendance(ctx context.Context, params application.ListAttendanceParams) ([]application.Attendance, error)
}

// WorkerHandler serves the worker roster along with each worker's tasks and attendance.
type WorkerHandler struct {
	service    workerService
	tasks      workerTaskService
	attendance attendanceService
	responder  responder
	logger     *slog.Logger
}

func NewWorkerHandler(service workerService, tasks workerTaskService, attendance attendanceService, logger *slog.Logger) *WorkerHandler {
	base := defaultLogger(logger)
	return &WorkerHandler{
		service:    service,
		tasks:      tasks,
		attendance: attendance,
		responder:  newResponder(base),
		logger:     base,
	}
}

func (h *WorkerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "WorkerHandler", operation, attrs...)
}

func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.ID)

	active, err := queryBool(r, "active")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	workers, err := h.service.ListWorkers(r.Context(), application.ListWorkersParams{
		Principal: principal,
		Role:      queryString(r, "role"),
		Active:    active,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "worker list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(workers)).InfoContext(r.Context(), "workers listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkerDTOs(workers))
}

func (h *WorkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req application.WorkerInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.ID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode worker request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.ID)
	worker, err := h.service.CreateWorker(r.Context(), application.CreateWorkerParams{Principal: principal, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "worker creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("worker_id", worker.ID).InfoContext(r.Context(), "worker created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toWorkerDTO(worker))
}

func (h *WorkerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	worker, err := h.service.GetWorker(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.ID, "worker_id", id).ErrorContext(r.Context(), "worker lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkerDTO(worker))
}

func (h *WorkerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req application.WorkerUpdateInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.ID, "worker_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode worker update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.ID, "worker_id", id)
	worker, err := h.service.UpdateWorker(r.Context(), application.UpdateWorkerParams{Principal: principal, WorkerID: id, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "worker update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "worker updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkerDTO(worker))
}

func (h *WorkerHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Tasks", "principal_id", principal.ID, "worker_id", id)

	tasks, err := h.tasks.ListWorkerTasks(r.Context(), principal, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "task list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(tasks)).InfoContext(r.Context(), "tasks listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toComplaintDTOs(tasks))
}

func (h *WorkerHandler) ClockEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req application.ClockInput
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "ClockEvent", "principal_id", principal.ID, "worker_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode clock event", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ClockEvent", "principal_id", principal.ID, "worker_id", id, "type", req.Type)
	record, err := h.attendance.ClockEvent(r.Context(), application.ClockEventParams{Principal: principal, WorkerID: id, Input: req})
	if err != nil {
		logger.ErrorContext(r.Context(), "clock event failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("attendance_id", record.ID, "date", record.Date).InfoContext(r.Context(), "clock event recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAttendanceDTO(record))
}

func (h *WorkerHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Attendance", "principal_id", principal.ID, "worker_id", id)

	query := r.URL.Query()
	records, err := h.attendance.ListAttendance(r.Context(), application.ListAttendanceParams{
		Principal: principal,
		WorkerID:  id,
		From:      query.Get("from"),
		To:        query.Get("to"),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "attendance list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAttendanceDTOs(records))
}

type workerDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	Phone         string `json:"phone"`
	DutyStartTime string `json:"dutyStartTime,omitempty"`
	DutyEndTime   string `json:"dutyEndTime,omitempty"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

func toWorkerDTO(worker application.Worker) workerDTO {
	return workerDTO{
		ID:            worker.ID,
		Name:          worker.Name,
		Role:          worker.Role,
		Phone:         worker.Phone,
		DutyStartTime: worker.DutyStartTime,
		DutyEndTime:   worker.DutyEndTime,
		Active:        worker.Active,
		CreatedAt:     formatTime(worker.CreatedAt),
		UpdatedAt:     formatTime(worker.UpdatedAt),
	}
}

func toWorkerDTOs(workers []application.Worker) []workerDTO {
	out := make([]workerDTO, 0, len(workers))
	for _, worker := range workers {
		out = append(out, toWorkerDTO(worker))
	}
	return out
}

type attendanceDTO struct {
	ID       string  `json:"id"`
	WorkerID string  `json:"worker"`
	Date     string  `json:"date"`
	ClockIn  *string `json:"clockIn"`
	ClockOut *string `json:"clockOut"`
	Status   string  `json:"status"`
}

func toAttendanceDTO(record application.Attendance) attendanceDTO {
	return attendanceDTO{
		ID:       record.ID,
		WorkerID: record.WorkerID,
		Date:     record.Date,
		ClockIn:  formatTimePtr(record.ClockIn),
		ClockOut: formatTimePtr(record.ClockOut),
		Status:   string(record.Status),
	}
}

func toAttendanceDTOs(records []application.Attendance) []attendanceDTO {
	out := make([]attendanceDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toAttendanceDTO(record))
	}
	return out
}
