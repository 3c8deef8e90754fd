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

// ComplaintQuery narrows complaint listings. Nil fields are ignored.
type ComplaintQuery struct {
	StudentID        *string
	AssignedWorkerID *string
	Status           *ComplaintStatus
	Category         *string
}

// ComplaintRepository captures the persistence operations needed by the service.
// Create and update store the complaint and the history entry atomically.
type ComplaintRepository interface {
	CreateComplaint(ctx context.Context, complaint Complaint, entry ComplaintHistory) (Complaint, error)
	UpdateComplaint(ctx context.Context, complaint Complaint, entry ComplaintHistory) (Complaint, error)
	GetComplaint(ctx context.Context, id string) (Complaint, error)
	ListComplaints(ctx context.Context, query ComplaintQuery) ([]Complaint, error)
	ListComplaintHistory(ctx context.Context, complaintID string) ([]ComplaintHistory, error)
}

// WorkerDirectory resolves workers referenced by other services.
type WorkerDirectory interface {
	GetWorker(ctx context.Context, id string) (Worker, error)
}

const (
	noteComplaintCreated = "Complaint created"
	noteAssigned         = "Assigned to worker"
	noteEscalated        = "Manually escalated"
)

var complaintTransitions = map[ComplaintStatus][]ComplaintStatus{
	ComplaintPending:    {ComplaintAssigned, ComplaintInProgress, ComplaintCompleted, ComplaintEscalated},
	ComplaintAssigned:   {ComplaintPending, ComplaintInProgress, ComplaintCompleted, ComplaintEscalated},
	ComplaintInProgress: {ComplaintAssigned, ComplaintCompleted, ComplaintEscalated},
	ComplaintEscalated:  {ComplaintPending, ComplaintAssigned, ComplaintInProgress, ComplaintCompleted},
	ComplaintCompleted:  {ComplaintInProgress, ComplaintEscalated},
}

// CanTransition reports whether a complaint may move from one status to another
// through the generic status update.
func CanTransition(from, to ComplaintStatus) bool {
	for _, allowed := range complaintTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ComplaintService runs the complaint lifecycle and keeps its audit trail.
type ComplaintService struct {
	complaints  ComplaintRepository
	workers     WorkerDirectory
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewComplaintService constructs a complaint service with the provided dependencies.
func NewComplaintService(complaints ComplaintRepository, workers WorkerDirectory, notifier Notifier, idGenerator func() string, now func() time.Time) *ComplaintService {
	return NewComplaintServiceWithLogger(complaints, workers, notifier, idGenerator, now, nil)
}

// NewComplaintServiceWithLogger constructs a complaint service with a specified logger.
func NewComplaintServiceWithLogger(complaints ComplaintRepository, workers WorkerDirectory, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ComplaintService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ComplaintService{
		complaints:  complaints,
		workers:     workers,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ComplaintService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ComplaintService", operation, attrs...)
}

func (s *ComplaintService) ready() error {
	if s == nil {
		return fmt.Errorf("ComplaintService is nil")
	}
	if s.complaints == nil {
		return fmt.Errorf("complaint repository not configured")
	}
	return nil
}

// CreateComplaint files a complaint for the calling student with status Pending.
func (s *ComplaintService) CreateComplaint(ctx context.Context, params CreateComplaintParams) (complaint Complaint, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateComplaint",
		"principal_id", params.Principal.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create complaint", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("complaint_id", complaint.ID, "priority", string(complaint.Priority)).InfoContext(ctx, "complaint created")
	}()

	if params.Principal.Role != RoleStudent {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	priority := params.Input.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	now := s.now()
	complaint = Complaint{
		ID:          s.idGenerator(),
		StudentID:   params.Principal.ID,
		Category:    strings.TrimSpace(params.Input.Category),
		Description: strings.TrimSpace(params.Input.Description),
		Status:      ComplaintPending,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	entry := s.historyEntry(complaint.ID, ComplaintPending, ComplaintPending, params.Principal, noteComplaintCreated, now)

	complaint, err = s.complaints.CreateComplaint(ctx, complaint, entry)
	if err != nil {
		err = mapComplaintRepoError(err)
	}
	return
}

// ListStudentComplaints returns a student's complaints, newest first.
func (s *ComplaintService) ListStudentComplaints(ctx context.Context, principal Principal, studentID string) (complaints []Complaint, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListStudentComplaints",
		"principal_id", principal.ID,
		"student_id", studentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list student complaints", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(complaints)).InfoContext(ctx, "student complaints listed")
	}()

	if !principal.Role.IsStaff() && !(principal.Role == RoleStudent && principal.ID == studentID) {
		err = ErrForbidden
		return
	}

	complaints, err = s.complaints.ListComplaints(ctx, ComplaintQuery{StudentID: &studentID})
	if err != nil {
		err = mapComplaintRepoError(err)
	}
	return
}

// ListComplaints returns complaints filtered by status and category for staff.
func (s *ComplaintService) ListComplaints(ctx context.Context, params ListComplaintsParams) (complaints []Complaint, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListComplaints",
		"principal_id", params.Principal.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list complaints", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(complaints)).InfoContext(ctx, "complaints listed")
	}()

	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if params.Status != nil && !validComplaintStatus(*params.Status) {
		err = fieldError("status", "status must be one of [Pending Assigned InProgress Completed Escalated]")
		return
	}

	complaints, err = s.complaints.ListComplaints(ctx, ComplaintQuery{Status: params.Status, Category: params.Category})
	if err != nil {
		err = mapComplaintRepoError(err)
	}
	return
}

// ListWorkerTasks returns the complaints assigned to a worker, newest first.
func (s *ComplaintService) ListWorkerTasks(ctx context.Context, principal Principal, workerID string) (tasks []Complaint, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListWorkerTasks",
		"principal_id", principal.ID,
		"worker_id", workerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list worker tasks", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(tasks)).InfoContext(ctx, "worker tasks listed")
	}()

	if !principal.Role.IsStaff() && !(principal.Role == RoleWorker && principal.ID == workerID) {
		err = ErrForbidden
		return
	}

	tasks, err = s.complaints.ListComplaints(ctx, ComplaintQuery{AssignedWorkerID: &workerID})
	if err != nil {
		err = mapComplaintRepoError(err)
	}
	return
}

// GetComplaintHistory returns a complaint's audit trail in the order it was written.
// Staff, the filing student and the assigned worker may read it.
func (s *ComplaintService) GetComplaintHistory(ctx context.Context, principal Principal, complaintID string) (history []ComplaintHistory, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "GetComplaintHistory",
		"principal_id", principal.ID,
		"complaint_id", complaintID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load complaint history", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(history)).InfoContext(ctx, "complaint history loaded")
	}()

	var complaint Complaint
	complaint, err = s.complaints.GetComplaint(ctx, complaintID)
	if err != nil {
		err = mapComplaintRepoError(err)
		return
	}
	if !canViewComplaint(principal, complaint) {
		err = ErrForbidden
		return
	}

	history, err = s.complaints.ListComplaintHistory(ctx, complaintID)
	if err != nil {
		history = nil
		err = mapComplaintRepoError(err)
	}
	return
}

// AssignComplaint hands a complaint to a worker and moves it to Assigned.
func (s *ComplaintService) AssignComplaint(ctx context.Context, params AssignComplaintParams) (complaint Complaint, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "AssignComplaint",
		"principal_id", params.Principal.ID,
		"complaint_id", params.ComplaintID,
		"worker_id", params.Input.WorkerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign complaint", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "complaint assigned")
	}()

	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Complaint
	existing, err = s.complaints.GetComplaint(ctx, params.ComplaintID)
	if err != nil {
		err = mapComplaintRepoError(err)
		return
	}
	if existing.Status == ComplaintCompleted {
		err = ErrInvalidTransition
		return
	}

	workerID := strings.TrimSpace(params.Input.WorkerID)
	if s.workers != nil {
		var worker Worker
		worker, err = s.workers.GetWorker(ctx, workerID)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
				err = fieldError("workerId", "worker does not exist")
			}
			return
		}
		if !worker.Active {
			err = fieldError("workerId", "worker is inactive")
			return
		}
	}

	now := s.now()
	assignedBy := params.Principal.ID
	updated := existing
	updated.Status = ComplaintAssigned
	updated.AssignedWorkerID = &workerID
	updated.AssignedByID = &assignedBy
	updated.UpdatedAt = now

	entry := s.historyEntry(existing.ID, existing.Status, ComplaintAssigned, params.Principal, noteAssigned, now)
	complaint, err = s.complaints.UpdateComplaint(ctx, updated, entry)
	if err != nil {
		err = mapComplaintRepoError(err)
		return
	}

	notifyQuietly(ctx, s.notifier, logger, ActorRef{Kind: ActorWorker, ID: workerID},
		fmt.Sprintf("You have been assigned a new %s complaint", strings.ToLower(complaint.Category)),
		RelatedEntities{ComplaintID: &complaint.ID})
	return
}

// UpdateComplaintStatus moves a complaint along the transition graph. Completing
// stamps CompletedAt; later moves leave it in place.
func (s *ComplaintService) UpdateComplaintStatus(ctx context.Context, params UpdateComplaintStatusParams) (complaint Complaint, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateComplaintStatus",
		"principal_id", params.Principal.ID,
		"complaint_id", params.ComplaintID,
		"status", string(params.Input.Status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update complaint status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "complaint status updated")
	}()

	role := params.Principal.Role
	if !role.IsStaff() && role != RoleWorker {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Complaint
	existing, err = s.complaints.GetComplaint(ctx, params.ComplaintID)
	if err != nil {
		err = mapComplaintRepoError(err)
		return
	}
	if role == RoleWorker && (existing.AssignedWorkerID == nil || *existing.AssignedWorkerID != params.Principal.ID) {
		err = ErrForbidden
		return
	}

	next := params.Input.Status
	if !CanTransition(existing.Status, next) {
		err = fmt.Errorf("%w: %s to %s", ErrInvalidTransition, existing.Status, next)
		return
	}

	now := s.now()
	updated := existing
	updated.Status = next
	updated.UpdatedAt = now
	if next == ComplaintCompleted {
		updated.CompletedAt = &now
	}

	entry := s.historyEntry(existing.ID, existing.Status, next, params.Principal, strings.TrimSpace(params.Input.Notes), now)
	complaint, err = s.complaints.UpdateComplaint(ctx, updated, entry)
	if err != nil {
		err = mapComplaintRepoError(err)
		return
	}

	notifyQuietly(ctx, s.notifier, logger, ActorRef{Kind: ActorStudent, ID: complaint.StudentID},
		fmt.Sprintf("Your %s complaint is now %s", strings.ToLower(complaint.Category), complaint.Status),
		RelatedEntities{ComplaintID: &complaint.ID})
	return
}

// EscalateComplaint force-sets Escalated from any state.
func (s *ComplaintService) EscalateComplaint(ctx context.Context, principal Principal, complaintID string) (complaint Complaint, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "EscalateComplaint",
		"principal_id", principal.ID,
		"complaint_id", complaintID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to escalate complaint", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "complaint escalated")
	}()

	if !principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}

	var existing Complaint
	existing, err = s.complaints.GetComplaint(ctx, complaintID)
	if err != nil {
		err = mapComplaintRepoError(err)
		return
	}

	now := s.now()
	updated := existing
	updated.Status = ComplaintEscalated
	updated.UpdatedAt = now

	entry := s.historyEntry(existing.ID, existing.Status, ComplaintEscalated, principal, noteEscalated, now)
	complaint, err = s.complaints.UpdateComplaint(ctx, updated, entry)
	if err != nil {
		err = mapComplaintRepoError(err)
		return
	}

	notifyQuietly(ctx, s.notifier, logger, ActorRef{Kind: ActorStudent, ID: complaint.StudentID},
		fmt.Sprintf("Your %s complaint has been escalated", strings.ToLower(complaint.Category)),
		RelatedEntities{ComplaintID: &complaint.ID})
	return
}

func (s *ComplaintService) historyEntry(complaintID string, from, to ComplaintStatus, actor Principal, notes string, at time.Time) ComplaintHistory {
	return ComplaintHistory{
		ID:          s.idGenerator(),
		ComplaintID: complaintID,
		OldStatus:   from,
		NewStatus:   to,
		ChangedBy:   actor.Actor(),
		Notes:       notes,
		ChangedAt:   at,
	}
}

func canViewComplaint(principal Principal, complaint Complaint) bool {
	switch principal.Role {
	case RoleAdmin, RoleWarden:
		return true
	case RoleStudent:
		return principal.ID == complaint.StudentID
	case RoleWorker:
		return complaint.AssignedWorkerID != nil && *complaint.AssignedWorkerID == principal.ID
	}
	return false
}

func validComplaintStatus(status ComplaintStatus) bool {
	_, ok := complaintTransitions[status]
	return ok
}

func mapComplaintRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKey) {
		return fieldError("studentId", "referenced student or worker does not exist")
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("status", "status or priority is not allowed")
	}
	return err
}
