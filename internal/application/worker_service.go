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

// WorkerQuery narrows the worker roster.
type WorkerQuery struct {
	Role   *string
	Active *bool
}

// WorkerRepository captures the persistence operations needed by the service.
type WorkerRepository interface {
	CreateWorker(ctx context.Context, worker Worker) (Worker, error)
	UpdateWorker(ctx context.Context, worker Worker) (Worker, error)
	GetWorker(ctx context.Context, id string) (Worker, error)
	ListWorkers(ctx context.Context, query WorkerQuery) ([]Worker, error)
}

const msgWorkerPhoneTaken = "Worker with this phone already exists"

// WorkerService manages worker accounts.
type WorkerService struct {
	workers      WorkerRepository
	hashPassword PasswordHashFunc
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewWorkerService constructs a worker service with the provided dependencies.
func NewWorkerService(workers WorkerRepository, hash PasswordHashFunc, idGenerator func() string, now func() time.Time) *WorkerService {
	return NewWorkerServiceWithLogger(workers, hash, idGenerator, now, nil)
}

// NewWorkerServiceWithLogger constructs a worker service with a specified logger.
func NewWorkerServiceWithLogger(workers WorkerRepository, hash PasswordHashFunc, idGenerator func() string, now func() time.Time, logger *slog.Logger) *WorkerService {
	if hash == nil {
		hash = NewPasswordHasher(HashArgon2id, 0).Hash
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &WorkerService{workers: workers, hashPassword: hash, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *WorkerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WorkerService", operation, attrs...)
}

// CreateWorker adds an active worker with a unique phone number.
func (s *WorkerService) CreateWorker(ctx context.Context, params CreateWorkerParams) (worker Worker, err error) {
	if s == nil {
		err = fmt.Errorf("WorkerService is nil")
		return
	}
	if s.workers == nil {
		err = fmt.Errorf("worker repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateWorker",
		"principal_id", params.Principal.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create worker", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("worker_id", worker.ID).InfoContext(ctx, "worker created")
	}()

	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	var passwordHash string
	passwordHash, err = s.hashPassword(params.Input.Password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	now := s.now()
	worker = Worker{
		ID:            s.idGenerator(),
		Name:          strings.TrimSpace(params.Input.Name),
		Role:          strings.TrimSpace(params.Input.Role),
		Phone:         strings.TrimSpace(params.Input.Phone),
		DutyStartTime: params.Input.DutyStartTime,
		DutyEndTime:   params.Input.DutyEndTime,
		Active:        true,
		PasswordHash:  passwordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	worker, err = s.workers.CreateWorker(ctx, worker)
	if err != nil {
		err = mapWorkerRepoError(err)
	}
	return
}

// GetWorker returns a worker to staff or the worker themselves.
func (s *WorkerService) GetWorker(ctx context.Context, principal Principal, workerID string) (Worker, error) {
	if s == nil {
		return Worker{}, fmt.Errorf("WorkerService is nil")
	}
	if s.workers == nil {
		return Worker{}, fmt.Errorf("worker repository not configured")
	}
	if !canAccessWorker(principal, workerID) {
		return Worker{}, ErrForbidden
	}

	worker, err := s.workers.GetWorker(ctx, workerID)
	if err != nil {
		return Worker{}, mapWorkerRepoError(err)
	}
	return worker, nil
}

// UpdateWorker applies a partial update for staff.
func (s *WorkerService) UpdateWorker(ctx context.Context, params UpdateWorkerParams) (worker Worker, err error) {
	if s == nil {
		err = fmt.Errorf("WorkerService is nil")
		return
	}
	if s.workers == nil {
		err = fmt.Errorf("worker repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateWorker",
		"principal_id", params.Principal.ID,
		"worker_id", params.WorkerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update worker", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("active", worker.Active).InfoContext(ctx, "worker updated")
	}()

	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Worker
	existing, err = s.workers.GetWorker(ctx, params.WorkerID)
	if err != nil {
		err = mapWorkerRepoError(err)
		return
	}

	in := params.Input
	updated := existing
	if in.Name != nil {
		updated.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		updated.Role = strings.TrimSpace(*in.Role)
	}
	if in.Phone != nil {
		updated.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.DutyStartTime != nil {
		updated.DutyStartTime = *in.DutyStartTime
	}
	if in.DutyEndTime != nil {
		updated.DutyEndTime = *in.DutyEndTime
	}
	if in.Active != nil {
		updated.Active = *in.Active
	}
	updated.UpdatedAt = s.now()

	worker, err = s.workers.UpdateWorker(ctx, updated)
	if err != nil {
		err = mapWorkerRepoError(err)
	}
	return
}

// ListWorkers returns the roster sorted by name.
func (s *WorkerService) ListWorkers(ctx context.Context, params ListWorkersParams) (workers []Worker, err error) {
	if s == nil {
		err = fmt.Errorf("WorkerService is nil")
		return
	}
	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if s.workers == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListWorkers",
		"principal_id", params.Principal.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list workers", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(workers)).InfoContext(ctx, "workers listed")
	}()

	workers, err = s.workers.ListWorkers(ctx, WorkerQuery{Role: params.Role, Active: params.Active})
	return
}

func canAccessWorker(principal Principal, workerID string) bool {
	if principal.Role.IsStaff() {
		return true
	}
	return principal.Role == RoleWorker && principal.ID == workerID
}

func mapWorkerRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return newConflict(msgWorkerPhoneTaken)
	}
	return err
}
