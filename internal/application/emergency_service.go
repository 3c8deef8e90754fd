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

// EmergencyQuery narrows emergency listings.
type EmergencyQuery struct {
	Status    *EmergencyStatus
	StudentID *string
}

// EmergencyRepository captures the persistence operations needed by the service.
type EmergencyRepository interface {
	CreateEmergency(ctx context.Context, emergency Emergency) (Emergency, error)
	UpdateEmergency(ctx context.Context, emergency Emergency) (Emergency, error)
	GetEmergency(ctx context.Context, id string) (Emergency, error)
	ListEmergencies(ctx context.Context, query EmergencyQuery) ([]Emergency, error)
}

// EmergencyService runs the emergency lifecycle.
type EmergencyService struct {
	emergencies EmergencyRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEmergencyService constructs an emergency service with the provided dependencies.
func NewEmergencyService(emergencies EmergencyRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *EmergencyService {
	return NewEmergencyServiceWithLogger(emergencies, notifier, idGenerator, now, nil)
}

// NewEmergencyServiceWithLogger constructs an emergency service with a specified logger.
func NewEmergencyServiceWithLogger(emergencies EmergencyRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EmergencyService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EmergencyService{emergencies: emergencies, notifier: notifier, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *EmergencyService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EmergencyService", operation, attrs...)
}

func (s *EmergencyService) ready() error {
	if s == nil {
		return fmt.Errorf("EmergencyService is nil")
	}
	if s.emergencies == nil {
		return fmt.Errorf("emergency repository not configured")
	}
	return nil
}

// CreateEmergency records an emergency reported by the calling student.
func (s *EmergencyService) CreateEmergency(ctx context.Context, params CreateEmergencyParams) (emergency Emergency, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateEmergency",
		"principal_id", params.Principal.ID,
		"room_no", params.Input.RoomNo,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to report emergency", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("emergency_id", emergency.ID).WarnContext(ctx, "emergency reported")
	}()

	if params.Principal.Role != RoleStudent {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	emergency = Emergency{
		ID:          s.idGenerator(),
		StudentID:   params.Principal.ID,
		Description: strings.TrimSpace(params.Input.Description),
		RoomNo:      params.Input.RoomNo,
		Status:      EmergencyReported,
		ReportedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	emergency, err = s.emergencies.CreateEmergency(ctx, emergency)
	if err != nil {
		err = mapEmergencyRepoError(err)
	}
	return
}

// ListEmergencies returns emergencies for staff, most recently reported first.
func (s *EmergencyService) ListEmergencies(ctx context.Context, params ListEmergenciesParams) (emergencies []Emergency, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListEmergencies",
		"principal_id", params.Principal.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list emergencies", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(emergencies)).InfoContext(ctx, "emergencies listed")
	}()

	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if params.Status != nil && !validEmergencyStatus(*params.Status) {
		err = fieldError("status", "status must be one of [Reported Responded Resolved]")
		return
	}

	emergencies, err = s.emergencies.ListEmergencies(ctx, EmergencyQuery{Status: params.Status})
	if err != nil {
		err = mapEmergencyRepoError(err)
	}
	return
}

// ListStudentEmergencies returns the emergencies a student reported.
func (s *EmergencyService) ListStudentEmergencies(ctx context.Context, principal Principal, studentID string) (emergencies []Emergency, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListStudentEmergencies",
		"principal_id", principal.ID,
		"student_id", studentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list student emergencies", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(emergencies)).InfoContext(ctx, "student emergencies listed")
	}()

	if !principal.Role.IsStaff() && !(principal.Role == RoleStudent && principal.ID == studentID) {
		err = ErrForbidden
		return
	}

	emergencies, err = s.emergencies.ListEmergencies(ctx, EmergencyQuery{StudentID: &studentID})
	if err != nil {
		emergencies = nil
		err = mapEmergencyRepoError(err)
	}
	return
}

// UpdateEmergencyStatus moves an emergency to Responded or Resolved. Resolving
// backfills the response fields when the response step was skipped.
func (s *EmergencyService) UpdateEmergencyStatus(ctx context.Context, params UpdateEmergencyStatusParams) (emergency Emergency, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateEmergencyStatus",
		"principal_id", params.Principal.ID,
		"emergency_id", params.EmergencyID,
		"status", string(params.Input.Status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update emergency status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "emergency status updated")
	}()

	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Emergency
	existing, err = s.emergencies.GetEmergency(ctx, params.EmergencyID)
	if err != nil {
		err = mapEmergencyRepoError(err)
		return
	}

	now := s.now()
	actor := params.Principal.ID
	updated := existing
	updated.Status = params.Input.Status
	updated.UpdatedAt = now

	switch params.Input.Status {
	case EmergencyResponded:
		updated.RespondedAt = &now
		updated.RespondedBy = &actor
	case EmergencyResolved:
		updated.ResolvedAt = &now
		if updated.RespondedAt == nil {
			updated.RespondedAt = &now
			if updated.RespondedBy == nil {
				updated.RespondedBy = &actor
			}
		}
	}

	emergency, err = s.emergencies.UpdateEmergency(ctx, updated)
	if err != nil {
		err = mapEmergencyRepoError(err)
		return
	}

	notifyQuietly(ctx, s.notifier, logger, ActorRef{Kind: ActorStudent, ID: emergency.StudentID},
		fmt.Sprintf("Your emergency report for room %d is now %s", emergency.RoomNo, emergency.Status),
		RelatedEntities{EmergencyID: &emergency.ID})
	return
}

func validEmergencyStatus(status EmergencyStatus) bool {
	switch status {
	case EmergencyReported, EmergencyResponded, EmergencyResolved:
		return true
	}
	return false
}

func mapEmergencyRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKey) {
		return fieldError("studentId", "reporting student does not exist")
	}
	return err
}
