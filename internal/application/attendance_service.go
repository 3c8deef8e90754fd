package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/hostel-desk/internal/persistence"
)

const attendanceDateLayout = "2006-01-02"

// AttendanceQuery narrows a worker's attendance records. From/To are inclusive YYYY-MM-DD.
type AttendanceQuery struct {
	WorkerID string
	From     string
	To       string
}

// AttendanceRepository captures the persistence operations needed by the service.
type AttendanceRepository interface {
	// RecordClockEvent finds or creates the record for record.WorkerID and
	// record.Date and stamps the timestamp selected by kind, atomically.
	RecordClockEvent(ctx context.Context, record Attendance, kind ClockKind, at time.Time) (Attendance, error)
	// CreateAbsence inserts an Absent record and reports false when one already exists.
	CreateAbsence(ctx context.Context, record Attendance) (bool, error)
	ListAttendance(ctx context.Context, query AttendanceQuery) ([]Attendance, error)
}

// WorkerRoster lists workers for attendance bookkeeping.
type WorkerRoster interface {
	GetWorker(ctx context.Context, id string) (Worker, error)
	ListWorkers(ctx context.Context, query WorkerQuery) ([]Worker, error)
}

// AttendanceService records worker clock events. The day boundary is local
// midnight of the clock returned by now.
type AttendanceService struct {
	records     AttendanceRepository
	workers     WorkerRoster
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttendanceService constructs an attendance service with the provided dependencies.
func NewAttendanceService(records AttendanceRepository, workers WorkerRoster, idGenerator func() string, now func() time.Time) *AttendanceService {
	return NewAttendanceServiceWithLogger(records, workers, idGenerator, now, nil)
}

// NewAttendanceServiceWithLogger constructs an attendance service with a specified logger.
func NewAttendanceServiceWithLogger(records AttendanceRepository, workers WorkerRoster, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AttendanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{records: records, workers: workers, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// ClockEvent stamps clock-in or clock-out on today's record, creating it on
// first use. Clock-in also sets the status to Present. Repeating a stamp
// overwrites it.
func (s *AttendanceService) ClockEvent(ctx context.Context, params ClockEventParams) (record Attendance, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}
	if s.records == nil {
		err = fmt.Errorf("attendance repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ClockEvent",
		"principal_id", params.Principal.ID,
		"worker_id", params.WorkerID,
		"type", string(params.Input.Type),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record clock event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("attendance_id", record.ID, "date", record.Date).InfoContext(ctx, "clock event recorded")
	}()

	if !canAccessWorker(params.Principal, params.WorkerID) {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.workers != nil {
		if _, err = s.workers.GetWorker(ctx, params.WorkerID); err != nil {
			err = mapAttendanceRepoError(err)
			return
		}
	}

	now := s.now()
	record, err = s.records.RecordClockEvent(ctx, Attendance{
		ID:       s.idGenerator(),
		WorkerID: params.WorkerID,
		Date:     now.Format(attendanceDateLayout),
	}, params.Input.Type, now)
	if err != nil {
		err = mapAttendanceRepoError(err)
	}
	return
}

// ListAttendance returns a worker's records, most recent day first.
func (s *AttendanceService) ListAttendance(ctx context.Context, params ListAttendanceParams) (records []Attendance, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}
	if s.records == nil {
		err = fmt.Errorf("attendance repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListAttendance",
		"principal_id", params.Principal.ID,
		"worker_id", params.WorkerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list attendance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(records)).InfoContext(ctx, "attendance listed")
	}()

	if !canAccessWorker(params.Principal, params.WorkerID) {
		err = ErrForbidden
		return
	}

	vErr := &ValidationError{}
	for field, value := range map[string]string{"from": params.From, "to": params.To} {
		if value == "" {
			continue
		}
		if _, parseErr := time.Parse(attendanceDateLayout, value); parseErr != nil {
			vErr.add(field, field+" must be a date in YYYY-MM-DD format")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	records, err = s.records.ListAttendance(ctx, AttendanceQuery{WorkerID: params.WorkerID, From: params.From, To: params.To})
	if err != nil {
		err = mapAttendanceRepoError(err)
	}
	return
}

// SweepAbsences marks every active worker without a record for today as
// Absent and returns how many records were created. Existing records are left
// untouched.
func (s *AttendanceService) SweepAbsences(ctx context.Context) (created int, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}
	if s.records == nil || s.workers == nil {
		err = fmt.Errorf("attendance sweep not configured")
		return
	}

	now := s.now()
	date := now.Format(attendanceDateLayout)
	logger := s.loggerWith(ctx, "SweepAbsences", "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "absence sweep failed", "error", err, "error_kind", ErrorKind(err), "created", created)
			return
		}
		logger.With("created", created).InfoContext(ctx, "absence sweep completed")
	}()

	active := true
	var workers []Worker
	workers, err = s.workers.ListWorkers(ctx, WorkerQuery{Active: &active})
	if err != nil {
		return
	}

	for _, worker := range workers {
		if err = ctx.Err(); err != nil {
			return
		}
		var inserted bool
		inserted, err = s.records.CreateAbsence(ctx, Attendance{
			ID:        s.idGenerator(),
			WorkerID:  worker.ID,
			Date:      date,
			Status:    AttendanceAbsent,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			err = fmt.Errorf("mark %s absent: %w", worker.ID, err)
			return
		}
		if inserted {
			created++
		}
	}
	return
}

func mapAttendanceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKey) {
		return ErrNotFound
	}
	return err
}
