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

// StudentRepository captures the persistence operations needed by the service.
// Room occupancy follows RoomNo changes inside the repository.
type StudentRepository interface {
	CreateStudent(ctx context.Context, student Student) (Student, error)
	UpdateStudent(ctx context.Context, student Student) (Student, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
}

// PasswordHashFunc produces a stored hash for a plaintext password.
type PasswordHashFunc func(password string) (string, error)

const (
	msgStudentEmailTaken = "Student with this email already exists"
	msgRoomFull          = "Room is at full capacity"
)

// StudentService manages student accounts and profiles.
type StudentService struct {
	students     StudentRepository
	hashPassword PasswordHashFunc
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewStudentService constructs a student service with the provided dependencies.
func NewStudentService(students StudentRepository, hash PasswordHashFunc, idGenerator func() string, now func() time.Time) *StudentService {
	return NewStudentServiceWithLogger(students, hash, idGenerator, now, nil)
}

// NewStudentServiceWithLogger constructs a student service with a specified logger.
func NewStudentServiceWithLogger(students StudentRepository, hash PasswordHashFunc, idGenerator func() string, now func() time.Time, logger *slog.Logger) *StudentService {
	if hash == nil {
		hash = NewPasswordHasher(HashArgon2id, 0).Hash
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &StudentService{students: students, hashPassword: hash, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *StudentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StudentService", operation, attrs...)
}

// CreateStudent registers a student on behalf of staff.
func (s *StudentService) CreateStudent(ctx context.Context, params CreateStudentParams) (student Student, err error) {
	if s == nil {
		err = fmt.Errorf("StudentService is nil")
		return
	}
	if s.students == nil {
		err = fmt.Errorf("student repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateStudent",
		"principal_id", params.Principal.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create student", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("student_id", student.ID).InfoContext(ctx, "student created")
	}()

	if !params.Principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}

	student, err = createStudentAccount(ctx, s.students, params.Input, s.hashPassword, s.idGenerator, s.now)
	return
}

// createStudentAccount validates input, hashes the password and stores the student.
// Staff creation and self-registration share it.
func createStudentAccount(ctx context.Context, repo StudentRepository, input StudentInput, hash PasswordHashFunc, idGenerator func() string, now func() time.Time) (Student, error) {
	if vErr := validateInput(input); vErr.HasErrors() {
		return Student{}, vErr
	}

	passwordHash, err := hash(input.Password)
	if err != nil {
		return Student{}, fmt.Errorf("hash password: %w", err)
	}

	at := now()
	student := Student{
		ID:               idGenerator(),
		Name:             strings.TrimSpace(input.Name),
		Email:            strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:            strings.TrimSpace(input.Phone),
		RoomNo:           input.RoomNo,
		PasswordHash:     passwordHash,
		JoinDate:         at,
		EmergencyContact: strings.TrimSpace(input.EmergencyContact),
		CreatedAt:        at,
		UpdatedAt:        at,
	}

	persisted, err := repo.CreateStudent(ctx, student)
	if err != nil {
		return Student{}, mapStudentRepoError(err)
	}
	return persisted, nil
}

// GetStudent returns a student profile to staff or the student themselves.
func (s *StudentService) GetStudent(ctx context.Context, principal Principal, studentID string) (Student, error) {
	if s == nil {
		return Student{}, fmt.Errorf("StudentService is nil")
	}
	if s.students == nil {
		return Student{}, fmt.Errorf("student repository not configured")
	}
	if !canAccessStudent(principal, studentID) {
		return Student{}, ErrForbidden
	}

	student, err := s.students.GetStudent(ctx, studentID)
	if err != nil {
		return Student{}, mapStudentRepoError(err)
	}
	return student, nil
}

// UpdateStudent applies a partial profile update. Students may change their own
// phone and emergency contact; staff may also change name and room. A RoomNo of
// zero clears the room.
func (s *StudentService) UpdateStudent(ctx context.Context, params UpdateStudentParams) (student Student, err error) {
	if s == nil {
		err = fmt.Errorf("StudentService is nil")
		return
	}
	if s.students == nil {
		err = fmt.Errorf("student repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateStudent",
		"principal_id", params.Principal.ID,
		"student_id", params.StudentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update student", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "student updated")
	}()

	if !canAccessStudent(params.Principal, params.StudentID) {
		err = ErrForbidden
		return
	}
	input := params.Input
	if !params.Principal.Role.IsStaff() && (input.Name != nil || input.RoomNo != nil) {
		err = ErrForbidden
		return
	}
	if vErr := validateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing Student
	existing, err = s.students.GetStudent(ctx, params.StudentID)
	if err != nil {
		err = mapStudentRepoError(err)
		return
	}

	updated := existing
	if input.Name != nil {
		updated.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		updated.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.EmergencyContact != nil {
		updated.EmergencyContact = strings.TrimSpace(*input.EmergencyContact)
	}
	if input.RoomNo != nil {
		if *input.RoomNo == 0 {
			updated.RoomNo = nil
		} else {
			roomNo := *input.RoomNo
			updated.RoomNo = &roomNo
		}
	}
	updated.UpdatedAt = s.now()

	student, err = s.students.UpdateStudent(ctx, updated)
	if err != nil {
		err = mapStudentRepoError(err)
	}
	return
}

// ListStudents returns every student, newest first.
func (s *StudentService) ListStudents(ctx context.Context, principal Principal) (students []Student, err error) {
	if s == nil {
		err = fmt.Errorf("StudentService is nil")
		return
	}
	if !principal.Role.IsStaff() {
		err = ErrForbidden
		return
	}
	if s.students == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListStudents",
		"principal_id", principal.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list students", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(students)).InfoContext(ctx, "students listed")
	}()

	students, err = s.students.ListStudents(ctx)
	return
}

func canAccessStudent(principal Principal, studentID string) bool {
	if principal.Role.IsStaff() {
		return true
	}
	return principal.Role == RoleStudent && principal.ID == studentID
}

func mapStudentRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return newConflict(msgStudentEmailTaken)
	case errors.Is(err, persistence.ErrCapacityExceeded):
		return newConflict(msgRoomFull)
	case errors.Is(err, persistence.ErrForeignKey):
		return fieldError("roomNo", "room does not exist")
	}
	return err
}
