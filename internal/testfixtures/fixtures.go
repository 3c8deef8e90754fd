package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/hostel-desk/internal/persistence"
)

var (
	studentCounter uint64
	workerCounter  uint64
	adminCounter   uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// StudentOption customises a student fixture.
type StudentOption func(*persistence.Student)

// NewStudent returns a deterministic persistence student.
func NewStudent(opts ...StudentOption) persistence.Student {
	idx := atomic.AddUint64(&studentCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	student := persistence.Student{
		ID:           fmt.Sprintf("student-%03d", idx),
		Name:         fmt.Sprintf("Student %03d", idx),
		Email:        fmt.Sprintf("student-%03d@example.com", idx),
		Phone:        fmt.Sprintf("90000%05d", idx),
		PasswordHash: "hash",
		JoinDate:     created,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&student)
	}
	return student
}

// WithStudentID overrides the student identifier.
func WithStudentID(id string) StudentOption {
	return func(s *persistence.Student) { s.ID = id }
}

// WithStudentEmail overrides the student email.
func WithStudentEmail(email string) StudentOption {
	return func(s *persistence.Student) { s.Email = email }
}

// WithStudentRoom places the student in roomNo.
func WithStudentRoom(roomNo int) StudentOption {
	return func(s *persistence.Student) { s.RoomNo = &roomNo }
}

// WithStudentPasswordHash overrides the stored hash.
func WithStudentPasswordHash(hash string) StudentOption {
	return func(s *persistence.Student) { s.PasswordHash = hash }
}

// WithStudentCreatedAt overrides creation and update timestamps.
func WithStudentCreatedAt(at time.Time) StudentOption {
	return func(s *persistence.Student) {
		s.CreatedAt = at
		s.UpdatedAt = at
	}
}

// WorkerOption customises a worker fixture.
type WorkerOption func(*persistence.Worker)

// NewWorker returns a deterministic, active persistence worker.
func NewWorker(opts ...WorkerOption) persistence.Worker {
	idx := atomic.AddUint64(&workerCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	worker := persistence.Worker{
		ID:            fmt.Sprintf("worker-%03d", idx),
		Name:          fmt.Sprintf("Worker %03d", idx),
		Role:          "Electrician",
		Phone:         fmt.Sprintf("80000%05d", idx),
		DutyStartTime: "09:00",
		DutyEndTime:   "17:00",
		Active:        true,
		PasswordHash:  "hash",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	for _, opt := range opts {
		opt(&worker)
	}
	return worker
}

// WithWorkerID overrides the worker identifier.
func WithWorkerID(id string) WorkerOption {
	return func(w *persistence.Worker) { w.ID = id }
}

// WithWorkerName overrides the worker name.
func WithWorkerName(name string) WorkerOption {
	return func(w *persistence.Worker) { w.Name = name }
}

// WithWorkerRole overrides the worker trade.
func WithWorkerRole(role string) WorkerOption {
	return func(w *persistence.Worker) { w.Role = role }
}

// WithWorkerPhone overrides the worker phone number.
func WithWorkerPhone(phone string) WorkerOption {
	return func(w *persistence.Worker) { w.Phone = phone }
}

// WithWorkerActive toggles the active flag.
func WithWorkerActive(active bool) WorkerOption {
	return func(w *persistence.Worker) { w.Active = active }
}

// WithWorkerPasswordHash overrides the stored hash.
func WithWorkerPasswordHash(hash string) WorkerOption {
	return func(w *persistence.Worker) { w.PasswordHash = hash }
}

// AdminOption customises an admin fixture.
type AdminOption func(*persistence.Admin)

// NewAdmin returns a deterministic persistence admin with role ADMIN.
func NewAdmin(opts ...AdminOption) persistence.Admin {
	idx := atomic.AddUint64(&adminCounter, 1)
	admin := persistence.Admin{
		ID:           fmt.Sprintf("admin-%03d", idx),
		Name:         fmt.Sprintf("Admin %03d", idx),
		Email:        fmt.Sprintf("admin-%03d@example.com", idx),
		PasswordHash: "hash",
		Role:         "ADMIN",
		Phone:        "9999999999",
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&admin)
	}
	return admin
}

// WithAdminID overrides the admin identifier.
func WithAdminID(id string) AdminOption {
	return func(a *persistence.Admin) { a.ID = id }
}

// WithAdminEmail overrides the admin email.
func WithAdminEmail(email string) AdminOption {
	return func(a *persistence.Admin) { a.Email = email }
}

// WithAdminRole sets ADMIN or WARDEN.
func WithAdminRole(role string) AdminOption {
	return func(a *persistence.Admin) { a.Role = role }
}

// WithAdminPasswordHash overrides the stored hash.
func WithAdminPasswordHash(hash string) AdminOption {
	return func(a *persistence.Admin) { a.PasswordHash = hash }
}

// NewRoom returns an empty persistence room.
func NewRoom(roomNo, floor, capacity int) persistence.Room {
	return persistence.Room{
		RoomNo:    roomNo,
		Floor:     floor,
		Capacity:  capacity,
		RoomType:  "Double",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}
