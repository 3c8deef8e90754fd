package persistence

import (
	"context"
	"time"
)

// AdminRepository stores administrative accounts.
type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin Admin) error
	GetAdmin(ctx context.Context, id string) (Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (Admin, error)
}

// StudentRepository stores students. Creating a student with a room, or moving
// a student between rooms, adjusts room occupancy in the same transaction.
type StudentRepository interface {
	CreateStudent(ctx context.Context, student Student) error
	UpdateStudent(ctx context.Context, student Student) error
	GetStudent(ctx context.Context, id string) (Student, error)
	GetStudentByEmail(ctx context.Context, email string) (Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
	ListStudentsByRoom(ctx context.Context, roomNo int) ([]Student, error)
}

// WorkerFilter narrows worker queries.
type WorkerFilter struct {
	Role   *string
	Active *bool
}

// WorkerRepository stores workers.
type WorkerRepository interface {
	CreateWorker(ctx context.Context, worker Worker) error
	UpdateWorker(ctx context.Context, worker Worker) error
	GetWorker(ctx context.Context, id string) (Worker, error)
	GetWorkerByPhone(ctx context.Context, phone string) (Worker, error)
	ListWorkers(ctx context.Context, filter WorkerFilter) ([]Worker, error)
}

// RoomFilter narrows room queries.
type RoomFilter struct {
	Floor         *int
	AvailableOnly bool
}

// RoomRepository stores rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, roomNo int) (Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
	DeleteRoom(ctx context.Context, roomNo int) error
}

// ComplaintFilter narrows complaint queries. Nil fields are ignored.
type ComplaintFilter struct {
	StudentID        *string
	AssignedWorkerID *string
	Status           *string
	Category         *string
}

// ComplaintRepository stores complaints together with their audit trail.
// Every write pairs the complaint row with exactly one history row.
type ComplaintRepository interface {
	CreateComplaint(ctx context.Context, complaint Complaint, entry ComplaintHistory) error
	UpdateComplaint(ctx context.Context, complaint Complaint, entry ComplaintHistory) error
	GetComplaint(ctx context.Context, id string) (Complaint, error)
	ListComplaints(ctx context.Context, filter ComplaintFilter) ([]Complaint, error)
	ListComplaintHistory(ctx context.Context, complaintID string) ([]ComplaintHistory, error)
}

// EmergencyFilter narrows emergency queries.
type EmergencyFilter struct {
	Status    *string
	StudentID *string
}

// EmergencyRepository stores emergencies.
type EmergencyRepository interface {
	CreateEmergency(ctx context.Context, emergency Emergency) error
	UpdateEmergency(ctx context.Context, emergency Emergency) error
	GetEmergency(ctx context.Context, id string) (Emergency, error)
	ListEmergencies(ctx context.Context, filter EmergencyFilter) ([]Emergency, error)
}

// NotificationFilter narrows notification queries. Limit <= 0 means no limit.
type NotificationFilter struct {
	RecipientID   string
	RecipientType *string
	IsRead        *bool
	Limit         int
}

// NotificationRepository stores notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	GetNotification(ctx context.Context, id string) (Notification, error)
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
	CountUnreadNotifications(ctx context.Context, recipientID string) (int, error)
}

// ClockKind selects the attendance timestamp being recorded.
type ClockKind string

const (
	ClockIn  ClockKind = "clockIn"
	ClockOut ClockKind = "clockOut"
)

// AttendanceFilter narrows attendance queries. From and To are inclusive YYYY-MM-DD bounds.
type AttendanceFilter struct {
	WorkerID string
	From     string
	To       string
}

// AttendanceRepository stores attendance records, unique per worker and date.
type AttendanceRepository interface {
	// RecordClockEvent finds or creates the record for record.WorkerID/record.Date
	// and stamps the timestamp selected by kind in a single statement.
	RecordClockEvent(ctx context.Context, record Attendance, kind ClockKind, at time.Time) (Attendance, error)
	// CreateAbsence inserts an Absent record unless one already exists for the day.
	CreateAbsence(ctx context.Context, record Attendance) (bool, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]Attendance, error)
}
