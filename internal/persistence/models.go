package persistence

import "time"

// Admin is an administrative account with role ADMIN or WARDEN.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Student is a hostel resident account.
type Student struct {
	ID               string
	Name             string
	Email            string
	Phone            string
	RoomNo           *int
	PasswordHash     string
	JoinDate         time.Time
	EmergencyContact string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Worker is a maintenance staff account.
type Worker struct {
	ID            string
	Name          string
	Role          string
	Phone         string
	DutyStartTime string
	DutyEndTime   string
	Active        bool
	PasswordHash  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Room is keyed by its room number.
type Room struct {
	RoomNo           int
	Floor            int
	Capacity         int
	CurrentOccupancy int
	RoomType         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StudentSnapshot carries the reporting student's display fields joined into list queries.
type StudentSnapshot struct {
	Name   string
	RoomNo *int
}

// Complaint is a maintenance request filed by a student.
type Complaint struct {
	ID               string
	StudentID        string
	Category         string
	Description      string
	Status           string
	Priority         string
	AssignedWorkerID *string
	AssignedByID     *string
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Student is populated by read queries only.
	Student *StudentSnapshot
}

// ComplaintHistory is one append-only audit row.
type ComplaintHistory struct {
	ID            string
	ComplaintID   string
	OldStatus     string
	NewStatus     string
	ChangedBy     string
	ChangedByType string
	Notes         string
	ChangedAt     time.Time
}

// Emergency is an urgent incident report.
type Emergency struct {
	ID          string
	StudentID   string
	Description string
	RoomNo      int
	Status      string
	ReportedAt  time.Time
	RespondedAt *time.Time
	RespondedBy *string
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Student *StudentSnapshot
}

// Notification is addressed to a recipient identified by id and type tag.
type Notification struct {
	ID                 string
	RecipientID        string
	RecipientType      string
	Message            string
	IsRead             bool
	RelatedComplaintID *string
	RelatedEmergencyID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Attendance is the per-worker, per-day attendance record. Date is formatted as YYYY-MM-DD.
type Attendance struct {
	ID        string
	WorkerID  string
	Date      string
	ClockIn   *time.Time
	ClockOut  *time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
