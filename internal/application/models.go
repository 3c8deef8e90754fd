package application

import "time"

// Role identifies the kind of account behind a bearer credential.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleWorker  Role = "WORKER"
	RoleAdmin   Role = "ADMIN"
	RoleWarden  Role = "WARDEN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleWorker, RoleAdmin, RoleWarden:
		return true
	}
	return false
}

// IsStaff reports whether r carries hostel administration rights. Wardens share
// every permission with admins except room creation and deletion.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleWarden
}

// Principal represents the authenticated account invoking a service method.
type Principal struct {
	ID   string
	Role Role
}

// Actor returns the tagged reference recorded in audit rows and notifications.
func (p Principal) Actor() ActorRef {
	return ActorRef{Kind: actorKindForRole(p.Role), ID: p.ID}
}

// ActorKind tags the account type an ActorRef points at.
type ActorKind string

const (
	ActorStudent ActorKind = "Student"
	ActorWorker  ActorKind = "Worker"
	ActorAdmin   ActorKind = "Admin"
	ActorWarden  ActorKind = "Warden"
)

// Valid reports whether k is a known actor kind.
func (k ActorKind) Valid() bool {
	switch k {
	case ActorStudent, ActorWorker, ActorAdmin, ActorWarden:
		return true
	}
	return false
}

func actorKindForRole(role Role) ActorKind {
	switch role {
	case RoleStudent:
		return ActorStudent
	case RoleWorker:
		return ActorWorker
	case RoleWarden:
		return ActorWarden
	default:
		return ActorAdmin
	}
}

// ActorRef is a reference to an account resolved through its kind.
type ActorRef struct {
	Kind ActorKind
	ID   string
}

// Admin is an administrative account with role ADMIN or WARDEN.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Student is a hostel resident.
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

// Worker is a maintenance staff member.
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

// Room is a hostel room. CurrentOccupancy is maintained by student writes.
type Room struct {
	RoomNo           int
	Floor            int
	Capacity         int
	CurrentOccupancy int
	RoomType         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RoomDetails pairs a room with its current occupants.
type RoomDetails struct {
	Room     Room
	Students []Student
}

// ComplaintStatus enumerates the complaint lifecycle states.
type ComplaintStatus string

const (
	ComplaintPending    ComplaintStatus = "Pending"
	ComplaintAssigned   ComplaintStatus = "Assigned"
	ComplaintInProgress ComplaintStatus = "InProgress"
	ComplaintCompleted  ComplaintStatus = "Completed"
	ComplaintEscalated  ComplaintStatus = "Escalated"
)

// Priority enumerates complaint priorities.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// StudentSnapshot is the reporting student's name and room at read time.
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
	Status           ComplaintStatus
	Priority         Priority
	AssignedWorkerID *string
	AssignedByID     *string
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Student          *StudentSnapshot
}

// ComplaintHistory is one append-only audit row.
type ComplaintHistory struct {
	ID          string
	ComplaintID string
	OldStatus   ComplaintStatus
	NewStatus   ComplaintStatus
	ChangedBy   ActorRef
	Notes       string
	ChangedAt   time.Time
}

// EmergencyStatus enumerates emergency states.
type EmergencyStatus string

const (
	EmergencyReported  EmergencyStatus = "Reported"
	EmergencyResponded EmergencyStatus = "Responded"
	EmergencyResolved  EmergencyStatus = "Resolved"
)

// Emergency is an urgent incident reported by a student.
type Emergency struct {
	ID          string
	StudentID   string
	Description string
	RoomNo      int
	Status      EmergencyStatus
	ReportedAt  time.Time
	RespondedAt *time.Time
	RespondedBy *string
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Student     *StudentSnapshot
}

// Notification is a message addressed to one account.
type Notification struct {
	ID                 string
	Recipient          ActorRef
	Message            string
	IsRead             bool
	RelatedComplaintID *string
	RelatedEmergencyID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AttendanceStatus enumerates attendance outcomes.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
)

// ClockKind selects which attendance timestamp a clock event stamps.
type ClockKind string

const (
	ClockIn  ClockKind = "clockIn"
	ClockOut ClockKind = "clockOut"
)

// Attendance is a worker's record for one calendar day (YYYY-MM-DD).
type Attendance struct {
	ID        string
	WorkerID  string
	Date      string
	ClockIn   *time.Time
	ClockOut  *time.Time
	Status    AttendanceStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthResult is returned by every successful login or registration.
type AuthResult struct {
	Token     string
	Role      Role
	ID        string
	Name      string
	ExpiresAt time.Time
}

// LoginInput carries email based credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// WorkerLoginInput carries phone based credentials.
type WorkerLoginInput struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StudentInput captures the fields needed to create a student account.
type StudentInput struct {
	Name             string `json:"name" validate:"required,notblank,max=120"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone" validate:"required,notblank,max=20"`
	Password         string `json:"password" validate:"required,min=6"`
	RoomNo           *int   `json:"roomNo" validate:"omitempty,gt=0"`
	EmergencyContact string `json:"emergencyContact" validate:"max=120"`
}

// StudentUpdateInput carries a partial student update. Nil fields are left unchanged.
type StudentUpdateInput struct {
	Name             *string `json:"name" validate:"omitempty,notblank,max=120"`
	Phone            *string `json:"phone" validate:"omitempty,notblank,max=20"`
	EmergencyContact *string `json:"emergencyContact" validate:"omitempty,max=120"`
	RoomNo           *int    `json:"roomNo" validate:"omitempty,gte=0"`
}

// WorkerInput captures the fields needed to create a worker account.
type WorkerInput struct {
	Name          string `json:"name" validate:"required,notblank,max=120"`
	Role          string `json:"role" validate:"required,notblank,max=60"`
	Phone         string `json:"phone" validate:"required,notblank,max=20"`
	DutyStartTime string `json:"dutyStartTime" validate:"omitempty,datetime=15:04"`
	DutyEndTime   string `json:"dutyEndTime" validate:"omitempty,datetime=15:04"`
	Password      string `json:"password" validate:"required,min=6"`
}

// WorkerUpdateInput carries a partial worker update.
type WorkerUpdateInput struct {
	Name          *string `json:"name" validate:"omitempty,notblank,max=120"`
	Role          *string `json:"role" validate:"omitempty,notblank,max=60"`
	Phone         *string `json:"phone" validate:"omitempty,notblank,max=20"`
	DutyStartTime *string `json:"dutyStartTime" validate:"omitempty,datetime=15:04"`
	DutyEndTime   *string `json:"dutyEndTime" validate:"omitempty,datetime=15:04"`
	Active        *bool   `json:"active"`
}

// RoomInput captures the fields needed to create a room.
type RoomInput struct {
	RoomNo   int    `json:"roomNo" validate:"required,gt=0"`
	Floor    int    `json:"floor" validate:"gte=0"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
	RoomType string `json:"roomType" validate:"max=40"`
}

// RoomUpdateInput carries a partial room update. The room number is immutable.
type RoomUpdateInput struct {
	Floor    *int    `json:"floor" validate:"omitempty,gte=0"`
	Capacity *int    `json:"capacity" validate:"omitempty,gt=0"`
	RoomType *string `json:"roomType" validate:"omitempty,max=40"`
}

// ComplaintInput captures a new complaint. Priority defaults to Medium.
type ComplaintInput struct {
	Category    string   `json:"category" validate:"required,notblank,max=60"`
	Description string   `json:"description" validate:"required,notblank,max=2000"`
	Priority    Priority `json:"priority" validate:"omitempty,oneof=Low Medium High"`
}

// AssignInput names the worker receiving a complaint.
type AssignInput struct {
	WorkerID string `json:"workerId" validate:"required,notblank"`
}

// StatusInput requests a complaint status change.
type StatusInput struct {
	Status ComplaintStatus `json:"status" validate:"required,oneof=Pending Assigned InProgress Completed Escalated"`
	Notes  string          `json:"notes" validate:"max=1000"`
}

// EmergencyInput captures a new emergency report.
type EmergencyInput struct {
	Description string `json:"description" validate:"required,notblank,max=2000"`
	RoomNo      int    `json:"roomNo" validate:"required,gt=0"`
}

// EmergencyStatusInput requests an emergency status change.
type EmergencyStatusInput struct {
	Status EmergencyStatus `json:"status" validate:"required,oneof=Responded Resolved"`
}

// NotificationInput captures a staff-authored notification.
type NotificationInput struct {
	RecipientID        string    `json:"recipientId" validate:"required,notblank"`
	RecipientType      ActorKind `json:"recipientType" validate:"required,oneof=Student Worker Admin Warden"`
	Message            string    `json:"message" validate:"required,notblank,max=1000"`
	RelatedComplaintID *string   `json:"relatedComplaint" validate:"omitempty,min=1"`
	RelatedEmergencyID *string   `json:"relatedEmergency" validate:"omitempty,min=1"`
}

// ClockInput requests an attendance stamp.
type ClockInput struct {
	Type ClockKind `json:"type" validate:"required,oneof=clockIn clockOut"`
}

// CreateStudentParams wraps the data required to create a student.
type CreateStudentParams struct {
	Principal Principal
	Input     StudentInput
}

// UpdateStudentParams wraps the data required to update a student.
type UpdateStudentParams struct {
	Principal Principal
	StudentID string
	Input     StudentUpdateInput
}

// CreateWorkerParams wraps the data required to create a worker.
type CreateWorkerParams struct {
	Principal Principal
	Input     WorkerInput
}

// UpdateWorkerParams wraps the data required to update a worker.
type UpdateWorkerParams struct {
	Principal Principal
	WorkerID  string
	Input     WorkerUpdateInput
}

// ListWorkersParams filters the worker roster.
type ListWorkersParams struct {
	Principal Principal
	Role      *string
	Active    *bool
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomNo    int
	Input     RoomUpdateInput
}

// ListRoomsParams filters the room listing.
type ListRoomsParams struct {
	Principal     Principal
	Floor         *int
	AvailableOnly bool
}

// CreateComplaintParams wraps the data required to file a complaint.
type CreateComplaintParams struct {
	Principal Principal
	Input     ComplaintInput
}

// ListComplaintsParams filters the staff complaint listing.
type ListComplaintsParams struct {
	Principal Principal
	Status    *ComplaintStatus
	Category  *string
}

// AssignComplaintParams wraps the data required to assign a complaint.
type AssignComplaintParams struct {
	Principal   Principal
	ComplaintID string
	Input       AssignInput
}

// UpdateComplaintStatusParams wraps the data required to move a complaint.
type UpdateComplaintStatusParams struct {
	Principal   Principal
	ComplaintID string
	Input       StatusInput
}

// CreateEmergencyParams wraps the data required to report an emergency.
type CreateEmergencyParams struct {
	Principal Principal
	Input     EmergencyInput
}

// ListEmergenciesParams filters the emergency listing.
type ListEmergenciesParams struct {
	Principal Principal
	Status    *EmergencyStatus
}

// UpdateEmergencyStatusParams wraps the data required to move an emergency.
type UpdateEmergencyStatusParams struct {
	Principal   Principal
	EmergencyID string
	Input       EmergencyStatusInput
}

// CreateNotificationParams wraps a staff-authored notification.
type CreateNotificationParams struct {
	Principal Principal
	Input     NotificationInput
}

// ListNotificationsParams filters a recipient's notifications.
type ListNotificationsParams struct {
	Principal   Principal
	RecipientID string
	Kind        *ActorKind
	IsRead      *bool
}

// ClockEventParams wraps an attendance stamp request.
type ClockEventParams struct {
	Principal Principal
	WorkerID  string
	Input     ClockInput
}

// ListAttendanceParams filters a worker's attendance records. From/To are YYYY-MM-DD.
type ListAttendanceParams struct {
	Principal Principal
	WorkerID  string
	From      string
	To        string
}
