package main

import (
	"context"
	"time"

	"github.com/example/hostel-desk/internal/application"
	"github.com/example/hostel-desk/internal/persistence"
)

type studentRepositoryAdapter struct {
	repo persistence.StudentRepository
}

func newStudentRepositoryAdapter(repo persistence.StudentRepository) *studentRepositoryAdapter {
	return &studentRepositoryAdapter{repo: repo}
}

func (a *studentRepositoryAdapter) CreateStudent(ctx context.Context, student application.Student) (application.Student, error) {
	if err := a.repo.CreateStudent(ctx, toPersistenceStudent(student)); err != nil {
		return application.Student{}, err
	}
	return a.GetStudent(ctx, student.ID)
}

func (a *studentRepositoryAdapter) UpdateStudent(ctx context.Context, student application.Student) (application.Student, error) {
	if err := a.repo.UpdateStudent(ctx, toPersistenceStudent(student)); err != nil {
		return application.Student{}, err
	}
	return a.GetStudent(ctx, student.ID)
}

func (a *studentRepositoryAdapter) GetStudent(ctx context.Context, id string) (application.Student, error) {
	stored, err := a.repo.GetStudent(ctx, id)
	if err != nil {
		return application.Student{}, err
	}
	return toApplicationStudent(stored), nil
}

func (a *studentRepositoryAdapter) ListStudents(ctx context.Context) ([]application.Student, error) {
	models, err := a.repo.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	return mapSlice(models, toApplicationStudent), nil
}

func (a *studentRepositoryAdapter) ListStudentsByRoom(ctx context.Context, roomNo int) ([]application.Student, error) {
	models, err := a.repo.ListStudentsByRoom(ctx, roomNo)
	if err != nil {
		return nil, err
	}
	return mapSlice(models, toApplicationStudent), nil
}

type workerRepositoryAdapter struct {
	repo persistence.WorkerRepository
}

func newWorkerRepositoryAdapter(repo persistence.WorkerRepository) *workerRepositoryAdapter {
	return &workerRepositoryAdapter{repo: repo}
}

func (a *workerRepositoryAdapter) CreateWorker(ctx context.Context, worker application.Worker) (application.Worker, error) {
	if err := a.repo.CreateWorker(ctx, toPersistenceWorker(worker)); err != nil {
		return application.Worker{}, err
	}
	return a.GetWorker(ctx, worker.ID)
}

func (a *workerRepositoryAdapter) UpdateWorker(ctx context.Context, worker application.Worker) (application.Worker, error) {
	if err := a.repo.UpdateWorker(ctx, toPersistenceWorker(worker)); err != nil {
		return application.Worker{}, err
	}
	return a.GetWorker(ctx, worker.ID)
}

func (a *workerRepositoryAdapter) GetWorker(ctx context.Context, id string) (application.Worker, error) {
	stored, err := a.repo.GetWorker(ctx, id)
	if err != nil {
		return application.Worker{}, err
	}
	return toApplicationWorker(stored), nil
}

func (a *workerRepositoryAdapter) ListWorkers(ctx context.Context, query application.WorkerQuery) ([]application.Worker, error) {
	models, err := a.repo.ListWorkers(ctx, persistence.WorkerFilter{Role: query.Role, Active: query.Active})
	if err != nil {
		return nil, err
	}
	return mapSlice(models, toApplicationWorker), nil
}

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.RoomNo)
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, roomNo int) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, roomNo)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.RoomNo)
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, roomNo int) error {
	return a.repo.DeleteRoom(ctx, roomNo)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context, query application.RoomQuery) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx, persistence.RoomFilter{Floor: query.Floor, AvailableOnly: query.AvailableOnly})
	if err != nil {
		return nil, err
	}
	return mapSlice(models, toApplicationRoom), nil
}

type complaintRepositoryAdapter struct {
	repo persistence.ComplaintRepository
}

func newComplaintRepositoryAdapter(repo persistence.ComplaintRepository) *complaintRepositoryAdapter {
	return &complaintRepositoryAdapter{repo: repo}
}

func (a *complaintRepositoryAdapter) CreateComplaint(ctx context.Context, complaint application.Complaint, entry application.ComplaintHistory) (application.Complaint, error) {
	if err := a.repo.CreateComplaint(ctx, toPersistenceComplaint(complaint), toPersistenceHistory(entry)); err != nil {
		return application.Complaint{}, err
	}
	return a.GetComplaint(ctx, complaint.ID)
}

func (a *complaintRepositoryAdapter) UpdateComplaint(ctx context.Context, complaint application.Complaint, entry application.ComplaintHistory) (application.Complaint, error) {
	if err := a.repo.UpdateComplaint(ctx, toPersistenceComplaint(complaint), toPersistenceHistory(entry)); err != nil {
		return application.Complaint{}, err
	}
	return a.GetComplaint(ctx, complaint.ID)
}

func (a *complaintRepositoryAdapter) GetComplaint(ctx context.Context, id string) (application.Complaint, error) {
	stored, err := a.repo.GetComplaint(ctx, id)
	if err != nil {
		return application.Complaint{}, err
	}
	return toApplicationComplaint(stored), nil
}

func (a *complaintRepositoryAdapter) ListComplaints(ctx context.Context, query application.ComplaintQuery) ([]application.Complaint, error) {
	filter := persistence.ComplaintFilter{
		StudentID:        query.StudentID,
		AssignedWorkerID: query.AssignedWorkerID,
		Category:         query.Category,
	}
	if query.Status != nil {
		status := string(*query.Status)
		filter.Status = &status
	}
	models, err := a.repo.ListComplaints(ctx, filter)
	if err != nil {
		return nil, err
	}
	return mapSlice(models, toApplicationComplaint), nil
}

func (a *complaintRepositoryAdapter) ListComplaintHistory(ctx context.Context, complaintID string) ([]application.ComplaintHistory, error) {
	models, err := a.repo.ListComplaintHistory(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	return mapSlice(models, toApplicationHistory), nil
}

type emergencyRepositoryAdapter struct {
	repo persistence.EmergencyRepository
}

func newEmergencyRepositoryAdapter(repo persistence.EmergencyRepository) *emergencyRepositoryAdapter {
	return &emergencyRepositoryAdapter{repo: repo}
}

func (a *emergencyRepositoryAdapter) CreateEmergency(ctx context.Context, emergency application.Emergency) (application.Emergency, error) {
	if err := a.repo.CreateEmergency(ctx, toPersistenceEmergency(emergency)); err != nil {
		return application.Emergency{}, err
	}
	return a.GetEmergency(ctx, emergency.ID)
}

func (a *emergencyRepositoryAdapter) UpdateEmergency(ctx context.Context, emergency application.Emergency) (application.Emergency, error) {
	if err := a.repo.UpdateEmergency(ctx, toPersistenceEmergency(emergency)); err != nil {
		return application.Emergency{}, err
	}
	return a.GetEmergency(ctx, emergency.ID)
}

func (a *emergencyRepositoryAdapter) GetEmergency(ctx context.Context, id string) (application.Emergency, error) {
	stored, err := a.repo.GetEmergency(ctx, id)
	if err != nil {
		return application.Emergency{}, err
	}
	return toApplicationEmergency(stored), nil
}

func (a *emergencyRepositoryAdapter) ListEmergencies(ctx context.Context, query application.EmergencyQuery) ([]application.Emergency, error) {
	filter := persistence.EmergencyFilter{StudentID: query.StudentID}
	if query.Status != nil {
		status := string(*query.Status)
		filter.Status = &status
	}
	models, err := a.repo.ListEmergencies(ctx, filter)
	if err != nil {
		return nil, err
	}
	return mapSlice(models, toApplicationEmergency), nil
}

type notificationRepositoryAdapter struct {
	repo persistence.NotificationRepository
}

func newNotificationRepositoryAdapter(repo persistence.NotificationRepository) *notificationRepositoryAdapter {
	return &notificationRepositoryAdapter{repo: repo}
}

func (a *notificationRepositoryAdapter) CreateNotification(ctx context.Context, notification application.Notification) (application.Notification, error) {
	if err := a.repo.CreateNotification(ctx, toPersistenceNotification(notification)); err != nil {
		return application.Notification{}, err
	}
	return a.GetNotification(ctx, notification.ID)
}

func (a *notificationRepositoryAdapter) GetNotification(ctx context.Context, id string) (application.Notification, error) {
	stored, err := a.repo.GetNotification(ctx, id)
	if err != nil {
		return application.Notification{}, err
	}
	return toApplicationNotification(stored), nil
}

func (a *notificationRepositoryAdapter) ListNotifications(ctx context.Context, query application.NotificationQuery) ([]application.Notification, error) {
	filter := persistence.NotificationFilter{RecipientID: query.RecipientID, IsRead: query.IsRead, Limit: query.Limit}
	if query.Kind != nil {
		kind := string(*query.Kind)
		filter.RecipientType = &kind
	}
	models, err := a.repo.ListNotifications(ctx, filter)
	if err != nil {
		return nil, err
	}
	return mapSlice(models, toApplicationNotification), nil
}

func (a *notificationRepositoryAdapter) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	return a.repo.MarkNotificationRead(ctx, id, at)
}

func (a *notificationRepositoryAdapter) MarkAllNotificationsRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	return a.repo.MarkAllNotificationsRead(ctx, recipientID, at)
}

func (a *notificationRepositoryAdapter) CountUnreadNotifications(ctx context.Context, recipientID string) (int, error) {
	return a.repo.CountUnreadNotifications(ctx, recipientID)
}

type attendanceRepositoryAdapter struct {
	repo persistence.AttendanceRepository
}

func newAttendanceRepositoryAdapter(repo persistence.AttendanceRepository) *attendanceRepositoryAdapter {
	return &attendanceRepositoryAdapter{repo: repo}
}

func (a *attendanceRepositoryAdapter) RecordClockEvent(ctx context.Context, record application.Attendance, kind application.ClockKind, at time.Time) (application.Attendance, error) {
	stored, err := a.repo.RecordClockEvent(ctx, toPersistenceAttendance(record), persistence.ClockKind(kind), at)
	if err != nil {
		return application.Attendance{}, err
	}
	return toApplicationAttendance(stored), nil
}

func (a *attendanceRepositoryAdapter) CreateAbsence(ctx context.Context, record application.Attendance) (bool, error) {
	return a.repo.CreateAbsence(ctx, toPersistenceAttendance(record))
}

func (a *attendanceRepositoryAdapter) ListAttendance(ctx context.Context, query application.AttendanceQuery) ([]application.Attendance, error) {
	models, err := a.repo.ListAttendance(ctx, persistence.AttendanceFilter{WorkerID: query.WorkerID, From: query.From, To: query.To})
	if err != nil {
		return nil, err
	}
	return mapSlice(models, toApplicationAttendance), nil
}

type credentialStoreAdapter struct {
	students persistence.StudentRepository
	admins   persistence.AdminRepository
	workers  persistence.WorkerRepository
}

func newCredentialStoreAdapter(students persistence.StudentRepository, admins persistence.AdminRepository, workers persistence.WorkerRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{students: students, admins: admins, workers: workers}
}

func (a *credentialStoreAdapter) GetStudentByEmail(ctx context.Context, email string) (application.Student, error) {
	stored, err := a.students.GetStudentByEmail(ctx, email)
	if err != nil {
		return application.Student{}, err
	}
	return toApplicationStudent(stored), nil
}

func (a *credentialStoreAdapter) GetAdminByEmail(ctx context.Context, email string) (application.Admin, error) {
	stored, err := a.admins.GetAdminByEmail(ctx, email)
	if err != nil {
		return application.Admin{}, err
	}
	return application.Admin{
		ID:           stored.ID,
		Name:         stored.Name,
		Email:        stored.Email,
		PasswordHash: stored.PasswordHash,
		Role:         application.Role(stored.Role),
		Phone:        stored.Phone,
		CreatedAt:    stored.CreatedAt,
		UpdatedAt:    stored.UpdatedAt,
	}, nil
}

func (a *credentialStoreAdapter) GetWorkerByPhone(ctx context.Context, phone string) (application.Worker, error) {
	stored, err := a.workers.GetWorkerByPhone(ctx, phone)
	if err != nil {
		return application.Worker{}, err
	}
	return toApplicationWorker(stored), nil
}

func mapSlice[From, To any](in []From, convert func(From) To) []To {
	out := make([]To, 0, len(in))
	for _, item := range in {
		out = append(out, convert(item))
	}
	return out
}

func toApplicationStudent(model persistence.Student) application.Student {
	return application.Student{
		ID:               model.ID,
		Name:             model.Name,
		Email:            model.Email,
		Phone:            model.Phone,
		RoomNo:           cloneInt(model.RoomNo),
		PasswordHash:     model.PasswordHash,
		JoinDate:         model.JoinDate,
		EmergencyContact: model.EmergencyContact,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceStudent(student application.Student) persistence.Student {
	return persistence.Student{
		ID:               student.ID,
		Name:             student.Name,
		Email:            student.Email,
		Phone:            student.Phone,
		RoomNo:           cloneInt(student.RoomNo),
		PasswordHash:     student.PasswordHash,
		JoinDate:         student.JoinDate,
		EmergencyContact: student.EmergencyContact,
		CreatedAt:        student.CreatedAt,
		UpdatedAt:        student.UpdatedAt,
	}
}

func toApplicationWorker(model persistence.Worker) application.Worker {
	return application.Worker{
		ID:            model.ID,
		Name:          model.Name,
		Role:          model.Role,
		Phone:         model.Phone,
		DutyStartTime: model.DutyStartTime,
		DutyEndTime:   model.DutyEndTime,
		Active:        model.Active,
		PasswordHash:  model.PasswordHash,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toPersistenceWorker(worker application.Worker) persistence.Worker {
	return persistence.Worker{
		ID:            worker.ID,
		Name:          worker.Name,
		Role:          worker.Role,
		Phone:         worker.Phone,
		DutyStartTime: worker.DutyStartTime,
		DutyEndTime:   worker.DutyEndTime,
		Active:        worker.Active,
		PasswordHash:  worker.PasswordHash,
		CreatedAt:     worker.CreatedAt,
		UpdatedAt:     worker.UpdatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		RoomNo:           model.RoomNo,
		Floor:            model.Floor,
		Capacity:         model.Capacity,
		CurrentOccupancy: model.CurrentOccupancy,
		RoomType:         model.RoomType,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		RoomNo:           room.RoomNo,
		Floor:            room.Floor,
		Capacity:         room.Capacity,
		CurrentOccupancy: room.CurrentOccupancy,
		RoomType:         room.RoomType,
		CreatedAt:        room.CreatedAt,
		UpdatedAt:        room.UpdatedAt,
	}
}

func toApplicationSnapshot(model *persistence.StudentSnapshot) *application.StudentSnapshot {
	if model == nil {
		return nil
	}
	return &application.StudentSnapshot{Name: model.Name, RoomNo: cloneInt(model.RoomNo)}
}

func toApplicationComplaint(model persistence.Complaint) application.Complaint {
	return application.Complaint{
		ID:               model.ID,
		StudentID:        model.StudentID,
		Category:         model.Category,
		Description:      model.Description,
		Status:           application.ComplaintStatus(model.Status),
		Priority:         application.Priority(model.Priority),
		AssignedWorkerID: cloneString(model.AssignedWorkerID),
		AssignedByID:     cloneString(model.AssignedByID),
		CompletedAt:      cloneTime(model.CompletedAt),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
		Student:          toApplicationSnapshot(model.Student),
	}
}

func toPersistenceComplaint(complaint application.Complaint) persistence.Complaint {
	return persistence.Complaint{
		ID:               complaint.ID,
		StudentID:        complaint.StudentID,
		Category:         complaint.Category,
		Description:      complaint.Description,
		Status:           string(complaint.Status),
		Priority:         string(complaint.Priority),
		AssignedWorkerID: cloneString(complaint.AssignedWorkerID),
		AssignedByID:     cloneString(complaint.AssignedByID),
		CompletedAt:      cloneTime(complaint.CompletedAt),
		CreatedAt:        complaint.CreatedAt,
		UpdatedAt:        complaint.UpdatedAt,
	}
}

func toApplicationHistory(model persistence.ComplaintHistory) application.ComplaintHistory {
	return application.ComplaintHistory{
		ID:          model.ID,
		ComplaintID: model.ComplaintID,
		OldStatus:   application.ComplaintStatus(model.OldStatus),
		NewStatus:   application.ComplaintStatus(model.NewStatus),
		ChangedBy:   application.ActorRef{Kind: application.ActorKind(model.ChangedByType), ID: model.ChangedBy},
		Notes:       model.Notes,
		ChangedAt:   model.ChangedAt,
	}
}

func toPersistenceHistory(entry application.ComplaintHistory) persistence.ComplaintHistory {
	return persistence.ComplaintHistory{
		ID:            entry.ID,
		ComplaintID:   entry.ComplaintID,
		OldStatus:     string(entry.OldStatus),
		NewStatus:     string(entry.NewStatus),
		ChangedBy:     entry.ChangedBy.ID,
		ChangedByType: string(entry.ChangedBy.Kind),
		Notes:         entry.Notes,
		ChangedAt:     entry.ChangedAt,
	}
}

func toApplicationEmergency(model persistence.Emergency) application.Emergency {
	return application.Emergency{
		ID:          model.ID,
		StudentID:   model.StudentID,
		Description: model.Description,
		RoomNo:      model.RoomNo,
		Status:      application.EmergencyStatus(model.Status),
		ReportedAt:  model.ReportedAt,
		RespondedAt: cloneTime(model.RespondedAt),
		RespondedBy: cloneString(model.RespondedBy),
		ResolvedAt:  cloneTime(model.ResolvedAt),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		Student:     toApplicationSnapshot(model.Student),
	}
}

func toPersistenceEmergency(emergency application.Emergency) persistence.Emergency {
	return persistence.Emergency{
		ID:          emergency.ID,
		StudentID:   emergency.StudentID,
		Description: emergency.Description,
		RoomNo:      emergency.RoomNo,
		Status:      string(emergency.Status),
		ReportedAt:  emergency.ReportedAt,
		RespondedAt: cloneTime(emergency.RespondedAt),
		RespondedBy: cloneString(emergency.RespondedBy),
		ResolvedAt:  cloneTime(emergency.ResolvedAt),
		CreatedAt:   emergency.CreatedAt,
		UpdatedAt:   emergency.UpdatedAt,
	}
}

func toApplicationNotification(model persistence.Notification) application.Notification {
	return application.Notification{
		ID:                 model.ID,
		Recipient:          application.ActorRef{Kind: application.ActorKind(model.RecipientType), ID: model.RecipientID},
		Message:            model.Message,
		IsRead:             model.IsRead,
		RelatedComplaintID: cloneString(model.RelatedComplaintID),
		RelatedEmergencyID: cloneString(model.RelatedEmergencyID),
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

func toPersistenceNotification(notification application.Notification) persistence.Notification {
	return persistence.Notification{
		ID:                 notification.ID,
		RecipientID:        notification.Recipient.ID,
		RecipientType:      string(notification.Recipient.Kind),
		Message:            notification.Message,
		IsRead:             notification.IsRead,
		RelatedComplaintID: cloneString(notification.RelatedComplaintID),
		RelatedEmergencyID: cloneString(notification.RelatedEmergencyID),
		CreatedAt:          notification.CreatedAt,
		UpdatedAt:          notification.UpdatedAt,
	}
}

func toApplicationAttendance(model persistence.Attendance) application.Attendance {
	return application.Attendance{
		ID:        model.ID,
		WorkerID:  model.WorkerID,
		Date:      model.Date,
		ClockIn:   cloneTime(model.ClockIn),
		ClockOut:  cloneTime(model.ClockOut),
		Status:    application.AttendanceStatus(model.Status),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceAttendance(record application.Attendance) persistence.Attendance {
	return persistence.Attendance{
		ID:        record.ID,
		WorkerID:  record.WorkerID,
		Date:      record.Date,
		ClockIn:   cloneTime(record.ClockIn),
		ClockOut:  cloneTime(record.ClockOut),
		Status:    string(record.Status),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
