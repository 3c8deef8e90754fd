package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/hostel-desk/internal/persistence"
)

var (
	errDuplicate  = persistence.ErrDuplicate
	errForeignKey = persistence.ErrForeignKey
	errCapacity   = persistence.ErrCapacityExceeded
	errInUse      = persistence.ErrInUse
)

var (
	staffAdmin  = Principal{ID: "admin-1", Role: RoleAdmin}
	staffWarden = Principal{ID: "warden-1", Role: RoleWarden}
)

func studentPrincipal(id string) Principal { return Principal{ID: id, Role: RoleStudent} }
func workerPrincipal(id string) Principal  { return Principal{ID: id, Role: RoleWorker} }

func strRef(v string) *string { return &v }
func intRef(v int) *int       { return &v }
func boolRef(v bool) *bool    { return &v }

// complaintStore keeps complaints and their history in memory.
type complaintStore struct {
	mu         sync.Mutex
	complaints map[string]Complaint
	history    []ComplaintHistory
	updateErr  error
}

func newComplaintStore() *complaintStore {
	return &complaintStore{complaints: map[string]Complaint{}}
}

func (s *complaintStore) CreateComplaint(ctx context.Context, c Complaint, entry ComplaintHistory) (Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.complaints[c.ID]; exists {
		return Complaint{}, errors.New("duplicate complaint")
	}
	s.complaints[c.ID] = c
	s.history = append(s.history, entry)
	return c, nil
}

func (s *complaintStore) UpdateComplaint(ctx context.Context, c Complaint, entry ComplaintHistory) (Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return Complaint{}, s.updateErr
	}
	if _, exists := s.complaints[c.ID]; !exists {
		return Complaint{}, ErrNotFound
	}
	s.complaints[c.ID] = c
	s.history = append(s.history, entry)
	return c, nil
}

func (s *complaintStore) GetComplaint(ctx context.Context, id string) (Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return Complaint{}, ErrNotFound
	}
	return c, nil
}

func (s *complaintStore) ListComplaints(ctx context.Context, q ComplaintQuery) ([]Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Complaint
	for _, c := range s.complaints {
		if q.StudentID != nil && c.StudentID != *q.StudentID {
			continue
		}
		if q.AssignedWorkerID != nil && (c.AssignedWorkerID == nil || *c.AssignedWorkerID != *q.AssignedWorkerID) {
			continue
		}
		if q.Status != nil && c.Status != *q.Status {
			continue
		}
		if q.Category != nil && c.Category != *q.Category {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *complaintStore) ListComplaintHistory(ctx context.Context, complaintID string) ([]ComplaintHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ComplaintHistory
	for _, h := range s.history {
		if h.ComplaintID == complaintID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *complaintStore) historyFor(complaintID string) []ComplaintHistory {
	out, _ := s.ListComplaintHistory(context.Background(), complaintID)
	return out
}

// workerStore keeps workers in memory.
type workerStore struct {
	mu      sync.Mutex
	workers map[string]Worker
}

func newWorkerStore(workers ...Worker) *workerStore {
	s := &workerStore{workers: map[string]Worker{}}
	for _, w := range workers {
		s.workers[w.ID] = w
	}
	return s
}

func (s *workerStore) CreateWorker(ctx context.Context, w Worker) (Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.workers {
		if existing.Phone == w.Phone {
			return Worker{}, errDuplicate
		}
	}
	s.workers[w.ID] = w
	return w, nil
}

func (s *workerStore) UpdateWorker(ctx context.Context, w Worker) (Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workers[w.ID]; !ok {
		return Worker{}, ErrNotFound
	}
	s.workers[w.ID] = w
	return w, nil
}

func (s *workerStore) GetWorker(ctx context.Context, id string) (Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[id]
	if !ok {
		return Worker{}, ErrNotFound
	}
	return w, nil
}

func (s *workerStore) GetWorkerByPhone(ctx context.Context, phone string) (Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		if w.Phone == phone {
			return w, nil
		}
	}
	return Worker{}, ErrNotFound
}

func (s *workerStore) ListWorkers(ctx context.Context, q WorkerQuery) ([]Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Worker
	for _, w := range s.workers {
		if q.Active != nil && w.Active != *q.Active {
			continue
		}
		if q.Role != nil && w.Role != *q.Role {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// studentStore keeps students and room occupancy in memory.
type studentStore struct {
	mu       sync.Mutex
	students map[string]Student
	rooms    *roomStore
}

func newStudentStore(rooms *roomStore) *studentStore {
	return &studentStore{students: map[string]Student{}, rooms: rooms}
}

func (s *studentStore) CreateStudent(ctx context.Context, st Student) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.students {
		if strings.EqualFold(existing.Email, st.Email) {
			return Student{}, errDuplicate
		}
	}
	if err := s.move(nil, st.RoomNo); err != nil {
		return Student{}, err
	}
	s.students[st.ID] = st
	return st, nil
}

func (s *studentStore) UpdateStudent(ctx context.Context, st Student) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.students[st.ID]
	if !ok {
		return Student{}, ErrNotFound
	}
	if err := s.move(current.RoomNo, st.RoomNo); err != nil {
		return Student{}, err
	}
	s.students[st.ID] = st
	return st, nil
}

func (s *studentStore) move(from, to *int) error {
	if s.rooms == nil {
		return nil
	}
	return s.rooms.move(from, to)
}

func (s *studentStore) GetStudent(ctx context.Context, id string) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return st, nil
}

func (s *studentStore) GetStudentByEmail(ctx context.Context, email string) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if strings.EqualFold(st.Email, email) {
			return st, nil
		}
	}
	return Student{}, ErrNotFound
}

func (s *studentStore) ListStudents(ctx context.Context) ([]Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *studentStore) ListStudentsByRoom(ctx context.Context, roomNo int) ([]Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Student
	for _, st := range s.students {
		if st.RoomNo != nil && *st.RoomNo == roomNo {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// roomStore keeps rooms in memory and mirrors the repository's occupancy rules.
type roomStore struct {
	mu        sync.Mutex
	rooms     map[int]Room
	occupants func(roomNo int) int
}

func newRoomStore(rooms ...Room) *roomStore {
	s := &roomStore{rooms: map[int]Room{}}
	for _, r := range rooms {
		s.rooms[r.RoomNo] = r
	}
	return s
}

func (s *roomStore) move(from, to *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from != nil && to != nil && *from == *to {
		return nil
	}
	if to != nil {
		target, ok := s.rooms[*to]
		if !ok {
			return errForeignKey
		}
		if target.CurrentOccupancy >= target.Capacity {
			return errCapacity
		}
	}
	if from != nil {
		if r, ok := s.rooms[*from]; ok && r.CurrentOccupancy > 0 {
			r.CurrentOccupancy--
			s.rooms[*from] = r
		}
	}
	if to != nil {
		r := s.rooms[*to]
		r.CurrentOccupancy++
		s.rooms[*to] = r
	}
	return nil
}

func (s *roomStore) CreateRoom(ctx context.Context, r Room) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[r.RoomNo]; exists {
		return Room{}, errDuplicate
	}
	s.rooms[r.RoomNo] = r
	return r, nil
}

func (s *roomStore) GetRoom(ctx context.Context, roomNo int) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomNo]
	if !ok {
		return Room{}, ErrNotFound
	}
	return r, nil
}

func (s *roomStore) UpdateRoom(ctx context.Context, r Room) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rooms[r.RoomNo]
	if !ok {
		return Room{}, ErrNotFound
	}
	r.CurrentOccupancy = current.CurrentOccupancy
	s.rooms[r.RoomNo] = r
	return r, nil
}

func (s *roomStore) DeleteRoom(ctx context.Context, roomNo int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomNo]; !ok {
		return ErrNotFound
	}
	if s.occupants != nil && s.occupants(roomNo) > 0 {
		return errInUse
	}
	delete(s.rooms, roomNo)
	return nil
}

func (s *roomStore) ListRooms(ctx context.Context, q RoomQuery) ([]Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Room
	for _, r := range s.rooms {
		if q.Floor != nil && r.Floor != *q.Floor {
			continue
		}
		if q.AvailableOnly && r.CurrentOccupancy >= r.Capacity {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNo < out[j].RoomNo })
	return out, nil
}

// emergencyStore keeps emergencies in memory.
type emergencyStore struct {
	mu          sync.Mutex
	emergencies map[string]Emergency
}

func newEmergencyStore() *emergencyStore {
	return &emergencyStore{emergencies: map[string]Emergency{}}
}

func (s *emergencyStore) CreateEmergency(ctx context.Context, e Emergency) (Emergency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emergencies[e.ID] = e
	return e, nil
}

func (s *emergencyStore) UpdateEmergency(ctx context.Context, e Emergency) (Emergency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emergencies[e.ID]; !ok {
		return Emergency{}, ErrNotFound
	}
	s.emergencies[e.ID] = e
	return e, nil
}

func (s *emergencyStore) GetEmergency(ctx context.Context, id string) (Emergency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.emergencies[id]
	if !ok {
		return Emergency{}, ErrNotFound
	}
	return e, nil
}

func (s *emergencyStore) ListEmergencies(ctx context.Context, q EmergencyQuery) ([]Emergency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Emergency
	for _, e := range s.emergencies {
		if q.Status != nil && e.Status != *q.Status {
			continue
		}
		if q.StudentID != nil && e.StudentID != *q.StudentID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportedAt.After(out[j].ReportedAt) })
	return out, nil
}

// notificationStore keeps notifications in memory.
type notificationStore struct {
	mu            sync.Mutex
	notifications []Notification
	createErr     error
}

func (s *notificationStore) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Notification{}, s.createErr
	}
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (s *notificationStore) GetNotification(ctx context.Context, id string) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return Notification{}, ErrNotFound
}

func (s *notificationStore) ListNotifications(ctx context.Context, q NotificationQuery) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.Recipient.ID != q.RecipientID {
			continue
		}
		if q.Kind != nil && n.Recipient.Kind != *q.Kind {
			continue
		}
		if q.IsRead != nil && n.IsRead != *q.IsRead {
			continue
		}
		out = append(out, n)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *notificationStore) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			s.notifications[i].UpdatedAt = at
			return nil
		}
	}
	return ErrNotFound
}

func (s *notificationStore) MarkAllNotificationsRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for i := range s.notifications {
		if s.notifications[i].Recipient.ID == recipientID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			s.notifications[i].UpdatedAt = at
			changed++
		}
	}
	return changed, nil
}

func (s *notificationStore) CountUnreadNotifications(ctx context.Context, recipientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.Recipient.ID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// attendanceStore keeps attendance keyed by worker and date.
type attendanceStore struct {
	mu      sync.Mutex
	records map[string]Attendance
}

func newAttendanceStore() *attendanceStore {
	return &attendanceStore{records: map[string]Attendance{}}
}

func (s *attendanceStore) RecordClockEvent(ctx context.Context, record Attendance, kind ClockKind, at time.Time) (Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := record.WorkerID + "|" + record.Date
	existing, ok := s.records[key]
	if !ok {
		existing = Attendance{ID: record.ID, WorkerID: record.WorkerID, Date: record.Date, Status: AttendancePresent, CreatedAt: at}
	}
	switch kind {
	case ClockIn:
		existing.ClockIn = &at
		existing.Status = AttendancePresent
	case ClockOut:
		existing.ClockOut = &at
	}
	existing.UpdatedAt = at
	s.records[key] = existing
	return existing, nil
}

func (s *attendanceStore) CreateAbsence(ctx context.Context, record Attendance) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := record.WorkerID + "|" + record.Date
	if _, ok := s.records[key]; ok {
		return false, nil
	}
	record.Status = AttendanceAbsent
	s.records[key] = record
	return true, nil
}

func (s *attendanceStore) ListAttendance(ctx context.Context, q AttendanceQuery) ([]Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Attendance
	for _, r := range s.records {
		if r.WorkerID != q.WorkerID {
			continue
		}
		if q.From != "" && r.Date < q.From {
			continue
		}
		if q.To != "" && r.Date > q.To {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *attendanceStore) countFor(workerID, date string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.WorkerID == workerID && r.Date == date {
			n++
		}
	}
	return n
}

// recordingNotifier captures system notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, recipient ActorRef, message string, related RelatedEntities) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, Notification{Recipient: recipient, Message: message, RelatedComplaintID: related.ComplaintID, RelatedEmergencyID: related.EmergencyID})
	return nil
}
