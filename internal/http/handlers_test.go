package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/hostel-desk/internal/application"
)

type fakeAuth struct {
	authService
	loginStudent func(application.LoginInput) (application.AuthResult, error)
	loginWorker  func(application.WorkerLoginInput) (application.AuthResult, error)
}

func (f fakeAuth) LoginStudent(_ context.Context, in application.LoginInput) (application.AuthResult, error) {
	return f.loginStudent(in)
}

func (f fakeAuth) LoginWorker(_ context.Context, in application.WorkerLoginInput) (application.AuthResult, error) {
	return f.loginWorker(in)
}

type fakeComplaints struct {
	complaintService
	created  []application.CreateComplaintParams
	listed   []application.ListComplaintsParams
	statusFn func(application.UpdateComplaintStatusParams) (application.Complaint, error)
}

func (f *fakeComplaints) CreateComplaint(_ context.Context, params application.CreateComplaintParams) (application.Complaint, error) {
	f.created = append(f.created, params)
	if params.Input.Description == "" {
		return application.Complaint{}, &application.ValidationError{FieldErrors: map[string]string{"description": "description is required"}}
	}
	return application.Complaint{
		ID:          "c1",
		StudentID:   params.Principal.ID,
		Category:    params.Input.Category,
		Description: params.Input.Description,
		Status:      application.ComplaintPending,
		Priority:    application.PriorityMedium,
		CreatedAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeComplaints) ListComplaints(_ context.Context, params application.ListComplaintsParams) ([]application.Complaint, error) {
	f.listed = append(f.listed, params)
	return nil, nil
}

func (f *fakeComplaints) UpdateComplaintStatus(_ context.Context, params application.UpdateComplaintStatusParams) (application.Complaint, error) {
	return f.statusFn(params)
}

type fakeRooms struct {
	roomService
	listed    []application.ListRoomsParams
	deleteErr error
}

func (f *fakeRooms) ListRooms(_ context.Context, params application.ListRoomsParams) ([]application.Room, error) {
	f.listed = append(f.listed, params)
	return []application.Room{{RoomNo: 101, Floor: 1, Capacity: 2, CurrentOccupancy: 1}}, nil
}

func (f *fakeRooms) DeleteRoom(_ context.Context, _ application.Principal, roomNo int) error {
	return f.deleteErr
}

func (f *fakeRooms) GetRoom(_ context.Context, _ application.Principal, roomNo int) (application.RoomDetails, error) {
	return application.RoomDetails{Room: application.Room{RoomNo: roomNo, Capacity: 3}}, nil
}

type fakeNotifications struct {
	notificationService
	unread map[string]int
}

func (f fakeNotifications) UnreadCount(_ context.Context, principal application.Principal, recipientID string) (int, error) {
	if !principal.Role.IsStaff() && principal.ID != recipientID {
		return 0, application.ErrForbidden
	}
	return f.unread[recipientID], nil
}

func (f fakeNotifications) MarkAllRead(_ context.Context, _ application.Principal, recipientID string) (int64, error) {
	return int64(f.unread[recipientID]), nil
}

type routerFixture struct {
	handler    http.Handler
	complaints *fakeComplaints
	rooms      *fakeRooms
	metrics    *Metrics
}

func newRouterFixture() *routerFixture {
	logger := quietLogger()
	f := &routerFixture{
		complaints: &fakeComplaints{},
		rooms:      &fakeRooms{},
		metrics:    NewMetrics(),
	}
	auth := fakeAuth{
		loginStudent: func(in application.LoginInput) (application.AuthResult, error) {
			if in.Password != "secret1" {
				return application.AuthResult{}, application.ErrInvalidCredentials
			}
			return application.AuthResult{Token: "student-token", Role: application.RoleStudent, ID: "s1", Name: "Asha"}, nil
		},
		loginWorker: func(application.WorkerLoginInput) (application.AuthResult, error) {
			return application.AuthResult{}, application.ErrAccountDisabled
		},
	}
	f.handler = NewRouter(RouterConfig{
		Auth:          NewAuthHandler(auth, logger),
		Rooms:         NewRoomHandler(f.rooms, logger),
		Complaints:    NewComplaintHandler(f.complaints, logger),
		Notifications: NewNotificationHandler(fakeNotifications{unread: map[string]int{"s1": 3}}, logger),
		Authenticator: testTokens,
		Metrics:       f.metrics,
		Logger:        logger,
	})
	return f
}

func (f *routerFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicEndpoints(t *testing.T) {
	t.Parallel()
	f := newRouterFixture()

	t.Run("health", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/health", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "Hostel backend running", body["message"])
	})

	t.Run("login succeeds", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/auth/login/student", "", `{"email":"asha@example.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "student-token", body["token"])
		assert.Equal(t, "STUDENT", body["role"])
		assert.Equal(t, "s1", body["id"])
		assert.Equal(t, "Asha", body["name"])
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/auth/login/student", "", `{"email":"asha@example.com","password":"nope"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["message"])
	})

	t.Run("inactive worker", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/auth/login/worker", "", `{"phone":"1","password":"secret1"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/auth/login/student", "", `{"email":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", decodeBody(t, rec)["message"])
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/nowhere", "", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Route not found", decodeBody(t, rec)["message"])
	})
}

func TestRouter_Complaints(t *testing.T) {
	t.Parallel()
	f := newRouterFixture()

	t.Run("requires a token", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/complaints", "", `{"category":"Plumbing","description":"Leak"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "No token provided", decodeBody(t, rec)["message"])
	})

	t.Run("only students file complaints", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/complaints", "worker-token", `{"category":"Plumbing","description":"Leak"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Forbidden", decodeBody(t, rec)["message"])
	})

	t.Run("student files a complaint", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/complaints", "student-token", `{"category":"Plumbing","description":"Leak"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "c1", body["id"])
		assert.Equal(t, "Pending", body["status"])
		assert.Equal(t, "Medium", body["priority"])
		assert.Nil(t, body["completedAt"])
		assert.NotContains(t, body, "passwordHash")

		last := f.complaints.created[len(f.complaints.created)-1]
		assert.Equal(t, application.Principal{ID: "s1", Role: application.RoleStudent}, last.Principal)
	})

	t.Run("validation errors list fields", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/complaints", "student-token", `{"category":"Plumbing"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "description is required", body["message"])
		assert.Equal(t, map[string]any{"description": "description is required"}, body["errors"])
	})

	t.Run("staff listing passes filters", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/complaints?status=Assigned&category=Electrical", "warden-token", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())

		last := f.complaints.listed[len(f.complaints.listed)-1]
		require.NotNil(t, last.Status)
		require.NotNil(t, last.Category)
		assert.Equal(t, application.ComplaintAssigned, *last.Status)
		assert.Equal(t, "Electrical", *last.Category)
	})

	t.Run("disallowed transitions are bad requests", func(t *testing.T) {
		f.complaints.statusFn = func(params application.UpdateComplaintStatusParams) (application.Complaint, error) {
			assert.Equal(t, "c1", params.ComplaintID)
			assert.Equal(t, application.ComplaintPending, params.Input.Status)
			return application.Complaint{}, application.ErrInvalidTransition
		}
		rec := f.do(http.MethodPatch, "/api/complaints/c1/status", "worker-token", `{"status":"Pending"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_Rooms(t *testing.T) {
	t.Parallel()
	f := newRouterFixture()

	t.Run("listing parses filters", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/rooms?floor=2&available=true", "student-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		last := f.rooms.listed[len(f.rooms.listed)-1]
		require.NotNil(t, last.Floor)
		assert.Equal(t, 2, *last.Floor)
		assert.True(t, last.AvailableOnly)
	})

	t.Run("bad floor is a validation error", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/rooms?floor=top", "admin-token", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["errors"], "floor")
	})

	t.Run("details include occupants", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/rooms/204", "warden-token", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(204), body["room"].(map[string]any)["roomNo"])
		assert.Equal(t, []any{}, body["students"])
	})

	t.Run("non-numeric room numbers are rejected", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/rooms/abc", "admin-token", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid room number", decodeBody(t, rec)["message"])
	})

	t.Run("delete confirms", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/api/rooms/101", "admin-token", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Room deleted successfully", decodeBody(t, rec)["message"])
	})

	t.Run("wardens cannot delete", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/api/rooms/101", "warden-token", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("occupied rooms conflict", func(t *testing.T) {
		f.rooms.deleteErr = &application.ConflictError{Message: "Cannot delete room with students assigned"}
		defer func() { f.rooms.deleteErr = nil }()

		rec := f.do(http.MethodDelete, "/api/rooms/101", "admin-token", "")
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Cannot delete room with students assigned", decodeBody(t, rec)["message"])
	})
}

func TestRouter_Notifications(t *testing.T) {
	t.Parallel()
	f := newRouterFixture()

	rec := f.do(http.MethodGet, "/api/notifications/s1/unread-count", "student-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decodeBody(t, rec)["count"])

	rec = f.do(http.MethodGet, "/api/notifications/s2/unread-count", "student-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPatch, "/api/notifications/s1/read-all", "student-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "All notifications marked as read", decodeBody(t, rec)["message"])
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	f := newRouterFixture()

	f.do(http.MethodGet, "/api/health", "", "")
	rec := f.do(http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}
