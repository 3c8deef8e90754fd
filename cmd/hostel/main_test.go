package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/hostel-desk/internal/application"
	"github.com/example/hostel-desk/internal/config"
	"github.com/example/hostel-desk/internal/testfixtures"
)

const adminPassword = "Admin@123"

type e2eClient struct {
	t       *testing.T
	handler http.Handler
}

func (c e2eClient) do(method, path, token string, body any) (int, map[string]any, []any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	raw := bytes.TrimSpace(rec.Body.Bytes())
	if len(raw) > 0 && raw[0] == '[' {
		var list []any
		require.NoError(c.t, json.Unmarshal(raw, &list), "body: %s", raw)
		return rec.Code, nil, list
	}
	object := map[string]any{}
	if len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &object), "body: %s", raw)
	}
	return rec.Code, object, nil
}

func newE2EClient(t *testing.T) e2eClient {
	t.Helper()
	harness := testfixtures.NewSQLiteHarness(t)

	cfg := config.Config{
		JWTSecret:    "integration-secret",
		TokenTTL:     time.Hour,
		PasswordHash: string(application.HashBcrypt),
		BcryptCost:   4,
		CORSOrigins:  []string{"*"},
	}
	hash, err := application.NewPasswordHasher(application.HashBcrypt, 4).Hash(adminPassword)
	require.NoError(t, err)
	admin := testfixtures.NewAdmin(
		testfixtures.WithAdminID("admin-1"),
		testfixtures.WithAdminEmail("admin@example.com"),
		testfixtures.WithAdminPasswordHash(hash),
	)
	require.NoError(t, harness.Storage.Admins.CreateAdmin(context.Background(), admin))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := newApplication(cfg, harness.Storage, logger, time.Now)
	return e2eClient{t: t, handler: app.handler}
}

func TestHostelAPI_ComplaintLifecycle(t *testing.T) {
	client := newE2EClient(t)

	code, body, _ := client.do(http.MethodPost, "/api/auth/login/admin", "", map[string]string{
		"email": "admin@example.com", "password": adminPassword,
	})
	require.Equal(t, http.StatusOK, code, body)
	adminToken := body["token"].(string)
	assert.Equal(t, "ADMIN", body["role"])

	code, body, _ = client.do(http.MethodPost, "/api/rooms", adminToken, map[string]any{
		"roomNo": 101, "floor": 1, "capacity": 2, "roomType": "Double",
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, body, _ = client.do(http.MethodPost, "/api/auth/register/student", "", map[string]any{
		"name": "Asha", "email": "asha@example.com", "phone": "9000000001", "password": "secret1", "roomNo": 101,
	})
	require.Equal(t, http.StatusCreated, code, body)
	studentToken := body["token"].(string)
	studentID := body["id"].(string)

	code, body, _ = client.do(http.MethodGet, "/api/rooms/101", adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	room := body["room"].(map[string]any)
	assert.EqualValues(t, 1, room["currentOccupancy"])
	assert.Len(t, body["students"], 1)

	code, body, _ = client.do(http.MethodPost, "/api/workers", adminToken, map[string]any{
		"name": "Ravi", "role": "Electrician", "phone": "8000000001", "password": "secret1",
		"dutyStartTime": "09:00", "dutyEndTime": "17:00",
	})
	require.Equal(t, http.StatusCreated, code, body)
	workerID := body["id"].(string)

	code, body, _ = client.do(http.MethodPost, "/api/auth/login/worker", "", map[string]string{
		"phone": "8000000001", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, code, body)
	workerToken := body["token"].(string)

	code, body, _ = client.do(http.MethodPost, "/api/complaints", studentToken, map[string]string{
		"category": "   ", "description": "\t \n",
	})
	require.Equal(t, http.StatusBadRequest, code, body)
	assert.Equal(t, map[string]any{"category": "category is required", "description": "description is required"}, body["errors"])

	code, body, _ = client.do(http.MethodPost, "/api/complaints", studentToken, map[string]string{
		"category": "Electrical", "description": "Fan is not working", "priority": "High",
	})
	require.Equal(t, http.StatusCreated, code, body)
	complaintID := body["id"].(string)
	assert.Equal(t, "Pending", body["status"])

	code, body, _ = client.do(http.MethodPatch, "/api/complaints/"+complaintID+"/status", workerToken, map[string]string{"status": "InProgress"})
	assert.Equal(t, http.StatusForbidden, code, "only the assignee may move a complaint")

	code, body, _ = client.do(http.MethodPatch, "/api/complaints/"+complaintID+"/assign", adminToken, map[string]string{"workerId": workerID})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Assigned", body["status"])
	assert.Equal(t, workerID, body["assignedWorker"])

	code, _, tasks := client.do(http.MethodGet, "/api/workers/"+workerID+"/tasks", workerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, tasks, 1)

	for _, status := range []string{"InProgress", "Completed"} {
		code, body, _ = client.do(http.MethodPatch, "/api/complaints/"+complaintID+"/status", workerToken, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, status, body["status"])
	}
	assert.NotNil(t, body["completedAt"])

	code, _, history := client.do(http.MethodGet, "/api/complaints/"+complaintID+"/history", studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, history, 4)
	last := history[3].(map[string]any)
	assert.Equal(t, "Completed", last["newStatus"])
	assert.Equal(t, map[string]any{"kind": "Worker", "id": workerID}, last["changedBy"])

	code, _, inbox := client.do(http.MethodGet, "/api/notifications/"+studentID, studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, inbox, 2)

	code, body, _ = client.do(http.MethodGet, "/api/notifications/"+workerID+"/unread-count", workerToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["count"])

	code, body, _ = client.do(http.MethodPatch, "/api/notifications/"+studentID+"/read-all", studentToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	code, body, _ = client.do(http.MethodGet, "/api/notifications/"+studentID+"/unread-count", studentToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 0, body["count"])
}

func TestHostelAPI_RoomsAndEmergencies(t *testing.T) {
	client := newE2EClient(t)

	_, body, _ := client.do(http.MethodPost, "/api/auth/login/admin", "", map[string]string{
		"email": "admin@example.com", "password": adminPassword,
	})
	adminToken := body["token"].(string)

	code, body, _ := client.do(http.MethodPost, "/api/rooms", adminToken, map[string]any{"roomNo": 201, "floor": 2, "capacity": 1})
	require.Equal(t, http.StatusCreated, code, body)

	code, body, _ = client.do(http.MethodPost, "/api/auth/register/student", "", map[string]any{
		"name": "Bina", "email": "bina@example.com", "phone": "9000000002", "password": "secret1", "roomNo": 201,
	})
	require.Equal(t, http.StatusCreated, code, body)
	studentToken := body["token"].(string)
	studentID := body["id"].(string)

	t.Run("full rooms reject new occupants", func(t *testing.T) {
		code, body, _ := client.do(http.MethodPost, "/api/auth/register/student", "", map[string]any{
			"name": "Chandra", "email": "chandra@example.com", "phone": "9000000003", "password": "secret1", "roomNo": 201,
		})
		assert.Equal(t, http.StatusConflict, code, body)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		code, body, _ := client.do(http.MethodPost, "/api/auth/register/student", "", map[string]any{
			"name": "Bina", "email": "bina@example.com", "phone": "9000000009", "password": "secret1",
		})
		assert.Equal(t, http.StatusConflict, code, body)
	})

	t.Run("available filter hides full rooms", func(t *testing.T) {
		code, _, rooms := client.do(http.MethodGet, "/api/rooms?available=true", studentToken, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Empty(t, rooms)
	})

	t.Run("occupied rooms cannot be deleted", func(t *testing.T) {
		code, body, _ := client.do(http.MethodDelete, "/api/rooms/201", adminToken, nil)
		assert.Equal(t, http.StatusConflict, code, body)
	})

	t.Run("emergency lifecycle", func(t *testing.T) {
		code, body, _ := client.do(http.MethodPost, "/api/emergencies", studentToken, map[string]any{
			"description": "Smoke in corridor", "roomNo": 201,
		})
		require.Equal(t, http.StatusCreated, code, body)
		emergencyID := body["id"].(string)
		assert.Equal(t, "Reported", body["status"])

		code, body, _ = client.do(http.MethodPatch, "/api/emergencies/"+emergencyID+"/status", adminToken, map[string]string{"status": "Resolved"})
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, "Resolved", body["status"])
		assert.NotNil(t, body["respondedAt"])

		code, _, list := client.do(http.MethodGet, "/api/emergencies?status=Resolved", adminToken, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, list, 1)

		code, _, inbox := client.do(http.MethodGet, "/api/notifications/"+studentID, studentToken, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, inbox, 1)
	})

	t.Run("students cannot reach staff routes", func(t *testing.T) {
		code, _, _ := client.do(http.MethodGet, "/api/emergencies", studentToken, nil)
		assert.Equal(t, http.StatusForbidden, code)
		code, _, _ = client.do(http.MethodGet, "/api/students", "", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) SweepAbsences(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestStartAbsenceSweep(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("rejects malformed schedules", func(t *testing.T) {
		_, err := startAbsenceSweep(context.Background(), "every day", &countingSweeper{}, logger)
		assert.Error(t, err)
	})

	t.Run("runs the sweep on schedule", func(t *testing.T) {
		sweeper := &countingSweeper{err: errors.New("locked")}
		runner, err := startAbsenceSweep(context.Background(), "@every 10ms", sweeper, logger)
		require.NoError(t, err)
		defer runner.Stop()

		assert.Eventually(t, func() bool { return sweeper.calls.Load() > 0 }, 3*time.Second, 10*time.Millisecond)
	})
}
