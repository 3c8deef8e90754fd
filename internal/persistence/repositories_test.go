package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/hostel-desk/internal/persistence"
	"github.com/example/hostel-desk/internal/persistence/sqlite"
	"github.com/example/hostel-desk/internal/testfixtures"
)

var (
	_ persistence.AdminRepository        = (*sqlite.AdminRepository)(nil)
	_ persistence.StudentRepository      = (*sqlite.StudentRepository)(nil)
	_ persistence.WorkerRepository       = (*sqlite.WorkerRepository)(nil)
	_ persistence.RoomRepository         = (*sqlite.RoomRepository)(nil)
	_ persistence.ComplaintRepository    = (*sqlite.ComplaintRepository)(nil)
	_ persistence.EmergencyRepository    = (*sqlite.EmergencyRepository)(nil)
	_ persistence.NotificationRepository = (*sqlite.NotificationRepository)(nil)
	_ persistence.AttendanceRepository   = (*sqlite.AttendanceRepository)(nil)
)

func TestRepositoryContracts(t *testing.T) {
	ctx := context.Background()

	t.Run("missing rows surface ErrNotFound", func(t *testing.T) {
		storage := testfixtures.NewSQLiteHarness(t).Storage

		_, err := storage.Students.GetStudent(ctx, "missing")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		_, err = storage.Workers.GetWorker(ctx, "missing")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		_, err = storage.Rooms.GetRoom(ctx, 404)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		_, err = storage.Complaints.GetComplaint(ctx, "missing")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		_, err = storage.Emergencies.GetEmergency(ctx, "missing")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		_, err = storage.Notifications.GetNotification(ctx, "missing")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("occupancy follows students between rooms", func(t *testing.T) {
		storage := testfixtures.NewSQLiteHarness(t).Storage
		require.NoError(t, storage.Rooms.CreateRoom(ctx, testfixtures.NewRoom(101, 1, 1)))
		require.NoError(t, storage.Rooms.CreateRoom(ctx, testfixtures.NewRoom(102, 1, 1)))

		student := testfixtures.NewStudent(testfixtures.WithStudentRoom(101))
		require.NoError(t, storage.Students.CreateStudent(ctx, student))

		other := testfixtures.NewStudent(testfixtures.WithStudentRoom(101))
		require.ErrorIs(t, storage.Students.CreateStudent(ctx, other), persistence.ErrCapacityExceeded)

		student.RoomNo = nil
		require.NoError(t, storage.Students.UpdateStudent(ctx, student))
		require.NoError(t, storage.Students.CreateStudent(ctx, other))

		rooms, err := storage.Rooms.ListRooms(ctx, persistence.RoomFilter{AvailableOnly: true})
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, 102, rooms[0].RoomNo)
	})

	t.Run("workers are unique by phone", func(t *testing.T) {
		storage := testfixtures.NewSQLiteHarness(t).Storage
		require.NoError(t, storage.Workers.CreateWorker(ctx, testfixtures.NewWorker(testfixtures.WithWorkerPhone("8123456789"))))

		err := storage.Workers.CreateWorker(ctx, testfixtures.NewWorker(testfixtures.WithWorkerPhone("8123456789")))
		assert.ErrorIs(t, err, persistence.ErrDuplicate)
	})

	t.Run("admins are unique by email", func(t *testing.T) {
		storage := testfixtures.NewSQLiteHarness(t).Storage
		require.NoError(t, storage.Admins.CreateAdmin(ctx, testfixtures.NewAdmin(testfixtures.WithAdminEmail("warden@example.com"), testfixtures.WithAdminRole("WARDEN"))))

		err := storage.Admins.CreateAdmin(ctx, testfixtures.NewAdmin(testfixtures.WithAdminEmail("WARDEN@example.com")))
		assert.ErrorIs(t, err, persistence.ErrDuplicate)
	})
}
