package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/hostel-desk/internal/testfixtures"
)

func plainHash(password string) (string, error) { return "hashed:" + password, nil }

func newStudentFixture(rooms ...Room) (*StudentService, *studentStore, *roomStore) {
	roomRepo := newRoomStore(rooms...)
	store := newStudentStore(roomRepo)
	clock := testfixtures.NewClock(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC))
	svc := NewStudentService(store, plainHash, testfixtures.NewIDGenerator("stu").NextFunc(), clock.NowFunc())
	return svc, store, roomRepo
}

func validStudentInput() StudentInput {
	return StudentInput{
		Name:     "Asha Rao",
		Email:    "Asha@Example.com",
		Phone:    "9000000001",
		Password: "secret1",
	}
}

func TestStudentService_CreateStudent(t *testing.T) {
	t.Run("staff create students with hashed passwords", func(t *testing.T) {
		svc, store, _ := newStudentFixture()

		student, err := svc.CreateStudent(context.Background(), CreateStudentParams{Principal: staffWarden, Input: validStudentInput()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if student.ID != "stu-1" {
			t.Fatalf("expected generated id, got %q", student.ID)
		}
		if student.Email != "asha@example.com" {
			t.Fatalf("expected lowercased email, got %q", student.Email)
		}
		if student.PasswordHash != "hashed:secret1" {
			t.Fatalf("expected hashed password, got %q", student.PasswordHash)
		}
		if student.JoinDate.IsZero() {
			t.Fatalf("expected join date")
		}
		if _, ok := store.students["stu-1"]; !ok {
			t.Fatalf("expected student persisted")
		}
	})

	t.Run("students cannot create students", func(t *testing.T) {
		svc, _, _ := newStudentFixture()

		_, err := svc.CreateStudent(context.Background(), CreateStudentParams{Principal: studentPrincipal("s"), Input: validStudentInput()})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("validates fields", func(t *testing.T) {
		svc, _, _ := newStudentFixture()

		_, err := svc.CreateStudent(context.Background(), CreateStudentParams{
			Principal: staffAdmin,
			Input:     StudentInput{Email: "not-an-email", Password: "123"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "email", "phone", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
		if msg := vErr.FieldErrors["name"]; msg != "name is required" {
			t.Fatalf("unexpected name message %q", msg)
		}
	})

	t.Run("duplicate email conflicts regardless of case", func(t *testing.T) {
		svc, _, _ := newStudentFixture()
		if _, err := svc.CreateStudent(context.Background(), CreateStudentParams{Principal: staffAdmin, Input: validStudentInput()}); err != nil {
			t.Fatalf("seed: %v", err)
		}

		input := validStudentInput()
		input.Email = "ASHA@EXAMPLE.COM"
		_, err := svc.CreateStudent(context.Background(), CreateStudentParams{Principal: staffAdmin, Input: input})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("full room conflicts and unknown room is invalid", func(t *testing.T) {
		svc, store, rooms := newStudentFixture(Room{RoomNo: 101, Floor: 1, Capacity: 1, CurrentOccupancy: 1})

		input := validStudentInput()
		input.RoomNo = intRef(101)
		_, err := svc.CreateStudent(context.Background(), CreateStudentParams{Principal: staffAdmin, Input: input})
		var cErr *ConflictError
		if !errors.As(err, &cErr) || cErr.Message != "Room is at full capacity" {
			t.Fatalf("expected full capacity conflict, got %v", err)
		}
		if len(store.students) != 0 || rooms.rooms[101].CurrentOccupancy != 1 {
			t.Fatalf("expected no partial write")
		}

		input.RoomNo = intRef(999)
		_, err = svc.CreateStudent(context.Background(), CreateStudentParams{Principal: staffAdmin, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["roomNo"]; !ok {
			t.Fatalf("expected roomNo error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("assigning a room raises its occupancy", func(t *testing.T) {
		svc, _, rooms := newStudentFixture(Room{RoomNo: 101, Floor: 1, Capacity: 2})

		input := validStudentInput()
		input.RoomNo = intRef(101)
		if _, err := svc.CreateStudent(context.Background(), CreateStudentParams{Principal: staffAdmin, Input: input}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rooms.rooms[101].CurrentOccupancy != 1 {
			t.Fatalf("expected occupancy 1, got %d", rooms.rooms[101].CurrentOccupancy)
		}
	})
}

func TestStudentService_UpdateStudent(t *testing.T) {
	seed := func(t *testing.T) (*StudentService, *roomStore) {
		t.Helper()
		svc, _, rooms := newStudentFixture(
			Room{RoomNo: 101, Floor: 1, Capacity: 2},
			Room{RoomNo: 102, Floor: 1, Capacity: 2},
		)
		input := validStudentInput()
		input.RoomNo = intRef(101)
		if _, err := svc.CreateStudent(context.Background(), CreateStudentParams{Principal: staffAdmin, Input: input}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		return svc, rooms
	}

	t.Run("students update their own contact details", func(t *testing.T) {
		svc, _ := seed(t)

		student, err := svc.UpdateStudent(context.Background(), UpdateStudentParams{
			Principal: studentPrincipal("stu-1"),
			StudentID: "stu-1",
			Input:     StudentUpdateInput{Phone: strRef("9111111111"), EmergencyContact: strRef("Parent")},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if student.Phone != "9111111111" || student.EmergencyContact != "Parent" {
			t.Fatalf("unexpected student %+v", student)
		}
		if student.Name != "Asha Rao" {
			t.Fatalf("name changed unexpectedly to %q", student.Name)
		}
	})

	t.Run("students cannot change name or room", func(t *testing.T) {
		svc, _ := seed(t)

		for _, input := range []StudentUpdateInput{{Name: strRef("Other")}, {RoomNo: intRef(102)}} {
			_, err := svc.UpdateStudent(context.Background(), UpdateStudentParams{
				Principal: studentPrincipal("stu-1"),
				StudentID: "stu-1",
				Input:     input,
			})
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		}
	})

	t.Run("students cannot update others", func(t *testing.T) {
		svc, _ := seed(t)

		_, err := svc.UpdateStudent(context.Background(), UpdateStudentParams{
			Principal: studentPrincipal("stu-2"),
			StudentID: "stu-1",
			Input:     StudentUpdateInput{Phone: strRef("1")},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("staff move students between rooms", func(t *testing.T) {
		svc, rooms := seed(t)

		student, err := svc.UpdateStudent(context.Background(), UpdateStudentParams{
			Principal: staffAdmin,
			StudentID: "stu-1",
			Input:     StudentUpdateInput{RoomNo: intRef(102)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if student.RoomNo == nil || *student.RoomNo != 102 {
			t.Fatalf("expected room 102, got %v", student.RoomNo)
		}
		if rooms.rooms[101].CurrentOccupancy != 0 || rooms.rooms[102].CurrentOccupancy != 1 {
			t.Fatalf("occupancy not moved: %+v", rooms.rooms)
		}
	})

	t.Run("room zero clears the assignment", func(t *testing.T) {
		svc, rooms := seed(t)

		student, err := svc.UpdateStudent(context.Background(), UpdateStudentParams{
			Principal: staffWarden,
			StudentID: "stu-1",
			Input:     StudentUpdateInput{RoomNo: intRef(0)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if student.RoomNo != nil {
			t.Fatalf("expected no room, got %v", *student.RoomNo)
		}
		if rooms.rooms[101].CurrentOccupancy != 0 {
			t.Fatalf("expected occupancy released")
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		svc, _ := seed(t)

		_, err := svc.UpdateStudent(context.Background(), UpdateStudentParams{
			Principal: staffAdmin,
			StudentID: "missing",
			Input:     StudentUpdateInput{Phone: strRef("1")},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStudentService_GetAndList(t *testing.T) {
	svc, _, _ := newStudentFixture()
	for _, email := range []string{"one@example.com", "two@example.com"} {
		input := validStudentInput()
		input.Email = email
		if _, err := svc.CreateStudent(context.Background(), CreateStudentParams{Principal: staffAdmin, Input: input}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	t.Run("students read their own profile", func(t *testing.T) {
		student, err := svc.GetStudent(context.Background(), studentPrincipal("stu-1"), "stu-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(student.Email, "one@") {
			t.Fatalf("unexpected student %+v", student)
		}
		if _, err := svc.GetStudent(context.Background(), studentPrincipal("stu-1"), "stu-2"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if _, err := svc.GetStudent(context.Background(), workerPrincipal("w"), "stu-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden for worker, got %v", err)
		}
	})

	t.Run("only staff list students", func(t *testing.T) {
		students, err := svc.ListStudents(context.Background(), staffAdmin)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(students) != 2 {
			t.Fatalf("expected 2 students, got %d", len(students))
		}
		if _, err := svc.ListStudents(context.Background(), studentPrincipal("stu-1")); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}
