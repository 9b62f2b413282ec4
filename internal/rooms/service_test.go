package rooms

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel/internal/access"
	"hostel/internal/apperr"
	"hostel/internal/model"
	"hostel/internal/occupancy"
	"hostel/internal/store/memory"
)

var (
	admin   = access.Caller{UserID: "admin-1", Role: model.RoleAdmin}
	student = access.Caller{UserID: "user-1", Role: model.RoleStudent, StudentProfile: "s-1"}
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := memory.New()
	return NewService(mem, occupancy.New(mem, logger), logger), mem
}

func addStudent(t *testing.T, mem *memory.Store, name, roll string) model.Student {
	t.Helper()
	st := model.Student{
		FullName:            name,
		RollNumber:          roll,
		Course:              "B.Tech CSE",
		ContactNumber:       "9876543210",
		ParentContactNumber: "9876543211",
	}
	require.NoError(t, mem.Students().Create(context.Background(), &st))
	return st
}

func TestCreatePopulatesOccupants(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	aarav := addStudent(t, mem, "Aarav Sharma", "CS2023001")

	rm, err := svc.Create(ctx, admin, CreateInput{
		RoomNumber: "101",
		Capacity:   2,
		Type:       model.RoomAC,
		Price:      6000,
		Occupants:  []string{aarav.ID, aarav.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{aarav.ID}, rm.OccupantIDs)
	require.Len(t, rm.Occupants, 1)
	assert.Equal(t, model.StudentSummary{ID: aarav.ID, FullName: "Aarav Sharma"}, rm.Occupants[0])
	assert.Equal(t, model.RoomAvailable, rm.Status)

	st, err := mem.Students().Get(ctx, aarav.ID)
	require.NoError(t, err)
	assert.Equal(t, "101", st.RoomNumber)

	list, err := svc.List(ctx, student)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Aarav Sharma", list[0].Occupants[0].FullName)
}

func TestCreateDefaultsAndRejects(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	rm, err := svc.Create(ctx, admin, CreateInput{RoomNumber: "201", Capacity: 1})
	require.NoError(t, err)
	assert.Equal(t, model.RoomNonAC, rm.Type)
	assert.Empty(t, rm.Occupants)
	assert.Equal(t, model.RoomAvailable, rm.Status)

	_, err = svc.Create(ctx, admin, CreateInput{RoomNumber: "201", Capacity: 1})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	_, err = svc.Create(ctx, admin, CreateInput{RoomNumber: "202", Capacity: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, admin, CreateInput{RoomNumber: "203", Capacity: 1, Occupants: []string{"ghost"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, student, CreateInput{RoomNumber: "204", Capacity: 1})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateMovesOccupants(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	a := addStudent(t, mem, "Aarav Sharma", "CS2023001")
	b := addStudent(t, mem, "Vivaan Gupta", "CS2023002")

	r101, err := svc.Create(ctx, admin, CreateInput{RoomNumber: "101", Capacity: 2, Occupants: []string{a.ID, b.ID}})
	require.NoError(t, err)
	assert.Equal(t, model.RoomFull, r101.Status)

	r102, err := svc.Create(ctx, admin, CreateInput{RoomNumber: "102", Capacity: 2, Occupants: []string{b.ID}})
	require.NoError(t, err)
	assert.Equal(t, model.RoomAvailable, r102.Status)

	got, err := svc.Get(ctx, admin, r101.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, got.OccupantIDs, "b moved to 102")

	st, err := mem.Students().Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "102", st.RoomNumber)

	empty := []string{}
	_, err = svc.Update(ctx, admin, r101.ID, UpdateInput{Occupants: &empty})
	require.NoError(t, err)
	st, err = mem.Students().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, st.RoomNumber)

	renamed := "102A"
	updated, err := svc.Update(ctx, admin, r102.ID, UpdateInput{RoomNumber: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "102A", updated.RoomNumber)
	st, err = mem.Students().Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "102A", st.RoomNumber)
}

func TestDeleteClearsRoomNumbers(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	a := addStudent(t, mem, "Aarav Sharma", "CS2023001")

	rm, err := svc.Create(ctx, admin, CreateInput{RoomNumber: "101", Capacity: 2, Occupants: []string{a.ID}})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, student, rm.ID), apperr.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, rm.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, rm.ID), apperr.ErrNotFound)

	st, err := mem.Students().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, st.RoomNumber)
}
