package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel/internal/apperr"
)

func TestDayOfBounds(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 3, 14, 18, 45, 12, 0, loc)

	w := DayOf(at, loc)

	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, loc), w.End)
	assert.True(t, w.Contains(at))
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(w.End))
	assert.Equal(t, w.Start, DayOf(w.End.Add(-time.Nanosecond), loc).Start)
}

func TestDayOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on the 14th is already the 15th in IST.
	w := DayOf(time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, 15, w.Start.Day())
}

func TestParseDate(t *testing.T) {
	loc := time.UTC

	d, err := ParseDate("2026-01-05", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), d)

	d, err = ParseDate("2026-01-05T10:30:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	_, err = ParseDate("", loc)
	assert.Error(t, err)
	_, err = ParseDate("05/01/2026", loc)
	assert.Error(t, err)
}

func TestRoomAvailability(t *testing.T) {
	r := Room{RoomNumber: "101", Capacity: 2, OccupantIDs: []string{"s1"}}
	assert.Equal(t, RoomAvailable, r.Availability())
	assert.True(t, r.HasOccupant("s1"))
	assert.False(t, r.HasOccupant("s2"))

	r.OccupantIDs = append(r.OccupantIDs, "s2")
	assert.Equal(t, RoomFull, r.Availability())

	// capacity is advisory, an over-full room is still just FULL
	r.OccupantIDs = append(r.OccupantIDs, "s3")
	assert.Equal(t, RoomFull, r.Availability())
}

func TestValidateStudentMissingFields(t *testing.T) {
	err := Validate(&Student{FullName: "Aarav Sharma"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	var names []string
	for _, f := range ve.Fields {
		names = append(names, f.Field)
	}
	assert.ElementsMatch(t, []string{"rollNumber", "course", "contactNumber", "parentContactNumber"}, names)
}

func TestValidateEnums(t *testing.T) {
	c := Complaint{StudentID: "s1", Category: "Plumbing", Description: "tap", Status: ComplaintInProgress}
	err := Validate(&c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")

	c.Category = CategoryWater
	assert.NoError(t, Validate(&c))

	c.Status = "Closed"
	assert.Error(t, Validate(&c))

	a := Attendance{StudentID: "s1", Status: "Late"}
	assert.Error(t, Validate(&a))
	a.Status = Absent
	assert.NoError(t, Validate(&a))

	room := Room{RoomNumber: "101", Capacity: 2, Type: "Deluxe"}
	assert.Error(t, Validate(&room))
	room.Type = RoomNonAC
	assert.NoError(t, Validate(&room))
}

func TestValidateUserRole(t *testing.T) {
	u := User{Name: "Admin", Email: "admin@example.com", Role: "warden"}
	assert.Error(t, Validate(&u))
	u.Role = RoleAdmin
	assert.NoError(t, Validate(&u))
	u.Email = "not-an-email"
	assert.Error(t, Validate(&u))
}
