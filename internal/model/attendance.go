package model

import (
	"fmt"
	"strings"
	"time"
)

type AttendanceStatus string

const (
	Present AttendanceStatus = "Present"
	Absent  AttendanceStatus = "Absent"
)

// Attendance is one student's status for one calendar day. Day holds the
// start of that day and, together with StudentID, is unique.
type Attendance struct {
	ID        string           `json:"_id" bson:"_id"`
	StudentID string           `json:"studentId" bson:"student" validate:"required"`
	Student   *StudentSummary  `json:"student,omitempty" bson:"-"`
	Date      time.Time        `json:"date" bson:"date"`
	Day       time.Time        `json:"day" bson:"day"`
	Status    AttendanceStatus `json:"status" bson:"status" validate:"required,attendance_status"`
	MarkedBy  string           `json:"markedBy,omitempty" bson:"markedBy,omitempty"`
	CreatedAt time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// AttendanceStats counts today's marks.
type AttendanceStats struct {
	Present int64 `json:"present"`
	Absent  int64 `json:"absent"`
}

// DayWindow spans one calendar day: Start is its midnight and End the
// midnight of the next day, excluded. Start is the value stored in
// Attendance.Day.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the calendar day containing t in loc.
func DayOf(t time.Time, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside [Start, End).
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ParseDate accepts a calendar date (2006-01-02, read in loc) or an RFC 3339
// timestamp.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD or RFC 3339", s)
}
