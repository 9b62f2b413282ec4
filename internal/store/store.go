// Package store declares the persistence contract of the hostel records.
// Backends live in the sub-packages: mongostore (document database),
// postgres and memory (fixtures and tests). The backend package picks one
// at startup.
//
// Every backend follows the same rules: Get-style lookups return an error
// matching apperr.ErrNotFound when nothing matches, uniqueness violations
// (student roll number, room number, user email, attendance per student and
// day) return apperr.Duplicate errors, and connectivity failures match
// apperr.ErrUnavailable.
package store

import (
	"context"
	"time"

	"hostel/internal/model"
)

// StudentFilter narrows a student listing. Zero fields match everything.
type StudentFilter struct {
	RoomNumber string
	UserID     string
}

// RoomFilter narrows a room listing.
type RoomFilter struct {
	OccupantID string
}

// AttendanceFilter narrows an attendance listing. From and To bound the
// record's day, both inclusive.
type AttendanceFilter struct {
	StudentID string
	From      *time.Time
	To        *time.Time
}

// ComplaintFilter narrows a complaint listing. Listings are always sorted
// newest first.
type ComplaintFilter struct {
	StudentID string
}

type Students interface {
	Create(ctx context.Context, s *model.Student) error
	Get(ctx context.Context, id string) (*model.Student, error)
	GetMany(ctx context.Context, ids []string) ([]model.Student, error)
	GetByRollNumber(ctx context.Context, rollNumber string) (*model.Student, error)
	List(ctx context.Context, f StudentFilter) ([]model.Student, error)
	Update(ctx context.Context, s *model.Student) error
	Delete(ctx context.Context, id string) error
}

type Rooms interface {
	Create(ctx context.Context, r *model.Room) error
	Get(ctx context.Context, id string) (*model.Room, error)
	GetByNumber(ctx context.Context, roomNumber string) (*model.Room, error)
	List(ctx context.Context, f RoomFilter) ([]model.Room, error)
	Update(ctx context.Context, r *model.Room) error
	Delete(ctx context.Context, id string) error
}

type Attendance interface {
	Create(ctx context.Context, a *model.Attendance) error
	FindForDay(ctx context.Context, studentID string, day model.DayWindow) (*model.Attendance, error)
	List(ctx context.Context, f AttendanceFilter) ([]model.Attendance, error)
	Update(ctx context.Context, a *model.Attendance) error
	CountByStatus(ctx context.Context, day model.DayWindow) (model.AttendanceStats, error)
}

type Complaints interface {
	Create(ctx context.Context, c *model.Complaint) error
	Get(ctx context.Context, id string) (*model.Complaint, error)
	List(ctx context.Context, f ComplaintFilter) ([]model.Complaint, error)
	Update(ctx context.Context, c *model.Complaint) error
}

type Users interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	GetMany(ctx context.Context, ids []string) ([]model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id string) error
}

// Store bundles the repositories of one backend.
type Store interface {
	Students() Students
	Rooms() Rooms
	Attendance() Attendance
	Complaints() Complaints
	Users() Users

	// Name identifies the backend in logs and the health report.
	Name() string
	Ping(ctx context.Context) error
	Close() error
}
