// Package memory is a mutex-guarded in-memory store. It backs the degraded
// fixture mode and the service tests, and enforces the same uniqueness
// rules as the database backends.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"hostel/internal/apperr"
	"hostel/internal/model"
	"hostel/internal/store"
)

// Store keeps every record in maps keyed by id.
type Store struct {
	mu         sync.RWMutex
	students   map[string]model.Student
	rooms      map[string]model.Room
	attendance map[string]model.Attendance
	complaints map[string]model.Complaint
	users      map[string]model.User
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		students:   make(map[string]model.Student),
		rooms:      make(map[string]model.Room),
		attendance: make(map[string]model.Attendance),
		complaints: make(map[string]model.Complaint),
		users:      make(map[string]model.User),
	}
}

func (s *Store) Students() store.Students     { return studentRepo{s} }
func (s *Store) Rooms() store.Rooms           { return roomRepo{s} }
func (s *Store) Attendance() store.Attendance { return attendanceRepo{s} }
func (s *Store) Complaints() store.Complaints { return complaintRepo{s} }
func (s *Store) Users() store.Users           { return userRepo{s} }

func (s *Store) Name() string                   { return "memory" }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

// ---------- students ----------

type studentRepo struct{ s *Store }

func (r studentRepo) Create(ctx context.Context, st *model.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.students {
		if other.RollNumber == st.RollNumber {
			return apperr.Duplicate("rollNumber", st.RollNumber)
		}
	}
	store.Stamp(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	if _, ok := r.s.students[st.ID]; ok {
		return apperr.Duplicate("_id", st.ID)
	}
	r.s.students[st.ID] = *st
	return nil
}

func (r studentRepo) Get(ctx context.Context, id string) (*model.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.students[id]
	if !ok {
		return nil, apperr.NotFound("student")
	}
	return &st, nil
}

func (r studentRepo) GetMany(ctx context.Context, ids []string) ([]model.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Student, 0, len(ids))
	for _, id := range ids {
		if st, ok := r.s.students[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r studentRepo) GetByRollNumber(ctx context.Context, rollNumber string) (*model.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, st := range r.s.students {
		if st.RollNumber == rollNumber {
			return &st, nil
		}
	}
	return nil, apperr.NotFound("student")
}

func (r studentRepo) List(ctx context.Context, f store.StudentFilter) ([]model.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Student, 0, len(r.s.students))
	for _, st := range r.s.students {
		if f.RoomNumber != "" && st.RoomNumber != f.RoomNumber {
			continue
		}
		if f.UserID != "" && st.UserID != f.UserID {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out, nil
}

func (r studentRepo) Update(ctx context.Context, st *model.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.students[st.ID]; !ok {
		return apperr.NotFound("student")
	}
	for id, other := range r.s.students {
		if id != st.ID && other.RollNumber == st.RollNumber {
			return apperr.Duplicate("rollNumber", st.RollNumber)
		}
	}
	store.Touch(&st.UpdatedAt)
	r.s.students[st.ID] = *st
	return nil
}

func (r studentRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.students[id]; !ok {
		return apperr.NotFound("student")
	}
	delete(r.s.students, id)
	return nil
}

// ---------- rooms ----------

type roomRepo struct{ s *Store }

func copyRoom(rm model.Room) model.Room {
	rm.OccupantIDs = append([]string(nil), rm.OccupantIDs...)
	rm.Occupants = nil
	return rm
}

func (r roomRepo) Create(ctx context.Context, rm *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.rooms {
		if other.RoomNumber == rm.RoomNumber {
			return apperr.Duplicate("roomNumber", rm.RoomNumber)
		}
	}
	store.Stamp(&rm.ID, &rm.CreatedAt, &rm.UpdatedAt)
	if rm.OccupantIDs == nil {
		rm.OccupantIDs = []string{}
	}
	r.s.rooms[rm.ID] = copyRoom(*rm)
	return nil
}

func (r roomRepo) Get(ctx context.Context, id string) (*model.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rm, ok := r.s.rooms[id]
	if !ok {
		return nil, apperr.NotFound("room")
	}
	rm = copyRoom(rm)
	return &rm, nil
}

func (r roomRepo) GetByNumber(ctx context.Context, roomNumber string) (*model.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rm := range r.s.rooms {
		if rm.RoomNumber == roomNumber {
			rm = copyRoom(rm)
			return &rm, nil
		}
	}
	return nil, apperr.NotFound("room")
}

func (r roomRepo) List(ctx context.Context, f store.RoomFilter) ([]model.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Room, 0, len(r.s.rooms))
	for _, rm := range r.s.rooms {
		if f.OccupantID != "" && !rm.HasOccupant(f.OccupantID) {
			continue
		}
		out = append(out, copyRoom(rm))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

func (r roomRepo) Update(ctx context.Context, rm *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[rm.ID]; !ok {
		return apperr.NotFound("room")
	}
	for id, other := range r.s.rooms {
		if id != rm.ID && other.RoomNumber == rm.RoomNumber {
			return apperr.Duplicate("roomNumber", rm.RoomNumber)
		}
	}
	store.Touch(&rm.UpdatedAt)
	r.s.rooms[rm.ID] = copyRoom(*rm)
	return nil
}

func (r roomRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[id]; !ok {
		return apperr.NotFound("room")
	}
	delete(r.s.rooms, id)
	return nil
}

// ---------- attendance ----------

type attendanceRepo struct{ s *Store }

func (r attendanceRepo) Create(ctx context.Context, a *model.Attendance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.attendance {
		if other.StudentID == a.StudentID && other.Day.Equal(a.Day) {
			return apperr.Duplicate("student/day", a.StudentID+"@"+a.Day.Format("2006-01-02"))
		}
	}
	store.Stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	a.Student = nil
	r.s.attendance[a.ID] = *a
	return nil
}

func (r attendanceRepo) FindForDay(ctx context.Context, studentID string, day model.DayWindow) (*model.Attendance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.attendance {
		if a.StudentID == studentID && a.Day.Equal(day.Start) {
			return &a, nil
		}
	}
	return nil, apperr.NotFound("attendance")
}

func (r attendanceRepo) List(ctx context.Context, f store.AttendanceFilter) ([]model.Attendance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Attendance, 0)
	for _, a := range r.s.attendance {
		if f.StudentID != "" && a.StudentID != f.StudentID {
			continue
		}
		if f.From != nil && a.Day.Before(*f.From) {
			continue
		}
		if f.To != nil && a.Day.After(*f.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

func (r attendanceRepo) Update(ctx context.Context, a *model.Attendance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.attendance[a.ID]; !ok {
		return apperr.NotFound("attendance")
	}
	store.Touch(&a.UpdatedAt)
	stored := *a
	stored.Student = nil
	r.s.attendance[a.ID] = stored
	return nil
}

func (r attendanceRepo) CountByStatus(ctx context.Context, day model.DayWindow) (model.AttendanceStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var stats model.AttendanceStats
	for _, a := range r.s.attendance {
		if !a.Day.Equal(day.Start) {
			continue
		}
		switch a.Status {
		case model.Present:
			stats.Present++
		case model.Absent:
			stats.Absent++
		}
	}
	return stats, nil
}

// ---------- complaints ----------

type complaintRepo struct{ s *Store }

func (r complaintRepo) Create(ctx context.Context, c *model.Complaint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	store.Stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	c.Student = nil
	r.s.complaints[c.ID] = *c
	return nil
}

func (r complaintRepo) Get(ctx context.Context, id string) (*model.Complaint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.complaints[id]
	if !ok {
		return nil, apperr.NotFound("complaint")
	}
	return &c, nil
}

func (r complaintRepo) List(ctx context.Context, f store.ComplaintFilter) ([]model.Complaint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Complaint, 0)
	for _, c := range r.s.complaints {
		if f.StudentID != "" && c.StudentID != f.StudentID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r complaintRepo) Update(ctx context.Context, c *model.Complaint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.complaints[c.ID]; !ok {
		return apperr.NotFound("complaint")
	}
	store.Touch(&c.UpdatedAt)
	stored := *c
	stored.Student = nil
	r.s.complaints[c.ID] = stored
	return nil
}

// ---------- users ----------

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return apperr.Duplicate("email", u.Email)
		}
	}
	store.Stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) Get(ctx context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return &u, nil
}

func (r userRepo) GetMany(ctx context.Context, ids []string) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (r userRepo) Update(ctx context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return apperr.NotFound("user")
	}
	for id, other := range r.s.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return apperr.Duplicate("email", u.Email)
		}
	}
	store.Touch(&u.UpdatedAt)
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return apperr.NotFound("user")
	}
	delete(r.s.users, id)
	return nil
}
