// Package students manages resident records. Admins have full access; a
// student may read its own record.
package students

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"hostel/internal/access"
	"hostel/internal/apperr"
	"hostel/internal/model"
	"hostel/internal/occupancy"
	"hostel/internal/store"
)

// Input is the body of a student creation.
type Input struct {
	FullName            string `json:"fullName"`
	RollNumber          string `json:"rollNumber"`
	Course              string `json:"course"`
	ContactNumber       string `json:"contactNumber"`
	ParentContactNumber string `json:"parentContactNumber"`
	RoomNumber          string `json:"roomNumber"`
	ProfilePhoto        string `json:"profilePhoto"`
	UserID              string `json:"user"`
}

// UpdateInput carries the fields to change; nil fields are left alone.
type UpdateInput struct {
	FullName            *string `json:"fullName"`
	RollNumber          *string `json:"rollNumber"`
	Course              *string `json:"course"`
	ContactNumber       *string `json:"contactNumber"`
	ParentContactNumber *string `json:"parentContactNumber"`
	RoomNumber          *string `json:"roomNumber"`
	ProfilePhoto        *string `json:"profilePhoto"`
}

func (in Input) record() model.Student {
	return model.Student{
		FullName:            strings.TrimSpace(in.FullName),
		RollNumber:          strings.TrimSpace(in.RollNumber),
		Course:              strings.TrimSpace(in.Course),
		ContactNumber:       strings.TrimSpace(in.ContactNumber),
		ParentContactNumber: strings.TrimSpace(in.ParentContactNumber),
		RoomNumber:          strings.TrimSpace(in.RoomNumber),
		ProfilePhoto:        strings.TrimSpace(in.ProfilePhoto),
		UserID:              in.UserID,
	}
}

// Check reports the errors Enroll would fail with for in, without writing.
func (s *Service) Check(ctx context.Context, in Input) error {
	st := in.record()
	if err := model.Validate(st); err != nil {
		return err
	}
	_, err := s.store.Students().GetByRollNumber(ctx, st.RollNumber)
	switch {
	case err == nil:
		return apperr.Duplicate("rollNumber", st.RollNumber)
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	default:
		return err
	}
}

type Filter struct {
	RoomNumber string
}

type Service struct {
	store   store.Store
	tracker *occupancy.Tracker
	logger  *slog.Logger
}

func NewService(s store.Store, tracker *occupancy.Tracker, logger *slog.Logger) *Service {
	return &Service{store: s, tracker: tracker, logger: logger}
}

func (s *Service) List(ctx context.Context, caller access.Caller, f Filter) ([]model.Student, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	list, err := s.store.Students().List(ctx, store.StudentFilter{RoomNumber: f.RoomNumber})
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Get returns the student with id. A missing record is reported before the
// ownership check.
func (s *Service) Get(ctx context.Context, caller access.Caller, id string) (model.Student, error) {
	st, err := s.store.Students().Get(ctx, id)
	if err != nil {
		return model.Student{}, err
	}
	if err := access.CanReadStudent(caller, st.ID); err != nil {
		return model.Student{}, err
	}
	return s.populated(ctx, *st)
}

func (s *Service) Create(ctx context.Context, caller access.Caller, in Input) (model.Student, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return model.Student{}, err
	}
	return s.Enroll(ctx, in)
}

// Enroll creates a student without a caller check. Account registration
// uses it to create the profile linked to a new student account.
func (s *Service) Enroll(ctx context.Context, in Input) (model.Student, error) {
	st := in.record()
	if err := model.Validate(st); err != nil {
		return model.Student{}, err
	}
	if err := s.store.Students().Create(ctx, &st); err != nil {
		return model.Student{}, err
	}
	if st.RoomNumber != "" {
		if err := s.tracker.StudentPlaced(ctx, st.ID, st.RoomNumber); err != nil {
			return model.Student{}, err
		}
	}
	s.logger.Info("student enrolled", "student", st.ID, "rollNumber", st.RollNumber)
	return s.populated(ctx, st)
}

func (s *Service) Update(ctx context.Context, caller access.Caller, id string, in UpdateInput) (model.Student, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return model.Student{}, err
	}
	st, err := s.store.Students().Get(ctx, id)
	if err != nil {
		return model.Student{}, err
	}
	oldRoom := st.RoomNumber

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&st.FullName, in.FullName)
	set(&st.RollNumber, in.RollNumber)
	set(&st.Course, in.Course)
	set(&st.ContactNumber, in.ContactNumber)
	set(&st.ParentContactNumber, in.ParentContactNumber)
	set(&st.RoomNumber, in.RoomNumber)
	set(&st.ProfilePhoto, in.ProfilePhoto)

	if err := model.Validate(st); err != nil {
		return model.Student{}, err
	}
	if err := s.store.Students().Update(ctx, st); err != nil {
		return model.Student{}, err
	}
	if st.RoomNumber != oldRoom {
		if err := s.tracker.StudentPlaced(ctx, st.ID, st.RoomNumber); err != nil {
			return model.Student{}, err
		}
	}
	return s.populated(ctx, *st)
}

// Delete removes the student, takes it out of its room and unlinks its
// account. Attendance and complaints are kept.
func (s *Service) Delete(ctx context.Context, caller access.Caller, id string) error {
	if err := access.RequireAdmin(caller); err != nil {
		return err
	}
	st, err := s.store.Students().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Students().Delete(ctx, id); err != nil {
		return err
	}
	if err := s.tracker.StudentRemoved(ctx, id); err != nil {
		return err
	}
	if st.UserID != "" {
		u, err := s.store.Users().Get(ctx, st.UserID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
		case err != nil:
			return err
		case u.StudentProfile == id:
			u.StudentProfile = ""
			if err := s.store.Users().Update(ctx, u); err != nil {
				return err
			}
		}
	}
	s.logger.Info("student removed", "student", id, "by", caller.UserID)
	return nil
}

func (s *Service) populated(ctx context.Context, st model.Student) (model.Student, error) {
	list := []model.Student{st}
	if err := s.populate(ctx, list); err != nil {
		return model.Student{}, err
	}
	return list[0], nil
}

func (s *Service) populate(ctx context.Context, list []model.Student) error {
	ids := make([]string, 0, len(list))
	for _, st := range list {
		ids = append(ids, st.UserID)
	}
	users, err := store.UsersByID(ctx, s.store.Users(), ids)
	if err != nil {
		return err
	}
	for i := range list {
		if u, ok := users[list[i].UserID]; ok {
			sum := u.Summary()
			list[i].User = &sum
		}
	}
	return nil
}
