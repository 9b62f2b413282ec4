package complaints

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"hostel/internal/access"
	"hostel/internal/apperr"
	"hostel/internal/metrics"
	"hostel/internal/model"
	"hostel/internal/queue"
	"hostel/internal/store"
)

// CreateInput is what a student submits. Status and reply are always set by
// the service.
type CreateInput struct {
	Category    model.ComplaintCategory `json:"category"`
	Description string                  `json:"description"`
	Image       string                  `json:"image"`
}

// UpdateInput carries the fields an admin changes; nil fields are left
// alone.
type UpdateInput struct {
	Status      *model.ComplaintStatus   `json:"status"`
	AdminReply  *string                  `json:"adminReply"`
	Category    *model.ComplaintCategory `json:"category"`
	Description *string                  `json:"description"`
	Image       *string                  `json:"image"`
}

// Updated is the payload of a queue.TypeComplaintUpdated event.
type Updated struct {
	ComplaintID string                `json:"complaintId"`
	StudentID   string                `json:"studentId"`
	Status      model.ComplaintStatus `json:"status"`
	Previous    model.ComplaintStatus `json:"previous"`
	AdminReply  string                `json:"adminReply,omitempty"`
}

type Service struct {
	store  store.Store
	events queue.Publisher
	logger *slog.Logger
}

func NewService(s store.Store, events queue.Publisher, logger *slog.Logger) *Service {
	return &Service{store: s, events: events, logger: logger}
}

// Create files a complaint for the calling student. Only students with a
// linked profile may file.
func (s *Service) Create(ctx context.Context, caller access.Caller, in CreateInput) (model.Complaint, error) {
	if err := access.RequireStudent(caller); err != nil {
		return model.Complaint{}, err
	}
	profile, err := access.StudentScope(caller)
	if err != nil {
		return model.Complaint{}, err
	}
	if _, err := s.store.Students().Get(ctx, profile); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.Complaint{}, apperr.ErrNoProfile
		}
		return model.Complaint{}, err
	}

	c := model.Complaint{
		StudentID:   profile,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
		Status:      model.ComplaintPending,
	}
	if err := model.Validate(c); err != nil {
		return model.Complaint{}, err
	}
	if err := s.store.Complaints().Create(ctx, &c); err != nil {
		return model.Complaint{}, err
	}
	metrics.ComplaintsFiled.WithLabelValues(string(c.Category)).Inc()
	s.logger.Info("complaint filed", "complaint", c.ID, "student", profile, "category", c.Category)
	return s.populated(ctx, c)
}

// Update merges an admin's changes. A status change is announced on the
// event queue.
func (s *Service) Update(ctx context.Context, caller access.Caller, id string, in UpdateInput) (model.Complaint, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return model.Complaint{}, err
	}
	c, err := s.store.Complaints().Get(ctx, id)
	if err != nil {
		return model.Complaint{}, err
	}
	previous := c.Status

	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.AdminReply != nil {
		c.AdminReply = strings.TrimSpace(*in.AdminReply)
	}
	if in.Category != nil {
		c.Category = *in.Category
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		c.Image = strings.TrimSpace(*in.Image)
	}
	if err := model.Validate(c); err != nil {
		return model.Complaint{}, err
	}
	if err := s.store.Complaints().Update(ctx, c); err != nil {
		return model.Complaint{}, err
	}

	if c.Status != previous {
		metrics.ComplaintTransitions.WithLabelValues(string(c.Status)).Inc()
		if err := queue.PublishJSON(ctx, s.events, queue.TypeComplaintUpdated, Updated{
			ComplaintID: c.ID,
			StudentID:   c.StudentID,
			Status:      c.Status,
			Previous:    previous,
			AdminReply:  c.AdminReply,
		}); err != nil {
			s.logger.Warn("complaint event not published", "complaint", c.ID, "err", err)
		}
	}
	return s.populated(ctx, *c)
}

// List returns complaints newest first: all of them for admins, their own
// for students.
func (s *Service) List(ctx context.Context, caller access.Caller) ([]model.Complaint, error) {
	var f store.ComplaintFilter
	switch {
	case caller.IsAdmin():
	case caller.IsStudent():
		profile, err := access.StudentScope(caller)
		if err != nil {
			return nil, err
		}
		f.StudentID = profile
	default:
		return nil, apperr.Forbidden("unknown role")
	}
	list, err := s.store.Complaints().List(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) populated(ctx context.Context, c model.Complaint) (model.Complaint, error) {
	list := []model.Complaint{c}
	if err := s.populate(ctx, list); err != nil {
		return model.Complaint{}, err
	}
	return list[0], nil
}

func (s *Service) populate(ctx context.Context, list []model.Complaint) error {
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.StudentID
	}
	students, err := store.StudentsByID(ctx, s.store.Students(), ids)
	if err != nil {
		return err
	}
	for i := range list {
		if st, ok := students[list[i].StudentID]; ok {
			list[i].Student = &model.StudentSummary{ID: st.ID, FullName: st.FullName, RoomNumber: st.RoomNumber}
		}
	}
	return nil
}
