package rooms

import (
	"context"
	"log/slog"
	"strings"

	"hostel/internal/access"
	"hostel/internal/model"
	"hostel/internal/occupancy"
	"hostel/internal/store"
)

// CreateInput is the body of a room creation. Occupants are student ids.
type CreateInput struct {
	RoomNumber string         `json:"roomNumber"`
	Capacity   int            `json:"capacity"`
	Type       model.RoomType `json:"type"`
	Price      float64        `json:"price"`
	Occupants  []string       `json:"occupants"`
}

// UpdateInput carries the fields to change; nil fields are left alone. A
// non-nil Occupants replaces the whole list.
type UpdateInput struct {
	RoomNumber *string         `json:"roomNumber"`
	Capacity   *int            `json:"capacity"`
	Type       *model.RoomType `json:"type"`
	Price      *float64        `json:"price"`
	Occupants  *[]string       `json:"occupants"`
}

// Service manages rooms. Reads are open to any authenticated caller,
// writes need an admin.
type Service struct {
	store   store.Store
	tracker *occupancy.Tracker
	logger  *slog.Logger
}

func NewService(s store.Store, tracker *occupancy.Tracker, logger *slog.Logger) *Service {
	return &Service{store: s, tracker: tracker, logger: logger}
}

// List returns every room with occupants populated.
func (s *Service) List(ctx context.Context, _ access.Caller) ([]model.Room, error) {
	rooms, err := s.store.Rooms().List(ctx, store.RoomFilter{})
	if err != nil {
		return nil, err
	}
	if err := s.tracker.Populate(ctx, rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Service) Get(ctx context.Context, _ access.Caller, id string) (model.Room, error) {
	rm, err := s.store.Rooms().Get(ctx, id)
	if err != nil {
		return model.Room{}, err
	}
	return s.populated(ctx, *rm)
}

func (s *Service) Create(ctx context.Context, caller access.Caller, in CreateInput) (model.Room, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return model.Room{}, err
	}
	rm := model.Room{
		RoomNumber: strings.TrimSpace(in.RoomNumber),
		Capacity:   in.Capacity,
		Type:       in.Type,
		Price:      in.Price,
	}
	if rm.Type == "" {
		rm.Type = model.RoomNonAC
	}
	if err := model.Validate(rm); err != nil {
		return model.Room{}, err
	}
	occupants, err := s.tracker.CheckOccupants(ctx, in.Occupants)
	if err != nil {
		return model.Room{}, err
	}
	rm.OccupantIDs = occupants

	if err := s.store.Rooms().Create(ctx, &rm); err != nil {
		return model.Room{}, err
	}
	if err := s.tracker.RoomSaved(ctx, nil, rm); err != nil {
		return model.Room{}, err
	}
	s.logger.Info("room created", "room", rm.RoomNumber, "by", caller.UserID)
	return s.populated(ctx, rm)
}

func (s *Service) Update(ctx context.Context, caller access.Caller, id string, in UpdateInput) (model.Room, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return model.Room{}, err
	}
	current, err := s.store.Rooms().Get(ctx, id)
	if err != nil {
		return model.Room{}, err
	}
	before := *current
	before.OccupantIDs = append([]string(nil), current.OccupantIDs...)

	rm := *current
	if in.RoomNumber != nil {
		rm.RoomNumber = strings.TrimSpace(*in.RoomNumber)
	}
	if in.Capacity != nil {
		rm.Capacity = *in.Capacity
	}
	if in.Type != nil {
		rm.Type = *in.Type
	}
	if in.Price != nil {
		rm.Price = *in.Price
	}
	if err := model.Validate(rm); err != nil {
		return model.Room{}, err
	}
	if in.Occupants != nil {
		occupants, err := s.tracker.CheckOccupants(ctx, *in.Occupants)
		if err != nil {
			return model.Room{}, err
		}
		rm.OccupantIDs = occupants
	}

	if err := s.store.Rooms().Update(ctx, &rm); err != nil {
		return model.Room{}, err
	}
	if err := s.tracker.RoomSaved(ctx, &before, rm); err != nil {
		return model.Room{}, err
	}
	if len(rm.OccupantIDs) > rm.Capacity {
		s.logger.Warn("room over capacity", "room", rm.RoomNumber, "occupants", len(rm.OccupantIDs), "capacity", rm.Capacity)
	}
	return s.populated(ctx, rm)
}

func (s *Service) Delete(ctx context.Context, caller access.Caller, id string) error {
	if err := access.RequireAdmin(caller); err != nil {
		return err
	}
	rm, err := s.store.Rooms().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Rooms().Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("room deleted", "room", rm.RoomNumber, "by", caller.UserID)
	return s.tracker.RoomDeleted(ctx, *rm)
}

func (s *Service) populated(ctx context.Context, rm model.Room) (model.Room, error) {
	rooms := []model.Room{rm}
	if err := s.tracker.Populate(ctx, rooms); err != nil {
		return model.Room{}, err
	}
	return rooms[0], nil
}
