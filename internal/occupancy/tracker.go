// Package occupancy keeps room occupant lists and student room numbers in
// step. A room's occupant list is authoritative; Student.RoomNumber mirrors
// it and is rewritten whenever the list changes.
package occupancy

import (
	"context"
	"errors"
	"log/slog"

	"hostel/internal/apperr"
	"hostel/internal/model"
	"hostel/internal/store"
)

type Tracker struct {
	store  store.Store
	logger *slog.Logger
}

func New(s store.Store, logger *slog.Logger) *Tracker {
	return &Tracker{store: s, logger: logger}
}

// CheckOccupants drops duplicate ids (first occurrence wins) and rejects ids
// that do not name an existing student.
func (t *Tracker) CheckOccupants(ctx context.Context, ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return out, nil
	}
	found, err := store.StudentsByID(ctx, t.store.Students(), out)
	if err != nil {
		return nil, err
	}
	var fields []apperr.FieldError
	for _, id := range out {
		if _, ok := found[id]; !ok {
			fields = append(fields, apperr.FieldError{Field: "occupants", Error: "unknown student " + id})
		}
	}
	if len(fields) > 0 {
		return nil, apperr.NewValidationError(nil, fields...)
	}
	return out, nil
}

// RoomSaved mirrors a room's occupant list onto the students. before is nil
// for a new room. Students added to rm are taken out of any other room.
func (t *Tracker) RoomSaved(ctx context.Context, before *model.Room, rm model.Room) error {
	if before != nil {
		for _, id := range before.OccupantIDs {
			if rm.HasOccupant(id) {
				continue
			}
			if err := t.setRoomNumber(ctx, id, before.RoomNumber, ""); err != nil {
				return err
			}
		}
	}
	for _, id := range rm.OccupantIDs {
		if err := t.leaveOtherRooms(ctx, id, rm.ID); err != nil {
			return err
		}
		if err := t.setRoomNumber(ctx, id, "", rm.RoomNumber); err != nil {
			return err
		}
	}
	return nil
}

// RoomDeleted clears the room number of every former occupant.
func (t *Tracker) RoomDeleted(ctx context.Context, rm model.Room) error {
	for _, id := range rm.OccupantIDs {
		if err := t.setRoomNumber(ctx, id, rm.RoomNumber, ""); err != nil {
			return err
		}
	}
	return nil
}

// StudentPlaced moves a student into the room named roomNumber, taking it
// out of every other room. An empty roomNumber only removes it. Room
// numbers that match no room are kept on the student as free text.
func (t *Tracker) StudentPlaced(ctx context.Context, studentID, roomNumber string) error {
	target := ""
	if roomNumber != "" {
		rm, err := t.store.Rooms().GetByNumber(ctx, roomNumber)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			t.logger.Debug("student assigned to unknown room", "student", studentID, "room", roomNumber)
		case err != nil:
			return err
		default:
			target = rm.ID
			if !rm.HasOccupant(studentID) {
				rm.OccupantIDs = append(rm.OccupantIDs, studentID)
				if err := t.store.Rooms().Update(ctx, rm); err != nil {
					return err
				}
			}
		}
	}
	return t.leaveOtherRooms(ctx, studentID, target)
}

// StudentRemoved takes a deleted student out of every occupant list.
func (t *Tracker) StudentRemoved(ctx context.Context, studentID string) error {
	return t.leaveOtherRooms(ctx, studentID, "")
}

func (t *Tracker) leaveOtherRooms(ctx context.Context, studentID, keepRoomID string) error {
	rooms, err := t.store.Rooms().List(ctx, store.RoomFilter{OccupantID: studentID})
	if err != nil {
		return err
	}
	for i := range rooms {
		rm := &rooms[i]
		if rm.ID == keepRoomID {
			continue
		}
		kept := rm.OccupantIDs[:0]
		for _, id := range rm.OccupantIDs {
			if id != studentID {
				kept = append(kept, id)
			}
		}
		rm.OccupantIDs = kept
		if err := t.store.Rooms().Update(ctx, rm); err != nil {
			return err
		}
	}
	return nil
}

// setRoomNumber rewrites a student's room number. When onlyIf is set the
// student is left alone unless it still points at that room.
func (t *Tracker) setRoomNumber(ctx context.Context, studentID, onlyIf, roomNumber string) error {
	st, err := t.store.Students().Get(ctx, studentID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if onlyIf != "" && st.RoomNumber != onlyIf {
		return nil
	}
	if st.RoomNumber == roomNumber {
		return nil
	}
	st.RoomNumber = roomNumber
	return t.store.Students().Update(ctx, st)
}

// Populate fills the occupant summaries and the derived status of rooms.
func (t *Tracker) Populate(ctx context.Context, rooms []model.Room) error {
	var ids []string
	for _, rm := range rooms {
		ids = append(ids, rm.OccupantIDs...)
	}
	students, err := store.StudentsByID(ctx, t.store.Students(), ids)
	if err != nil {
		return err
	}
	for i := range rooms {
		rm := &rooms[i]
		if rm.OccupantIDs == nil {
			rm.OccupantIDs = []string{}
		}
		rm.Occupants = make([]model.StudentSummary, 0, len(rm.OccupantIDs))
		for _, id := range rm.OccupantIDs {
			if st, ok := students[id]; ok {
				rm.Occupants = append(rm.Occupants, model.StudentSummary{ID: st.ID, FullName: st.FullName})
			}
		}
		rm.Status = rm.Availability()
	}
	return nil
}
