package model

import "time"

type RoomType string

const (
	RoomAC    RoomType = "AC"
	RoomNonAC RoomType = "Non-AC"
)

// RoomStatus is derived from the occupant count; it is never stored.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "AVAILABLE"
	RoomFull      RoomStatus = "FULL"
)

// Room keeps its occupants as an ordered list of student ids. Capacity is
// advisory: nothing rejects a write that puts more occupants than capacity.
type Room struct {
	ID          string           `json:"_id" bson:"_id"`
	RoomNumber  string           `json:"roomNumber" bson:"roomNumber" validate:"required"`
	Capacity    int              `json:"capacity" bson:"capacity" validate:"required,min=1"`
	OccupantIDs []string         `json:"occupantIds" bson:"occupants"`
	Occupants   []StudentSummary `json:"occupants" bson:"-"`
	Type        RoomType         `json:"type" bson:"type" validate:"required,room_type"`
	Price       float64          `json:"price,omitempty" bson:"price,omitempty" validate:"gte=0"`
	Status      RoomStatus       `json:"status" bson:"-"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// Availability reports FULL once the occupant list reaches capacity.
func (r Room) Availability() RoomStatus {
	if len(r.OccupantIDs) >= r.Capacity {
		return RoomFull
	}
	return RoomAvailable
}

// HasOccupant reports whether studentID is in the occupant list.
func (r Room) HasOccupant(studentID string) bool {
	for _, id := range r.OccupantIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
