package model

import "time"

type ComplaintCategory string

const (
	CategoryElectricity ComplaintCategory = "Electricity"
	CategoryWater       ComplaintCategory = "Water"
	CategoryCleaning    ComplaintCategory = "Cleaning"
	CategoryFood        ComplaintCategory = "Food"
	CategoryOther       ComplaintCategory = "Other"
)

type ComplaintStatus string

const (
	ComplaintPending    ComplaintStatus = "Pending"
	ComplaintInProgress ComplaintStatus = "In Progress"
	ComplaintResolved   ComplaintStatus = "Resolved"
)

// Complaint is raised by a student and answered by an admin. Any status may
// follow any other.
type Complaint struct {
	ID          string            `json:"_id" bson:"_id"`
	StudentID   string            `json:"studentId" bson:"student" validate:"required"`
	Student     *StudentSummary   `json:"student,omitempty" bson:"-"`
	Category    ComplaintCategory `json:"category" bson:"category" validate:"required,complaint_category"`
	Description string            `json:"description" bson:"description" validate:"required"`
	Image       string            `json:"image,omitempty" bson:"image,omitempty" validate:"omitempty,url"`
	Status      ComplaintStatus   `json:"status" bson:"status" validate:"required,complaint_status"`
	AdminReply  string            `json:"adminReply,omitempty" bson:"adminReply,omitempty"`
	CreatedAt   time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt" bson:"updatedAt"`
}
