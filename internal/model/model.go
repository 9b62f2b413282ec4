// Package model holds the hostel records shared by every store backend and
// service. JSON and BSON field names follow the document shape used by the
// web client: camelCase fields with an "_id" key.
package model

import "time"

// Role is fixed when a user account is created.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleStudent }

// Student is a hostel resident.
type Student struct {
	ID                  string       `json:"_id" bson:"_id"`
	FullName            string       `json:"fullName" bson:"fullName" validate:"required"`
	RollNumber          string       `json:"rollNumber" bson:"rollNumber" validate:"required"`
	Course              string       `json:"course" bson:"course" validate:"required"`
	ContactNumber       string       `json:"contactNumber" bson:"contactNumber" validate:"required"`
	ParentContactNumber string       `json:"parentContactNumber" bson:"parentContactNumber" validate:"required"`
	RoomNumber          string       `json:"roomNumber,omitempty" bson:"roomNumber,omitempty"`
	ProfilePhoto        string       `json:"profilePhoto,omitempty" bson:"profilePhoto,omitempty" validate:"omitempty,url"`
	UserID              string       `json:"userId,omitempty" bson:"user,omitempty"`
	User                *UserSummary `json:"user,omitempty" bson:"-"`
	CreatedAt           time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// StudentSummary is the populated form of a student reference.
type StudentSummary struct {
	ID         string `json:"_id"`
	FullName   string `json:"fullName"`
	RollNumber string `json:"rollNumber,omitempty"`
	RoomNumber string `json:"roomNumber,omitempty"`
}

// Summary returns the reference form of s with every summary field set.
// Callers trim the fields they do not expose.
func (s Student) Summary() StudentSummary {
	return StudentSummary{ID: s.ID, FullName: s.FullName, RollNumber: s.RollNumber, RoomNumber: s.RoomNumber}
}

// User is a login account. PasswordHash never leaves the server.
type User struct {
	ID             string    `json:"_id" bson:"_id"`
	Name           string    `json:"name" bson:"name" validate:"required"`
	Email          string    `json:"email" bson:"email" validate:"required,email"`
	PasswordHash   string    `json:"-" bson:"password"`
	Role           Role      `json:"role" bson:"role" validate:"required,role"`
	StudentProfile string    `json:"studentProfile,omitempty" bson:"studentProfile,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
