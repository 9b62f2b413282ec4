// Package access decides who may do what. The HTTP layer resolves a Caller
// through an Authenticator once per request; domain services only ever see
// the Caller.
package access

import (
	"context"
	"net/http"

	"hostel/internal/apperr"
	"hostel/internal/model"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID         string
	Name           string
	Email          string
	Role           model.Role
	StudentProfile string
}

func (c Caller) IsAdmin() bool   { return c.Role == model.RoleAdmin }
func (c Caller) IsStudent() bool { return c.Role == model.RoleStudent }

// Authenticator resolves the caller of a request or fails with an error
// matching apperr.ErrUnauthorized.
type Authenticator interface {
	Authenticate(r *http.Request) (Caller, error)
}

// Static authenticates every request as the same caller. It backs the
// AUTH_MODE=bypass demo setup.
type Static struct {
	Caller Caller
}

// DemoAdmin is the identity injected by Static in bypass mode.
var DemoAdmin = Caller{
	UserID: "demo-admin",
	Name:   "Demo Admin",
	Email:  "admin@example.com",
	Role:   model.RoleAdmin,
}

func (s Static) Authenticate(*http.Request) (Caller, error) {
	return s.Caller, nil
}

// RequireAdmin fails unless the caller is an admin.
func RequireAdmin(c Caller) error {
	if !c.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	return nil
}

// RequireStudent fails unless the caller is a student.
func RequireStudent(c Caller) error {
	if !c.IsStudent() {
		return apperr.Forbidden("only students can do this")
	}
	return nil
}

// StudentScope returns the student profile a student caller is confined
// to. Students without a linked profile fail with apperr.ErrNoProfile.
func StudentScope(c Caller) (string, error) {
	if c.StudentProfile == "" {
		return "", apperr.ErrNoProfile
	}
	return c.StudentProfile, nil
}

// CanReadStudent reports whether c may read the student record with id.
func CanReadStudent(c Caller, studentID string) error {
	if c.IsAdmin() || (c.IsStudent() && c.StudentProfile != "" && c.StudentProfile == studentID) {
		return nil
	}
	return apperr.Forbidden("not authorized to view this student")
}

type ctxKey struct{}

// WithCaller stores c in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the caller stored by WithCaller.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}
