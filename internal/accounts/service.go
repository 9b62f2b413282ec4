// Package accounts registers users and exchanges credentials for tokens.
package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"hostel/internal/access"
	"hostel/internal/apperr"
	"hostel/internal/auth"
	"hostel/internal/model"
	"hostel/internal/store"
	"hostel/internal/students"
)

const minPasswordLen = 6

// RegisterInput is the registration body. StudentDetails creates the linked
// student profile of a student account.
type RegisterInput struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Password       string          `json:"password"`
	Role           model.Role      `json:"role"`
	StudentDetails *students.Input `json:"studentDetails"`
}

// Session is returned by register, login and refresh.
type Session struct {
	User   model.User
	Tokens auth.TokenPair
}

// Profile is the caller's account with its student record, if any.
type Profile struct {
	User    model.User
	Student *model.Student
}

type Service struct {
	store    store.Store
	students *students.Service
	tokens   *auth.Tokens
	hash     func(string) (string, error)
	logger   *slog.Logger
}

func NewService(s store.Store, st *students.Service, tokens *auth.Tokens, logger *slog.Logger) *Service {
	return &Service{store: s, students: st, tokens: tokens, hash: auth.HashPassword, logger: logger}
}

// Register creates an account. Role defaults to student. For a student
// account with StudentDetails the profile is checked up front, then created
// and linked.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	u := model.User{
		Name:  strings.TrimSpace(in.Name),
		Email: normalizeEmail(in.Email),
		Role:  in.Role,
	}
	if err := model.Validate(u); err != nil {
		return Session{}, err
	}
	if len(in.Password) < minPasswordLen {
		return Session{}, apperr.Invalid("password", "must be at least 6 characters")
	}
	if in.StudentDetails != nil && in.Role != model.RoleStudent {
		return Session{}, apperr.Invalid("studentDetails", "only student accounts have a student profile")
	}
	if in.StudentDetails != nil {
		if err := s.students.Check(ctx, *in.StudentDetails); err != nil {
			return Session{}, err
		}
	}
	if _, err := s.store.Users().GetByEmail(ctx, u.Email); err == nil {
		return Session{}, apperr.Duplicate("email", u.Email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return Session{}, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return Session{}, err
	}
	u.PasswordHash = hash
	if err := s.store.Users().Create(ctx, &u); err != nil {
		return Session{}, err
	}
	s.logger.Info("account registered", "user", u.ID, "role", u.Role)

	if in.StudentDetails != nil {
		details := *in.StudentDetails
		details.UserID = u.ID
		st, err := s.students.Enroll(ctx, details)
		if err != nil {
			s.discard(ctx, u.ID)
			return Session{}, err
		}
		u.StudentProfile = st.ID
		if err := s.store.Users().Update(ctx, &u); err != nil {
			return Session{}, err
		}
	}
	return s.session(u)
}

// discard removes an account whose student profile could not be created,
// which frees its email for the next attempt.
func (s *Service) discard(ctx context.Context, userID string) {
	if err := s.store.Users().Delete(ctx, userID); err != nil {
		s.logger.Error("orphan account left behind", "user", userID, "err", err)
		return
	}
	s.logger.Info("account registration rolled back", "user", userID)
}

// Login checks credentials. Unknown email and wrong password fail alike.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Session{}, apperr.Unauthorized("invalid email or password")
		}
		return Session{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return Session{}, apperr.Unauthorized("invalid email or password")
	}
	return s.session(*u)
}

// Refresh exchanges a refresh token for a new pair, reloading the account
// so that a profile linked since login is picked up.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TypeRefresh)
	if err != nil {
		return Session{}, apperr.Unauthorized("invalid refresh token")
	}
	u, err := s.store.Users().Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Session{}, apperr.Unauthorized("account no longer exists")
		}
		return Session{}, err
	}
	return s.session(*u)
}

// Me returns the caller's account. Callers without a stored account, such
// as the bypass identity, get their identity echoed back.
func (s *Service) Me(ctx context.Context, caller access.Caller) (Profile, error) {
	u, err := s.store.Users().Get(ctx, caller.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Profile{User: model.User{
			ID:             caller.UserID,
			Name:           caller.Name,
			Email:          caller.Email,
			Role:           caller.Role,
			StudentProfile: caller.StudentProfile,
		}}, nil
	}
	if err != nil {
		return Profile{}, err
	}
	p := Profile{User: *u}
	if u.StudentProfile != "" {
		st, err := s.store.Students().Get(ctx, u.StudentProfile)
		switch {
		case err == nil:
			p.Student = st
		case !errors.Is(err, apperr.ErrNotFound):
			return Profile{}, err
		}
	}
	return p, nil
}

func (s *Service) session(u model.User) (Session, error) {
	pair, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Tokens: pair}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
