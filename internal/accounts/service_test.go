package accounts

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel/internal/access"
	"hostel/internal/apperr"
	"hostel/internal/auth"
	"hostel/internal/model"
	"hostel/internal/occupancy"
	"hostel/internal/store"
	"hostel/internal/store/memory"
	"hostel/internal/students"
)

func setup(t *testing.T) (*Service, *memory.Store, *auth.Tokens) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := memory.New()
	tokens := auth.NewTokens("hostel-test", "secret", time.Hour, 24*time.Hour)
	st := students.NewService(mem, occupancy.New(mem, logger), logger)
	return NewService(mem, st, tokens, logger), mem, tokens
}

func details() *students.Input {
	return &students.Input{
		FullName:            "Aarav Sharma",
		RollNumber:          "CS2023001",
		Course:              "B.Tech CSE",
		ContactNumber:       "9876543210",
		ParentContactNumber: "9876543211",
	}
}

func TestRegisterStudentLinksProfile(t *testing.T) {
	svc, mem, tokens := setup(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{
		Name:           "Aarav Sharma",
		Email:          " Aarav@Example.com ",
		Password:       "student123",
		StudentDetails: details(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, sess.User.Role)
	assert.Equal(t, "aarav@example.com", sess.User.Email)
	require.NotEmpty(t, sess.User.StudentProfile)

	st, err := mem.Students().Get(ctx, sess.User.StudentProfile)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, st.UserID)

	claims, err := tokens.Parse(sess.Tokens.AccessToken, auth.TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, sess.User.StudentProfile, claims.StudentProfile)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "aarav@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
}

func TestRegisterRejects(t *testing.T) {
	svc, mem, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "123"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1", Role: "warden"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1", Role: model.RoleAdmin, StudentDetails: details()})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	bad := details()
	bad.Course = ""
	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1", StudentDetails: bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = mem.Users().GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "rejected registrations leave no account behind")
}

// takenRollStore accepts the roll number check but rejects the insert, as
// when another registration claims the number in between.
type takenRollStore struct {
	*memory.Store
}

func (s takenRollStore) Students() store.Students { return takenRollStudents{s.Store.Students()} }

type takenRollStudents struct {
	store.Students
}

func (takenRollStudents) Create(_ context.Context, st *model.Student) error {
	return apperr.Duplicate("rollNumber", st.RollNumber)
}

func TestRegisterRollsBackAccountWhenEnrollFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := memory.New()
	racing := takenRollStore{mem}
	tokens := auth.NewTokens("hostel-test", "secret", time.Hour, 24*time.Hour)
	svc := NewService(racing, students.NewService(racing, occupancy.New(racing, logger), logger), tokens, logger)
	ctx := context.Background()

	in := RegisterInput{
		Name:           "Aarav Sharma",
		Email:          "aarav@example.com",
		Password:       "student123",
		StudentDetails: details(),
	}
	_, err := svc.Register(ctx, in)
	require.ErrorIs(t, err, apperr.ErrDuplicate)

	_, err = mem.Users().GetByEmail(ctx, "aarav@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// the email is free again once the roll number is sorted out
	svc = NewService(mem, students.NewService(mem, occupancy.New(mem, logger), logger), tokens, logger)
	sess, err := svc.Register(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.User.StudentProfile)
}

func TestLoginAndRefresh(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Warden", Email: "warden@example.com", Password: "admin123", Role: model.RoleAdmin})
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "WARDEN@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, sess.User.Role)

	_, err = svc.Login(ctx, "warden@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@example.com", "admin123")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	refreshed, err := svc.Refresh(ctx, sess.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(ctx, sess.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestMe(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Name: "Aarav Sharma", Email: "aarav@example.com", Password: "student123", StudentDetails: details()})
	require.NoError(t, err)

	p, err := svc.Me(ctx, access.Caller{UserID: sess.User.ID, Role: model.RoleStudent})
	require.NoError(t, err)
	require.NotNil(t, p.Student)
	assert.Equal(t, "CS2023001", p.Student.RollNumber)

	demo, err := svc.Me(ctx, access.DemoAdmin)
	require.NoError(t, err)
	assert.Equal(t, "demo-admin", demo.User.ID)
	assert.Nil(t, demo.Student)
}
