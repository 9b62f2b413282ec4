package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel/internal/apperr"
)

func TestClassifyUniqueViolation(t *testing.T) {
	err := classify(&pgconn.PgError{Code: "23505", ConstraintName: "students_roll_number_key"}, "insert student", "CS2023001")
	require.ErrorIs(t, err, apperr.ErrDuplicate)
	require.ErrorIs(t, err, apperr.ErrValidation)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "rollNumber", ve.Fields[0].Field)

	err = classify(&pgconn.PgError{Code: "23505", ConstraintName: "attendance_student_day_key"}, "insert attendance", "s1@2024-05-01")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "student/day", ve.Fields[0].Field)

	err = classify(&pgconn.PgError{Code: "23505", ConstraintName: "some_new_key"}, "insert", "x")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "some_new_key", ve.Fields[0].Field)
}

func TestClassifyConnectivity(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	for _, cause := range []error{dial, driver.ErrBadConn} {
		err := classify(cause, "list students", "")
		assert.ErrorIs(t, err, apperr.ErrUnavailable)
		assert.NotErrorIs(t, err, apperr.ErrValidation)
	}
}

func TestClassifyOtherErrors(t *testing.T) {
	assert.NoError(t, classify(nil, "noop", ""))

	err := classify(&pgconn.PgError{Code: "23503", ConstraintName: "fk"}, "insert complaint", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrDuplicate)
	assert.NotErrorIs(t, err, apperr.ErrUnavailable)
	assert.Contains(t, err.Error(), "insert complaint")

	assert.ErrorIs(t, notFound(sql.ErrNoRows, "room"), apperr.ErrNotFound)
	assert.ErrorIs(t, notFound(driver.ErrBadConn, "room"), apperr.ErrUnavailable)
}

func TestWherePlaceholders(t *testing.T) {
	var w where
	assert.Equal(t, "", w.String())
	w.add("student_id = ?", "s1")
	w.add("day >= ?", "2024-05-01")
	assert.Equal(t, " WHERE student_id = $1 AND day >= $2", w.String())
	assert.Equal(t, []any{"s1", "2024-05-01"}, w.args)
	assert.Equal(t, "$1,$2,$3", placeholders(3))
}
