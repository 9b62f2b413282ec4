// Package postgres persists the hostel records in Postgres through the pgx
// database/sql driver. Room occupants live in their own table keyed by
// position so their order survives a round trip.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	pkgerrors "github.com/pkg/errors"

	"hostel/internal/apperr"
	"hostel/internal/store"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

var _ store.Store = (*DB)(nil)

// Open connects with the pool defaults used across services and creates the
// schema when missing.
func Open(ctx context.Context, connString string) (*DB, error) {
	if connString == "" {
		return nil, apperr.Unavailable(errors.New("database url not configured"))
	}
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, apperr.Unavailable(err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "migrate")
	}
	return &DB{Client: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		email           TEXT NOT NULL CONSTRAINT users_email_key UNIQUE,
		password        TEXT NOT NULL,
		role            TEXT NOT NULL,
		student_profile TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS students (
		id                    TEXT PRIMARY KEY,
		full_name             TEXT NOT NULL,
		roll_number           TEXT NOT NULL CONSTRAINT students_roll_number_key UNIQUE,
		course                TEXT NOT NULL,
		contact_number        TEXT NOT NULL,
		parent_contact_number TEXT NOT NULL,
		room_number           TEXT NOT NULL DEFAULT '',
		profile_photo         TEXT NOT NULL DEFAULT '',
		user_id               TEXT NOT NULL DEFAULT '',
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id          TEXT PRIMARY KEY,
		room_number TEXT NOT NULL CONSTRAINT rooms_room_number_key UNIQUE,
		capacity    INTEGER NOT NULL,
		type        TEXT NOT NULL,
		price       DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS room_occupants (
		room_id    TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		student_id TEXT NOT NULL,
		PRIMARY KEY (room_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_room_occupants_student ON room_occupants(student_id);

	CREATE TABLE IF NOT EXISTS attendance (
		id         TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		date       TIMESTAMPTZ NOT NULL,
		day        TIMESTAMPTZ NOT NULL,
		status     TEXT NOT NULL,
		marked_by  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT attendance_student_day_key UNIQUE (student_id, day)
	);
	CREATE INDEX IF NOT EXISTS idx_attendance_day ON attendance(day);

	CREATE TABLE IF NOT EXISTS complaints (
		id          TEXT PRIMARY KEY,
		student_id  TEXT NOT NULL,
		category    TEXT NOT NULL,
		description TEXT NOT NULL,
		image       TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		admin_reply TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_complaints_student ON complaints(student_id, created_at DESC);
	`)
	return err
}

func (d *DB) Students() store.Students     { return studentRepo{d.Client} }
func (d *DB) Rooms() store.Rooms           { return roomRepo{d.Client} }
func (d *DB) Attendance() store.Attendance { return attendanceRepo{d.Client} }
func (d *DB) Complaints() store.Complaints { return complaintRepo{d.Client} }
func (d *DB) Users() store.Users           { return userRepo{d.Client} }

func (d *DB) Name() string { return "postgres" }

func (d *DB) Ping(ctx context.Context) error {
	if err := d.Client.PingContext(ctx); err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// uniqueFields maps constraint names to the field reported to clients.
var uniqueFields = map[string]string{
	"users_email_key":            "email",
	"students_roll_number_key":   "rollNumber",
	"rooms_room_number_key":      "roomNumber",
	"attendance_student_day_key": "student/day",
	"students_pkey":              "_id",
	"rooms_pkey":                 "_id",
	"users_pkey":                 "_id",
	"attendance_pkey":            "_id",
	"complaints_pkey":            "_id",
}

// classify turns driver errors into the store error contract.
func classify(err error, msg, value string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field, ok := uniqueFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return apperr.Duplicate(field, value)
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) {
		return apperr.Unavailable(pkgerrors.Wrap(err, msg))
	}
	return pkgerrors.Wrap(err, msg)
}

func notFound(err error, kind string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(kind)
	}
	return classify(err, "get "+kind, "")
}

func affected(res sql.Result, kind string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, "rows affected", "")
	}
	if n == 0 {
		return apperr.NotFound(kind)
	}
	return nil
}

// where accumulates numbered placeholders for optional filters.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(ps, ",")
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
