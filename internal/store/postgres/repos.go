package postgres

import (
	"context"
	"database/sql"

	"hostel/internal/apperr"
	"hostel/internal/model"
	"hostel/internal/store"
)

type scanner interface {
	Scan(dest ...any) error
}

// ---- students ----

const studentCols = `id, full_name, roll_number, course, contact_number, parent_contact_number,
	room_number, profile_photo, user_id, created_at, updated_at`

func scanStudent(row scanner) (model.Student, error) {
	var st model.Student
	err := row.Scan(&st.ID, &st.FullName, &st.RollNumber, &st.Course, &st.ContactNumber, &st.ParentContactNumber,
		&st.RoomNumber, &st.ProfilePhoto, &st.UserID, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

type studentRepo struct{ db *sql.DB }

func (r studentRepo) Create(ctx context.Context, st *model.Student) error {
	store.Stamp(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (`+studentCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, st.ID, st.FullName, st.RollNumber, st.Course, st.ContactNumber, st.ParentContactNumber,
		st.RoomNumber, st.ProfilePhoto, st.UserID, st.CreatedAt, st.UpdatedAt)
	return classify(err, "insert student", st.RollNumber)
}

func (r studentRepo) Get(ctx context.Context, id string) (*model.Student, error) {
	st, err := scanStudent(r.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "student")
	}
	return &st, nil
}

func (r studentRepo) GetMany(ctx context.Context, ids []string) ([]model.Student, error) {
	if len(ids) == 0 {
		return []model.Student{}, nil
	}
	return r.query(ctx, `SELECT `+studentCols+` FROM students WHERE id IN (`+placeholders(len(ids))+`)`, anySlice(ids)...)
}

func (r studentRepo) GetByRollNumber(ctx context.Context, rollNumber string) (*model.Student, error) {
	st, err := scanStudent(r.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE roll_number = $1`, rollNumber))
	if err != nil {
		return nil, notFound(err, "student")
	}
	return &st, nil
}

func (r studentRepo) List(ctx context.Context, f store.StudentFilter) ([]model.Student, error) {
	var w where
	if f.RoomNumber != "" {
		w.add("room_number = ?", f.RoomNumber)
	}
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	return r.query(ctx, `SELECT `+studentCols+` FROM students`+w.String()+` ORDER BY roll_number`, w.args...)
}

func (r studentRepo) query(ctx context.Context, q string, args ...any) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err, "list students", "")
	}
	defer rows.Close()
	out := make([]model.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, classify(err, "scan student", "")
		}
		out = append(out, st)
	}
	return out, classify(rows.Err(), "list students", "")
}

func (r studentRepo) Update(ctx context.Context, st *model.Student) error {
	store.Touch(&st.UpdatedAt)
	res, err := r.db.ExecContext(ctx, `
		UPDATE students SET full_name = $2, roll_number = $3, course = $4, contact_number = $5,
			parent_contact_number = $6, room_number = $7, profile_photo = $8, user_id = $9, updated_at = $10
		WHERE id = $1
	`, st.ID, st.FullName, st.RollNumber, st.Course, st.ContactNumber, st.ParentContactNumber,
		st.RoomNumber, st.ProfilePhoto, st.UserID, st.UpdatedAt)
	if err != nil {
		return classify(err, "update student", st.RollNumber)
	}
	return affected(res, "student")
}

func (r studentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete student", "")
	}
	return affected(res, "student")
}

// ---- rooms ----

const roomCols = `id, room_number, capacity, type, price, created_at, updated_at`

func scanRoom(row scanner) (model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.RoomNumber, &rm.Capacity, &rm.Type, &rm.Price, &rm.CreatedAt, &rm.UpdatedAt)
	rm.OccupantIDs = []string{}
	return rm, err
}

type roomRepo struct{ db *sql.DB }

func (r roomRepo) Create(ctx context.Context, rm *model.Room) error {
	store.Stamp(&rm.ID, &rm.CreatedAt, &rm.UpdatedAt)
	if rm.OccupantIDs == nil {
		rm.OccupantIDs = []string{}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "begin", "")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rooms (`+roomCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rm.ID, rm.RoomNumber, rm.Capacity, rm.Type, rm.Price, rm.CreatedAt, rm.UpdatedAt); err != nil {
		return classify(err, "insert room", rm.RoomNumber)
	}
	if err := writeOccupants(ctx, tx, rm.ID, rm.OccupantIDs); err != nil {
		return err
	}
	return classify(tx.Commit(), "commit room", "")
}

func writeOccupants(ctx context.Context, tx *sql.Tx, roomID string, ids []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_occupants WHERE room_id = $1`, roomID); err != nil {
		return classify(err, "clear occupants", "")
	}
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO room_occupants (room_id, position, student_id) VALUES ($1, $2, $3)
		`, roomID, i, id); err != nil {
			return classify(err, "insert occupant", id)
		}
	}
	return nil
}

func (r roomRepo) Get(ctx context.Context, id string) (*model.Room, error) {
	return r.one(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1`, id)
}

func (r roomRepo) GetByNumber(ctx context.Context, roomNumber string) (*model.Room, error) {
	return r.one(ctx, `SELECT `+roomCols+` FROM rooms WHERE room_number = $1`, roomNumber)
}

func (r roomRepo) one(ctx context.Context, q string, arg any) (*model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		return nil, notFound(err, "room")
	}
	rooms := []model.Room{rm}
	if err := r.loadOccupants(ctx, rooms); err != nil {
		return nil, err
	}
	return &rooms[0], nil
}

func (r roomRepo) List(ctx context.Context, f store.RoomFilter) ([]model.Room, error) {
	var w where
	if f.OccupantID != "" {
		w.add("id IN (SELECT room_id FROM room_occupants WHERE student_id = ?)", f.OccupantID)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomCols+` FROM rooms`+w.String()+` ORDER BY room_number`, w.args...)
	if err != nil {
		return nil, classify(err, "list rooms", "")
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, classify(err, "scan room", "")
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "list rooms", "")
	}
	if err := r.loadOccupants(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadOccupants fills OccupantIDs in position order for every room given.
func (r roomRepo) loadOccupants(ctx context.Context, rooms []model.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	idx := make(map[string]int, len(rooms))
	ids := make([]string, len(rooms))
	for i, rm := range rooms {
		idx[rm.ID] = i
		ids[i] = rm.ID
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT room_id, student_id FROM room_occupants
		WHERE room_id IN (`+placeholders(len(ids))+`)
		ORDER BY room_id, position
	`, anySlice(ids)...)
	if err != nil {
		return classify(err, "load occupants", "")
	}
	defer rows.Close()
	for rows.Next() {
		var roomID, studentID string
		if err := rows.Scan(&roomID, &studentID); err != nil {
			return classify(err, "scan occupant", "")
		}
		i := idx[roomID]
		rooms[i].OccupantIDs = append(rooms[i].OccupantIDs, studentID)
	}
	return classify(rows.Err(), "load occupants", "")
}

func (r roomRepo) Update(ctx context.Context, rm *model.Room) error {
	store.Touch(&rm.UpdatedAt)
	if rm.OccupantIDs == nil {
		rm.OccupantIDs = []string{}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "begin", "")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE rooms SET room_number = $2, capacity = $3, type = $4, price = $5, updated_at = $6
		WHERE id = $1
	`, rm.ID, rm.RoomNumber, rm.Capacity, rm.Type, rm.Price, rm.UpdatedAt)
	if err != nil {
		return classify(err, "update room", rm.RoomNumber)
	}
	if err := affected(res, "room"); err != nil {
		return err
	}
	if err := writeOccupants(ctx, tx, rm.ID, rm.OccupantIDs); err != nil {
		return err
	}
	return classify(tx.Commit(), "commit room", "")
}

func (r roomRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete room", "")
	}
	return affected(res, "room")
}

// ---- attendance ----

const attendanceCols = `id, student_id, date, day, status, marked_by, created_at, updated_at`

func scanAttendance(row scanner) (model.Attendance, error) {
	var a model.Attendance
	err := row.Scan(&a.ID, &a.StudentID, &a.Date, &a.Day, &a.Status, &a.MarkedBy, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

type attendanceRepo struct{ db *sql.DB }

func (r attendanceRepo) Create(ctx context.Context, a *model.Attendance) error {
	store.Stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (`+attendanceCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, a.ID, a.StudentID, a.Date, a.Day, a.Status, a.MarkedBy, a.CreatedAt, a.UpdatedAt)
	return classify(err, "insert attendance", a.StudentID+"@"+a.Day.Format("2006-01-02"))
}

func (r attendanceRepo) FindForDay(ctx context.Context, studentID string, day model.DayWindow) (*model.Attendance, error) {
	a, err := scanAttendance(r.db.QueryRowContext(ctx, `
		SELECT `+attendanceCols+` FROM attendance
		WHERE student_id = $1 AND day = $2
	`, studentID, day.Start))
	if err != nil {
		return nil, notFound(err, "attendance")
	}
	return &a, nil
}

func (r attendanceRepo) List(ctx context.Context, f store.AttendanceFilter) ([]model.Attendance, error) {
	var w where
	if f.StudentID != "" {
		w.add("student_id = ?", f.StudentID)
	}
	if f.From != nil {
		w.add("day >= ?", *f.From)
	}
	if f.To != nil {
		w.add("day <= ?", *f.To)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+attendanceCols+` FROM attendance`+w.String()+` ORDER BY date DESC, student_id`, w.args...)
	if err != nil {
		return nil, classify(err, "list attendance", "")
	}
	defer rows.Close()
	out := make([]model.Attendance, 0)
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, classify(err, "scan attendance", "")
		}
		out = append(out, a)
	}
	return out, classify(rows.Err(), "list attendance", "")
}

func (r attendanceRepo) Update(ctx context.Context, a *model.Attendance) error {
	store.Touch(&a.UpdatedAt)
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance SET student_id = $2, date = $3, day = $4, status = $5, marked_by = $6, updated_at = $7
		WHERE id = $1
	`, a.ID, a.StudentID, a.Date, a.Day, a.Status, a.MarkedBy, a.UpdatedAt)
	if err != nil {
		return classify(err, "update attendance", a.StudentID+"@"+a.Day.Format("2006-01-02"))
	}
	return affected(res, "attendance")
}

func (r attendanceRepo) CountByStatus(ctx context.Context, day model.DayWindow) (model.AttendanceStats, error) {
	var stats model.AttendanceStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3)
		FROM attendance
		WHERE day = $1
	`, day.Start, model.Present, model.Absent).Scan(&stats.Present, &stats.Absent)
	if err != nil {
		return model.AttendanceStats{}, classify(err, "count attendance", "")
	}
	return stats, nil
}

// ---- complaints ----

const complaintCols = `id, student_id, category, description, image, status, admin_reply, created_at, updated_at`

func scanComplaint(row scanner) (model.Complaint, error) {
	var c model.Complaint
	err := row.Scan(&c.ID, &c.StudentID, &c.Category, &c.Description, &c.Image, &c.Status, &c.AdminReply, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type complaintRepo struct{ db *sql.DB }

func (r complaintRepo) Create(ctx context.Context, c *model.Complaint) error {
	store.Stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO complaints (`+complaintCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, c.ID, c.StudentID, c.Category, c.Description, c.Image, c.Status, c.AdminReply, c.CreatedAt, c.UpdatedAt)
	return classify(err, "insert complaint", c.ID)
}

func (r complaintRepo) Get(ctx context.Context, id string) (*model.Complaint, error) {
	c, err := scanComplaint(r.db.QueryRowContext(ctx, `SELECT `+complaintCols+` FROM complaints WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "complaint")
	}
	return &c, nil
}

func (r complaintRepo) List(ctx context.Context, f store.ComplaintFilter) ([]model.Complaint, error) {
	var w where
	if f.StudentID != "" {
		w.add("student_id = ?", f.StudentID)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+complaintCols+` FROM complaints`+w.String()+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, classify(err, "list complaints", "")
	}
	defer rows.Close()
	out := make([]model.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, classify(err, "scan complaint", "")
		}
		out = append(out, c)
	}
	return out, classify(rows.Err(), "list complaints", "")
}

func (r complaintRepo) Update(ctx context.Context, c *model.Complaint) error {
	store.Touch(&c.UpdatedAt)
	res, err := r.db.ExecContext(ctx, `
		UPDATE complaints SET student_id = $2, category = $3, description = $4, image = $5,
			status = $6, admin_reply = $7, updated_at = $8
		WHERE id = $1
	`, c.ID, c.StudentID, c.Category, c.Description, c.Image, c.Status, c.AdminReply, c.UpdatedAt)
	if err != nil {
		return classify(err, "update complaint", c.ID)
	}
	return affected(res, "complaint")
}

// ---- users ----

const userCols = `id, name, email, password, role, student_profile, created_at, updated_at`

func scanUser(row scanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.StudentProfile, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

type userRepo struct{ db *sql.DB }

func (r userRepo) Create(ctx context.Context, u *model.User) error {
	store.Stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.StudentProfile, u.CreatedAt, u.UpdatedAt)
	return classify(err, "insert user", u.Email)
}

func (r userRepo) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r userRepo) GetMany(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+userCols+` FROM users WHERE id IN (`+placeholders(len(ids))+`)`, anySlice(ids)...)
	if err != nil {
		return nil, classify(err, "list users", "")
	}
	defer rows.Close()
	out := make([]model.User, 0, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(err, "scan user", "")
		}
		out = append(out, u)
	}
	return out, classify(rows.Err(), "list users", "")
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperr.NotFound("user")
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r userRepo) Update(ctx context.Context, u *model.User) error {
	store.Touch(&u.UpdatedAt)
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = $2, email = $3, password = $4, role = $5, student_profile = $6, updated_at = $7
		WHERE id = $1
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.StudentProfile, u.UpdatedAt)
	if err != nil {
		return classify(err, "update user", u.Email)
	}
	return affected(res, "user")
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete user", "")
	}
	return affected(res, "user")
}
