package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hostel/internal/apperr"
	"hostel/internal/model"
	"hostel/internal/store"
)

type studentRepo struct{ col *mongo.Collection }

func (r studentRepo) Create(ctx context.Context, st *model.Student) error {
	store.Stamp(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	return insert(ctx, r.col, st, "rollNumber", st.RollNumber)
}

func (r studentRepo) Get(ctx context.Context, id string) (*model.Student, error) {
	return findOne[model.Student](ctx, r.col, bson.M{"_id": id}, "student")
}

func (r studentRepo) GetMany(ctx context.Context, ids []string) ([]model.Student, error) {
	if len(ids) == 0 {
		return []model.Student{}, nil
	}
	return findAll[model.Student](ctx, r.col, idsFilter(ids))
}

func (r studentRepo) GetByRollNumber(ctx context.Context, rollNumber string) (*model.Student, error) {
	return findOne[model.Student](ctx, r.col, bson.M{"rollNumber": rollNumber}, "student")
}

func (r studentRepo) List(ctx context.Context, f store.StudentFilter) ([]model.Student, error) {
	filter := bson.M{}
	if f.RoomNumber != "" {
		filter["roomNumber"] = f.RoomNumber
	}
	if f.UserID != "" {
		filter["user"] = f.UserID
	}
	return findAll[model.Student](ctx, r.col, filter, options.Find().SetSort(bson.D{{Key: "rollNumber", Value: 1}}))
}

func (r studentRepo) Update(ctx context.Context, st *model.Student) error {
	store.Touch(&st.UpdatedAt)
	return replace(ctx, r.col, st.ID, st, "student", "rollNumber", st.RollNumber)
}

func (r studentRepo) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.col, id, "student")
}

type roomRepo struct{ col *mongo.Collection }

func (r roomRepo) Create(ctx context.Context, rm *model.Room) error {
	store.Stamp(&rm.ID, &rm.CreatedAt, &rm.UpdatedAt)
	if rm.OccupantIDs == nil {
		rm.OccupantIDs = []string{}
	}
	return insert(ctx, r.col, rm, "roomNumber", rm.RoomNumber)
}

func (r roomRepo) Get(ctx context.Context, id string) (*model.Room, error) {
	return findOne[model.Room](ctx, r.col, bson.M{"_id": id}, "room")
}

func (r roomRepo) GetByNumber(ctx context.Context, roomNumber string) (*model.Room, error) {
	return findOne[model.Room](ctx, r.col, bson.M{"roomNumber": roomNumber}, "room")
}

func (r roomRepo) List(ctx context.Context, f store.RoomFilter) ([]model.Room, error) {
	filter := bson.M{}
	if f.OccupantID != "" {
		filter["occupants"] = f.OccupantID
	}
	return findAll[model.Room](ctx, r.col, filter, options.Find().SetSort(bson.D{{Key: "roomNumber", Value: 1}}))
}

func (r roomRepo) Update(ctx context.Context, rm *model.Room) error {
	store.Touch(&rm.UpdatedAt)
	if rm.OccupantIDs == nil {
		rm.OccupantIDs = []string{}
	}
	return replace(ctx, r.col, rm.ID, rm, "room", "roomNumber", rm.RoomNumber)
}

func (r roomRepo) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.col, id, "room")
}

type attendanceRepo struct{ col *mongo.Collection }

func (r attendanceRepo) Create(ctx context.Context, a *model.Attendance) error {
	store.Stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return insert(ctx, r.col, a, "student/day", a.StudentID+"@"+a.Day.Format("2006-01-02"))
}

func (r attendanceRepo) FindForDay(ctx context.Context, studentID string, day model.DayWindow) (*model.Attendance, error) {
	return findOne[model.Attendance](ctx, r.col, bson.M{
		"student": studentID,
		"day":     day.Start,
	}, "attendance")
}

func (r attendanceRepo) List(ctx context.Context, f store.AttendanceFilter) ([]model.Attendance, error) {
	filter := bson.M{}
	if f.StudentID != "" {
		filter["student"] = f.StudentID
	}
	if f.From != nil || f.To != nil {
		rng := bson.M{}
		if f.From != nil {
			rng["$gte"] = *f.From
		}
		if f.To != nil {
			rng["$lte"] = *f.To
		}
		filter["day"] = rng
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "student", Value: 1}})
	return findAll[model.Attendance](ctx, r.col, filter, opts)
}

func (r attendanceRepo) Update(ctx context.Context, a *model.Attendance) error {
	store.Touch(&a.UpdatedAt)
	return replace(ctx, r.col, a.ID, a, "attendance", "student/day", a.StudentID+"@"+a.Day.Format("2006-01-02"))
}

func (r attendanceRepo) CountByStatus(ctx context.Context, day model.DayWindow) (model.AttendanceStats, error) {
	var stats model.AttendanceStats
	present, err := r.col.CountDocuments(ctx, bson.M{"day": day.Start, "status": model.Present})
	if err != nil {
		return stats, wrap(err, "count present")
	}
	absent, err := r.col.CountDocuments(ctx, bson.M{"day": day.Start, "status": model.Absent})
	if err != nil {
		return stats, wrap(err, "count absent")
	}
	stats.Present, stats.Absent = present, absent
	return stats, nil
}

type complaintRepo struct{ col *mongo.Collection }

func (r complaintRepo) Create(ctx context.Context, c *model.Complaint) error {
	store.Stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return insert(ctx, r.col, c, "_id", c.ID)
}

func (r complaintRepo) Get(ctx context.Context, id string) (*model.Complaint, error) {
	return findOne[model.Complaint](ctx, r.col, bson.M{"_id": id}, "complaint")
}

func (r complaintRepo) List(ctx context.Context, f store.ComplaintFilter) ([]model.Complaint, error) {
	filter := bson.M{}
	if f.StudentID != "" {
		filter["student"] = f.StudentID
	}
	return findAll[model.Complaint](ctx, r.col, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r complaintRepo) Update(ctx context.Context, c *model.Complaint) error {
	store.Touch(&c.UpdatedAt)
	return replace(ctx, r.col, c.ID, c, "complaint", "_id", c.ID)
}

type userRepo struct{ col *mongo.Collection }

func (r userRepo) Create(ctx context.Context, u *model.User) error {
	store.Stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return insert(ctx, r.col, u, "email", u.Email)
}

func (r userRepo) Get(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, r.col, bson.M{"_id": id}, "user")
}

func (r userRepo) GetMany(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	return findAll[model.User](ctx, r.col, idsFilter(ids))
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperr.NotFound("user")
	}
	return findOne[model.User](ctx, r.col, bson.M{"email": email}, "user")
}

func (r userRepo) Update(ctx context.Context, u *model.User) error {
	store.Touch(&u.UpdatedAt)
	return replace(ctx, r.col, u.ID, u, "user", "email", u.Email)
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.col, id, "user")
}
