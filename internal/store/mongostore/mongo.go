// Package mongostore persists the hostel records in MongoDB, one collection
// per record kind. Uniqueness rules are unique indexes created by Open.
package mongostore

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"hostel/internal/apperr"
	"hostel/internal/store"
)

const (
	colStudents   = "students"
	colRooms      = "rooms"
	colAttendance = "attendances"
	colComplaints = "complaints"
	colUsers      = "users"
)

// Store wraps a connected client and the hostel database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// Open connects, pings and ensures the unique indexes. Any connectivity
// failure is reported as apperr.ErrUnavailable.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, apperr.Unavailable(errors.New("mongodb uri not configured"))
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second).
		SetConnectTimeout(5*time.Second))
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperr.Unavailable(err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	indexes := map[string][]mongo.IndexModel{
		colStudents: {unique(bson.D{{Key: "rollNumber", Value: 1}})},
		colRooms:    {unique(bson.D{{Key: "roomNumber", Value: 1}})},
		colUsers:    {unique(bson.D{{Key: "email", Value: 1}})},
		colAttendance: {
			unique(bson.D{{Key: "student", Value: 1}, {Key: "day", Value: 1}}),
			{Keys: bson.D{{Key: "day", Value: 1}, {Key: "status", Value: 1}}},
		},
		colComplaints: {{Keys: bson.D{{Key: "student", Value: 1}, {Key: "createdAt", Value: -1}}}},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return wrap(err, "create indexes on "+col)
		}
	}
	return nil
}

func (s *Store) Students() store.Students     { return studentRepo{s.db.Collection(colStudents)} }
func (s *Store) Rooms() store.Rooms           { return roomRepo{s.db.Collection(colRooms)} }
func (s *Store) Attendance() store.Attendance { return attendanceRepo{s.db.Collection(colAttendance)} }
func (s *Store) Complaints() store.Complaints { return complaintRepo{s.db.Collection(colComplaints)} }
func (s *Store) Users() store.Users           { return userRepo{s.db.Collection(colUsers)} }

func (s *Store) Name() string { return "mongo" }

// Ping verifies connectivity with the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// wrap classifies a driver error: connectivity problems become
// apperr.ErrUnavailable, everything else keeps its cause behind msg.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Unavailable(pkgerrors.Wrap(err, msg))
	}
	return pkgerrors.Wrap(err, msg)
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any, kind string) (*T, error) {
	var out T
	err := col.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound(kind)
	}
	if err != nil {
		return nil, wrap(err, "find "+kind)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrap(err, "find in "+col.Name())
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrap(err, "decode "+col.Name())
	}
	return out, nil
}

// insert stores doc, translating a unique index violation on field into a
// validation error.
func insert(ctx context.Context, col *mongo.Collection, doc any, field, value string) error {
	_, err := col.InsertOne(ctx, doc)
	return writeErr(err, "insert into "+col.Name(), field, value)
}

// writeErr is wrap for writes that can hit a unique index.
func writeErr(err error, msg, field, value string) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Duplicate(field, value)
	}
	return wrap(err, msg)
}

func replace(ctx context.Context, col *mongo.Collection, id string, doc any, kind, field, value string) error {
	res, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return writeErr(err, "update "+kind, field, value)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(kind)
	}
	return nil
}

func remove(ctx context.Context, col *mongo.Collection, id, kind string) error {
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap(err, "delete "+kind)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(kind)
	}
	return nil
}

func idsFilter(ids []string) bson.M {
	return bson.M{"_id": bson.M{"$in": ids}}
}
