package attendance

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hostel/internal/access"
	"hostel/internal/apperr"
	"hostel/internal/cache"
	"hostel/internal/model"
	"hostel/internal/queue"
	"hostel/internal/store"
	"hostel/internal/store/memory"
)

var (
	admin = access.Caller{UserID: "admin-1", Role: model.RoleAdmin}
	today = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	rec   *Recorder
	mem   *memory.Store
	a, b  model.Student
	queue *queue.InMemory
}

func setup(t *testing.T, opts ...Option) fixture {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	a := model.Student{FullName: "Aarav Sharma", RollNumber: "CS2023001", Course: "B.Tech", ContactNumber: "1", ParentContactNumber: "2"}
	b := model.Student{FullName: "Vivaan Gupta", RollNumber: "CS2023002", Course: "B.Tech", ContactNumber: "3", ParentContactNumber: "4"}
	require.NoError(t, mem.Students().Create(ctx, &a))
	require.NoError(t, mem.Students().Create(ctx, &b))

	q := queue.NewInMemory(16)
	opts = append([]Option{WithEvents(q), WithClock(func() time.Time { return today })}, opts...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{
		rec:   NewRecorder(mem, time.UTC, logger, opts...),
		mem:   mem,
		a:     a,
		b:     b,
		queue: q,
	}
}

func TestRemarkOverwritesSameDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, created, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01", Status: model.Present})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first.Student)
	assert.Equal(t, "CS2023001", first.Student.RollNumber)

	second, created, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01T18:30:00Z", Status: model.Absent})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.Absent, second.Status)

	list, err := f.rec.List(ctx, admin, Filter{Date: "2024-05-01"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.Absent, list[0].Status)
}

func TestRemarkLateInTheDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, created, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01T23:59:59.9995Z", Status: model.Present})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01T23:59:59.9995Z", Status: model.Absent})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	list, err := f.rec.List(ctx, admin, Filter{Date: "2024-05-01"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.Absent, list[0].Status)

	list, err = f.rec.List(ctx, admin, Filter{Date: "2024-05-02"})
	require.NoError(t, err)
	assert.Empty(t, list)

	stats, err := f.mem.Attendance().CountByStatus(ctx, model.DayOf(today, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStats{Absent: 1}, stats)
}

// lateStore hides existing attendance from the first misses lookups, the
// way a concurrent insert looks to the losing writer.
type lateStore struct {
	*memory.Store
	attendance *lateAttendance
}

func (s lateStore) Attendance() store.Attendance { return s.attendance }

type lateAttendance struct {
	store.Attendance
	misses  int
	lookups int
}

func (r *lateAttendance) FindForDay(ctx context.Context, studentID string, day model.DayWindow) (*model.Attendance, error) {
	r.lookups++
	if r.misses > 0 {
		r.misses--
		return nil, apperr.NotFound("attendance")
	}
	return r.Attendance.FindForDay(ctx, studentID, day)
}

func TestMarkRetriesAfterLosingInsert(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, _, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01", Status: model.Present})
	require.NoError(t, err)

	late := &lateAttendance{Attendance: f.mem.Attendance(), misses: 1}
	rec := NewRecorder(lateStore{Store: f.mem, attendance: late}, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, created, err := rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01T08:00:00Z", Status: model.Absent})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.Absent, got.Status)
	assert.Equal(t, 2, late.lookups)

	list, err := f.mem.Attendance().List(ctx, store.AttendanceFilter{StudentID: f.a.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.Absent, list[0].Status)
}

func TestConcurrentMarksKeepOneRecord(t *testing.T) {
	f := setup(t, WithEvents(nil))
	ctx := context.Background()

	const n = 50
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := model.Present
			if i%2 == 1 {
				status = model.Absent
			}
			_, _, errs[i] = f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01", Status: status})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	list, err := f.mem.Attendance().List(ctx, store.AttendanceFilter{StudentID: f.a.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkRejects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, _, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01", Status: "Late"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "yesterday", Status: model.Present})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Fields[0].Field)

	_, _, err = f.rec.Mark(ctx, admin, MarkInput{StudentID: "ghost", Date: "2024-05-01", Status: model.Present})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	student := access.Caller{UserID: "u-1", Role: model.RoleStudent, StudentProfile: f.a.ID}
	_, _, err = f.rec.Mark(ctx, student, MarkInput{StudentID: f.a.ID, Date: "2024-05-01", Status: model.Present})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestStudentSeesOnlyOwnRecords(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, id := range []string{f.a.ID, f.b.ID} {
		_, _, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: id, Date: "2024-05-01", Status: model.Present})
		require.NoError(t, err)
	}
	_, _, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-04-30", Status: model.Absent})
	require.NoError(t, err)

	student := access.Caller{UserID: "u-1", Role: model.RoleStudent, StudentProfile: f.a.ID}
	list, err := f.rec.List(ctx, student, Filter{StudentID: f.b.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, rec := range list {
		assert.Equal(t, f.a.ID, rec.StudentID)
	}
	assert.True(t, list[0].Date.After(list[1].Date), "newest first")

	_, err = f.rec.List(ctx, access.Caller{Role: model.RoleStudent}, Filter{})
	assert.ErrorIs(t, err, apperr.ErrNoProfile)

	_, err = f.rec.List(ctx, access.Caller{Role: "guest"}, Filter{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestMarkPublishesEvent(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rec, _, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.b.ID, Date: "2024-05-01", Status: model.Absent})
	require.NoError(t, err)

	msgs, err := f.queue.Consume(ctx)
	require.NoError(t, err)
	msg := <-msgs
	assert.Equal(t, queue.TypeAttendanceMarked, msg.Type)

	var got Marked
	require.NoError(t, msg.Decode(&got))
	assert.Equal(t, Marked{AttendanceID: rec.ID, StudentID: f.b.ID, Status: model.Absent, Day: "2024-05-01"}, got)
}

func TestStatsAreCachedUntilNextMark(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := setup(t, WithStatsCache(cache.New(client, "hostel:"), time.Minute))
	ctx := context.Background()

	_, _, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01", Status: model.Present})
	require.NoError(t, err)

	stats, err := f.rec.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStats{Present: 1}, stats)
	assert.True(t, mr.Exists("hostel:attendance:stats:2024-05-01"))

	_, _, err = f.rec.Mark(ctx, admin, MarkInput{StudentID: f.b.ID, Date: "2024-05-01", Status: model.Absent})
	require.NoError(t, err)
	assert.False(t, mr.Exists("hostel:attendance:stats:2024-05-01"))

	stats, err = f.rec.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStats{Present: 1, Absent: 1}, stats)

	_, err = f.rec.Stats(ctx, access.Caller{Role: model.RoleStudent, StudentProfile: f.a.ID})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestStatsWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f := setup(t, WithStatsCache(cache.New(client, "hostel:"), time.Minute))
	ctx := context.Background()

	_, _, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01", Status: model.Absent})
	require.NoError(t, err)
	mr.Close()

	stats, err := f.rec.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceStats{Absent: 1}, stats)
}

func TestExportWorkbook(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, _, err := f.rec.Mark(ctx, admin, MarkInput{StudentID: f.a.ID, Date: "2024-05-01", Status: model.Present})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.rec.Export(ctx, admin, Filter{}, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CS2023001", rows[1][1])
	assert.Equal(t, "Present", rows[1][3])
}
