// Package attendance records one Present/Absent mark per student and
// calendar day.
package attendance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"hostel/internal/access"
	"hostel/internal/apperr"
	"hostel/internal/export"
	"hostel/internal/metrics"
	"hostel/internal/model"
	"hostel/internal/queue"
	"hostel/internal/store"
)

// MarkInput is the body of a mark. Date is a calendar date (2006-01-02) or
// an RFC 3339 timestamp.
type MarkInput struct {
	StudentID string                 `json:"studentId" validate:"required"`
	Date      string                 `json:"date" validate:"required"`
	Status    model.AttendanceStatus `json:"status" validate:"required,attendance_status"`
}

// Filter narrows a listing. Both fields are optional.
type Filter struct {
	Date      string
	StudentID string
}

// StatsCache keeps computed daily stats for a short while.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Marked is the payload of a queue.TypeAttendanceMarked event.
type Marked struct {
	AttendanceID string                 `json:"attendanceId"`
	StudentID    string                 `json:"studentId"`
	Status       model.AttendanceStatus `json:"status"`
	Day          string                 `json:"day"`
}

// Recorder coordinates attendance marks, listings and stats.
type Recorder struct {
	store    store.Store
	loc      *time.Location
	cache    StatsCache
	statsTTL time.Duration
	events   queue.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Recorder)

// WithStatsCache caches Stats results for ttl.
func WithStatsCache(c StatsCache, ttl time.Duration) Option {
	return func(r *Recorder) { r.cache, r.statsTTL = c, ttl }
}

// WithEvents publishes an event for every mark.
func WithEvents(p queue.Publisher) Option {
	return func(r *Recorder) { r.events = p }
}

// WithClock overrides the current time.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder builds a recorder cutting days in loc.
func NewRecorder(s store.Store, loc *time.Location, logger *slog.Logger, opts ...Option) *Recorder {
	if loc == nil {
		loc = time.UTC
	}
	r := &Recorder{store: s, loc: loc, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mark sets a student's status for a day. It overwrites the existing record
// of that day when there is one; created reports whether a new record was
// written.
func (r *Recorder) Mark(ctx context.Context, caller access.Caller, in MarkInput) (rec model.Attendance, created bool, err error) {
	if err := access.RequireAdmin(caller); err != nil {
		return model.Attendance{}, false, err
	}
	if err := model.Validate(in); err != nil {
		return model.Attendance{}, false, err
	}
	date, err := model.ParseDate(in.Date, r.loc)
	if err != nil {
		return model.Attendance{}, false, apperr.Invalid("date", err.Error())
	}
	if _, err := r.store.Students().Get(ctx, in.StudentID); err != nil {
		return model.Attendance{}, false, err
	}
	day := model.DayOf(date, r.loc)

	rec, created, err = r.upsert(ctx, in.StudentID, date, day, in.Status, caller.UserID)
	if err != nil && errors.Is(err, apperr.ErrDuplicate) {
		// Another mark for the same day won the insert.
		rec, created, err = r.upsert(ctx, in.StudentID, date, day, in.Status, caller.UserID)
	}
	if err != nil {
		return model.Attendance{}, false, err
	}

	outcome := "updated"
	if created {
		outcome = "created"
	}
	metrics.AttendanceMarks.WithLabelValues(string(rec.Status), outcome).Inc()
	if r.cache != nil {
		if err := r.cache.Delete(ctx, statsKey(day)); err != nil {
			r.logger.Warn("stats cache invalidation failed", "err", err)
		}
	}
	if err := queue.PublishJSON(ctx, r.events, queue.TypeAttendanceMarked, Marked{
		AttendanceID: rec.ID,
		StudentID:    rec.StudentID,
		Status:       rec.Status,
		Day:          day.Start.Format(time.DateOnly),
	}); err != nil {
		r.logger.Warn("attendance event not published", "attendance", rec.ID, "err", err)
	}

	if err := r.populate(ctx, []*model.Attendance{&rec}); err != nil {
		return model.Attendance{}, false, err
	}
	return rec, created, nil
}

func (r *Recorder) upsert(ctx context.Context, studentID string, date time.Time, day model.DayWindow, status model.AttendanceStatus, by string) (model.Attendance, bool, error) {
	existing, err := r.store.Attendance().FindForDay(ctx, studentID, day)
	switch {
	case err == nil:
		existing.Status = status
		existing.MarkedBy = by
		if err := r.store.Attendance().Update(ctx, existing); err != nil {
			return model.Attendance{}, false, err
		}
		return *existing, false, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return model.Attendance{}, false, err
	}

	rec := model.Attendance{
		StudentID: studentID,
		Date:      date,
		Day:       day.Start,
		Status:    status,
		MarkedBy:  by,
	}
	if err := r.store.Attendance().Create(ctx, &rec); err != nil {
		return model.Attendance{}, false, err
	}
	return rec, true, nil
}

// List returns populated records, newest first. Students only ever see
// their own records whatever StudentID they ask for.
func (r *Recorder) List(ctx context.Context, caller access.Caller, f Filter) ([]model.Attendance, error) {
	sf := store.AttendanceFilter{StudentID: f.StudentID}
	switch {
	case caller.IsAdmin():
	case caller.IsStudent():
		profile, err := access.StudentScope(caller)
		if err != nil {
			return nil, err
		}
		sf.StudentID = profile
	default:
		return nil, apperr.Forbidden("unknown role")
	}
	if f.Date != "" {
		date, err := model.ParseDate(f.Date, r.loc)
		if err != nil {
			return nil, apperr.Invalid("date", err.Error())
		}
		day := model.DayOf(date, r.loc)
		sf.From, sf.To = &day.Start, &day.Start
	}

	list, err := r.store.Attendance().List(ctx, sf)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*model.Attendance, len(list))
	for i := range list {
		ptrs[i] = &list[i]
	}
	if err := r.populate(ctx, ptrs); err != nil {
		return nil, err
	}
	return list, nil
}

// Stats counts today's Present and Absent marks.
func (r *Recorder) Stats(ctx context.Context, caller access.Caller) (model.AttendanceStats, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return model.AttendanceStats{}, err
	}
	day := model.DayOf(r.now(), r.loc)
	key := statsKey(day)

	var stats model.AttendanceStats
	if r.cache != nil {
		if err := r.cache.Get(ctx, key, &stats); err == nil {
			return stats, nil
		}
	}
	stats, err := r.store.Attendance().CountByStatus(ctx, day)
	if err != nil {
		return model.AttendanceStats{}, err
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, key, stats, r.statsTTL); err != nil {
			r.logger.Warn("stats cache write failed", "err", err)
		}
	}
	return stats, nil
}

// Export writes the listing selected by f as an xlsx workbook. Admin only.
func (r *Recorder) Export(ctx context.Context, caller access.Caller, f Filter, w io.Writer) error {
	if err := access.RequireAdmin(caller); err != nil {
		return err
	}
	list, err := r.List(ctx, caller, f)
	if err != nil {
		return err
	}
	return export.Attendance(w, list, r.loc)
}

// Location is the zone days are cut in.
func (r *Recorder) Location() *time.Location { return r.loc }

func (r *Recorder) populate(ctx context.Context, recs []*model.Attendance) error {
	ids := make([]string, len(recs))
	for i, a := range recs {
		ids[i] = a.StudentID
	}
	students, err := store.StudentsByID(ctx, r.store.Students(), ids)
	if err != nil {
		return err
	}
	for _, a := range recs {
		if st, ok := students[a.StudentID]; ok {
			a.Student = &model.StudentSummary{ID: st.ID, FullName: st.FullName, RollNumber: st.RollNumber}
		}
	}
	return nil
}

func statsKey(day model.DayWindow) string {
	return "attendance:stats:" + day.Start.Format(time.DateOnly)
}
