package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hostel/internal/apperr"
	"hostel/internal/attendance"
	"hostel/internal/complaints"
	"hostel/internal/metrics"
	"hostel/internal/model"
	"hostel/internal/queue"
	"hostel/internal/store"
)

// errSkipped marks events that need no notice, e.g. a student without a
// parent contact or an account.
var errSkipped = errors.New("nothing to notify")

// Dispatcher consumes domain events. Absence marks go to the parent contact
// over SMS; complaint status changes go to the student's account e-mail.
type Dispatcher struct {
	store  store.Store
	email  Notifier
	sms    Notifier
	logger *slog.Logger
}

func NewDispatcher(s store.Store, email, sms Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: s, email: email, sms: sms, logger: logger}
}

// Run handles messages until ctx is done or the queue closes. Failed
// notices are logged and counted; they do not stop the loop.
func (d *Dispatcher) Run(ctx context.Context, q queue.Queue) error {
	msgs, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := d.Handle(ctx, msg); err != nil {
				d.logger.Error("notification failed", "type", msg.Type, "err", err)
			}
		}
	}
}

// Handle processes one message.
func (d *Dispatcher) Handle(ctx context.Context, msg queue.Message) error {
	var (
		kind string
		err  error
	)
	switch msg.Type {
	case queue.TypeAttendanceMarked:
		kind = "absence"
		err = d.absence(ctx, msg)
	case queue.TypeComplaintUpdated:
		kind = "complaint"
		err = d.complaint(ctx, msg)
	default:
		d.logger.Debug("ignoring event", "type", msg.Type)
		return nil
	}

	switch {
	case err == nil:
		metrics.Notifications.WithLabelValues(kind, "sent").Inc()
		return nil
	case errors.Is(err, errSkipped):
		metrics.Notifications.WithLabelValues(kind, "skipped").Inc()
		d.logger.Debug("notification skipped", "kind", kind, "reason", err)
		return nil
	default:
		metrics.Notifications.WithLabelValues(kind, "failed").Inc()
		return err
	}
}

func (d *Dispatcher) absence(ctx context.Context, msg queue.Message) error {
	var ev attendance.Marked
	if err := msg.Decode(&ev); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	if ev.Status != model.Absent {
		return fmt.Errorf("%w: marked %s", errSkipped, ev.Status)
	}
	st, err := d.student(ctx, ev.StudentID)
	if err != nil {
		return err
	}
	if st.ParentContactNumber == "" {
		return fmt.Errorf("%w: no parent contact for %s", errSkipped, st.RollNumber)
	}
	return d.sms.Notify(ctx, Notice{
		Channel: ChannelSMS,
		To:      st.ParentContactNumber,
		Subject: "Absence",
		Body:    fmt.Sprintf("%s (%s) was marked absent on %s.", st.FullName, st.RollNumber, ev.Day),
	})
}

func (d *Dispatcher) complaint(ctx context.Context, msg queue.Message) error {
	var ev complaints.Updated
	if err := msg.Decode(&ev); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	st, err := d.student(ctx, ev.StudentID)
	if err != nil {
		return err
	}
	if st.UserID == "" {
		return fmt.Errorf("%w: %s has no account", errSkipped, st.RollNumber)
	}
	u, err := d.store.Users().Get(ctx, st.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: account of %s is gone", errSkipped, st.RollNumber)
	}
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Hi %s,\n\nYour complaint is now %q (was %q).", st.FullName, ev.Status, ev.Previous)
	if ev.AdminReply != "" {
		body += "\n\nReply from the hostel office: " + ev.AdminReply
	}
	return d.email.Notify(ctx, Notice{
		Channel: ChannelEmail,
		To:      u.Email,
		Name:    u.Name,
		Subject: "Complaint " + string(ev.Status),
		Body:    body,
	})
}

func (d *Dispatcher) student(ctx context.Context, id string) (*model.Student, error) {
	st, err := d.store.Students().Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%w: student %s is gone", errSkipped, id)
	}
	return st, err
}
