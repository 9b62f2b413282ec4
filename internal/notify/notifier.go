// Package notify turns domain events into messages for parents and
// students.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Notice is one outgoing message. To is an e-mail address or a phone
// number depending on Channel.
type Notice struct {
	Channel string
	To      string
	Name    string
	Subject string
	Body    string
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// LogNotifier writes notices to the log instead of delivering them.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notice) error {
	l.Logger.Info("notification",
		"channel", n.Channel,
		"to", n.To,
		"subject", n.Subject,
		"body", n.Body,
	)
	return nil
}

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGrid delivers e-mail notices through the SendGrid v3 API.
type SendGrid struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendGrid(key, fromName, fromEmail string) *SendGrid {
	return &SendGrid{
		key:        key,
		host:       sendgridHost,
		from:       sgmail.NewEmail(fromName, fromEmail),
		subjPrefix: "[" + fromName + "] ",
	}
}

func (s *SendGrid) Notify(ctx context.Context, n Notice) error {
	if n.Channel != ChannelEmail {
		return fmt.Errorf("sendgrid cannot deliver %s notices", n.Channel)
	}
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(n))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (s *SendGrid) prepare(n Notice) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + n.Subject
	p.AddTos(sgmail.NewEmail(n.Name, n.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", n.Body))
	return m
}

// EmailNotifier returns a SendGrid notifier when key is set, otherwise one
// that logs.
func EmailNotifier(key, fromName, fromEmail string, logger *slog.Logger) Notifier {
	if key == "" {
		logger.Info("SENDGRID_API_KEY not set, e-mail notices are logged")
		return LogNotifier{Logger: logger}
	}
	return NewSendGrid(key, fromName, fromEmail)
}
