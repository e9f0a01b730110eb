// Package mailer renders and dispatches the emails that carry invitation
// links, password reset links and one-time codes.
package mailer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
)

var ErrInvalidMessage = errors.New("mailer: message is missing a recipient, subject or body")

// Message is a single rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string

	// DisableTracking asks the provider not to rewrite links or add open
	// pixels. Set for anything that carries a token.
	DisableTracking bool
	Tags            map[string]string
}

func (m Message) validate() error {
	if m.To == "" || m.Subject == "" || (m.HTML == "" && m.Text == "") {
		return ErrInvalidMessage
	}
	return nil
}

// Dispatcher sends a message or reports why it could not.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// LogDispatcher writes messages to the log instead of sending them. Used in
// development and when no provider is configured.
type LogDispatcher struct {
	// IncludeBody also logs the text body. Never enable it outside of
	// development, the body holds live tokens.
	IncludeBody bool
}

func (d LogDispatcher) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	attrs := []any{
		slogx.Email(msg.To),
		slog.String("subject", msg.Subject),
		slog.Bool("tracking_disabled", msg.DisableTracking),
	}
	if d.IncludeBody {
		attrs = append(attrs, slog.String("body", msg.Text))
	}
	slogx.FromContext(ctx).Info("email not sent, log dispatcher", attrs...)
	return nil
}
