// Package notify fans fleet events out to the configured destinations:
// email, Discord-compatible webhooks, and desktop notifications.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"printwatch/internal/camera"
	"printwatch/internal/config"
	"printwatch/internal/printer"
)

// Event is one rendered notification. Frame, when present, is attached to
// destinations that can carry an image.
type Event struct {
	Subject string
	Body    string
	Frame   *camera.Frame
}

// Mailer delivers one event to a list of recipients.
type Mailer interface {
	Send(ctx context.Context, to []string, ev Event) error
}

// Dispatcher implements the watcher's completion callback. Destinations
// fail independently; one dead webhook never blocks the mail or the other
// hooks, and delivery errors are logged, not returned.
type Dispatcher struct {
	dest   config.DestinationConfig
	mailer Mailer // nil when no emails are configured
	client *http.Client
	log    zerolog.Logger
}

func NewDispatcher(dest config.DestinationConfig, smtp config.SMTPConfig, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		dest:   dest,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log.With().Str("component", "notify").Logger(),
	}
	if len(dest.Emails) > 0 && smtp.Enabled() {
		d.mailer = NewSMTPMailer(smtp)
	}
	return d
}

// SetMailer replaces the mail transport. Used by tests.
func (d *Dispatcher) SetMailer(m Mailer) { d.mailer = m }

// PrintComplete renders and dispatches one finished-print event.
func (d *Dispatcher) PrintComplete(ctx context.Context, p printer.Summary, frame *camera.Frame) {
	d.Dispatch(ctx, Event{
		Subject: fmt.Sprintf("Print complete on %s", p.Name),
		Body:    fmt.Sprintf("%s (%s) finished printing %s.", p.Name, p.Host, p.CurrentFile),
		Frame:   frame,
	})
}

// Dispatch delivers the event to every configured destination.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	if d.mailer != nil && len(d.dest.Emails) > 0 {
		if err := d.mailer.Send(ctx, d.dest.Emails, ev); err != nil {
			d.log.Error().Err(err).Strs("to", d.dest.Emails).Msg("mail delivery failed")
		}
	}
	for _, url := range d.dest.Webhooks {
		if err := d.postWebhook(ctx, url, ev); err != nil {
			d.log.Error().Err(err).Str("url", url).Msg("webhook delivery failed")
		}
	}
	if d.dest.Desktop {
		if err := desktopNotify(ev.Subject, ev.Body); err != nil {
			d.log.Error().Err(err).Msg("desktop notification failed")
		}
	}
}
