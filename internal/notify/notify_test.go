package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printwatch/internal/camera"
	"printwatch/internal/config"
	"printwatch/internal/printer"
)

type fakeMailer struct {
	mu      sync.Mutex
	sends   int
	to      []string
	event   Event
	sendErr error
}

func (f *fakeMailer) Send(_ context.Context, to []string, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	f.to = to
	f.event = ev
	return f.sendErr
}

func newDispatcher(dest config.DestinationConfig) *Dispatcher {
	return NewDispatcher(dest, config.SMTPConfig{}, zerolog.Nop())
}

func TestPrintCompleteRendersEvent(t *testing.T) {
	mailer := &fakeMailer{}
	d := newDispatcher(config.DestinationConfig{Emails: []string{"me@example.com"}})
	d.SetMailer(mailer)

	d.PrintComplete(context.Background(), printer.Summary{
		Name:        "garage",
		Host:        "192.168.1.50",
		CurrentFile: "benchy.gcode",
	}, nil)

	require.Equal(t, 1, mailer.sends)
	assert.Equal(t, []string{"me@example.com"}, mailer.to)
	assert.Equal(t, "Print complete on garage", mailer.event.Subject)
	assert.Equal(t, "garage (192.168.1.50) finished printing benchy.gcode.", mailer.event.Body)
}

func TestWebhookJSONWithoutFrame(t *testing.T) {
	var got webhookPayload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	d := newDispatcher(config.DestinationConfig{Webhooks: []string{srv.URL}})
	d.Dispatch(context.Background(), Event{Subject: "Print complete on garage", Body: "done"})

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "printwatch", got.Username)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Print complete on garage", got.Embeds[0].Title)
	assert.Equal(t, "done", got.Embeds[0].Description)
	assert.Nil(t, got.Embeds[0].Image)
}

func TestWebhookMultipartWithFrame(t *testing.T) {
	var payload webhookPayload
	var snapshot []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("payload_json")), &payload))
		f, _, err := r.FormFile("files[0]")
		require.NoError(t, err)
		defer f.Close()
		snapshot, err = io.ReadAll(f)
		require.NoError(t, err)
	}))
	defer srv.Close()

	d := newDispatcher(config.DestinationConfig{Webhooks: []string{srv.URL}})
	d.Dispatch(context.Background(), Event{
		Subject: "Print complete on garage",
		Body:    "done",
		Frame:   &camera.Frame{Body: []byte("jpeg-bytes")},
	})

	require.Len(t, payload.Embeds, 1)
	require.NotNil(t, payload.Embeds[0].Image)
	assert.Equal(t, "attachment://snapshot.jpg", payload.Embeds[0].Image.URL)
	assert.Equal(t, []byte("jpeg-bytes"), snapshot)
}

func TestDestinationsFailIndependently(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer bad.Close()
	var goodHits int
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		goodHits++
	}))
	defer good.Close()

	mailer := &fakeMailer{}
	d := newDispatcher(config.DestinationConfig{
		Emails:   []string{"me@example.com"},
		Webhooks: []string{bad.URL, good.URL},
	})
	d.SetMailer(mailer)

	d.Dispatch(context.Background(), Event{Subject: "s", Body: "b"})

	assert.Equal(t, 1, goodHits, "healthy webhook still delivered")
	assert.Equal(t, 1, mailer.sends, "mail still delivered")
}

func TestDesktopDestination(t *testing.T) {
	orig := desktopNotify
	defer func() { desktopNotify = orig }()

	var title, body string
	desktopNotify = func(t, b string) error {
		title, body = t, b
		return nil
	}

	d := newDispatcher(config.DestinationConfig{Desktop: true})
	d.Dispatch(context.Background(), Event{Subject: "Print complete on garage", Body: "done"})

	assert.Equal(t, "Print complete on garage", title)
	assert.Equal(t, "done", body)
}

func TestBuildMessagePlain(t *testing.T) {
	msg := string(buildMessage("from@example.com", Event{
		Subject: "Print complete on garage",
		Body:    "done",
	}))
	assert.Contains(t, msg, "From: from@example.com\r\n")
	// Recipients are blind-copied, never listed in a header.
	assert.Contains(t, msg, "To: from@example.com\r\n")
	assert.Contains(t, msg, "Subject: Print complete on garage\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain")
	assert.Contains(t, msg, "done")
	assert.NotContains(t, msg, "multipart/mixed")
}

func TestBuildMessageWithAttachment(t *testing.T) {
	msg := string(buildMessage("from@example.com", Event{
		Subject: "s",
		Body:    "b",
		Frame:   &camera.Frame{Body: []byte(strings.Repeat("x", 200))},
	}))
	assert.Contains(t, msg, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, msg, `attachment; filename="snapshot.jpg"`)
	assert.Contains(t, msg, "Content-Transfer-Encoding: base64")
	// 200 bytes of base64 must be folded at 76 columns.
	assert.Contains(t, msg, strings.Repeat("eHh4", 19)+"\r\n")
}
