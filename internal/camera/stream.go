// Package camera multiplexes a printer's MJPEG stream. The printer's camera
// server tolerates a single client, so one upstream HTTP connection is
// shared across any number of subscribers and the most recent frame is
// cached for callers that accept a possibly-stale image.
package camera

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"printwatch/pkg/flashforge"
)

const defaultBuffer = 16

// ErrNoFrame is returned by Snapshot when no frame arrived within the wait
// bound, typically because the camera is unreachable.
var ErrNoFrame = errors.New("no camera frame received")

// Stream owns at most one upstream connection to a printer camera and
// republishes its frames to all subscribers.
type Stream struct {
	url    string
	client *http.Client
	log    zerolog.Logger

	// SnapshotWait bounds how long Snapshot blocks for a live frame.
	SnapshotWait time.Duration

	bus *bus
	seq atomic.Uint64

	mu      sync.Mutex
	running bool
	runDone chan struct{}

	frameMu sync.RWMutex
	last    *Frame
}

func NewStream(url string, log zerolog.Logger) *Stream {
	return &Stream{
		url:          url,
		client:       &http.Client{},
		log:          log.With().Str("component", "camera").Str("url", url).Logger(),
		SnapshotWait: 10 * time.Second,
		bus:          newBus(defaultBuffer),
	}
}

// Subscription is a live receiver on the stream. Close it when done; the
// upstream connection is torn down once the last subscriber is gone.
type Subscription struct {
	C    <-chan Frame
	id   string
	done <-chan struct{}
	s    *Stream
}

func (sub *Subscription) Close() { sub.s.bus.unsubscribe(sub.id) }

// Done is closed when the upstream fetch that was serving this subscription
// ends. A later Subscribe starts a fresh one.
func (sub *Subscription) Done() <-chan struct{} { return sub.done }

// Subscribe returns a new receiver and spawns the upstream fetch task if
// none is running.
func (s *Stream) Subscribe() *Subscription {
	id, ch := s.bus.subscribe()
	s.mu.Lock()
	if !s.running {
		s.running = true
		s.runDone = make(chan struct{})
		go s.fetch(s.runDone)
	}
	done := s.runDone
	s.mu.Unlock()
	return &Subscription{C: ch, id: id, done: done, s: s}
}

// Snapshot waits for one freshly published frame, triggering the upstream
// connection if needed. It never returns the cached frame: the cache exists
// for paths that accept a stale image, see LastFrame.
func (s *Stream) Snapshot(ctx context.Context) (Frame, error) {
	sub := s.Subscribe()
	defer sub.Close()

	timer := time.NewTimer(s.SnapshotWait)
	defer timer.Stop()

	select {
	case f := <-sub.C:
		return f, nil
	case <-sub.Done():
		// The fetch may have published right before exiting.
		select {
		case f := <-sub.C:
			return f, nil
		default:
			return Frame{}, ErrNoFrame
		}
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-timer.C:
		return Frame{}, ErrNoFrame
	}
}

// LastFrame returns the most recently cached frame, if any. Last-writer-wins
// relative to the fetch task; a reader sees either the previous frame or the
// new one, never a torn one.
func (s *Stream) LastFrame() (Frame, bool) {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	if s.last == nil {
		return Frame{}, false
	}
	return *s.last, true
}

func (s *Stream) storeLast(f Frame) {
	s.frameMu.Lock()
	s.last = &f
	s.frameMu.Unlock()
}

// fetch is the single upstream task. It terminates when publishing reaches
// zero subscribers or when the upstream connection fails; the next Subscribe
// spawns a fresh task.
func (s *Stream) fetch(done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(done)
	}()

	resp, err := s.client.Get(s.url)
	if err != nil {
		s.log.Warn().Err(err).Msg("camera stream connect failed")
		return
	}
	defer resp.Body.Close()

	s.log.Debug().Msg("camera stream connected")
	reader := multipart.NewReader(resp.Body, flashforge.CamBoundary)
	for {
		part, err := reader.NextPart()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Warn().Err(err).Msg("camera stream read failed")
			}
			return
		}
		body, err := io.ReadAll(part)
		if err != nil {
			s.log.Warn().Err(err).Msg("camera frame read failed")
			return
		}
		frame := Frame{
			Body:     body,
			Header:   part.Header,
			Seq:      s.seq.Add(1),
			Captured: time.Now(),
		}
		s.storeLast(frame)
		if s.bus.publish(frame) == 0 {
			s.log.Debug().Msg("no more subscribers, stopping camera stream")
			return
		}
	}
}
