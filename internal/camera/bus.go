package camera

import (
	"net/textproto"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Frame is one JPEG image from the printer camera together with the MIME
// headers of its multipart part (at minimum Content-Length).
type Frame struct {
	Body     []byte
	Header   textproto.MIMEHeader
	Seq      uint64
	Captured time.Time
}

// bus fans frames out to subscriber channels without ever blocking the
// publisher. A subscriber that falls behind loses its oldest buffered
// frames first; frames are independent complete JPEGs, so skipping is safe.
type bus struct {
	mu     sync.RWMutex
	subs   map[string]chan Frame
	buffer int
}

func newBus(buffer int) *bus {
	return &bus{subs: make(map[string]chan Frame), buffer: buffer}
}

func (b *bus) subscribe() (string, chan Frame) {
	id := uuid.NewString()
	ch := make(chan Frame, b.buffer)
	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *bus) unsubscribe(id string) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

// publish delivers the frame to every subscriber and returns how many
// subscribers were attached. When a subscriber's buffer is full the oldest
// buffered frame is evicted to make room; if the subscriber refills the
// buffer concurrently the frame is dropped instead of blocking.
func (b *bus) publish(f Frame) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- f:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- f:
			default:
			}
		}
	}
	return len(b.subs)
}
