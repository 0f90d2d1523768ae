// Package registry holds the fleet: the id-to-client map, the notification
// ledger that deduplicates completion events, and the watcher that drives
// both on a fixed interval.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"printwatch/internal/printer"
)

// ErrUnknownPrinter is returned for ids that were never configured.
var ErrUnknownPrinter = errors.New("unknown printer")

// Registry is the concurrent printer collection. Its lock protects only the
// id map and the ledger; every client carries its own lock, so two printers
// are always serviced independently and no network I/O ever happens under
// the registry lock.
type Registry struct {
	log zerolog.Logger

	mu       sync.RWMutex
	printers map[string]*printer.Client
	notified map[string]string // printer id -> last file a notification went out for
}

func New(log zerolog.Logger) *Registry {
	return &Registry{
		log:      log.With().Str("component", "registry").Logger(),
		printers: make(map[string]*printer.Client),
		notified: make(map[string]string),
	}
}

// Add creates the client for a configured printer and registers it. One
// identity fetch is attempted immediately; failure is logged and the fetch
// is retried lazily on later access.
func (r *Registry) Add(cfg printer.Config) *printer.Client {
	c := printer.New(cfg, r.log)
	if _, err := c.Identity(); err != nil {
		r.log.Warn().Err(err).Str("printer", cfg.ID).Msg("initial identity fetch failed")
	}

	r.mu.Lock()
	r.printers[cfg.ID] = c
	r.mu.Unlock()
	r.log.Debug().Str("printer", cfg.ID).Str("host", cfg.Host).Msg("printer added")
	return c
}

// Get returns the client handle for an id.
func (r *Registry) Get(id string) (*printer.Client, error) {
	r.mu.RLock()
	c, ok := r.printers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrinter, id)
	}
	return c, nil
}

// List copies the current handle set under a brief lock.
func (r *Registry) List() []*printer.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*printer.Client, 0, len(r.printers))
	for _, c := range r.printers {
		out = append(out, c)
	}
	return out
}

// IDs returns the configured printer ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.printers))
	for id := range r.printers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Summaries returns the cached view of every printer. Client locks are
// taken one at a time, never the registry lock across them.
func (r *Registry) Summaries() []printer.Summary {
	clients := r.List()
	out := make([]printer.Summary, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LedgerSnapshot copies the notification ledger for one watcher tick.
func (r *Registry) LedgerSnapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.notified))
	for id, file := range r.notified {
		out[id] = file
	}
	return out
}

// CommitLedger replaces the ledger with the tick's updated copy.
func (r *Registry) CommitLedger(notified map[string]string) {
	r.mu.Lock()
	r.notified = notified
	r.mu.Unlock()
}
