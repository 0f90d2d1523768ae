package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"printwatch/internal/model"
	"printwatch/internal/utils"
)

// Recorder queues history rows and writes them from a single background
// worker, keeping database latency out of the watcher's poll loop. Repeated
// temperature readings are deduplicated so an idle printer does not fill
// the table with identical rows.
type Recorder struct {
	store  *Store
	q      chan any
	closed chan struct{}
	dedup  *utils.SampleCache
	log    zerolog.Logger
}

func NewRecorder(store *Store, maxQueue int, log zerolog.Logger) *Recorder {
	if maxQueue <= 0 {
		maxQueue = 1000
	}
	r := &Recorder{
		store:  store,
		q:      make(chan any, maxQueue),
		closed: make(chan struct{}),
		dedup:  utils.NewSampleCache(10 * time.Minute),
		log:    log.With().Str("component", "recorder").Logger(),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	ctx := context.Background()
	for item := range r.q {
		var err error
		switch v := item.(type) {
		case *model.PollRecord:
			err = r.store.SavePoll(ctx, v)
		case *model.TemperatureSample:
			err = r.store.SaveTemperature(ctx, v)
		}
		if err != nil {
			r.log.Error().Err(err).Msg("history write failed")
		}
	}
	close(r.closed)
}

// RecordPoll queues one poll row. A full queue drops the row rather than
// stalling the watcher.
func (r *Recorder) RecordPoll(rec model.PollRecord) {
	r.enqueue(&rec)
}

// RecordTemperature queues one probe reading unless an identical fresh
// reading was already stored.
func (r *Recorder) RecordTemperature(s model.TemperatureSample) {
	key := fmt.Sprintf("%s/%s/%g", s.PrinterID, s.Probe, s.Target)
	if r.dedup.Unchanged(key, s.Current) {
		return
	}
	r.enqueue(&s)
}

func (r *Recorder) enqueue(item any) {
	select {
	case r.q <- item:
	default:
		r.log.Warn().Msg("history queue full, dropping row")
	}
}

// Close stops accepting rows, drains the queue, and waits for the worker.
func (r *Recorder) Close() {
	close(r.q)
	<-r.closed
}
