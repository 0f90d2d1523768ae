package registry

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"printwatch/internal/camera"
	"printwatch/internal/model"
	"printwatch/internal/printer"
)

// DefaultInterval is the poll period used when the config leaves it unset.
const DefaultInterval = 60 * time.Second

// CompletionNotifier receives one event per finished print. The frame is
// the most recent cached camera image, nil when none was ever captured.
type CompletionNotifier interface {
	PrintComplete(ctx context.Context, p printer.Summary, frame *camera.Frame)
}

// PollRecorder persists poll history. Implementations must not block the
// watcher; the db recorder queues writes internally.
type PollRecorder interface {
	RecordPoll(rec model.PollRecord)
	RecordTemperature(sample model.TemperatureSample)
}

// Watcher polls every registered printer on a fixed interval, records
// history, and fires at most one completion notification per printer and
// file. The first tick happens one full interval after Run starts.
type Watcher struct {
	Registry *Registry
	Notifier CompletionNotifier
	Recorder PollRecorder // optional
	Interval time.Duration

	// RecordTemperatures adds one M105 round trip per online printer per
	// tick when the recorder is set.
	RecordTemperatures bool

	Log zerolog.Logger
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := w.Log.With().Str("component", "watcher").Logger()
	log.Info().Dur("interval", interval).Msg("watcher started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("watcher stopped")
			return nil
		case <-ticker.C:
			w.tick(ctx, log)
		}
	}
}

// tick runs one poll pass: snapshot the ledger, service every printer,
// commit the updated ledger. Ledger reads and writes go through the copy so
// the registry lock is never held across network I/O.
func (w *Watcher) tick(ctx context.Context, log zerolog.Logger) {
	printers := w.Registry.List()
	ledger := w.Registry.LedgerSnapshot()
	now := time.Now()

	for _, p := range printers {
		if ctx.Err() != nil {
			return
		}
		w.poll(ctx, log, p, ledger, now)
	}
	w.Registry.CommitLedger(ledger)
}

func (w *Watcher) poll(ctx context.Context, log zerolog.Logger, p *printer.Client, ledger map[string]string, now time.Time) {
	st, err := p.RefreshStatus()
	if err != nil {
		log.Debug().Err(err).Str("printer", p.ID()).Msg("poll failed")
		if w.Recorder != nil {
			w.Recorder.RecordPoll(model.PollRecord{
				PrinterID: p.ID(),
				Online:    false,
				Timestamp: now,
			})
		}
		return
	}

	rec := model.PollRecord{
		PrinterID:     p.ID(),
		Online:        true,
		MachineStatus: st.MachineStatus,
		MoveMode:      st.MoveMode,
		CurrentFile:   st.CurrentFile,
		Timestamp:     now,
	}

	if st.CurrentFile != "" {
		prog, err := p.Progress()
		if err != nil {
			log.Warn().Err(err).Str("printer", p.ID()).Msg("progress fetch failed")
		} else {
			rec.ByteDone, rec.ByteTotal = prog.Byte.Done, prog.Byte.Total
			rec.LayerDone, rec.LayerTotal = prog.Layer.Done, prog.Layer.Total
			if prog.Layer.Complete() && ledger[p.ID()] != st.CurrentFile {
				w.notify(ctx, log, p, st.CurrentFile)
				ledger[p.ID()] = st.CurrentFile
			}
		}
	}

	if w.Recorder != nil {
		w.Recorder.RecordPoll(rec)
		if w.RecordTemperatures {
			w.sampleTemperatures(log, p, now)
		}
	}
}

// notify dispatches one completion event. The ledger entry is written by
// the caller whether or not delivery succeeds, so a flapping destination
// cannot spam the same finished print.
func (w *Watcher) notify(ctx context.Context, log zerolog.Logger, p *printer.Client, file string) {
	if w.Notifier == nil {
		return
	}
	var frame *camera.Frame
	if f, ok := p.Camera().LastFrame(); ok {
		frame = &f
	}
	log.Info().Str("printer", p.ID()).Str("file", file).Msg("print complete")
	w.Notifier.PrintComplete(ctx, p.Summary(), frame)
}

func (w *Watcher) sampleTemperatures(log zerolog.Logger, p *printer.Client, now time.Time) {
	temps, err := p.Temperatures()
	if err != nil {
		log.Warn().Err(err).Str("printer", p.ID()).Msg("temperature fetch failed")
		return
	}
	for probe, t := range temps {
		w.Recorder.RecordTemperature(model.TemperatureSample{
			PrinterID: p.ID(),
			Probe:     probe,
			Current:   t.Current,
			Target:    t.Target,
			Timestamp: now,
		})
	}
}
