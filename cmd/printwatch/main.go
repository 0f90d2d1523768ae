// Command printwatch runs the fleet monitor: it polls every configured
// printer, records history, and sends completion notifications.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"printwatch/internal/config"
	"printwatch/internal/db"
	"printwatch/internal/model"
	"printwatch/internal/notify"
	"printwatch/internal/printer"
	"printwatch/internal/registry"
)

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to YAML config")
	flag.Parse()

	logger := newLogger("info")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfgPath).Msg("load config")
	}
	logger = newLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		logger.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	}()

	var store *db.Store
	var recorder *db.Recorder
	if cfg.Storage.Enabled {
		store, err = db.Open(cfg.Storage.DBPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Storage.DBPath).Msg("open history database")
		}
		defer store.Close()
		recorder = db.NewRecorder(store, cfg.Storage.MaxQueueSize, logger)
		defer recorder.Close()
	}

	reg := registry.New(logger)
	ids := make([]string, 0, len(cfg.Printers))
	for id := range cfg.Printers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		pc := cfg.Printers[id]
		c := reg.Add(printer.Config{ID: id, Host: pc.Host, APIPort: pc.APIPort, CamPort: pc.CameraPort})
		if store != nil {
			row := model.Printer{PrinterID: id, Name: id, Host: pc.Host}
			if info, err := c.Identity(); err == nil {
				row.Name = info.Name
				row.Model = info.ModelName
				row.Serial = info.SerialNumber
				row.Firmware = info.FirmwareVersion
			}
			if err := store.UpsertPrinter(ctx, &row); err != nil {
				logger.Warn().Err(err).Str("printer", id).Msg("printer upsert failed")
			}
		}
	}
	logger.Info().Int("printers", len(ids)).Msg("fleet configured")

	w := &registry.Watcher{
		Registry:           reg,
		Notifier:           notify.NewDispatcher(cfg.Notifications.OnDone, cfg.SMTP, logger),
		Interval:           cfg.Watcher.Interval,
		RecordTemperatures: cfg.Watcher.RecordTemperatures,
		Log:                logger,
	}
	if recorder != nil {
		w.Recorder = recorder
	}
	if err := w.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("watcher exited with error")
	}
}
