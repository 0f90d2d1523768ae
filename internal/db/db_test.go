package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printwatch/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPrinterUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertPrinter(ctx, &model.Printer{
		PrinterID: "garage",
		Name:      "garage",
		Host:      "192.168.1.50",
	}))
	// Second upsert with identity details keeps a single row.
	require.NoError(t, store.UpsertPrinter(ctx, &model.Printer{
		PrinterID: "garage",
		Name:      "garage",
		Host:      "192.168.1.50",
		Model:     "Flashforge Adventurer 3",
		Serial:    "SN123",
		AddedAt:   time.Now(),
	}))

	printers, err := store.ListPrinters(ctx)
	require.NoError(t, err)
	require.Len(t, printers, 1)
	assert.Equal(t, "Flashforge Adventurer 3", printers[0].Model)
}

func TestPollHistoryOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SavePoll(ctx, &model.PollRecord{
			PrinterID: "garage",
			Online:    true,
			LayerDone: uint32(i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.SavePoll(ctx, &model.PollRecord{
		PrinterID: "attic",
		Online:    false,
		Timestamp: base,
	}))

	rows, err := store.PollHistory(ctx, "garage", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint32(4), rows[0].LayerDone, "newest first")
	assert.Equal(t, uint32(3), rows[1].LayerDone)

	all, err := store.PollHistory(ctx, "garage", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestLatestPolls(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for _, rec := range []model.PollRecord{
		{PrinterID: "garage", CurrentFile: "old.gcode", Timestamp: base},
		{PrinterID: "garage", CurrentFile: "new.gcode", Timestamp: base.Add(time.Minute)},
		{PrinterID: "attic", Online: true, Timestamp: base},
	} {
		require.NoError(t, store.SavePoll(ctx, &rec))
	}

	latest, err := store.LatestPolls(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "attic", latest[0].PrinterID)
	assert.Equal(t, "garage", latest[1].PrinterID)
	assert.Equal(t, "new.gcode", latest[1].CurrentFile)
}

func TestRecorderWritesAndDeduplicates(t *testing.T) {
	store := openTestStore(t)
	rec := NewRecorder(store, 100, zerolog.Nop())

	rec.RecordPoll(model.PollRecord{PrinterID: "garage", Online: true, Timestamp: time.Now()})

	sample := model.TemperatureSample{
		PrinterID: "garage",
		Probe:     "T0",
		Current:   210,
		Target:    220,
		Timestamp: time.Now(),
	}
	rec.RecordTemperature(sample)
	rec.RecordTemperature(sample) // identical, dropped
	sample.Current = 211
	rec.RecordTemperature(sample)

	rec.Close()

	ctx := context.Background()
	polls, err := store.PollHistory(ctx, "garage", 0)
	require.NoError(t, err)
	assert.Len(t, polls, 1)

	temps, err := store.TemperatureHistory(ctx, "garage", 0)
	require.NoError(t, err)
	assert.Len(t, temps, 2)
}
