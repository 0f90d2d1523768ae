package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printwatch/internal/model"
)

func sampleHistories() []History {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []History{{
		Printer: model.Printer{PrinterID: "garage", Host: "192.168.1.50"},
		Polls: []model.PollRecord{{
			PrinterID:     "garage",
			Online:        true,
			MachineStatus: "BUILDING_FROM_SD",
			MoveMode:      "MOVING",
			CurrentFile:   "benchy.gcode",
			ByteDone:      500,
			ByteTotal:     1000,
			LayerDone:     25,
			LayerTotal:    50,
			Timestamp:     ts,
		}},
	}}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, WriteJSON(path, sampleHistories()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []History
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "garage", got[0].Printer.PrinterID)
	require.Len(t, got[0].Polls, 1)
	assert.Equal(t, "benchy.gcode", got[0].Polls[0].CurrentFile)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, WriteCSV(path, sampleHistories()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "printer_id", rows[0][0])
	assert.Equal(t, []string{
		"garage", "1", "BUILDING_FROM_SD", "MOVING", "benchy.gcode",
		"500", "1000", "25", "50", "2026-08-01T12:00:00Z",
	}, rows[1])
}
