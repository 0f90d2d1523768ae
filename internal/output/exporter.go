// Package output renders poll history to files for offline analysis.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"printwatch/internal/model"
)

// History bundles one printer's exported rows.
type History struct {
	Printer      model.Printer             `json:"printer"`
	Polls        []model.PollRecord        `json:"polls"`
	Temperatures []model.TemperatureSample `json:"temperatures,omitempty"`
}

// WriteJSON writes histories to a JSON file with pretty formatting.
func WriteJSON(path string, histories []History) error {
	b, err := json.MarshalIndent(histories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteCSV flattens poll rows and writes them to a CSV file.
// Columns: printer_id,online,machine_status,move_mode,current_file,byte_done,byte_total,layer_done,layer_total,timestamp
func WriteCSV(path string, histories []History) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{"printer_id", "online", "machine_status", "move_mode", "current_file", "byte_done", "byte_total", "layer_done", "layer_total", "timestamp"}
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, h := range histories {
		for _, p := range h.Polls {
			rec := []string{
				p.PrinterID,
				boolDigit(p.Online),
				p.MachineStatus,
				p.MoveMode,
				p.CurrentFile,
				fmt.Sprintf("%d", p.ByteDone),
				fmt.Sprintf("%d", p.ByteTotal),
				fmt.Sprintf("%d", p.LayerDone),
				fmt.Sprintf("%d", p.LayerTotal),
				timeToRFC3339(p.Timestamp),
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
	}
	w.Flush()
	return w.Error()
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func timeToRFC3339(t time.Time) string { return t.Format(time.RFC3339Nano) }
