// Command export dumps recorded poll history to JSON and/or CSV files.
package main

import (
	"context"
	"flag"
	"log"

	"printwatch/internal/db"
	"printwatch/internal/output"
)

func main() {
	var dbPath, printerID, outJSON, outCSV string
	var limit int
	flag.StringVar(&dbPath, "db", "printwatch.db", "path to the history database")
	flag.StringVar(&printerID, "printer", "", "limit export to one printer id")
	flag.StringVar(&outJSON, "json", "", "path to write JSON export (optional)")
	flag.StringVar(&outCSV, "csv", "", "path to write CSV export (optional)")
	flag.IntVar(&limit, "limit", 0, "max poll rows per printer (0 = all)")
	flag.Parse()

	if outJSON == "" && outCSV == "" {
		log.Fatalf("no output specified: set --json and/or --csv")
	}

	store, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("open %s: %v", dbPath, err)
	}
	defer store.Close()

	ctx := context.Background()
	printers, err := store.ListPrinters(ctx)
	if err != nil {
		log.Fatalf("list printers: %v", err)
	}

	var histories []output.History
	for _, p := range printers {
		if printerID != "" && p.PrinterID != printerID {
			continue
		}
		polls, err := store.PollHistory(ctx, p.PrinterID, limit)
		if err != nil {
			log.Fatalf("poll history for %s: %v", p.PrinterID, err)
		}
		temps, err := store.TemperatureHistory(ctx, p.PrinterID, limit)
		if err != nil {
			log.Fatalf("temperature history for %s: %v", p.PrinterID, err)
		}
		histories = append(histories, output.History{Printer: p, Polls: polls, Temperatures: temps})
	}
	if printerID != "" && len(histories) == 0 {
		log.Fatalf("printer %q not found in %s", printerID, dbPath)
	}

	if outJSON != "" {
		if err := output.WriteJSON(outJSON, histories); err != nil {
			log.Printf("write json error: %v", err)
		}
	}
	if outCSV != "" {
		if err := output.WriteCSV(outCSV, histories); err != nil {
			log.Printf("write csv error: %v", err)
		}
	}
}
