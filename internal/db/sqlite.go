// Package db persists the fleet's poll history in SQLite.
package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"printwatch/internal/model"
)

// Store wraps the sqlite connection.
type Store struct {
	ORM *gorm.DB
}

// Open opens the SQLite database using GORM and runs migrations.
func Open(path string) (*Store, error) {
	g, err := openORM(path)
	if err != nil {
		return nil, err
	}
	if err := migrateORM(g); err != nil {
		_ = closeORM(g)
		return nil, err
	}
	return &Store{ORM: g}, nil
}

func (s *Store) Close() error { return closeORM(s.ORM) }

// UpsertPrinter records or refreshes one configured printer.
func (s *Store) UpsertPrinter(ctx context.Context, p *model.Printer) error {
	if p.AddedAt.IsZero() {
		p.AddedAt = time.Now()
	}
	return upsertPrinter(ctx, s.ORM, p)
}

// SavePoll inserts one poll row.
func (s *Store) SavePoll(ctx context.Context, rec *model.PollRecord) error {
	return insertPollRecord(ctx, s.ORM, rec)
}

// SaveTemperature inserts one probe reading.
func (s *Store) SaveTemperature(ctx context.Context, sample *model.TemperatureSample) error {
	return insertTemperatureSample(ctx, s.ORM, sample)
}

// ListPrinters returns all known printers ordered by id.
func (s *Store) ListPrinters(ctx context.Context) ([]model.Printer, error) {
	var out []model.Printer
	if err := s.ORM.WithContext(ctx).Order("printer_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// PollHistory returns poll rows for one printer, newest first. A limit of
// zero returns everything.
func (s *Store) PollHistory(ctx context.Context, printerID string, limit int) ([]model.PollRecord, error) {
	q := s.ORM.WithContext(ctx).
		Where("printer_id = ?", printerID).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []model.PollRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// TemperatureHistory returns probe readings for one printer, newest first.
func (s *Store) TemperatureHistory(ctx context.Context, printerID string, limit int) ([]model.TemperatureSample, error) {
	q := s.ORM.WithContext(ctx).
		Where("printer_id = ?", printerID).
		Order("timestamp DESC, probe")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []model.TemperatureSample
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LatestPolls returns the newest poll row per printer.
func (s *Store) LatestPolls(ctx context.Context) ([]model.PollRecord, error) {
	// subquery: latest timestamp per printer
	sub := s.ORM.Table("poll_records").
		Select("printer_id, MAX(timestamp) as ts").
		Group("printer_id")
	var out []model.PollRecord
	err := s.ORM.WithContext(ctx).
		Table("poll_records as p").
		Select("p.*").
		Joins("JOIN (?) as l ON l.printer_id = p.printer_id AND l.ts = p.timestamp", sub).
		Order("p.printer_id").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
