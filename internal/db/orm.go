package db

import (
	"context"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"printwatch/internal/model"
)

// openORM opens a GORM SQLite connection with sane defaults.
func openORM(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// migrateORM ensures the schema for all models exists.
func migrateORM(db *gorm.DB) error {
	return db.AutoMigrate(&model.Printer{}, &model.PollRecord{}, &model.TemperatureSample{})
}

// closeORM closes the underlying SQL DB associated with the GORM connection.
func closeORM(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// insertPollRecord persists one poll row using the provided context.
func insertPollRecord(ctx context.Context, db *gorm.DB, rec *model.PollRecord) error {
	return db.WithContext(ctx).Create(rec).Error
}

// insertTemperatureSample persists one probe reading.
func insertTemperatureSample(ctx context.Context, db *gorm.DB, s *model.TemperatureSample) error {
	return db.WithContext(ctx).Create(s).Error
}

// upsertPrinter inserts or updates a printer definition.
func upsertPrinter(ctx context.Context, db *gorm.DB, p *model.Printer) error {
	return db.WithContext(ctx).Save(p).Error
}
