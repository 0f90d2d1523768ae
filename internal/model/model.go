// Package model defines the persisted history rows.
package model

import "time"

// Printer is one configured device, upserted at startup from the config
// file and enriched once the identity fetch succeeds.
type Printer struct {
	PrinterID string    `gorm:"column:printer_id;primaryKey" json:"printer_id"`
	Name      string    `gorm:"column:name" json:"name"`
	Host      string    `gorm:"column:host" json:"host"`
	Model     string    `gorm:"column:model" json:"model"`
	Serial    string    `gorm:"column:serial" json:"serial"`
	Firmware  string    `gorm:"column:firmware" json:"firmware"`
	AddedAt   time.Time `gorm:"column:added_at" json:"added_at"`
}

func (Printer) TableName() string { return "printers" }

// PollRecord captures one watcher poll of one printer. Offline polls are
// recorded too, with the status fields zeroed.
type PollRecord struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PrinterID     string    `gorm:"column:printer_id;index" json:"printer_id"`
	Online        bool      `gorm:"column:online" json:"online"`
	MachineStatus string    `gorm:"column:machine_status" json:"machine_status"`
	MoveMode      string    `gorm:"column:move_mode" json:"move_mode"`
	CurrentFile   string    `gorm:"column:current_file" json:"current_file"`
	ByteDone      uint32    `gorm:"column:byte_done" json:"byte_done"`
	ByteTotal     uint32    `gorm:"column:byte_total" json:"byte_total"`
	LayerDone     uint32    `gorm:"column:layer_done" json:"layer_done"`
	LayerTotal    uint32    `gorm:"column:layer_total" json:"layer_total"`
	Timestamp     time.Time `gorm:"column:timestamp;index" json:"timestamp"`
}

func (PollRecord) TableName() string { return "poll_records" }

// TemperatureSample is one probe reading taken alongside a poll. Probe
// names follow the device ("T0", "B").
type TemperatureSample struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PrinterID string    `gorm:"column:printer_id;index" json:"printer_id"`
	Probe     string    `gorm:"column:probe" json:"probe"`
	Current   float64   `gorm:"column:current" json:"current"`
	Target    float64   `gorm:"column:target" json:"target"`
	Timestamp time.Time `gorm:"column:timestamp;index" json:"timestamp"`
}

func (TemperatureSample) TableName() string { return "temperature_samples" }
