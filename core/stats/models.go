package stats

import "time"

// RunRecord is the persisted state of one organize run.
type RunRecord struct {
	ID          uint      `gorm:"primaryKey"`
	RunID       string    `gorm:"uniqueIndex;size:64"`
	StartedAt   time.Time `gorm:"index"`
	FinishedAt  *time.Time
	Processed   int
	LastAssetID string `gorm:"size:64"`
	// CountersJSON is the JSON-encoded counter map at the last persist.
	CountersJSON string
}

// TableName keeps the table name stable across gorm naming strategy changes.
func (RunRecord) TableName() string { return "runs" }
