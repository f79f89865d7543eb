package stats

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Counter names used by the engine. Per-tag and per-album counters are derived
// with TagCounter and AlbumCounter.
const (
	CounterProcessed    = "processed"
	CounterClassified   = "classified"
	CounterConflicts    = "conflicts"
	CounterUnclassified = "unclassified"
	CounterErrors       = "errors"
	CounterRecovered    = "recovered"
)

// TagCounter returns the counter name for one tag.
func TagCounter(tag string) string { return "tag:" + tag }

// AlbumCounter returns the counter name for one album.
func AlbumCounter(name string) string { return "album:" + name }

// Checkpoint is the resume position of a sequential run.
type Checkpoint struct {
	// RunID is the run the checkpoint belongs to.
	RunID string
	// LastAssetID is the last fully processed asset.
	LastAssetID string
	// Processed is the cumulative processed count.
	Processed int
}

// Manager accumulates counters for one run and persists them. A nil *gorm.DB is
// allowed and turns persistence into a no-op (tests, degraded mode).
type Manager struct {
	mu       sync.Mutex
	counters map[string]int
	last     string

	db        *gorm.DB
	runID     string
	startedAt time.Time
}

// NewManager opens the run record for runID. Migration runs once per process but
// is idempotent, so calling it here keeps bootstrap simple.
func NewManager(db *gorm.DB, runID string) (*Manager, error) {
	m := &Manager{
		counters:  make(map[string]int),
		db:        db,
		runID:     runID,
		startedAt: time.Now(),
	}
	if db == nil {
		return m, nil
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate stats schema: %w", err)
	}
	rec := RunRecord{RunID: runID, StartedAt: m.startedAt}
	if err := db.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}
	return m, nil
}

// Inc adds delta to the named counter.
func (m *Manager) Inc(name string, delta int) {
	m.mu.Lock()
	m.counters[name] += delta
	m.mu.Unlock()
}

// Get returns the current value of the named counter.
func (m *Manager) Get(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// Counters returns a copy of all counters.
func (m *Manager) Counters() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

// SaveCheckpoint persists the resume position after one asset. Sequential mode
// calls this after every asset; pool mode never calls it.
func (m *Manager) SaveCheckpoint(lastAssetID string) error {
	m.mu.Lock()
	m.last = lastAssetID
	processed := m.counters[CounterProcessed]
	encoded, _ := json.Marshal(m.counters)
	m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Model(&RunRecord{}).Where("run_id = ?", m.runID).Updates(map[string]any{
		"last_asset_id": lastAssetID,
		"processed":     processed,
		"counters_json": string(encoded),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Finish marks the run record complete.
func (m *Manager) Finish() error {
	m.mu.Lock()
	encoded, _ := json.Marshal(m.counters)
	processed := m.counters[CounterProcessed]
	m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	now := time.Now()
	err := m.db.Model(&RunRecord{}).Where("run_id = ?", m.runID).Updates(map[string]any{
		"finished_at":   &now,
		"processed":     processed,
		"counters_json": string(encoded),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to finish run record: %w", err)
	}
	return nil
}

// LastCheckpoint returns the most recent unfinished run's checkpoint, or nil when
// there is nothing to resume from.
func LastCheckpoint(db *gorm.DB) (*Checkpoint, error) {
	if db == nil {
		return nil, nil
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate stats schema: %w", err)
	}
	var rec RunRecord
	err := db.Where("finished_at IS NULL AND last_asset_id <> ''").
		Order("started_at DESC").First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return &Checkpoint{RunID: rec.RunID, LastAssetID: rec.LastAssetID, Processed: rec.Processed}, nil
}
