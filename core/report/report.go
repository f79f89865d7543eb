package report

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Report is the process-wide modification report. Append is safe for concurrent
// use; Flush writes pending entries to the append-only log file.
type Report struct {
	mu        sync.Mutex
	entries   []Entry
	unflushed []Entry
	path      string
	actor     string
	logger    *zap.Logger
}

// New creates a report writing to path. An empty path keeps the report in memory
// only (used by tests and dry runs).
func New(path, actor string, logger *zap.Logger) *Report {
	return &Report{path: path, actor: actor, logger: logger}
}

// Append records one entry. Time and Actor are filled in when left zero.
func (r *Report) Append(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Actor == "" {
		e.Actor = r.actor
	}

	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.unflushed = append(r.unflushed, e)
	r.mu.Unlock()

	r.logger.Debug("modification recorded",
		zap.String("kind", string(e.Kind)),
		zap.String("asset_id", e.AssetID),
		zap.String("album_id", e.AlbumID))
}

// Len returns the number of entries recorded so far.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Entries returns a copy of all recorded entries.
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Tail returns up to n most recent entries.
func (r *Report) Tail(n int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > len(r.entries) {
		n = len(r.entries)
	}
	out := make([]Entry, n)
	copy(out, r.entries[len(r.entries)-n:])
	return out
}

// CountByKind returns entry counts grouped by kind.
func (r *Report) CountByKind() map[Kind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[Kind]int)
	for _, e := range r.entries {
		counts[e.Kind]++
	}
	return counts
}

// Flush appends pending entries to the log file. It is a no-op for in-memory
// reports and when nothing is pending.
func (r *Report) Flush() error {
	r.mu.Lock()
	pending := r.unflushed
	r.unflushed = nil
	r.mu.Unlock()

	if r.path == "" || len(pending) == 0 {
		return nil
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	for _, e := range pending {
		if _, err := fmt.Fprintln(f, e.String()); err != nil {
			return fmt.Errorf("failed to write report entry: %w", err)
		}
	}
	return nil
}
