package collection

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/report"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"

	"go.uber.org/zap"
)

// UnavailableManager is the per-album circuit breaker for recoverable reload
// failures. Crossing the per-album threshold inside the sliding window marks
// the album unavailable so the rest of the run skips it instead of hammering a
// broken endpoint. A second, global threshold bounds how many distinct albums
// may trip before the condition is treated as a systemic outage rather than a
// few bad albums.
type UnavailableManager struct {
	c *Collection

	mu       sync.Mutex
	tripped  map[string]string // album id -> album name
	reported bool
}

func newUnavailableManager(c *Collection) *UnavailableManager {
	return &UnavailableManager{c: c, tripped: make(map[string]string)}
}

// NoteReloadFailure records one recoverable reload failure. When the album's
// failure count inside the window reaches the threshold, the album is marked
// unavailable. The returned error is non-nil only when the global threshold is
// crossed under fail-fast error handling.
func (m *UnavailableManager) NoteReloadFailure(album *catalog.AlbumRecord, code int, message string) error {
	album.RecordError(code, message)
	window := m.c.cfg.UnavailableWindow()
	n := album.ErrorsSince(time.Now().Add(-window))
	if n < m.c.cfg.UnavailableThreshold {
		m.c.logger.Debug("album reload failure recorded",
			zap.String("album_id", album.ID), zap.Int("failures_in_window", n), zap.Int("code", code))
		return nil
	}

	if !album.Unavailable {
		album.Unavailable = true
		m.c.logger.Warn("album marked unavailable",
			zap.String("album_id", album.ID), zap.String("name", album.Name),
			zap.Int("failures_in_window", n), zap.Duration("window", window))
	}

	m.mu.Lock()
	m.tripped[album.ID] = album.Name
	total := len(m.tripped)
	m.mu.Unlock()

	if total >= m.c.cfg.GlobalUnavailableThreshold && m.c.cfg.GlobalUnavailableThreshold > 0 {
		if m.c.mode.FailFast() {
			return fmt.Errorf("%d albums unavailable, remote service looks unhealthy", total)
		}
		m.reportOnce(total)
	}
	return nil
}

// Count returns how many distinct albums are currently marked unavailable.
func (m *UnavailableManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tripped)
}

// Names returns the names of the unavailable albums, sorted.
func (m *UnavailableManager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.tripped))
	for _, name := range m.tripped {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reportOnce emits one summary report entry for the whole run, not one per
// subsequent failure.
func (m *UnavailableManager) reportOnce(total int) {
	m.mu.Lock()
	already := m.reported
	m.reported = true
	m.mu.Unlock()
	if already {
		return
	}
	m.c.rep.Append(report.Entry{
		Kind:  report.KindWarningUnavailableAlbums,
		Extra: map[string]string{"count": fmt.Sprintf("%d", total)},
	})
	m.c.logger.Error("unavailable album count crossed the global threshold", zap.Int("count", total))
}
