package collection

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"

	"go.uber.org/zap"
)

// TemporaryManager owns the date-bucket holding albums the engine creates for
// assets no rule classified. Their names follow a reserved pattern; nothing
// else in the collection may use it, which is what makes their deletion safe.
type TemporaryManager struct {
	c       *Collection
	pattern *regexp.Regexp
}

func newTemporaryManager(c *Collection) (*TemporaryManager, error) {
	p := c.cfg.TemporaryPattern
	if p == "" {
		p = `^\d{4}-\d{2}$`
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("invalid temporary album pattern %q: %w", p, err)
	}
	return &TemporaryManager{c: c, pattern: re}, nil
}

// IsTemporary reports whether the name matches the reserved holding pattern.
func (m *TemporaryManager) IsTemporary(name string) bool {
	return m.pattern.MatchString(name)
}

// BucketName returns the holding album name for an asset date.
func (m *TemporaryManager) BucketName(t time.Time) string {
	return t.Format("2006-01")
}

// EnsureBucket returns the holding album for the date, creating it when needed.
func (m *TemporaryManager) EnsureBucket(ctx context.Context, t time.Time, assetOwnerID string) (*catalog.AlbumRecord, error) {
	return m.c.CreateOrGetAlbumWithUser(ctx, m.BucketName(t), assetOwnerID)
}

// Healthy reports whether the album's member date spread fits inside the
// configured window. An unhealthy bucket means assets with wildly different
// dates ended up together, usually a date-extraction problem upstream.
func (m *TemporaryManager) Healthy(album *catalog.AlbumRecord) bool {
	if album.StartDate.IsZero() || album.EndDate.IsZero() {
		return true
	}
	return album.EndDate.Sub(album.StartDate) <= m.c.cfg.TemporaryHealthWindow()
}

// CleanupEmpty deletes holding albums with no members left, and unhealthy ones
// whose member date spread exceeds the window (their assets are re-bucketed on
// the next pass). Each candidate is refreshed immediately before deletion so a
// stale empty view can never delete an album that regained members.
func (m *TemporaryManager) CleanupEmpty(ctx context.Context) error {
	for _, album := range m.c.Albums() {
		if !m.IsTemporary(album.Name) || album.Unavailable {
			continue
		}
		fresh, err := m.c.ReloadAlbum(ctx, album)
		if err != nil {
			m.c.logger.Warn("temporary album refresh failed, skipping cleanup",
				zap.String("album_id", album.ID), zap.Error(err))
			continue
		}
		size, err := fresh.Size()
		if err != nil {
			return err
		}
		if size > 0 {
			if m.c.mode.Assertions() && !m.c.index.HasAlbum(fresh.ID) {
				return errmode.IntegrityFor("cleanup temporary albums", "album", fresh.ID,
					"refresh found %d members the rebuilt index never saw", size)
			}
			if m.Healthy(fresh) {
				continue
			}
			m.c.logger.Warn("temporary album date spread exceeds the health window",
				zap.String("name", fresh.Name),
				zap.Time("start", fresh.StartDate), zap.Time("end", fresh.EndDate))
		}
		if err := m.c.DeleteAlbum(ctx, fresh, DeleteReasonTemporary); err != nil {
			return err
		}
		m.c.logger.Info("removed temporary album",
			zap.String("name", fresh.Name), zap.Int("members", size))
	}
	return nil
}
