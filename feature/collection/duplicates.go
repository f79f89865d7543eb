package collection

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/report"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"

	"go.uber.org/zap"
)

// DuplicateManager resolves same-named albums. Merging is only legal on albums
// explicitly flagged as duplicates; the flag is the safety interlock between
// duplicate detection and the destructive merge path.
type DuplicateManager struct {
	c *Collection

	mu      sync.Mutex
	flagged map[string]struct{}
}

func newDuplicateManager(c *Collection) *DuplicateManager {
	return &DuplicateManager{c: c, flagged: make(map[string]struct{})}
}

// Flag marks the album as a confirmed duplicate, making it eligible for merge
// and deletion.
func (m *DuplicateManager) Flag(album *catalog.AlbumRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flagged[album.ID] = struct{}{}
}

// IsFlagged reports whether the album was confirmed as a duplicate.
func (m *DuplicateManager) IsFlagged(album *catalog.AlbumRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.flagged[album.ID]
	return ok
}

// IsDuplicated reports whether more than one non-deleted album carries the
// album's name.
func (m *DuplicateManager) IsDuplicated(album *catalog.AlbumRecord) bool {
	return len(m.c.ByName(album.Name)) > 1
}

// CombineDuplicateAlbums merges a set of same-named albums down to one. It
// repeatedly merges the first two survivors (by id order) until one remains:
// the source's assets are added to the target, then the source is deleted.
// Every input must be flagged first.
func (m *DuplicateManager) CombineDuplicateAlbums(ctx context.Context, albums []*catalog.AlbumRecord) (*catalog.AlbumRecord, error) {
	if len(albums) == 0 {
		return nil, fmt.Errorf("no albums to combine")
	}
	name := albums[0].Name
	for _, album := range albums {
		if album.Name != name {
			return nil, errmode.IntegrityFor("duplicates.combine", "album", album.ID,
				"album %q combined with albums named %q", album.Name, name)
		}
		if !m.IsFlagged(album) {
			return nil, errmode.IntegrityFor("duplicates.combine", "album", album.ID,
				"album %q merged without being flagged as duplicate", album.Name)
		}
	}

	survivors := make([]*catalog.AlbumRecord, len(albums))
	copy(survivors, albums)
	sort.Slice(survivors, func(i, j int) bool { return survivors[i].ID < survivors[j].ID })

	for len(survivors) > 1 {
		target, source := survivors[0], survivors[1]
		if err := m.mergeInto(ctx, target, source); err != nil {
			return nil, err
		}
		survivors = append(survivors[:1], survivors[2:]...)
	}
	return survivors[0], nil
}

// mergeInto moves the source's membership into the target and deletes the
// source. Both records are promoted to full first so the move covers the real
// membership, not a stale partial view.
func (m *DuplicateManager) mergeInto(ctx context.Context, target, source *catalog.AlbumRecord) error {
	target, err := m.c.store.EnsureFull(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to load merge target %q: %w", target.Name, err)
	}
	source, err = m.c.store.EnsureFull(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to load merge source %q: %w", source.Name, err)
	}

	ids, err := source.AssetIDs()
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		results, err := m.c.client.AddAssets(ctx, target.ID, ids)
		if err != nil {
			return fmt.Errorf("failed to move assets into album %q: %w", target.Name, err)
		}
		outcome := immich.ReconcileBulk(ids, results)
		if err := outcome.Err("merge duplicate albums"); err != nil {
			return err
		}
		for _, id := range outcome.Succeeded {
			target.ApplyAdd(id)
			m.c.index.Add(id, target.ID)
		}
		// Already-member results are fine: overlapping duplicates converge.
		for id, reason := range outcome.Recovered {
			if reason != immich.BulkErrDuplicate {
				return fmt.Errorf("merge duplicate albums: asset %s: recoverable error %q", id, reason)
			}
			m.c.index.Add(id, target.ID)
		}
	}

	if err := m.c.DeleteAlbum(ctx, source, DeleteReasonDuplicate); err != nil {
		return err
	}
	m.c.rep.Append(report.Entry{
		Kind:     report.KindAlbumsMerged,
		AlbumID:  target.ID,
		OldValue: source.ID,
		NewValue: target.Name,
		Extra:    map[string]string{"moved_assets": fmt.Sprintf("%d", len(ids))},
	})
	m.c.logger.Info("merged duplicate album",
		zap.String("name", target.Name),
		zap.String("target_id", target.ID),
		zap.String("source_id", source.ID),
		zap.Int("moved_assets", len(ids)))
	return nil
}

// resolveAll applies the configured duplicate policy to every duplicated name
// found after a resync.
func (m *DuplicateManager) resolveAll(ctx context.Context) error {
	dupes := m.duplicatedNames()
	if len(dupes) == 0 {
		return nil
	}

	switch m.c.cfg.DuplicatePolicy {
	case PolicyFailFast:
		return fmt.Errorf("duplicate album names found: %s", strings.Join(dupes, ", "))

	case PolicyCollectAndReport:
		var b strings.Builder
		for _, name := range dupes {
			albums := m.c.ByName(name)
			ids := make([]string, 0, len(albums))
			for _, a := range albums {
				ids = append(ids, a.ID)
			}
			fmt.Fprintf(&b, "%s\t%s\n", name, strings.Join(ids, ","))
		}
		if err := os.WriteFile(m.c.cfg.DuplicateReportPath, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write duplicate report: %w", err)
		}
		m.c.logger.Warn("duplicate album names collected",
			zap.Int("names", len(dupes)), zap.String("path", m.c.cfg.DuplicateReportPath))
		return nil

	case PolicyAutoMerge, "":
		for _, name := range dupes {
			albums := m.c.ByName(name)
			if len(albums) < 2 {
				continue // an earlier merge may have resolved this name
			}
			for _, album := range albums {
				m.Flag(album)
			}
			if _, err := m.CombineDuplicateAlbums(ctx, albums); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown duplicate policy %q", m.c.cfg.DuplicatePolicy)
	}
}

func (m *DuplicateManager) duplicatedNames() []string {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	var names []string
	for name, byID := range m.c.byName {
		live := 0
		for id := range byID {
			if _, gone := m.c.deleted[id]; !gone {
				live++
			}
		}
		if live > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
