package collection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/report"
	"github.com/txemi/immich-autotag-sub000/core/respcache"
	"github.com/txemi/immich-autotag-sub000/core/retry"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"

	"go.uber.org/zap"
)

// SyncState is the coarse registry state guarding against re-entrant resyncs.
type SyncState string

const (
	SyncNotStarted SyncState = "NOT_STARTED"
	SyncSyncing    SyncState = "SYNCING"
	SyncSynced     SyncState = "SYNCED"
)

// AddOutcome is the explicit result of adding an asset to an album.
type AddOutcome int

const (
	// AddApplied means the server confirmed the new membership.
	AddApplied AddOutcome = iota + 1
	// AddAlreadyMember means the server reported the asset was already there.
	AddAlreadyMember
)

// RemoveOutcome is the explicit result of removing an asset from an album.
type RemoveOutcome int

const (
	// RemoveApplied means the server confirmed the removal.
	RemoveApplied RemoveOutcome = iota + 1
	// RemoveAlreadyAbsent means the server did not know the membership.
	RemoveAlreadyAbsent
)

// DeleteReason restricts album deletion to the two sanctioned lifecycles.
type DeleteReason string

const (
	DeleteReasonTemporary DeleteReason = "temporary"
	DeleteReasonDuplicate DeleteReason = "duplicate"
)

// Collection is the process-wide album registry.
type Collection struct {
	mu      sync.Mutex
	byName  map[string]map[string]*catalog.AlbumRecord
	deleted map[string]struct{}
	state   SyncState

	store  *catalog.AlbumStore
	index  *AssetIndex
	client immich.Client
	cache  respcache.Store
	rep    *report.Report
	mode   errmode.Mode
	cfg    Config
	user   *immich.User
	logger *zap.Logger

	// Duplicates, Unavailable and Temporary are the delegated sub-managers.
	Duplicates  *DuplicateManager
	Unavailable *UnavailableManager
	Temporary   *TemporaryManager
}

// New creates an empty collection. user is the authenticated user; albums for
// assets owned by someone else get the user granted as editor on creation.
func New(client immich.Client, store *catalog.AlbumStore, cache respcache.Store, rep *report.Report,
	mode errmode.Mode, cfg Config, user *immich.User, logger *zap.Logger) (*Collection, error) {

	if cache == nil {
		cache = respcache.Nop{}
	}
	c := &Collection{
		byName:  make(map[string]map[string]*catalog.AlbumRecord),
		deleted: make(map[string]struct{}),
		state:   SyncNotStarted,
		store:   store,
		index:   NewAssetIndex(),
		client:  client,
		cache:   cache,
		rep:     rep,
		mode:    mode,
		cfg:     cfg,
		user:    user,
		logger:  logger,
	}
	c.Duplicates = newDuplicateManager(c)
	c.Unavailable = newUnavailableManager(c)
	var err error
	c.Temporary, err = newTemporaryManager(c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// State returns the registry sync state.
func (c *Collection) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Index exposes the reverse index for read access.
func (c *Collection) Index() *AssetIndex { return c.index }

// ResyncFromAPI fetches the full album list (partial records, no membership) and
// rebuilds the dual index. Triggering it while a resync is in progress is a
// no-op. Duplicate names are routed through the duplicates sub-manager according
// to the configured policy.
func (c *Collection) ResyncFromAPI(ctx context.Context, clearFirst bool) error {
	c.mu.Lock()
	if c.state == SyncSyncing {
		c.mu.Unlock()
		c.logger.Warn("resync already in progress, skipping")
		return nil
	}
	c.state = SyncSyncing
	if clearFirst {
		c.byName = make(map[string]map[string]*catalog.AlbumRecord)
		c.deleted = make(map[string]struct{})
		c.index = NewAssetIndex()
	}
	c.mu.Unlock()

	finish := func(s SyncState) {
		c.mu.Lock()
		c.state = s
		c.mu.Unlock()
	}

	dtos, err := c.client.ListAlbums(ctx)
	if err != nil {
		finish(SyncNotStarted)
		return fmt.Errorf("failed to list albums: %w", err)
	}
	if err := c.cache.Put(ctx, respcache.KindAlbumPages, "all", dtos); err != nil {
		c.logger.Warn("album page cache write failed", zap.Error(err))
	}

	for _, dto := range dtos {
		rec, err := c.store.Seed(catalog.AlbumFromList(dto))
		if err != nil {
			finish(SyncNotStarted)
			return err
		}
		c.register(rec)
	}

	if err := c.Duplicates.resolveAll(ctx); err != nil {
		finish(SyncNotStarted)
		return err
	}

	finish(SyncSynced)
	c.logger.Info("album collection synced", zap.Int("albums", len(dtos)))
	return nil
}

// register inserts the record into the name index.
func (c *Collection) register(rec *catalog.AlbumRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byID, ok := c.byName[rec.Name]
	if !ok {
		byID = make(map[string]*catalog.AlbumRecord)
		c.byName[rec.Name] = byID
	}
	byID[rec.ID] = rec
}

// unregister removes one id from the name index under the given name.
func (c *Collection) unregister(name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if byID, ok := c.byName[name]; ok {
		delete(byID, id)
		if len(byID) == 0 {
			delete(c.byName, name)
		}
	}
}

// Albums returns all non-deleted albums.
func (c *Collection) Albums() []*catalog.AlbumRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*catalog.AlbumRecord
	for _, byID := range c.byName {
		for id, rec := range byID {
			if _, gone := c.deleted[id]; !gone {
				out = append(out, rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByName returns the non-deleted albums carrying the name.
func (c *Collection) ByName(name string) []*catalog.AlbumRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*catalog.AlbumRecord
	for id, rec := range c.byName[name] {
		if _, gone := c.deleted[id]; !gone {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsDeleted reports whether the album id was logically deleted.
func (c *Collection) IsDeleted(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, gone := c.deleted[id]
	return gone
}

// AlbumNamesFor returns the names of albums holding the asset, per the reverse
// index, sorted and deduplicated.
func (c *Collection) AlbumNamesFor(assetID string) []string {
	ids := c.index.AlbumsFor(assetID)
	seen := make(map[string]struct{}, len(ids))
	var names []string
	for _, id := range ids {
		rec, err := c.store.Cached(id)
		if err != nil || rec == nil {
			// A stale record still names the album correctly for matching.
			if all := c.albumByID(id); all != nil {
				rec = all
			} else {
				continue
			}
		}
		if _, ok := seen[rec.Name]; ok {
			continue
		}
		seen[rec.Name] = struct{}{}
		names = append(names, rec.Name)
	}
	sort.Strings(names)
	return names
}

// AlbumRecordsFor returns the album records holding the asset, per the reverse
// index.
func (c *Collection) AlbumRecordsFor(assetID string) []*catalog.AlbumRecord {
	var out []*catalog.AlbumRecord
	for _, id := range c.index.AlbumsFor(assetID) {
		if c.IsDeleted(id) {
			continue
		}
		if rec := c.albumByID(id); rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Collection) albumByID(id string) *catalog.AlbumRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, byID := range c.byName {
		if rec, ok := byID[id]; ok {
			return rec
		}
	}
	return nil
}

// CreateOrGetAlbumWithUser returns the single non-deleted album with the name,
// merging duplicates first when several exist, or creates it remotely. When the
// asset owner differs from the current user, the current user is granted editor
// access on the new album.
func (c *Collection) CreateOrGetAlbumWithUser(ctx context.Context, name, assetOwnerID string) (*catalog.AlbumRecord, error) {
	existing := c.ByName(name)
	if len(existing) > 1 {
		for _, album := range existing {
			c.Duplicates.Flag(album)
		}
		if _, err := c.Duplicates.CombineDuplicateAlbums(ctx, existing); err != nil {
			return nil, err
		}
		existing = c.ByName(name)
		if len(existing) > 1 {
			err := errmode.Integrity("collection.createOrGet", "%d albums named %q remain after merge", len(existing), name)
			if c.mode.FailFast() {
				return nil, err
			}
			c.logger.Error("residual duplicate albums after merge", zap.String("name", name), zap.Error(err))
		}
	}
	if len(existing) >= 1 {
		return existing[0], nil
	}

	dto, err := c.client.CreateAlbum(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create album %q: %w", name, err)
	}
	rec, err := c.store.Seed(catalog.AlbumFromAPI(*dto))
	if err != nil {
		return nil, err
	}
	c.register(rec)
	c.rep.Append(report.Entry{Kind: report.KindAlbumCreated, AlbumID: rec.ID, NewValue: name})

	if c.user != nil && assetOwnerID != "" && assetOwnerID != c.user.ID {
		if err := c.client.AddAlbumUser(ctx, rec.ID, c.user.ID, "editor"); err != nil {
			if c.mode.FailFast() {
				return nil, fmt.Errorf("failed to grant user on album %q: %w", name, err)
			}
			c.logger.Warn("failed to grant user on album", zap.String("album_id", rec.ID), zap.Error(err))
		} else {
			c.rep.Append(report.Entry{Kind: report.KindUserGranted, AlbumID: rec.ID, NewValue: c.user.ID})
		}
	}
	return rec, nil
}

// DeleteAlbum removes the album locally first, then remotely. Only temporary and
// duplicate albums may be deleted; everything else is protected from destructive
// operations. A remote 404 means the deletion was already satisfied.
func (c *Collection) DeleteAlbum(ctx context.Context, album *catalog.AlbumRecord, reason DeleteReason) error {
	switch reason {
	case DeleteReasonTemporary:
		if !c.Temporary.IsTemporary(album.Name) {
			return errmode.IntegrityFor("collection.delete", "album", album.ID,
				"album %q deleted as temporary but name does not match the reserved pattern", album.Name)
		}
	case DeleteReasonDuplicate:
		if !c.Duplicates.IsFlagged(album) {
			return errmode.IntegrityFor("collection.delete", "album", album.ID,
				"album %q deleted as duplicate but was never flagged", album.Name)
		}
	default:
		return fmt.Errorf("refusing to delete album %q: reason %q is not sanctioned", album.Name, reason)
	}

	// Local removal happens first so a remote 404 cannot desynchronize state.
	c.mu.Lock()
	c.deleted[album.ID] = struct{}{}
	c.mu.Unlock()
	c.unregister(album.Name, album.ID)
	c.index.RemoveAlbum(album.ID)
	c.store.Remove(album.ID)

	if err := c.client.DeleteAlbum(ctx, album.ID); err != nil {
		var se *immich.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			c.logger.Debug("album already deleted remotely", zap.String("album_id", album.ID))
		} else {
			return fmt.Errorf("failed to delete album %q: %w", album.Name, err)
		}
	}

	c.rep.Append(report.Entry{
		Kind:     report.KindAlbumDeleted,
		AlbumID:  album.ID,
		OldValue: album.Name,
		Extra:    map[string]string{"reason": string(reason)},
	})
	return nil
}

// AddAsset adds one asset to the album, reconciling the bulk result. A
// "duplicate" result refreshes the album so subsequent assets in the batch see
// the real membership, records a warning entry and reports AddAlreadyMember.
func (c *Collection) AddAsset(ctx context.Context, album *catalog.AlbumRecord, assetID string) (AddOutcome, error) {
	results, err := c.client.AddAssets(ctx, album.ID, []string{assetID})
	if err != nil {
		return 0, fmt.Errorf("failed to add asset to album %q: %w", album.Name, err)
	}
	outcome := immich.ReconcileBulk([]string{assetID}, results)
	if err := outcome.Err("add asset to album"); err != nil {
		return 0, err
	}

	if reason, recovered := outcome.Recovered[assetID]; recovered {
		if reason == immich.BulkErrDuplicate {
			if _, err := c.store.Refresh(ctx, album.ID); err != nil {
				c.logger.Warn("album refresh after duplicate add failed", zap.String("album_id", album.ID), zap.Error(err))
			}
			c.index.Add(assetID, album.ID)
			c.rep.Append(report.Entry{
				Kind:    report.KindWarningAssetAlreadyInAlbum,
				AssetID: assetID,
				AlbumID: album.ID,
			})
			return AddAlreadyMember, nil
		}
		return 0, fmt.Errorf("add asset to album %q: recoverable error %q", album.Name, reason)
	}

	album.ApplyAdd(assetID)
	c.index.Add(assetID, album.ID)
	c.rep.Append(report.Entry{Kind: report.KindAssetToAlbum, AssetID: assetID, AlbumID: album.ID, NewValue: album.Name})

	c.verifyMembership(ctx, album.ID, assetID, true)
	return AddApplied, nil
}

// RemoveAsset removes one asset from the album. A "not_found" result means the
// membership was already gone.
func (c *Collection) RemoveAsset(ctx context.Context, album *catalog.AlbumRecord, assetID string) (RemoveOutcome, error) {
	results, err := c.client.RemoveAssets(ctx, album.ID, []string{assetID})
	if err != nil {
		return 0, fmt.Errorf("failed to remove asset from album %q: %w", album.Name, err)
	}
	outcome := immich.ReconcileBulk([]string{assetID}, results)
	if err := outcome.Err("remove asset from album"); err != nil {
		return 0, err
	}

	if reason, recovered := outcome.Recovered[assetID]; recovered {
		if reason == immich.BulkErrNotFound {
			album.ApplyRemove(assetID)
			c.index.Remove(assetID, album.ID)
			return RemoveAlreadyAbsent, nil
		}
		return 0, fmt.Errorf("remove asset from album %q: recoverable error %q", album.Name, reason)
	}

	album.ApplyRemove(assetID)
	c.index.Remove(assetID, album.ID)
	c.rep.Append(report.Entry{Kind: report.KindAssetFromAlbum, AssetID: assetID, AlbumID: album.ID, OldValue: album.Name})

	c.verifyMembership(ctx, album.ID, assetID, false)
	return RemoveApplied, nil
}

// verifyMembership confirms the mutated membership against the remote service
// with backoff. Exhausting the retries is expected eventual-consistency lag and
// only logged.
func (c *Collection) verifyMembership(ctx context.Context, albumID, assetID string, want bool) {
	ok, err := retry.Verify(ctx, retry.DefaultAttempts, retry.DefaultBase, func(ctx context.Context) (bool, error) {
		rec, err := c.store.Refresh(ctx, albumID)
		if err != nil {
			return false, err
		}
		has, err := rec.HasAsset(assetID)
		if err != nil {
			return false, err
		}
		return has == want, nil
	})
	if err != nil {
		c.logger.Warn("membership verification errored",
			zap.String("album_id", albumID), zap.String("asset_id", assetID), zap.Error(err))
		return
	}
	if !ok {
		c.logger.Warn("membership not yet visible after mutation",
			zap.String("album_id", albumID), zap.String("asset_id", assetID), zap.Bool("want", want))
	}
}

// ReloadAlbum refreshes an album, feeding recoverable failures to the
// unavailable-album circuit breaker. Albums already marked unavailable are not
// retried.
func (c *Collection) ReloadAlbum(ctx context.Context, album *catalog.AlbumRecord) (*catalog.AlbumRecord, error) {
	if album.Unavailable {
		return nil, fmt.Errorf("album %q is marked unavailable", album.Name)
	}
	rec, err := c.store.Refresh(ctx, album.ID)
	if err != nil {
		var se *immich.StatusError
		if errors.As(err, &se) && se.Recoverable() {
			if noteErr := c.Unavailable.NoteReloadFailure(album, se.Code, se.Message); noteErr != nil {
				return nil, noteErr
			}
			return nil, err
		}
		return nil, err
	}
	return rec, nil
}

// RebuildIndex promotes every non-deleted, available album to full and rebuilds
// the reverse index from their membership. Afterwards the temporary-album
// sub-manager prunes holding albums that came out empty.
func (c *Collection) RebuildIndex(ctx context.Context) error {
	var full []*catalog.AlbumRecord
	for _, album := range c.Albums() {
		if album.Unavailable {
			continue
		}
		rec := album
		if rec.State != catalog.LoadFull {
			var err error
			rec, err = c.ReloadAlbum(ctx, album)
			if err != nil {
				var se *immich.StatusError
				if errors.As(err, &se) && se.Recoverable() {
					continue // circuit breaker already notified
				}
				return err
			}
		}
		full = append(full, rec)
	}
	if err := c.index.Rebuild(full); err != nil {
		return err
	}
	return c.Temporary.CleanupEmpty(ctx)
}
