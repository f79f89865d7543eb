package collection

import (
	"sort"
	"sync"

	"github.com/txemi/immich-autotag-sub000/feature/catalog"
)

// AssetIndex is the reverse index from asset id to owning album ids. It must
// stay consistent with the forward membership of every fully loaded album, so
// all writes happen at the collection's mutation boundaries.
type AssetIndex struct {
	mu      sync.Mutex
	byAsset map[string]map[string]struct{}
}

// NewAssetIndex creates an empty index.
func NewAssetIndex() *AssetIndex {
	return &AssetIndex{byAsset: make(map[string]map[string]struct{})}
}

// Add records that album albumID contains asset assetID.
func (x *AssetIndex) Add(assetID, albumID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	set, ok := x.byAsset[assetID]
	if !ok {
		set = make(map[string]struct{})
		x.byAsset[assetID] = set
	}
	set[albumID] = struct{}{}
}

// Remove records that album albumID no longer contains asset assetID.
func (x *AssetIndex) Remove(assetID, albumID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if set, ok := x.byAsset[assetID]; ok {
		delete(set, albumID)
		if len(set) == 0 {
			delete(x.byAsset, assetID)
		}
	}
}

// RemoveAlbum drops every entry pointing at the album. Called on album deletion.
func (x *AssetIndex) RemoveAlbum(albumID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for assetID, set := range x.byAsset {
		delete(set, albumID)
		if len(set) == 0 {
			delete(x.byAsset, assetID)
		}
	}
}

// AlbumsFor returns the album ids holding the asset, sorted.
func (x *AssetIndex) AlbumsFor(assetID string) []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	set, ok := x.byAsset[assetID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasAlbum reports whether any indexed asset points at the album.
func (x *AssetIndex) HasAlbum(albumID string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, set := range x.byAsset {
		if _, ok := set[albumID]; ok {
			return true
		}
	}
	return false
}

// Rebuild replaces the index content from fully loaded albums. Partial records
// are skipped by the caller; passing one here is a programming error surfaced by
// the membership accessor.
func (x *AssetIndex) Rebuild(albums []*catalog.AlbumRecord) error {
	fresh := make(map[string]map[string]struct{})
	for _, album := range albums {
		ids, err := album.AssetIDs()
		if err != nil {
			return err
		}
		for _, assetID := range ids {
			set, ok := fresh[assetID]
			if !ok {
				set = make(map[string]struct{})
				fresh[assetID] = set
			}
			set[album.ID] = struct{}{}
		}
	}
	x.mu.Lock()
	x.byAsset = fresh
	x.mu.Unlock()
	return nil
}
