package respcache

import "context"

// Kind partitions the cache by entity kind.
type Kind string

const (
	// KindAlbums holds full album documents keyed by album id.
	KindAlbums Kind = "albums"
	// KindAssets holds asset documents keyed by asset id.
	KindAssets Kind = "assets"
	// KindAlbumPages holds raw album-list pages keyed by page number.
	KindAlbumPages Kind = "album_pages"
)

// Config holds configuration for the response cache.
type Config struct {
	// Dir is the root directory for the filesystem backend.
	Dir string `mapstructure:"dir" default:".autotag-cache"`
	// MaxRuns is how many prior run partitions to keep on disk.
	MaxRuns int `mapstructure:"max_runs" default:"3"`
}

// Store is a key-value cache of remote responses.
type Store interface {
	// Get decodes the cached document for (kind, id) into out.
	// It returns false with a nil error on a miss.
	Get(ctx context.Context, kind Kind, id string, out any) (bool, error)
	// Put stores value as the document for (kind, id).
	Put(ctx context.Context, kind Kind, id string, value any) error
	// Delete removes the document for (kind, id). Deleting a missing entry is not
	// an error.
	Delete(ctx context.Context, kind Kind, id string) error
}

// Nop is a Store that caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, Kind, string, any) (bool, error) { return false, nil }
func (Nop) Put(context.Context, Kind, string, any) error         { return nil }
func (Nop) Delete(context.Context, Kind, string) error           { return nil }
