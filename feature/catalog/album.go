package catalog

import (
	"sort"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
)

// maxErrorHistory bounds the per-album reload error history.
const maxErrorHistory = 16

// AlbumError is one recorded reload failure.
type AlbumError struct {
	At      time.Time
	Code    int
	Message string
}

// AlbumRecord is the cached wrapper around one remote album.
type AlbumRecord struct {
	ID      string
	Name    string
	OwnerID string

	// StartDate and EndDate are the server-reported member date range. They are
	// only trusted on full records.
	StartDate time.Time
	EndDate   time.Time

	State    LoadState
	LoadedAt time.Time

	// Unavailable marks an album the circuit breaker gave up on.
	Unavailable bool

	assetIDs map[string]struct{}
	errors   []AlbumError
}

// AlbumFromList wraps one album of a list response as a partial record.
func AlbumFromList(dto immich.Album) *AlbumRecord {
	return &AlbumRecord{
		ID:        dto.ID,
		Name:      dto.AlbumName,
		OwnerID:   dto.OwnerID,
		StartDate: dto.StartDate,
		EndDate:   dto.EndDate,
		State:     LoadPartial,
		LoadedAt:  time.Now(),
	}
}

// AlbumFromAPI wraps a get-album response as a full record.
func AlbumFromAPI(dto immich.Album) *AlbumRecord {
	rec := AlbumFromList(dto)
	rec.State = LoadFull
	rec.assetIDs = make(map[string]struct{}, len(dto.Assets))
	for _, a := range dto.Assets {
		rec.assetIDs[a.ID] = struct{}{}
	}
	return rec
}

// AssetIDs returns the membership, sorted for determinism. It fails on a partial
// record; callers go through EnsureFull first.
func (r *AlbumRecord) AssetIDs() ([]string, error) {
	if r.State != LoadFull {
		return nil, ErrNotFull
	}
	ids := make([]string, 0, len(r.assetIDs))
	for id := range r.assetIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// HasAsset reports membership. Like AssetIDs it requires a full record.
func (r *AlbumRecord) HasAsset(assetID string) (bool, error) {
	if r.State != LoadFull {
		return false, ErrNotFull
	}
	_, ok := r.assetIDs[assetID]
	return ok, nil
}

// Size returns the membership count of a full record.
func (r *AlbumRecord) Size() (int, error) {
	if r.State != LoadFull {
		return 0, ErrNotFull
	}
	return len(r.assetIDs), nil
}

// ApplyAdd records a confirmed remote add in the local membership.
func (r *AlbumRecord) ApplyAdd(assetID string) {
	if r.State != LoadFull {
		return
	}
	r.assetIDs[assetID] = struct{}{}
}

// ApplyRemove records a confirmed remote removal in the local membership.
func (r *AlbumRecord) ApplyRemove(assetID string) {
	if r.State != LoadFull {
		return
	}
	delete(r.assetIDs, assetID)
}

// MergeFrom applies a newer representation of the same album.
//
// A full representation supersedes everything. A partial one only refreshes the
// scalar fields of a full record; membership and state survive. LoadedAt may
// never move backward; an older incoming representation is an ordering bug in
// the caller and therefore an integrity error, not a silent no-op.
func (r *AlbumRecord) MergeFrom(in *AlbumRecord) error {
	if in.ID != r.ID {
		return errmode.IntegrityFor("album.merge", "album", r.ID, "merged with different album %s", in.ID)
	}
	if in.LoadedAt.Before(r.LoadedAt) {
		return errmode.IntegrityFor("album.merge", "album", r.ID,
			"loaded_at moved backward: %s -> %s", r.LoadedAt.Format(time.RFC3339Nano), in.LoadedAt.Format(time.RFC3339Nano))
	}

	r.Name = in.Name
	r.OwnerID = in.OwnerID
	r.StartDate = in.StartDate
	r.EndDate = in.EndDate
	r.LoadedAt = in.LoadedAt

	// Never downgrade a full representation with a partial one.
	if in.State == LoadFull {
		r.State = LoadFull
		r.assetIDs = in.assetIDs
	}
	return nil
}

// RecordError appends one reload failure to the bounded history.
func (r *AlbumRecord) RecordError(code int, message string) {
	r.errors = append(r.errors, AlbumError{At: time.Now(), Code: code, Message: message})
	if len(r.errors) > maxErrorHistory {
		r.errors = r.errors[len(r.errors)-maxErrorHistory:]
	}
}

// ErrorsSince counts recorded failures newer than cutoff.
func (r *AlbumRecord) ErrorsSince(cutoff time.Time) int {
	n := 0
	for _, e := range r.errors {
		if e.At.After(cutoff) {
			n++
		}
	}
	return n
}

// Age returns how long ago the record was loaded.
func (r *AlbumRecord) Age() time.Duration {
	return time.Since(r.LoadedAt)
}
