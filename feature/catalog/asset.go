package catalog

import (
	"sort"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
)

// AssetRecord is the cached wrapper around one remote asset.
type AssetRecord struct {
	ID               string
	OwnerID          string
	Type             string
	OriginalPath     string
	OriginalFileName string
	DuplicateID      string

	// BestDate is the oldest of the asset's candidate timestamps. Once computed
	// it may only move earlier through an explicit CorrectDate; a merge that
	// would move it earlier again means a candidate was missed the first time,
	// which is an integrity error.
	BestDate time.Time

	State    LoadState
	LoadedAt time.Time

	tags          map[string]struct{}
	dateCorrected bool
}

// bestDate picks the oldest non-zero candidate timestamp, deterministically.
func bestDate(dto immich.Asset) time.Time {
	candidates := []time.Time{dto.LocalDateTime, dto.FileCreatedAt, dto.FileModifiedAt}
	var best time.Time
	for _, c := range candidates {
		if c.IsZero() {
			continue
		}
		if best.IsZero() || c.Before(best) {
			best = c
		}
	}
	return best
}

// AssetFromSearch wraps one item of a search page as a partial record (search
// results carry no tags).
func AssetFromSearch(dto immich.Asset) *AssetRecord {
	return &AssetRecord{
		ID:               dto.ID,
		OwnerID:          dto.OwnerID,
		Type:             dto.Type,
		OriginalPath:     dto.OriginalPath,
		OriginalFileName: dto.OriginalFileName,
		DuplicateID:      dto.DuplicateID,
		BestDate:         bestDate(dto),
		State:            LoadPartial,
		LoadedAt:         time.Now(),
	}
}

// AssetFromAPI wraps a get-asset response as a full record.
func AssetFromAPI(dto immich.Asset) *AssetRecord {
	rec := AssetFromSearch(dto)
	rec.State = LoadFull
	rec.tags = make(map[string]struct{}, len(dto.Tags))
	for _, t := range dto.Tags {
		rec.tags[t.Value] = struct{}{}
	}
	return rec
}

// Tags returns the tag names, sorted. Requires a full record.
func (r *AssetRecord) Tags() ([]string, error) {
	if r.State != LoadFull {
		return nil, ErrNotFull
	}
	tags := make([]string, 0, len(r.tags))
	for t := range r.tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

// HasTag reports whether the asset carries the named tag. Requires a full record.
func (r *AssetRecord) HasTag(name string) (bool, error) {
	if r.State != LoadFull {
		return false, ErrNotFull
	}
	_, ok := r.tags[name]
	return ok, nil
}

// ApplyTag records a confirmed remote tag assignment locally.
func (r *AssetRecord) ApplyTag(name string) {
	if r.State != LoadFull {
		return
	}
	r.tags[name] = struct{}{}
}

// ApplyUntag records a confirmed remote tag removal locally.
func (r *AssetRecord) ApplyUntag(name string) {
	if r.State != LoadFull {
		return
	}
	delete(r.tags, name)
}

// CorrectDate applies a deliberate best-date correction. Corrections only move
// the date earlier; the heuristics never produce a later date than the stored
// candidates.
func (r *AssetRecord) CorrectDate(date time.Time) error {
	if !r.BestDate.IsZero() && date.After(r.BestDate) {
		return errmode.IntegrityFor("asset.correctDate", "asset", r.ID,
			"correction %s is later than best date %s", date.Format(time.RFC3339), r.BestDate.Format(time.RFC3339))
	}
	r.BestDate = date
	r.dateCorrected = true
	return nil
}

// MergeFrom applies a newer representation of the same asset. The same rules as
// AlbumRecord.MergeFrom apply, plus the best-date integrity check: an incoming
// representation whose candidates yield an earlier date than the one already
// chosen means the first choice missed a candidate.
func (r *AssetRecord) MergeFrom(in *AssetRecord) error {
	if in.ID != r.ID {
		return errmode.IntegrityFor("asset.merge", "asset", r.ID, "merged with different asset %s", in.ID)
	}
	if in.LoadedAt.Before(r.LoadedAt) {
		return errmode.IntegrityFor("asset.merge", "asset", r.ID,
			"loaded_at moved backward: %s -> %s", r.LoadedAt.Format(time.RFC3339Nano), in.LoadedAt.Format(time.RFC3339Nano))
	}
	if !r.dateCorrected && !r.BestDate.IsZero() && !in.BestDate.IsZero() && in.BestDate.Before(r.BestDate) {
		return errmode.IntegrityFor("asset.merge", "asset", r.ID,
			"best date moved earlier: %s -> %s", r.BestDate.Format(time.RFC3339), in.BestDate.Format(time.RFC3339))
	}

	r.OwnerID = in.OwnerID
	r.Type = in.Type
	r.OriginalPath = in.OriginalPath
	r.OriginalFileName = in.OriginalFileName
	r.DuplicateID = in.DuplicateID
	r.LoadedAt = in.LoadedAt
	if !r.dateCorrected {
		r.BestDate = in.BestDate
	}

	if in.State == LoadFull {
		r.State = LoadFull
		r.tags = in.tags
	}
	return nil
}

// Age returns how long ago the record was loaded.
func (r *AssetRecord) Age() time.Duration {
	return time.Since(r.LoadedAt)
}
