package report

import (
	"fmt"
	"strings"
	"time"
)

// Kind classifies a modification entry.
type Kind string

const (
	KindAlbumCreated   Kind = "ALBUM_CREATED"
	KindAlbumDeleted   Kind = "ALBUM_DELETED"
	KindAlbumRenamed   Kind = "ALBUM_RENAMED"
	KindAlbumsMerged   Kind = "ALBUMS_MERGED"
	KindAssetToAlbum   Kind = "ASSET_ADDED_TO_ALBUM"
	KindAssetFromAlbum Kind = "ASSET_REMOVED_FROM_ALBUM"
	KindTagAdded       Kind = "TAG_ADDED"
	KindTagRemoved     Kind = "TAG_REMOVED"
	KindTagConverted   Kind = "TAG_CONVERTED"
	KindDateCorrected  Kind = "DATE_CORRECTED"
	KindUserGranted    Kind = "USER_GRANTED"

	// KindWarningAssetAlreadyInAlbum records a bulk "duplicate" result that was
	// absorbed instead of raised.
	KindWarningAssetAlreadyInAlbum Kind = "WARNING_ASSET_ALREADY_IN_ALBUM"
	// KindWarningUnavailableAlbums is the single aggregate event recorded when the
	// global unavailable-album threshold trips in operator mode.
	KindWarningUnavailableAlbums Kind = "WARNING_UNAVAILABLE_ALBUMS"
	KindConflictDetected         Kind = "CONFLICT_DETECTED"
)

// Entry is one immutable audit record.
type Entry struct {
	// Time is when the modification happened.
	Time time.Time `json:"time"`
	// Kind classifies the modification.
	Kind Kind `json:"kind"`
	// AssetID references the affected asset, if any.
	AssetID string `json:"asset_id,omitempty"`
	// AlbumID references the affected album, if any.
	AlbumID string `json:"album_id,omitempty"`
	// TagName references the affected tag, if any.
	TagName string `json:"tag_name,omitempty"`
	// OldValue is the value before the modification.
	OldValue string `json:"old_value,omitempty"`
	// NewValue is the value after the modification.
	NewValue string `json:"new_value,omitempty"`
	// Actor identifies the run that made the change.
	Actor string `json:"actor"`
	// Extra carries free-form context (e.g. the merge loser's name).
	Extra map[string]string `json:"extra,omitempty"`
}

// String renders the entry as one line of the human-readable log.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Time.Format(time.RFC3339), e.Kind)
	if e.AssetID != "" {
		fmt.Fprintf(&b, " asset=%s", e.AssetID)
	}
	if e.AlbumID != "" {
		fmt.Fprintf(&b, " album=%s", e.AlbumID)
	}
	if e.TagName != "" {
		fmt.Fprintf(&b, " tag=%s", e.TagName)
	}
	if e.OldValue != "" || e.NewValue != "" {
		fmt.Fprintf(&b, " %q -> %q", e.OldValue, e.NewValue)
	}
	for k, v := range e.Extra {
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	fmt.Fprintf(&b, " actor=%s", e.Actor)
	return b.String()
}
