package classify_test

import (
	"testing"

	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"
	"github.com/txemi/immich-autotag-sub000/feature/classify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assetWithPath(p string) *catalog.AssetRecord {
	return catalog.AssetFromAPI(immich.Asset{ID: "x1", OriginalPath: p})
}

func TestDecide_FolderCandidateFromDatePrefixedSegment(t *testing.T) {
	decider, err := classify.NewDecider(classify.Config{})
	require.NoError(t, err)

	dec, err := decider.Decide(assetWithPath("/library/photos/2024-03-05-Birthday/IMG_0001.jpg"), nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05-Birthday", dec.FolderCandidate)
	assert.Equal(t, []string{"2024-03-05-Birthday"}, dec.ValidAlbums())
	assert.True(t, dec.IsUnique())
	assert.False(t, dec.HasConflict())
}

func TestDecide_ExtraSegmentsAppended(t *testing.T) {
	decider, err := classify.NewDecider(classify.Config{FolderExtraSegments: 1})
	require.NoError(t, err)

	dec, err := decider.Decide(assetWithPath("/photos/2024-07_14/fireworks/IMG_2.jpg"), nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-07_14 - fireworks", dec.FolderCandidate)
}

func TestDecide_ExcludedPathHasNoFolderCandidate(t *testing.T) {
	decider, err := classify.NewDecider(classify.Config{
		ExcludedPathPatterns: []string{`/screenshots/`},
	})
	require.NoError(t, err)

	dec, err := decider.Decide(assetWithPath("/library/screenshots/2024-03-05-x/shot.png"), nil)
	require.NoError(t, err)
	assert.Empty(t, dec.FolderCandidate)
	assert.Empty(t, dec.ValidAlbums())
}

func TestDecide_NoDateSegmentMeansNoCandidate(t *testing.T) {
	decider, err := classify.NewDecider(classify.Config{})
	require.NoError(t, err)

	dec, err := decider.Decide(assetWithPath("/library/misc/IMG_0001.jpg"), nil)
	require.NoError(t, err)
	assert.Empty(t, dec.FolderCandidate)
}

func TestDecide_ImplausiblyShortNameIsAnError(t *testing.T) {
	decider, err := classify.NewDecider(classify.Config{MinAlbumNameLength: 24})
	require.NoError(t, err)

	_, err = decider.Decide(assetWithPath("/p/2024-03-05/IMG.jpg"), nil)
	assert.Error(t, err)
}

func TestDecide_DuplicateCandidatesFilteredByEventPattern(t *testing.T) {
	decider, err := classify.NewDecider(classify.Config{})
	require.NoError(t, err)

	dec, err := decider.Decide(assetWithPath("/library/misc/IMG_0001.jpg"),
		[]string{"Screenshots", "2024-03-05-Birthday", "2024-03-05-Birthday"})
	require.NoError(t, err)
	// The non-event name is dropped, the rest deduped.
	assert.Equal(t, []string{"2024-03-05-Birthday"}, dec.ValidAlbums())
	assert.True(t, dec.IsUnique())
}

func TestDecide_ConflictingCandidates(t *testing.T) {
	decider, err := classify.NewDecider(classify.Config{})
	require.NoError(t, err)

	dec, err := decider.Decide(assetWithPath("/photos/2024-03-05-Birthday/IMG.jpg"),
		[]string{"2024-04-01-Easter"})
	require.NoError(t, err)
	assert.True(t, dec.HasConflict())
	assert.Len(t, dec.ValidAlbums(), 2)
}
