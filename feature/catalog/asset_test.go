package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/immich/mocks"
	"github.com/txemi/immich-autotag-sub000/core/respcache"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestAssetRecord_BestDateIsOldestCandidate(t *testing.T) {
	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	modified := created.Add(48 * time.Hour)
	local := created.Add(time.Hour)

	rec := catalog.AssetFromSearch(immich.Asset{
		ID:             "x1",
		FileCreatedAt:  created,
		FileModifiedAt: modified,
		LocalDateTime:  local,
	})
	assert.Equal(t, created, rec.BestDate)
}

func TestAssetRecord_CorrectDateOnlyMovesEarlier(t *testing.T) {
	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	rec := catalog.AssetFromSearch(immich.Asset{ID: "x1", FileCreatedAt: created})

	err := rec.CorrectDate(created.Add(-24 * time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, created.Add(-24*time.Hour), rec.BestDate)

	err = rec.CorrectDate(created.Add(24 * time.Hour))
	assert.Error(t, err)
	assert.True(t, errmode.IsIntegrity(err))
}

func TestAssetRecord_MergeFrom_EarlierCandidateIsIntegrityError(t *testing.T) {
	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	cur := catalog.AssetFromSearch(immich.Asset{ID: "x1", FileCreatedAt: created})

	in := catalog.AssetFromSearch(immich.Asset{ID: "x1", FileCreatedAt: created.Add(-time.Hour)})
	in.LoadedAt = cur.LoadedAt.Add(time.Second)

	err := cur.MergeFrom(in)
	assert.Error(t, err)
	assert.True(t, errmode.IsIntegrity(err))
}

func TestAssetRecord_TagsRequireFull(t *testing.T) {
	partial := catalog.AssetFromSearch(immich.Asset{ID: "x1"})
	_, err := partial.Tags()
	assert.ErrorIs(t, err, catalog.ErrNotFull)

	full := catalog.AssetFromAPI(immich.Asset{
		ID:   "x1",
		Tags: []immich.Tag{{ID: "t1", Value: "holiday"}, {ID: "t2", Value: "beach"}},
	})
	tags, err := full.Tags()
	assert.NoError(t, err)
	assert.Equal(t, []string{"beach", "holiday"}, tags)

	ok, err := full.HasTag("holiday")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestAssetStore_GetReadsThroughDiskCache(t *testing.T) {
	root := t.TempDir()
	prior, err := respcache.NewFSStore(root, "run-1", 0)
	assert.NoError(t, err)
	dto := immich.Asset{ID: "x1", Tags: []immich.Tag{{ID: "t1", Value: "holiday"}}}
	assert.NoError(t, prior.Put(context.Background(), respcache.KindAssets, "x1", dto))

	current, err := respcache.NewFSStore(root, "run-2", 0)
	assert.NoError(t, err)

	// No GetAsset expectation: the prior run's cached document must satisfy
	// the read without touching the network.
	client := new(mocks.Client)
	store := catalog.NewAssetStore(client, current, nil, catalog.Config{MaxAgeSeconds: 3600}, zap.NewNop())

	rec, err := store.Get(context.Background(), "x1")
	assert.NoError(t, err)
	assert.Equal(t, catalog.LoadFull, rec.State)
	ok, err := rec.HasTag("holiday")
	assert.NoError(t, err)
	assert.True(t, ok)
	client.AssertExpectations(t)
}

func TestAssetStore_EnsureFullPromotesSearchResult(t *testing.T) {
	client := new(mocks.Client)
	dto := immich.Asset{
		ID:   "x1",
		Tags: []immich.Tag{{ID: "t1", Value: "holiday"}},
	}
	client.On("GetAsset", mock.Anything, "x1").Return(&dto, nil).Once()

	store := catalog.NewAssetStore(client, nil, nil, catalog.Config{MaxAgeSeconds: 3600}, zap.NewNop())
	seeded, err := store.Seed(catalog.AssetFromSearch(immich.Asset{ID: "x1"}))
	assert.NoError(t, err)
	assert.Equal(t, catalog.LoadPartial, seeded.State)

	full, err := store.EnsureFull(context.Background(), seeded)
	assert.NoError(t, err)
	assert.Equal(t, catalog.LoadFull, full.State)

	ok, err := full.HasTag("holiday")
	assert.NoError(t, err)
	assert.True(t, ok)
	client.AssertExpectations(t)
}
