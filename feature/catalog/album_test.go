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

func fullAlbumDTO(id, name string, assetIDs ...string) immich.Album {
	dto := immich.Album{ID: id, AlbumName: name, OwnerID: "owner-1"}
	for _, aid := range assetIDs {
		dto.Assets = append(dto.Assets, immich.Asset{ID: aid})
	}
	return dto
}

func TestAlbumRecord_MembershipRequiresFull(t *testing.T) {
	partial := catalog.AlbumFromList(immich.Album{ID: "a1", AlbumName: "Family"})

	_, err := partial.AssetIDs()
	assert.ErrorIs(t, err, catalog.ErrNotFull)

	_, err = partial.HasAsset("x")
	assert.ErrorIs(t, err, catalog.ErrNotFull)

	full := catalog.AlbumFromAPI(fullAlbumDTO("a1", "Family", "x", "y"))
	ids, err := full.AssetIDs()
	assert.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids)
}

func TestAlbumRecord_MergeFrom_NeverDowngrades(t *testing.T) {
	full := catalog.AlbumFromAPI(fullAlbumDTO("a1", "Family", "x"))

	partial := catalog.AlbumFromList(immich.Album{ID: "a1", AlbumName: "Family (renamed)"})
	partial.LoadedAt = full.LoadedAt.Add(time.Second)

	err := full.MergeFrom(partial)
	assert.NoError(t, err)

	// Scalar fields refreshed, membership and state preserved.
	assert.Equal(t, "Family (renamed)", full.Name)
	assert.Equal(t, catalog.LoadFull, full.State)
	ids, err := full.AssetIDs()
	assert.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)
}

func TestAlbumRecord_MergeFrom_BackwardTimestampIsIntegrityError(t *testing.T) {
	cur := catalog.AlbumFromAPI(fullAlbumDTO("a1", "Family"))

	older := catalog.AlbumFromList(immich.Album{ID: "a1", AlbumName: "Family"})
	older.LoadedAt = cur.LoadedAt.Add(-time.Minute)

	err := cur.MergeFrom(older)
	assert.Error(t, err)
	assert.True(t, errmode.IsIntegrity(err))
}

func TestAlbumRecord_ErrorHistoryWindow(t *testing.T) {
	rec := catalog.AlbumFromList(immich.Album{ID: "a1", AlbumName: "Family"})

	rec.RecordError(400, "no access")
	rec.RecordError(400, "no access")
	rec.RecordError(404, "not found")

	assert.Equal(t, 3, rec.ErrorsSince(time.Now().Add(-time.Minute)))
	assert.Equal(t, 0, rec.ErrorsSince(time.Now().Add(time.Minute)))
}

func TestAlbumStore_GetFetchesOnceWhileFresh(t *testing.T) {
	client := new(mocks.Client)
	dto := fullAlbumDTO("a1", "Family", "x")
	client.On("GetAlbum", mock.Anything, "a1").Return(&dto, nil).Once()

	store := catalog.NewAlbumStore(client, nil, nil, catalog.Config{MaxAgeSeconds: 3600}, zap.NewNop())

	rec, err := store.Get(context.Background(), "a1")
	assert.NoError(t, err)
	assert.Equal(t, catalog.LoadFull, rec.State)

	// Second Get is served from the store; the mock would fail on a second call.
	again, err := store.Get(context.Background(), "a1")
	assert.NoError(t, err)
	assert.Same(t, rec, again)
	client.AssertExpectations(t)
}

func TestAlbumStore_GetReadsThroughDiskCache(t *testing.T) {
	root := t.TempDir()
	prior, err := respcache.NewFSStore(root, "run-1", 0)
	assert.NoError(t, err)
	dto := fullAlbumDTO("a1", "Family", "x")
	assert.NoError(t, prior.Put(context.Background(), respcache.KindAlbums, "a1", dto))

	current, err := respcache.NewFSStore(root, "run-2", 0)
	assert.NoError(t, err)

	// No GetAlbum expectation: the prior run's cached document must satisfy
	// the read without touching the network.
	client := new(mocks.Client)
	store := catalog.NewAlbumStore(client, current, nil, catalog.Config{MaxAgeSeconds: 3600}, zap.NewNop())

	rec, err := store.Get(context.Background(), "a1")
	assert.NoError(t, err)
	assert.Equal(t, catalog.LoadFull, rec.State)
	assert.Equal(t, "Family", rec.Name)
	ok, err := rec.HasAsset("x")
	assert.NoError(t, err)
	assert.True(t, ok)
	client.AssertExpectations(t)
}

func TestAlbumStore_CachedReportsStaleness(t *testing.T) {
	client := new(mocks.Client)
	store := catalog.NewAlbumStore(client, nil, nil, catalog.Config{MaxAgeSeconds: 1}, zap.NewNop())

	seeded := catalog.AlbumFromList(immich.Album{ID: "a1", AlbumName: "Family"})
	seeded.LoadedAt = time.Now().Add(-time.Hour)
	_, err := store.Seed(seeded)
	assert.NoError(t, err)

	_, err = store.Cached("a1")
	assert.Error(t, err)
	assert.True(t, catalog.IsStale(err))

	// Unknown ids are a miss, not an error.
	rec, err := store.Cached("missing")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAlbumStore_EnsureFullIsIdempotent(t *testing.T) {
	client := new(mocks.Client)
	dto := fullAlbumDTO("a1", "Family", "x")
	client.On("GetAlbum", mock.Anything, "a1").Return(&dto, nil).Once()

	store := catalog.NewAlbumStore(client, nil, nil, catalog.Config{MaxAgeSeconds: 3600}, zap.NewNop())
	seeded, err := store.Seed(catalog.AlbumFromList(immich.Album{ID: "a1", AlbumName: "Family"}))
	assert.NoError(t, err)

	full, err := store.EnsureFull(context.Background(), seeded)
	assert.NoError(t, err)
	assert.Equal(t, catalog.LoadFull, full.State)

	// Already full: no further remote call.
	again, err := store.EnsureFull(context.Background(), full)
	assert.NoError(t, err)
	assert.Same(t, full, again)
	client.AssertExpectations(t)
}
