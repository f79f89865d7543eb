package organizer_test

import (
	"context"
	"testing"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/immich/mocks"
	"github.com/txemi/immich-autotag-sub000/core/report"
	"github.com/txemi/immich-autotag-sub000/core/stats"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"
	"github.com/txemi/immich-autotag-sub000/feature/classify"
	"github.com/txemi/immich-autotag-sub000/feature/collection"
	"github.com/txemi/immich-autotag-sub000/feature/organizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func assetDTO(id, path string, tags ...string) immich.Asset {
	a := immich.Asset{
		ID:            id,
		OwnerID:       "owner-1",
		Type:          "IMAGE",
		OriginalPath:  path,
		LocalDateTime: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
	for _, t := range tags {
		a.Tags = append(a.Tags, immich.Tag{ID: "tag-" + t, Name: t, Value: t})
	}
	return a
}

func albumDTO(id, name string, assetIDs ...string) immich.Album {
	dto := immich.Album{ID: id, AlbumName: name, OwnerID: "owner-1"}
	for _, aid := range assetIDs {
		dto.Assets = append(dto.Assets, immich.Asset{ID: aid})
	}
	return dto
}

func okResults(ids ...string) []immich.BulkResult {
	out := make([]immich.BulkResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, immich.BulkResult{ID: id, Success: true})
	}
	return out
}

type fixture struct {
	client *mocks.Client
	rep    *report.Report
	st     *stats.Manager
	albums *collection.Collection
	assets *catalog.AssetStore
	org    *organizer.Organizer
}

func newFixture(t *testing.T, client *mocks.Client, ccfg classify.Config, ocfg organizer.Config) *fixture {
	t.Helper()
	logger := zap.NewNop()
	rep := report.New("", "test", logger)

	assetStore := catalog.NewAssetStore(client, nil, nil, catalog.Config{MaxAgeSeconds: 3600}, logger)
	albumStore := catalog.NewAlbumStore(client, nil, nil, catalog.Config{MaxAgeSeconds: 3600}, logger)

	coll, err := collection.New(client, albumStore, nil, rep, errmode.Developer,
		collection.Config{TemporaryPattern: `^\d{4}-\d{2}$`}, &immich.User{ID: "owner-1"}, logger)
	require.NoError(t, err)

	engine, err := classify.NewEngine(ccfg)
	require.NoError(t, err)
	decider, err := classify.NewDecider(ccfg)
	require.NoError(t, err)

	st, err := stats.NewManager(nil, "run-1")
	require.NoError(t, err)

	if ocfg.UnclassifiedTag == "" {
		ocfg.UnclassifiedTag = "autotag/unclassified"
	}
	if ocfg.ConflictTag == "" {
		ocfg.ConflictTag = "autotag/conflict"
	}

	org := organizer.New(client, assetStore, coll, engine, decider, rep, st, errmode.Developer, ocfg, logger)
	return &fixture{client: client, rep: rep, st: st, albums: coll, assets: assetStore, org: org}
}

// Folder-derived assignment: a tagless asset under a date-prefixed folder gets
// the folder album created and joined, and keeps the unclassified bookkeeping
// tag.
func TestProcess_FolderAssignment(t *testing.T) {
	client := new(mocks.Client)
	f := newFixture(t, client, classify.Config{}, organizer.Config{FolderAlbums: true, DuplicateCheck: true})

	client.On("GetAsset", mock.Anything, "a1").
		Return(ptr(assetDTO("a1", "/lib/2024-03-05-Birthday/IMG_0001.jpg")), nil).Once()
	client.On("CreateAlbum", mock.Anything, "2024-03-05-Birthday", mock.Anything).
		Return(ptr(albumDTO("alb1", "2024-03-05-Birthday")), nil).Once()
	client.On("AddAssets", mock.Anything, "alb1", []string{"a1"}).Return(okResults("a1"), nil).Once()
	client.On("GetAlbum", mock.Anything, "alb1").
		Return(ptr(albumDTO("alb1", "2024-03-05-Birthday", "a1")), nil)
	client.On("ListTags", mock.Anything).Return([]immich.Tag{}, nil).Once()
	client.On("CreateTag", mock.Anything, "autotag/unclassified").
		Return(&immich.Tag{ID: "t-u", Value: "autotag/unclassified"}, nil).Once()
	client.On("TagAssets", mock.Anything, "t-u", []string{"a1"}).Return(okResults("a1"), nil).Once()

	require.NoError(t, f.org.Process(context.Background(), "a1"))

	counts := f.rep.CountByKind()
	assert.Equal(t, 1, counts[report.KindAlbumCreated])
	assert.Equal(t, 1, counts[report.KindAssetToAlbum])
	assert.Equal(t, 1, counts[report.KindTagAdded])
	assert.Equal(t, 1, f.st.Get(stats.CounterUnclassified))
	assert.Equal(t, 1, f.st.Get(stats.CounterProcessed))
	client.AssertExpectations(t)
}

// A second run over unchanged state produces zero additional entries.
func TestProcess_SecondRunIsIdempotent(t *testing.T) {
	client := new(mocks.Client)
	f := newFixture(t, client, classify.Config{}, organizer.Config{FolderAlbums: true, DuplicateCheck: true})

	client.On("GetAsset", mock.Anything, "a1").
		Return(ptr(assetDTO("a1", "/lib/2024-03-05-Birthday/IMG_0001.jpg")), nil).Once()
	client.On("CreateAlbum", mock.Anything, "2024-03-05-Birthday", mock.Anything).
		Return(ptr(albumDTO("alb1", "2024-03-05-Birthday")), nil).Once()
	client.On("AddAssets", mock.Anything, "alb1", []string{"a1"}).Return(okResults("a1"), nil).Once()
	client.On("GetAlbum", mock.Anything, "alb1").
		Return(ptr(albumDTO("alb1", "2024-03-05-Birthday", "a1")), nil)
	client.On("ListTags", mock.Anything).Return([]immich.Tag{}, nil).Once()
	client.On("CreateTag", mock.Anything, "autotag/unclassified").
		Return(&immich.Tag{ID: "t-u", Value: "autotag/unclassified"}, nil).Once()
	client.On("TagAssets", mock.Anything, "t-u", []string{"a1"}).Return(okResults("a1"), nil).Once()

	require.NoError(t, f.org.Process(context.Background(), "a1"))
	entries := f.rep.Len()

	require.NoError(t, f.org.Process(context.Background(), "a1"))
	assert.Equal(t, entries, f.rep.Len(), "second run must add no modification entries")
}

// Two matching rules produce a conflict: the asset leaves its holding album,
// gets the conflict tag and an audit entry, and no assignment happens.
func TestProcess_ConflictBranch(t *testing.T) {
	client := new(mocks.Client)
	ccfg := classify.Config{Rules: []classify.RuleConfig{
		{Name: "memes", Tags: []string{"meme"}},
		{Name: "trips", AlbumPatterns: []string{`^2024[-_]01[-_]01`}},
	}}
	f := newFixture(t, client, ccfg, organizer.Config{FolderAlbums: true, DuplicateCheck: true})

	client.On("ListAlbums", mock.Anything).Return([]immich.Album{
		albumDTO("alb-trip", "2024-01-01-Trip"),
		albumDTO("alb-tmp", "2024-03"),
	}, nil).Once()
	require.NoError(t, f.albums.ResyncFromAPI(context.Background(), false))
	f.albums.Index().Add("a1", "alb-trip")
	f.albums.Index().Add("a1", "alb-tmp")

	client.On("GetAsset", mock.Anything, "a1").
		Return(ptr(assetDTO("a1", "/upload/IMG_0001.jpg", "meme")), nil).Once()
	client.On("RemoveAssets", mock.Anything, "alb-tmp", []string{"a1"}).Return(okResults("a1"), nil).Once()
	client.On("GetAlbum", mock.Anything, "alb-tmp").
		Return(ptr(albumDTO("alb-tmp", "2024-03")), nil)
	client.On("ListTags", mock.Anything).Return([]immich.Tag{}, nil).Once()
	client.On("CreateTag", mock.Anything, "autotag/conflict").
		Return(&immich.Tag{ID: "t-c", Value: "autotag/conflict"}, nil).Once()
	client.On("TagAssets", mock.Anything, "t-c", []string{"a1"}).Return(okResults("a1"), nil).Once()

	require.NoError(t, f.org.Process(context.Background(), "a1"))

	counts := f.rep.CountByKind()
	assert.Equal(t, 1, counts[report.KindAssetFromAlbum])
	assert.Equal(t, 1, counts[report.KindConflictDetected])
	assert.Equal(t, 0, counts[report.KindAssetToAlbum])
	assert.Equal(t, 1, f.st.Get(stats.CounterConflicts))
	client.AssertExpectations(t)
}

// Tag conversion with move semantics replaces the legacy tag and records one
// conversion entry.
func TestProcess_TagConversionMove(t *testing.T) {
	client := new(mocks.Client)
	ccfg := classify.Config{Rules: []classify.RuleConfig{{Name: "memes", Tags: []string{"memes"}}}}
	ocfg := organizer.Config{
		DuplicateCheck: true,
		TagConversions: []organizer.TagConversion{{From: "funny", To: "memes", Mode: organizer.ConversionMove}},
	}
	f := newFixture(t, client, ccfg, ocfg)

	client.On("GetAsset", mock.Anything, "a1").
		Return(ptr(assetDTO("a1", "/upload/IMG_0001.jpg", "funny")), nil).Once()
	client.On("ListTags", mock.Anything).
		Return([]immich.Tag{{ID: "t-f", Value: "funny"}}, nil).Once()
	client.On("CreateTag", mock.Anything, "memes").
		Return(&immich.Tag{ID: "t-m", Value: "memes"}, nil).Once()
	client.On("TagAssets", mock.Anything, "t-m", []string{"a1"}).Return(okResults("a1"), nil).Once()
	client.On("UntagAssets", mock.Anything, "t-f", []string{"a1"}).Return(okResults("a1"), nil).Once()

	require.NoError(t, f.org.Process(context.Background(), "a1"))

	counts := f.rep.CountByKind()
	assert.Equal(t, 1, counts[report.KindTagConverted])
	assert.Equal(t, 1, counts[report.KindTagAdded])
	assert.Equal(t, 1, counts[report.KindTagRemoved])
	// The converted tag now matches the rule: classified, no bookkeeping tags.
	assert.Equal(t, 1, f.st.Get(stats.CounterClassified))
	client.AssertExpectations(t)
}

// Conflicting classification tags across a duplicate group mark every member
// with the group-scoped conflict tag and stop the pipeline for the asset.
func TestProcess_DuplicateGroupConflictStops(t *testing.T) {
	client := new(mocks.Client)
	ccfg := classify.Config{Rules: []classify.RuleConfig{
		{Name: "memes", Tags: []string{"meme"}},
		{Name: "docs", Tags: []string{"document"}},
	}}
	f := newFixture(t, client, ccfg, organizer.Config{DuplicateCheck: true})

	a1 := assetDTO("a1", "/upload/IMG_0001.jpg", "meme")
	a1.DuplicateID = "g1"
	a2 := assetDTO("a2", "/upload/IMG_0001(1).jpg", "document")
	a2.DuplicateID = "g1"

	client.On("GetAsset", mock.Anything, "a1").Return(&a1, nil).Once()
	client.On("GetAsset", mock.Anything, "a2").Return(&a2, nil).Once()
	client.On("ListDuplicateGroups", mock.Anything).Return([]immich.DuplicateGroup{
		{DuplicateID: "g1", Assets: []immich.Asset{{ID: "a1"}, {ID: "a2"}}},
	}, nil).Once()
	client.On("ListTags", mock.Anything).Return([]immich.Tag{}, nil).Once()
	client.On("CreateTag", mock.Anything, "autotag/conflict-group-g1").
		Return(&immich.Tag{ID: "t-g", Value: "autotag/conflict-group-g1"}, nil).Once()
	client.On("TagAssets", mock.Anything, "t-g", []string{"a1"}).Return(okResults("a1"), nil).Once()
	client.On("TagAssets", mock.Anything, "t-g", []string{"a2"}).Return(okResults("a2"), nil).Once()

	require.NoError(t, f.org.Process(context.Background(), "a1"))

	assert.Equal(t, 2, f.rep.CountByKind()[report.KindConflictDetected])
	assert.Equal(t, 1, f.st.Get(stats.CounterConflicts))
	// The pipeline stopped: no album assignment, no bookkeeping tags.
	assert.Equal(t, 0, f.rep.CountByKind()[report.KindAssetToAlbum])
	client.AssertExpectations(t)
}

// One empty side of a duplicate group receives the other side's classification
// tags, then classification proceeds normally.
func TestProcess_DuplicateGroupCopyToEmpty(t *testing.T) {
	client := new(mocks.Client)
	ccfg := classify.Config{Rules: []classify.RuleConfig{{Name: "memes", Tags: []string{"meme"}}}}
	f := newFixture(t, client, ccfg, organizer.Config{DuplicateCheck: true})

	a1 := assetDTO("a1", "/upload/IMG_0001.jpg")
	a1.DuplicateID = "g1"
	a2 := assetDTO("a2", "/upload/IMG_0001(1).jpg", "meme")
	a2.DuplicateID = "g1"

	client.On("GetAsset", mock.Anything, "a1").Return(&a1, nil).Once()
	client.On("GetAsset", mock.Anything, "a2").Return(&a2, nil).Once()
	client.On("ListDuplicateGroups", mock.Anything).Return([]immich.DuplicateGroup{
		{DuplicateID: "g1", Assets: []immich.Asset{{ID: "a1"}, {ID: "a2"}}},
	}, nil).Once()
	client.On("ListTags", mock.Anything).
		Return([]immich.Tag{{ID: "t-m", Value: "meme"}}, nil).Once()
	client.On("TagAssets", mock.Anything, "t-m", []string{"a1"}).Return(okResults("a1"), nil).Once()

	require.NoError(t, f.org.Process(context.Background(), "a1"))

	// The copied tag classified the asset; no conflict, no holding album.
	assert.Equal(t, 1, f.rep.CountByKind()[report.KindTagAdded])
	assert.Equal(t, 1, f.st.Get(stats.CounterClassified))
	client.AssertExpectations(t)
}

// Dry-run records the would-be assignment without remote mutation.
func TestProcess_DryRun(t *testing.T) {
	client := new(mocks.Client)
	f := newFixture(t, client, classify.Config{}, organizer.Config{
		FolderAlbums: true, DuplicateCheck: true, DryRun: true,
	})

	client.On("GetAsset", mock.Anything, "a1").
		Return(ptr(assetDTO("a1", "/lib/2024-03-05-Birthday/IMG_0001.jpg")), nil).Once()
	client.On("ListTags", mock.Anything).Return([]immich.Tag{}, nil).Once()

	require.NoError(t, f.org.Process(context.Background(), "a1"))

	counts := f.rep.CountByKind()
	assert.Equal(t, 1, counts[report.KindAssetToAlbum])
	assert.Equal(t, 1, counts[report.KindTagAdded])
	client.AssertNotCalled(t, "CreateAlbum", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "AddAssets", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "TagAssets", mock.Anything, mock.Anything, mock.Anything)
}
