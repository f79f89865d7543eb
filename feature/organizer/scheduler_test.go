package organizer_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/immich/mocks"
	"github.com/txemi/immich-autotag-sub000/core/stats"
	"github.com/txemi/immich-autotag-sub000/feature/classify"
	"github.com/txemi/immich-autotag-sub000/feature/organizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func searchPage(next *string, ids ...string) *immich.SearchPage {
	sp := &immich.SearchPage{}
	for _, id := range ids {
		sp.Assets.Items = append(sp.Assets.Items, assetDTO(id, "/upload/"+id+".jpg"))
	}
	sp.Assets.Count = len(ids)
	sp.Assets.NextPage = next
	return sp
}

func newScheduler(t *testing.T, client *mocks.Client, ocfg organizer.Config, resumeFrom string) (*organizer.Scheduler, *fixture) {
	t.Helper()
	f := newFixture(t, client, classify.Config{}, ocfg)
	engine, err := classify.NewEngine(classify.Config{})
	require.NoError(t, err)
	sched := organizer.NewScheduler(f.org, client, f.assets, engine, f.st, ocfg, 100, resumeFrom, zap.NewNop())
	return sched, f
}

func TestCollectAssetIDs_Pagination(t *testing.T) {
	client := new(mocks.Client)
	sched, _ := newScheduler(t, client, organizer.Config{}, "")

	client.On("SearchAssets", mock.Anything, 1, 100).Return(searchPage(ptr("2"), "a1", "a2"), nil).Once()
	client.On("SearchAssets", mock.Anything, 2, 100).Return(searchPage(nil, "a3"), nil).Once()

	ids, err := sched.CollectAssetIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids)
	client.AssertExpectations(t)
}

func TestCollectAssetIDs_ExplicitFilterWins(t *testing.T) {
	client := new(mocks.Client)
	sched, _ := newScheduler(t, client, organizer.Config{AssetIDs: []string{"a9"}}, "")

	ids, err := sched.CollectAssetIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a9"}, ids)
	client.AssertNotCalled(t, "SearchAssets", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_SequentialResumeSkipsProcessedPrefix(t *testing.T) {
	client := new(mocks.Client)
	ocfg := organizer.Config{
		AssetIDs: []string{"a1", "a2", "a3"},
		Resume:   true,
		DryRun:   true,
	}
	sched, f := newScheduler(t, client, ocfg, "a2")

	// Only the asset after the checkpoint is fetched and processed.
	client.On("GetAsset", mock.Anything, "a3").
		Return(ptr(assetDTO("a3", "/upload/a3.jpg")), nil).Once()

	require.NoError(t, sched.Run(context.Background()))
	assert.Equal(t, 1, f.st.Get(stats.CounterProcessed))
	client.AssertExpectations(t)
	client.AssertNotCalled(t, "GetAsset", mock.Anything, "a1")
	client.AssertNotCalled(t, "GetAsset", mock.Anything, "a2")
}

func TestRun_SequentialMissingCheckpointProcessesAll(t *testing.T) {
	client := new(mocks.Client)
	ocfg := organizer.Config{
		AssetIDs: []string{"a1", "a2"},
		Resume:   true,
		DryRun:   true,
	}
	// The checkpointed asset is gone from the working set; the run must fall
	// back to processing everything instead of skipping it all.
	sched, f := newScheduler(t, client, ocfg, "a9")

	for _, id := range ocfg.AssetIDs {
		client.On("GetAsset", mock.Anything, id).
			Return(ptr(assetDTO(id, "/upload/"+id+".jpg")), nil).Once()
	}

	require.NoError(t, sched.Run(context.Background()))
	assert.Equal(t, 2, f.st.Get(stats.CounterProcessed))
	client.AssertExpectations(t)
}

func TestRun_PoolProcessesAll(t *testing.T) {
	client := new(mocks.Client)
	ocfg := organizer.Config{
		AssetIDs: []string{"a1", "a2", "a3", "a4"},
		Workers:  3,
		DryRun:   true,
	}
	sched, f := newScheduler(t, client, ocfg, "")

	for _, id := range ocfg.AssetIDs {
		client.On("GetAsset", mock.Anything, id).
			Return(ptr(assetDTO(id, "/upload/"+id+".jpg")), nil).Once()
	}

	require.NoError(t, sched.Run(context.Background()))
	assert.Equal(t, 4, f.st.Get(stats.CounterProcessed))
	client.AssertExpectations(t)
}

func TestRun_PoolStopsDispatchAfterFatal(t *testing.T) {
	client := new(mocks.Client)
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprintf("a%02d", i)
	}
	ocfg := organizer.Config{AssetIDs: ids, Workers: 2, DryRun: true}
	sched, _ := newScheduler(t, client, ocfg, "")

	var fetched atomic.Int32
	client.On("GetAsset", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { fetched.Add(1) }).
		Return(nil, &immich.StatusError{Code: 500, Endpoint: "assets.get", Message: "boom"})

	// The fixture fails fast, so the first failure is fatal; once it lands, no
	// further assets may be dispatched.
	err := sched.Run(context.Background())
	require.Error(t, err)
	assert.Less(t, int(fetched.Load()), len(ids))
}
