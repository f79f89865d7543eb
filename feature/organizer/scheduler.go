package organizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/stats"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"
	"github.com/txemi/immich-autotag-sub000/feature/classify"

	"go.uber.org/zap"
)

// Scheduler feeds the pipeline. Sequential mode checkpoints after every asset;
// pool mode does not, because completion order is not monotonic with input
// order.
type Scheduler struct {
	org      *Organizer
	client   immich.Client
	assets   *catalog.AssetStore
	engine   *classify.Engine
	runStats *stats.Manager
	cfg      Config
	pageSize int
	logger   *zap.Logger

	// resumeFrom is the last asset id the previous unfinished run completed.
	resumeFrom string
}

// NewScheduler wires a scheduler around the organizer.
func NewScheduler(org *Organizer, client immich.Client, assets *catalog.AssetStore,
	engine *classify.Engine, runStats *stats.Manager, cfg Config, pageSize int,
	resumeFrom string, logger *zap.Logger) *Scheduler {

	if pageSize <= 0 {
		pageSize = 250
	}
	return &Scheduler{
		org:        org,
		client:     client,
		assets:     assets,
		engine:     engine,
		runStats:   runStats,
		cfg:        cfg,
		pageSize:   pageSize,
		resumeFrom: resumeFrom,
		logger:     logger,
	}
}

// CollectAssetIDs resolves the run's working set: the explicit id filter, the
// rules' focus set, or the whole library via the paginated search. Library
// pages seed the asset store with partial records as a side effect.
func (s *Scheduler) CollectAssetIDs(ctx context.Context) ([]string, error) {
	if len(s.cfg.AssetIDs) > 0 {
		return s.cfg.AssetIDs, nil
	}
	if s.engine.IsFocused() {
		return s.engine.FocusAssetIDs(), nil
	}

	var ids []string
	page := 1
	for {
		sp, err := s.client.SearchAssets(ctx, page, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to search assets (page %d): %w", page, err)
		}
		for _, dto := range sp.Assets.Items {
			if dto.IsTrashed {
				continue
			}
			if _, err := s.assets.Seed(catalog.AssetFromSearch(dto)); err != nil {
				return nil, err
			}
			ids = append(ids, dto.ID)
		}
		if sp.Assets.NextPage == nil {
			break
		}
		page++
	}
	s.logger.Info("collected working set", zap.Int("assets", len(ids)))
	return ids, nil
}

// Run processes the working set with the configured scheduling mode.
func (s *Scheduler) Run(ctx context.Context) error {
	ids, err := s.CollectAssetIDs(ctx)
	if err != nil {
		return err
	}
	if s.cfg.Workers > 1 {
		return s.runPool(ctx, ids)
	}
	return s.runSequential(ctx, ids)
}

func (s *Scheduler) runSequential(ctx context.Context, ids []string) error {
	skipping := s.cfg.Resume && s.resumeFrom != ""
	if skipping && !containsID(ids, s.resumeFrom) {
		// A vanished checkpoint asset would otherwise skip the whole run.
		s.logger.Warn("checkpoint asset not in the working set, processing from the start",
			zap.String("asset_id", s.resumeFrom))
		skipping = false
	}
	for _, id := range ids {
		if skipping {
			if id == s.resumeFrom {
				skipping = false
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processOne(ctx, id); err != nil {
			return err
		}
		if err := s.runStats.SaveCheckpoint(id); err != nil {
			return err
		}
	}
	return nil
}

func containsID(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func (s *Scheduler) runPool(ctx context.Context, ids []string) error {
	work := make(chan string)
	// Closed by the first worker hitting a fatal error so the feeder stops
	// dispatching; in-flight assets still finish.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	var fatalOnce sync.Once
	var fatal error
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range work {
				if err := s.processOne(ctx, id); err != nil {
					fatalOnce.Do(func() {
						fatal = err
						close(stop)
					})
				}
			}
		}()
	}

feed:
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			close(work)
			wg.Wait()
			return err
		}
		select {
		case <-stop:
			break feed
		case work <- id:
		}
	}
	close(work)
	wg.Wait()
	return fatal
}

// processOne runs the pipeline for one asset. Ordinary errors abort that asset
// only and are counted; the batch continues. Integrity errors, and any error
// under fail-fast handling, abort the batch.
func (s *Scheduler) processOne(ctx context.Context, id string) error {
	err := s.org.Process(ctx, id)
	if err == nil {
		return nil
	}
	if errmode.IsIntegrity(err) || s.org.Mode().FailFast() {
		return fmt.Errorf("asset %s: %w", id, err)
	}
	s.runStats.Inc(stats.CounterErrors, 1)
	s.logger.Error("asset pipeline failed", zap.String("asset_id", id), zap.Error(err))
	return nil
}
