package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/metrics"
	"github.com/txemi/immich-autotag-sub000/core/respcache"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// AssetStore caches asset records by id.
type AssetStore struct {
	mu   sync.Mutex
	byID map[string]*AssetRecord

	client  immich.Client
	cache   respcache.Store
	metrics metrics.Recorder
	maxAge  time.Duration
	sf      singleflight.Group
	logger  *zap.Logger
}

// NewAssetStore creates an empty asset store.
func NewAssetStore(client immich.Client, cache respcache.Store, rec metrics.Recorder, cfg Config, logger *zap.Logger) *AssetStore {
	if cache == nil {
		cache = respcache.Nop{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AssetStore{
		byID:    make(map[string]*AssetRecord),
		client:  client,
		cache:   cache,
		metrics: rec,
		maxAge:  cfg.MaxAge(),
		logger:  logger,
	}
}

// Get returns the cached record when present and fresh. An id never seen this
// process reads through the disk cache (which falls back to recent prior runs)
// before going to the network; a stale in-memory record always refetches, since
// the disk copy can only be as old.
func (s *AssetStore) Get(ctx context.Context, id string) (*AssetRecord, error) {
	s.mu.Lock()
	rec, ok := s.byID[id]
	if ok && rec.Age() <= s.maxAge {
		s.mu.Unlock()
		return rec, nil
	}
	s.mu.Unlock()
	if !ok {
		if rec := s.fromCache(ctx, id); rec != nil {
			return rec, nil
		}
	}
	return s.Refresh(ctx, id)
}

func (s *AssetStore) fromCache(ctx context.Context, id string) *AssetRecord {
	var dto immich.Asset
	hit, err := s.cache.Get(ctx, respcache.KindAssets, id, &dto)
	if err != nil {
		s.logger.Warn("asset cache read failed", zap.String("asset_id", id), zap.Error(err))
		return nil
	}
	if !hit {
		return nil
	}
	rec, err := s.apply(AssetFromAPI(dto))
	if err != nil {
		s.logger.Warn("cached asset rejected", zap.String("asset_id", id), zap.Error(err))
		return nil
	}
	return rec
}

// Cached returns the cached record without touching the network. A missing id
// returns nil; a stale one returns a StaleError.
func (s *AssetStore) Cached(id string) (*AssetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	if age := rec.Age(); age > s.maxAge {
		return nil, &StaleError{Kind: "asset", ID: id, Age: age, MaxAge: s.maxAge}
	}
	return rec, nil
}

// Refresh fetches the full asset unconditionally, deduplicating concurrent
// fetches of one id.
func (s *AssetStore) Refresh(ctx context.Context, id string) (*AssetRecord, error) {
	v, err, _ := s.sf.Do(id, func() (any, error) {
		dto, err := s.client.GetAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		s.metrics.EntityFetch("asset", dto.ID)
		if err := s.cache.Put(ctx, respcache.KindAssets, dto.ID, dto); err != nil {
			s.logger.Warn("asset cache write failed", zap.String("asset_id", dto.ID), zap.Error(err))
		}
		return s.apply(AssetFromAPI(*dto))
	})
	if err != nil {
		return nil, err
	}
	return v.(*AssetRecord), nil
}

// EnsureFull promotes a partial record (from a search page) to full. Idempotent.
func (s *AssetStore) EnsureFull(ctx context.Context, rec *AssetRecord) (*AssetRecord, error) {
	if rec.State == LoadFull {
		return rec, nil
	}
	return s.Refresh(ctx, rec.ID)
}

// Seed inserts a record built from a search response, merging into any existing
// record. It returns the canonical record for the id.
func (s *AssetStore) Seed(rec *AssetRecord) (*AssetRecord, error) {
	return s.apply(rec)
}

func (s *AssetStore) apply(in *AssetRecord) (*AssetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[in.ID]
	if !ok {
		s.byID[in.ID] = in
		return in, nil
	}
	if err := cur.MergeFrom(in); err != nil {
		return nil, err
	}
	return cur, nil
}
