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

// AlbumStore caches album records by id.
type AlbumStore struct {
	mu   sync.Mutex
	byID map[string]*AlbumRecord

	client  immich.Client
	cache   respcache.Store
	metrics metrics.Recorder
	maxAge  time.Duration
	sf      singleflight.Group
	logger  *zap.Logger
}

// NewAlbumStore creates an empty album store.
func NewAlbumStore(client immich.Client, cache respcache.Store, rec metrics.Recorder, cfg Config, logger *zap.Logger) *AlbumStore {
	if cache == nil {
		cache = respcache.Nop{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AlbumStore{
		byID:    make(map[string]*AlbumRecord),
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
func (s *AlbumStore) Get(ctx context.Context, id string) (*AlbumRecord, error) {
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

func (s *AlbumStore) fromCache(ctx context.Context, id string) *AlbumRecord {
	var dto immich.Album
	hit, err := s.cache.Get(ctx, respcache.KindAlbums, id, &dto)
	if err != nil {
		s.logger.Warn("album cache read failed", zap.String("album_id", id), zap.Error(err))
		return nil
	}
	if !hit {
		return nil
	}
	rec, err := s.apply(AlbumFromAPI(dto))
	if err != nil {
		s.logger.Warn("cached album rejected", zap.String("album_id", id), zap.Error(err))
		return nil
	}
	return rec
}

// Cached returns the cached record without touching the network. A missing id
// returns nil; a stale one returns a StaleError.
func (s *AlbumStore) Cached(id string) (*AlbumRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	if age := rec.Age(); age > s.maxAge {
		return nil, &StaleError{Kind: "album", ID: id, Age: age, MaxAge: s.maxAge}
	}
	return rec, nil
}

// Refresh fetches the full album unconditionally. Concurrent refreshes of one id
// share a single request.
func (s *AlbumStore) Refresh(ctx context.Context, id string) (*AlbumRecord, error) {
	v, err, _ := s.sf.Do(id, func() (any, error) {
		dto, err := s.client.GetAlbum(ctx, id)
		if err != nil {
			return nil, err
		}
		s.metrics.EntityFetch("album", dto.ID)
		if err := s.cache.Put(ctx, respcache.KindAlbums, dto.ID, dto); err != nil {
			s.logger.Warn("album cache write failed", zap.String("album_id", dto.ID), zap.Error(err))
		}
		return s.apply(AlbumFromAPI(*dto))
	})
	if err != nil {
		return nil, err
	}
	return v.(*AlbumRecord), nil
}

// EnsureFull promotes a partial record to full. Idempotent.
func (s *AlbumStore) EnsureFull(ctx context.Context, rec *AlbumRecord) (*AlbumRecord, error) {
	if rec.State == LoadFull {
		return rec, nil
	}
	return s.Refresh(ctx, rec.ID)
}

// Seed inserts a record built from a list response, merging into any existing
// record. It returns the canonical record for the id.
func (s *AlbumStore) Seed(rec *AlbumRecord) (*AlbumRecord, error) {
	return s.apply(rec)
}

func (s *AlbumStore) apply(in *AlbumRecord) (*AlbumRecord, error) {
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

// Remove drops the record from the store. Used when the remote album disappears.
func (s *AlbumStore) Remove(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

// All returns every cached record.
func (s *AlbumStore) All() []*AlbumRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AlbumRecord, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	return out
}
