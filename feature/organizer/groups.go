package organizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/txemi/immich-autotag-sub000/core/immich"
)

// GroupIndex maps asset ids to their duplicate-group siblings, loaded once per
// run from the server's duplicate detection.
type GroupIndex struct {
	client immich.Client

	mu      sync.Mutex
	byAsset map[string][]string
	loaded  bool
}

// NewGroupIndex creates an empty index; groups are loaded lazily.
func NewGroupIndex(client immich.Client) *GroupIndex {
	return &GroupIndex{client: client, byAsset: make(map[string][]string)}
}

func (g *GroupIndex) load(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loaded {
		return nil
	}
	groups, err := g.client.ListDuplicateGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list duplicate groups: %w", err)
	}
	for _, group := range groups {
		ids := make([]string, 0, len(group.Assets))
		for _, a := range group.Assets {
			ids = append(ids, a.ID)
		}
		for _, id := range ids {
			g.byAsset[id] = ids
		}
	}
	g.loaded = true
	return nil
}

// Siblings returns the other members of the asset's duplicate group, or nil
// when the asset belongs to none.
func (g *GroupIndex) Siblings(ctx context.Context, assetID string) ([]string, error) {
	if err := g.load(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, id := range g.byAsset[assetID] {
		if id != assetID {
			out = append(out, id)
		}
	}
	return out, nil
}
