package organizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/report"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"

	"go.uber.org/zap"
)

// TagDirectory maps tag names to remote ids, creating missing tags on demand,
// and applies single-asset tag mutations with bulk-result reconciliation.
type TagDirectory struct {
	client immich.Client
	rep    *report.Report
	logger *zap.Logger
	dryRun bool

	mu     sync.Mutex
	byName map[string]string
	loaded bool
}

// NewTagDirectory creates an empty directory; the name map is loaded lazily.
func NewTagDirectory(client immich.Client, rep *report.Report, dryRun bool, logger *zap.Logger) *TagDirectory {
	return &TagDirectory{
		client: client,
		rep:    rep,
		logger: logger,
		dryRun: dryRun,
		byName: make(map[string]string),
	}
}

func (d *TagDirectory) load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return nil
	}
	tags, err := d.client.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}
	for _, t := range tags {
		d.byName[t.Value] = t.ID
	}
	d.loaded = true
	return nil
}

// EnsureTag returns the tag id for the name, creating the tag remotely when it
// does not exist yet.
func (d *TagDirectory) EnsureTag(ctx context.Context, name string) (string, error) {
	if err := d.load(ctx); err != nil {
		return "", err
	}
	d.mu.Lock()
	id, ok := d.byName[name]
	d.mu.Unlock()
	if ok {
		return id, nil
	}
	if d.dryRun {
		return "", nil
	}
	tag, err := d.client.CreateTag(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	d.mu.Lock()
	d.byName[name] = tag.ID
	d.mu.Unlock()
	return tag.ID, nil
}

// Apply puts the tag on the asset. It returns false without remote traffic when
// the asset already carries it.
func (d *TagDirectory) Apply(ctx context.Context, asset *catalog.AssetRecord, name string) (bool, error) {
	has, err := asset.HasTag(name)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}

	if !d.dryRun {
		tagID, err := d.EnsureTag(ctx, name)
		if err != nil {
			return false, err
		}
		results, err := d.client.TagAssets(ctx, tagID, []string{asset.ID})
		if err != nil {
			return false, fmt.Errorf("failed to tag asset with %q: %w", name, err)
		}
		outcome := immich.ReconcileBulk([]string{asset.ID}, results)
		if err := outcome.Err("tag asset"); err != nil {
			return false, err
		}
		if reason, recovered := outcome.Recovered[asset.ID]; recovered && reason != immich.BulkErrDuplicate {
			return false, fmt.Errorf("tag asset with %q: recoverable error %q", name, reason)
		}
	}

	asset.ApplyTag(name)
	d.rep.Append(report.Entry{Kind: report.KindTagAdded, AssetID: asset.ID, TagName: name})
	return true, nil
}

// Remove takes the tag off the asset. It returns false without remote traffic
// when the asset does not carry it.
func (d *TagDirectory) Remove(ctx context.Context, asset *catalog.AssetRecord, name string) (bool, error) {
	has, err := asset.HasTag(name)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}

	if !d.dryRun {
		tagID, err := d.EnsureTag(ctx, name)
		if err != nil {
			return false, err
		}
		results, err := d.client.UntagAssets(ctx, tagID, []string{asset.ID})
		if err != nil {
			return false, fmt.Errorf("failed to untag asset from %q: %w", name, err)
		}
		outcome := immich.ReconcileBulk([]string{asset.ID}, results)
		if err := outcome.Err("untag asset"); err != nil {
			return false, err
		}
		if reason, recovered := outcome.Recovered[asset.ID]; recovered && reason != immich.BulkErrNotFound {
			return false, fmt.Errorf("untag asset from %q: recoverable error %q", name, reason)
		}
	}

	asset.ApplyUntag(name)
	d.rep.Append(report.Entry{Kind: report.KindTagRemoved, AssetID: asset.ID, TagName: name})
	return true, nil
}
