package organizer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/report"
	"github.com/txemi/immich-autotag-sub000/core/stats"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"
	"github.com/txemi/immich-autotag-sub000/feature/classify"
	"github.com/txemi/immich-autotag-sub000/feature/collection"

	"go.uber.org/zap"
)

// pathDate extracts a date from a date-prefixed path segment.
var pathDate = regexp.MustCompile(`(\d{4})[-_](\d{2})[-_](\d{2})`)

// Organizer runs the per-asset reconciliation pipeline.
type Organizer struct {
	client   immich.Client
	assets   *catalog.AssetStore
	albums   *collection.Collection
	engine   *classify.Engine
	decider  *classify.Decider
	tags     *TagDirectory
	groups   *GroupIndex
	rep      *report.Report
	runStats *stats.Manager
	mode     errmode.Mode
	cfg      Config
	logger   *zap.Logger

	ruleTags map[string]struct{}
}

// New wires the pipeline. The collection must be synced before Process is
// called.
func New(client immich.Client, assets *catalog.AssetStore, albums *collection.Collection,
	engine *classify.Engine, decider *classify.Decider, rep *report.Report,
	runStats *stats.Manager, mode errmode.Mode, cfg Config, logger *zap.Logger) *Organizer {

	ruleTags := make(map[string]struct{})
	for _, t := range engine.TagCriteria() {
		ruleTags[t] = struct{}{}
	}
	return &Organizer{
		client:   client,
		assets:   assets,
		albums:   albums,
		engine:   engine,
		decider:  decider,
		tags:     NewTagDirectory(client, rep, cfg.DryRun, logger),
		groups:   NewGroupIndex(client),
		rep:      rep,
		runStats: runStats,
		mode:     mode,
		cfg:      cfg,
		logger:   logger,
		ruleTags: ruleTags,
	}
}

// Mode returns the configured error-handling mode.
func (o *Organizer) Mode() errmode.Mode { return o.mode }

// Process runs the pipeline for one asset. An error aborts this asset only; the
// scheduler advances to the next one.
func (o *Organizer) Process(ctx context.Context, assetID string) error {
	log := o.logger.With(zap.String("asset_id", assetID))

	rec, err := o.assets.Get(ctx, assetID)
	if err != nil {
		return err
	}
	rec, err = o.assets.EnsureFull(ctx, rec)
	if err != nil {
		return err
	}

	if err := o.convertTags(ctx, rec); err != nil {
		return err
	}

	if o.cfg.DateCorrection {
		if err := o.correctDate(ctx, rec, log); err != nil {
			return err
		}
	}

	if o.cfg.DuplicateCheck && rec.DuplicateID != "" {
		stop, err := o.reconcileGroupTags(ctx, rec, log)
		if err != nil {
			return err
		}
		if stop {
			o.runStats.Inc(stats.CounterConflicts, 1)
			o.runStats.Inc(stats.CounterProcessed, 1)
			return o.rep.Flush()
		}
	}

	albumNames := o.albums.AlbumNamesFor(rec.ID)
	results, err := o.engine.MatchingRules(rec, albumNames)
	if err != nil {
		return err
	}
	status := results.Status()

	switch status {
	case classify.StatusClassified:
		o.runStats.Inc(stats.CounterClassified, 1)
		err = o.leaveTemporaryAlbums(ctx, rec)

	case classify.StatusConflict:
		o.runStats.Inc(stats.CounterConflicts, 1)
		log.Info("classification conflict", zap.Strings("rules", ruleNames(results)))
		err = o.leaveTemporaryAlbums(ctx, rec)

	case classify.StatusUnclassified:
		o.runStats.Inc(stats.CounterUnclassified, 1)
		err = o.assignUnclassified(ctx, rec, albumNames, log)
	}
	if err != nil {
		return err
	}

	if err := o.revalidateBookkeeping(ctx, rec, status, results); err != nil {
		return err
	}

	o.runStats.Inc(stats.CounterProcessed, 1)
	return o.rep.Flush()
}

// convertTags applies the configured legacy-to-canonical tag conversions.
func (o *Organizer) convertTags(ctx context.Context, rec *catalog.AssetRecord) error {
	for _, conv := range o.cfg.TagConversions {
		has, err := rec.HasTag(conv.From)
		if err != nil {
			return err
		}
		if !has {
			continue
		}
		added, err := o.tags.Apply(ctx, rec, conv.To)
		if err != nil {
			return err
		}
		removed := false
		if conv.Mode != ConversionCopy {
			if removed, err = o.tags.Remove(ctx, rec, conv.From); err != nil {
				return err
			}
		}
		if added || removed {
			o.rep.Append(report.Entry{
				Kind:     report.KindTagConverted,
				AssetID:  rec.ID,
				OldValue: conv.From,
				NewValue: conv.To,
			})
			o.runStats.Inc(stats.TagCounter(conv.To), 1)
		}
	}
	return nil
}

// correctDate moves the asset's best-date earlier when the storage path or a
// duplicate-group sibling proves an earlier capture time.
func (o *Organizer) correctDate(ctx context.Context, rec *catalog.AssetRecord, log *zap.Logger) error {
	candidate := dateFromPath(rec.OriginalPath)

	if rec.DuplicateID != "" {
		siblings, err := o.groups.Siblings(ctx, rec.ID)
		if err != nil {
			return err
		}
		for _, id := range siblings {
			sib, err := o.assets.Get(ctx, id)
			if err != nil {
				return err
			}
			if !sib.BestDate.IsZero() && (candidate.IsZero() || sib.BestDate.Before(candidate)) {
				candidate = sib.BestDate
			}
		}
	}

	if candidate.IsZero() || !candidate.Before(rec.BestDate) {
		return nil
	}

	if !o.cfg.DryRun {
		if err := o.client.UpdateAssetDate(ctx, rec.ID, candidate); err != nil {
			return fmt.Errorf("failed to update asset date: %w", err)
		}
	}
	old := rec.BestDate
	if err := rec.CorrectDate(candidate); err != nil {
		return err
	}
	o.rep.Append(report.Entry{
		Kind:     report.KindDateCorrected,
		AssetID:  rec.ID,
		OldValue: old.Format(time.RFC3339),
		NewValue: candidate.Format(time.RFC3339),
	})
	log.Info("corrected asset date", zap.Time("old", old), zap.Time("new", candidate))
	return nil
}

// reconcileGroupTags enforces classification-tag consistency across a duplicate
// group. One non-empty tag set and some empty siblings: the set is copied to
// the empty ones. Several distinct non-empty sets: every member gets a
// group-scoped conflict marker and the pipeline stops for this asset.
func (o *Organizer) reconcileGroupTags(ctx context.Context, rec *catalog.AssetRecord, log *zap.Logger) (bool, error) {
	siblingIDs, err := o.groups.Siblings(ctx, rec.ID)
	if err != nil {
		return false, err
	}
	if len(siblingIDs) == 0 {
		return false, nil
	}

	members := []*catalog.AssetRecord{rec}
	for _, id := range siblingIDs {
		sib, err := o.assets.Get(ctx, id)
		if err != nil {
			return false, err
		}
		sib, err = o.assets.EnsureFull(ctx, sib)
		if err != nil {
			return false, err
		}
		members = append(members, sib)
	}

	sets := make(map[string][]string)
	perMember := make([][]string, len(members))
	for i, m := range members {
		set, err := o.classificationTags(m)
		if err != nil {
			return false, err
		}
		perMember[i] = set
		if len(set) > 0 {
			sets[strings.Join(set, ",")] = set
		}
	}

	switch len(sets) {
	case 0:
		return false, nil

	case 1:
		var canonical []string
		for _, set := range sets {
			canonical = set
		}
		for i, m := range members {
			if len(perMember[i]) > 0 {
				continue
			}
			for _, tag := range canonical {
				if _, err := o.tags.Apply(ctx, m, tag); err != nil {
					return false, err
				}
			}
		}
		return false, nil

	default:
		marker := o.groupConflictTag(rec.DuplicateID)
		for _, m := range members {
			added, err := o.tags.Apply(ctx, m, marker)
			if err != nil {
				return false, err
			}
			if added {
				o.rep.Append(report.Entry{
					Kind:    report.KindConflictDetected,
					AssetID: m.ID,
					TagName: marker,
					Extra:   map[string]string{"duplicate_group": rec.DuplicateID},
				})
			}
		}
		log.Warn("duplicate group carries conflicting classification tags",
			zap.String("duplicate_group", rec.DuplicateID), zap.Int("members", len(members)))
		return true, nil
	}
}

// assignUnclassified tries folder/duplicate-derived album assignment and falls
// back to a date-bucket holding album.
func (o *Organizer) assignUnclassified(ctx context.Context, rec *catalog.AssetRecord, albumNames []string, log *zap.Logger) error {
	var siblingAlbums []string
	if rec.DuplicateID != "" {
		siblingIDs, err := o.groups.Siblings(ctx, rec.ID)
		if err != nil {
			return err
		}
		for _, id := range siblingIDs {
			siblingAlbums = append(siblingAlbums, o.albums.AlbumNamesFor(id)...)
		}
	}

	decision, err := o.decider.Decide(rec, siblingAlbums)
	if err != nil {
		if o.mode.FailFast() {
			return err
		}
		log.Warn("album decision failed", zap.Error(err))
		o.runStats.Inc(stats.CounterRecovered, 1)
		decision = &classify.Decision{}
	}
	if !o.cfg.FolderAlbums {
		decision.FolderCandidate = ""
	}

	valid := decision.ValidAlbums()
	switch {
	case len(valid) == 1:
		return o.addToAlbumByName(ctx, rec, valid[0], albumNames)

	case len(valid) > 1:
		log.Info("ambiguous album candidates, skipping assignment", zap.Strings("candidates", valid))
		return nil

	default:
		if rec.BestDate.IsZero() {
			log.Warn("asset has no usable date, skipping holding album")
			return nil
		}
		return o.addToAlbumByName(ctx, rec, o.albums.Temporary.BucketName(rec.BestDate), albumNames)
	}
}

// addToAlbumByName creates or reuses the named album and adds the asset, unless
// the asset is already a member.
func (o *Organizer) addToAlbumByName(ctx context.Context, rec *catalog.AssetRecord, name string, currentNames []string) error {
	for _, n := range currentNames {
		if n == name {
			return nil
		}
	}
	if o.cfg.DryRun {
		o.rep.Append(report.Entry{Kind: report.KindAssetToAlbum, AssetID: rec.ID, NewValue: name})
		return nil
	}
	album, err := o.albums.CreateOrGetAlbumWithUser(ctx, name, rec.OwnerID)
	if err != nil {
		return err
	}
	if _, err := o.albums.AddAsset(ctx, album, rec.ID); err != nil {
		return err
	}
	o.runStats.Inc(stats.AlbumCounter(name), 1)
	return nil
}

// leaveTemporaryAlbums removes the asset from any holding album it still
// occupies; classified and conflicted assets no longer belong there.
func (o *Organizer) leaveTemporaryAlbums(ctx context.Context, rec *catalog.AssetRecord) error {
	for _, album := range o.albums.AlbumRecordsFor(rec.ID) {
		if !o.albums.Temporary.IsTemporary(album.Name) {
			continue
		}
		if o.cfg.DryRun {
			o.rep.Append(report.Entry{Kind: report.KindAssetFromAlbum, AssetID: rec.ID, AlbumID: album.ID, OldValue: album.Name})
			continue
		}
		if _, err := o.albums.RemoveAsset(ctx, album, rec.ID); err != nil {
			return err
		}
	}
	return nil
}

// revalidateBookkeeping keeps the unclassified/conflict tags in sync with the
// just-computed status. Idempotent: tags already in the right state produce no
// traffic and no entries.
func (o *Organizer) revalidateBookkeeping(ctx context.Context, rec *catalog.AssetRecord, status classify.Status, results classify.MatchResultList) error {
	wantUnclassified := status == classify.StatusUnclassified
	wantConflict := status == classify.StatusConflict

	if err := o.setTag(ctx, rec, o.cfg.UnclassifiedTag, wantUnclassified); err != nil {
		return err
	}
	if wantConflict {
		added, err := o.tags.Apply(ctx, rec, o.cfg.ConflictTag)
		if err != nil {
			return err
		}
		if added {
			o.rep.Append(report.Entry{
				Kind:    report.KindConflictDetected,
				AssetID: rec.ID,
				TagName: o.cfg.ConflictTag,
				Extra:   map[string]string{"rules": strings.Join(ruleNames(results), ",")},
			})
		}
		return nil
	}
	return o.setTag(ctx, rec, o.cfg.ConflictTag, false)
}

func (o *Organizer) setTag(ctx context.Context, rec *catalog.AssetRecord, name string, want bool) error {
	if want {
		_, err := o.tags.Apply(ctx, rec, name)
		return err
	}
	_, err := o.tags.Remove(ctx, rec, name)
	return err
}

// classificationTags intersects the asset's tags with the rule criteria,
// sorted.
func (o *Organizer) classificationTags(rec *catalog.AssetRecord) ([]string, error) {
	tags, err := rec.Tags()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range tags {
		if _, ok := o.ruleTags[t]; ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (o *Organizer) groupConflictTag(duplicateID string) string {
	return o.cfg.ConflictTag + "-group-" + duplicateID
}

func ruleNames(results classify.MatchResultList) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Rule.Name)
	}
	return names
}

func dateFromPath(p string) time.Time {
	m := pathDate.FindStringSubmatch(p)
	if m == nil {
		return time.Time{}
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
