package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/txemi/immich-autotag-sub000/core/config"
	"github.com/txemi/immich-autotag-sub000/core/database"
	"github.com/txemi/immich-autotag-sub000/core/errmode"
	"github.com/txemi/immich-autotag-sub000/core/immich"
	"github.com/txemi/immich-autotag-sub000/core/logger"
	"github.com/txemi/immich-autotag-sub000/core/metrics"
	"github.com/txemi/immich-autotag-sub000/core/report"
	"github.com/txemi/immich-autotag-sub000/core/respcache"
	"github.com/txemi/immich-autotag-sub000/core/stats"
	"github.com/txemi/immich-autotag-sub000/core/storage"
	"github.com/txemi/immich-autotag-sub000/feature/catalog"
	"github.com/txemi/immich-autotag-sub000/feature/classify"
	"github.com/txemi/immich-autotag-sub000/feature/collection"
	"github.com/txemi/immich-autotag-sub000/feature/organizer"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// reportPath is the append-only modification log next to the working directory.
const reportPath = "autotag-report.log"

// app is the dependency-injected application context every command builds once
// and passes to the components it drives.
type app struct {
	cfg      *config.Config
	mode     errmode.Mode
	logger   *zap.Logger
	runID    string
	counters *metrics.Counters
	client   immich.Client
	cache    respcache.Store
	rep      *report.Report
	db       *gorm.DB
	runStats *stats.Manager
	user     *immich.User

	assetStore *catalog.AssetStore
	albumStore *catalog.AlbumStore
	coll       *collection.Collection
	engine     *classify.Engine
	decider    *classify.Decider
}

// newApp loads configuration and wires the full application context.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logg = logg.With(zap.String("run_id", runID))

	counters := metrics.NewCounters()
	client := immich.NewClient(cfg.Immich, counters)

	var cache respcache.Store
	if cfg.Storage.Enabled {
		sc, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		cache, err = respcache.NewBucketStore(ctx, sc, cfg.Storage.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache bucket: %w", err)
		}
	} else {
		fs, err := respcache.NewFSStore(cfg.Cache.Dir, runID, cfg.Cache.MaxRuns)
		if err != nil {
			logg.Warn("response cache unavailable, running without", zap.Error(err))
			cache = respcache.Nop{}
		} else {
			cache = fs
		}
	}

	rep := report.New(reportPath, runID, logg)

	// The stats database is optional; a failed connection degrades to
	// in-memory counters without checkpointing.
	var db *gorm.DB
	if conn, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("stats database unavailable, checkpointing disabled", zap.Error(err))
	} else {
		db = conn
	}
	runStats, err := stats.NewManager(db, runID)
	if err != nil {
		return nil, err
	}

	user, err := client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate against %s: %w", cfg.Immich.Endpoint, err)
	}
	logg.Info("authenticated", zap.String("user", user.Name))

	assetStore := catalog.NewAssetStore(client, cache, counters, cfg.Catalog, logg)
	albumStore := catalog.NewAlbumStore(client, cache, counters, cfg.Catalog, logg)

	coll, err := collection.New(client, albumStore, cache, rep, mode, cfg.Collection, user, logg)
	if err != nil {
		return nil, err
	}

	engine, err := classify.NewEngine(cfg.Classify)
	if err != nil {
		return nil, err
	}
	decider, err := classify.NewDecider(cfg.Classify)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		mode:       mode,
		logger:     logg,
		runID:      runID,
		counters:   counters,
		client:     client,
		cache:      cache,
		rep:        rep,
		db:         db,
		runStats:   runStats,
		user:       user,
		assetStore: assetStore,
		albumStore: albumStore,
		coll:       coll,
		engine:     engine,
		decider:    decider,
	}, nil
}

// close finishes the run record and flushes pending state.
func (a *app) close() {
	if err := a.rep.Flush(); err != nil {
		a.logger.Warn("failed to flush report", zap.Error(err))
	}
	if err := a.runStats.Finish(); err != nil {
		a.logger.Warn("failed to finish run record", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// organize runs one full reconciliation pass: resync the collection, process
// the working set, rebuild the index and clean up empty holding albums.
func (a *app) organize(ctx context.Context, ocfg organizer.Config, resumeFrom string) error {
	if err := a.coll.ResyncFromAPI(ctx, true); err != nil {
		return err
	}
	if err := a.coll.RebuildIndex(ctx); err != nil {
		return err
	}

	org := organizer.New(a.client, a.assetStore, a.coll, a.engine, a.decider,
		a.rep, a.runStats, a.mode, ocfg, a.logger)
	sched := organizer.NewScheduler(org, a.client, a.assetStore, a.engine,
		a.runStats, ocfg, a.cfg.Immich.PageSize, resumeFrom, a.logger)
	if err := sched.Run(ctx); err != nil {
		return err
	}

	// Final pass drops holding albums the run emptied.
	return a.coll.RebuildIndex(ctx)
}

// resumePoint returns the checkpoint of the most recent unfinished run.
func (a *app) resumePoint() string {
	if a.db == nil {
		return ""
	}
	cp, err := stats.LastCheckpoint(a.db)
	if err != nil {
		a.logger.Warn("failed to read checkpoint", zap.Error(err))
		return ""
	}
	if cp == nil {
		return ""
	}
	a.logger.Info("resuming from checkpoint",
		zap.String("last_asset_id", cp.LastAssetID), zap.Int("processed", cp.Processed))
	return cp.LastAssetID
}

// printSummary renders the run counters and API usage as a table.
func (a *app) printSummary(cmd *cobra.Command) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Counter", "Value"})

	counters := a.runStats.Counters()
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.AppendRow(table.Row{name, counters[name]})
	}

	t.AppendSeparator()
	total := 0
	for _, n := range a.counters.APICalls() {
		total += n
	}
	t.AppendRow(table.Row{"api calls", total})
	// Total far above distinct means redundant remote reads worth investigating.
	fetchTotal, fetchDistinct := a.counters.FetchStats()
	kinds := make([]string, 0, len(fetchTotal))
	for kind := range fetchTotal {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		t.AppendRow(table.Row{
			kind + " fetches",
			fmt.Sprintf("%d (%d distinct)", fetchTotal[kind], fetchDistinct[kind]),
		})
	}
	t.AppendRow(table.Row{"report entries", a.rep.Len()})
	t.Render()
}
