package cmd

import (
	"github.com/txemi/immich-autotag-sub000/feature/collection"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// albumsCmd groups the album-collection maintenance subcommands.
var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "Album collection maintenance",
}

var albumsResyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rebuild the album registry from the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.coll.ResyncFromAPI(ctx, true); err != nil {
			return err
		}
		a.logger.Info("album collection resynced", zap.Int("albums", len(a.coll.Albums())))
		return nil
	},
}

var albumsDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Merge albums sharing a name",
	Long: `Resyncs the collection with the auto-merge duplicate policy: for every name
carried by several albums, assets are moved into one survivor and the others are
deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		a.coll = mustCollection(a, collection.PolicyAutoMerge)
		if err := a.coll.ResyncFromAPI(ctx, true); err != nil {
			return err
		}
		a.printSummary(cmd)
		return nil
	},
}

var albumsCleanupCmd = &cobra.Command{
	Use:   "cleanup-temporary",
	Short: "Delete empty date-bucket holding albums",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.coll.ResyncFromAPI(ctx, true); err != nil {
			return err
		}
		// RebuildIndex promotes the albums and prunes empty holding albums.
		if err := a.coll.RebuildIndex(ctx); err != nil {
			return err
		}
		a.printSummary(cmd)
		return nil
	},
}

// mustCollection rebuilds the collection with an overridden duplicate policy.
func mustCollection(a *app, policy string) *collection.Collection {
	cfg := a.cfg.Collection
	cfg.DuplicatePolicy = policy
	coll, err := collection.New(a.client, a.albumStore, a.cache, a.rep, a.mode, cfg, a.user, a.logger)
	if err != nil {
		// The only constructor failure is an invalid temporary pattern, which
		// the initial collection already validated.
		a.logger.Fatal("failed to rebuild collection", zap.Error(err))
	}
	return coll
}

func init() {
	albumsCmd.AddCommand(albumsResyncCmd)
	albumsCmd.AddCommand(albumsDedupeCmd)
	albumsCmd.AddCommand(albumsCleanupCmd)
	RootCmd.AddCommand(albumsCmd)
}
