// Package stats tracks per-run statistics and the sequential-mode checkpoint.
//
// Counters (processed assets, conflicts, per-tag and per-album touch counts) are
// kept in memory and persisted through GORM into the run table after every
// checkpoint and at run end. A later run started with resume enabled picks up the
// last unfinished run's position and cumulative count.
package stats
