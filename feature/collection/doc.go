// Package collection is the process-wide album registry.
//
// It indexes albums by id and by name over the catalog store and guards the
// registry invariant: at most one non-deleted album per name at any observation
// point. Three sub-managers handle the lifecycles that threaten that invariant:
//
//   - duplicates: merges same-named albums (move assets, delete the loser),
//     under a configurable policy (auto-merge, fail-fast, collect-and-report).
//   - unavailable: a per-album circuit breaker on repeated recoverable reload
//     failures, with a global threshold bounding the blast radius of a remote
//     outage.
//   - temporary: health checking and cleanup of the date-bucket holding albums
//     the engine creates for otherwise-unclassified assets.
//
// A reverse index (asset id to owning album ids) is kept consistent with the
// forward membership of every fully loaded album. All mutation goes through the
// collection's methods so the invariant can be checked at each mutation boundary;
// albums are logically deleted, never physically freed mid-run.
package collection
