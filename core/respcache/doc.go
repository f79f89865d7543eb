// Package respcache caches remote responses between runs.
//
// Every successful remote fetch of an album, asset or album-list page is written
// through to the cache keyed by entity id, partitioned by kind. Reads fall through
// from the current run's partition to the most recent prior run's partition,
// writing back on a fallback hit, so a rerun shortly after a crash does not hammer
// the Immich server with fetches it already performed.
//
// Two backends exist: a local filesystem store (JSON documents under a run
// directory) and an object-bucket store on top of core/storage, which lets several
// machines share one cache.
package respcache
