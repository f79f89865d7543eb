// Package catalog holds the cached wrappers around remote albums and assets.
//
// A record carries a possibly-partial representation of its remote entity, the
// load state that says how much of it is trustworthy, and the freshness timestamp
// the staleness checks run against. Lazy full loading is explicit: membership
// accessors fail on a partial record instead of silently fetching, and callers go
// through EnsureFull when they need the complete representation.
//
// The stores (AlbumStore, AssetStore) own the records. Every remote fetch is
// written through to the response cache, counted by the metrics recorder, and
// deduplicated with singleflight so parallel workers asking for the same id share
// one request.
//
// Record methods are not safe for unsynchronized concurrent mutation; the owning
// store or collection serializes access.
package catalog
