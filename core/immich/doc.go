// Package immich is the thin proxy to the remote Immich server.
//
// It exposes the coarse REST primitives the engine builds on: album, asset and tag
// CRUD, paginated asset search, duplicate-group listing, and the bulk membership and
// tagging operations. The package deliberately contains no reconciliation logic; it
// translates HTTP results into typed values and errors, and nothing else.
//
// # Bulk results
//
// Every write operation on the Immich API is bulk: it accepts a list of ids and
// returns a parallel list of per-id {id, success, error} results. A 2xx status code
// therefore proves nothing about any individual id. Callers must reconcile the result
// list against the input list; BulkOutcome does that bookkeeping.
//
// # Errors
//
// Recoverable remote conditions (HTTP 400/404, or a known error string such as
// "duplicate" in a bulk result) are surfaced as typed values so call sites are forced
// to handle them explicitly instead of string-matching ad hoc.
//
// # Mocking
//
// The Client interface is mocked with testify in core/immich/mocks, following the
// same pattern as core/storage/mocks.
package immich
