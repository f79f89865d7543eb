// Package errmode defines the global error-handling modes and the error taxonomy
// shared by every engine component.
//
// # Modes
//
//   - Operator: absorb known-recoverable errors, log, continue. Maximizes completed
//     work across a large library.
//   - Developer: fail fast on any unexpected condition, including situations the
//     operator mode would merely log.
//   - Diagnostic: developer mode plus extra invariant assertions, for hunting
//     classification or caching bugs.
//
// # Taxonomy
//
//   - Stale cache: a cached entity exceeded its freshness window. Always recoverable
//     by refetch (see catalog.ErrStale).
//   - Recoverable remote: HTTP 400/404 on a reload, or a known error string in a
//     bulk-operation result ("duplicate", "not_found", "no_permission").
//   - Integrity: an invariant the engine itself guarantees was violated. Fatal in
//     every mode; tolerating it would mask a bug, not a transient condition.
//
// Classification ambiguity (conflict status) is not an error at all and is handled
// through tags and audit entries, never through this package.
package errmode
