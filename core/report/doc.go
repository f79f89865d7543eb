// Package report collects the audit trail of everything the engine changed.
//
// Every remote mutation appends one immutable Entry before the pipeline advances,
// so an interrupted run still leaves a faithful record of what it did. Entries are
// buffered in memory behind a mutex (the worker pool writes concurrently) and
// flushed to an append-only human-readable log file; the statistics manager counts
// them by kind for the machine-readable run summary.
package report
