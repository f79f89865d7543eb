// Package status serves read-only run introspection over HTTP: current
// statistics counters and recent modification-report entries. It is used by
// daemon mode; one-shot runs print a summary table instead.
package status
