// Package organizer drives the per-asset reconciliation pipeline.
//
// For each asset, in order: configured tag conversions, optional best-date
// correction, duplicate-group classification-tag consistency, the
// classification branch (classified / conflict / unclassified with album
// assignment or a date-bucket holding album), bookkeeping-tag revalidation and
// a report flush. The pipeline is idempotent: a second run over unchanged
// remote state produces no additional modification entries.
//
// The scheduler runs the pipeline sequentially with per-asset checkpoints, or
// over a bounded worker pool without checkpointing.
package organizer
