// Package database provides the GORM connection used for run bookkeeping.
//
// Run statistics and sequential-mode checkpoints are persisted in a small
// relational store. The default driver is a local sqlite file, which needs no
// setup; operators who want run history from several machines in one place can
// point the connection at MySQL instead.
package database
