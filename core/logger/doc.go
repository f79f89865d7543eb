// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and a pair of helpers for scoping log entries to
// one organize run or one asset pipeline.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Run started")
//
//	// Inside one asset's pipeline:
//	l := logger.WithAsset(log, asset.ID)
//	l.Warn("verify exhausted retries", zap.String("album_id", albumID))
package logger
