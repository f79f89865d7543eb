// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to expose the handful of operations the shared
// response cache needs: bucket checks, object upload/download and removal. The
// abstraction supports both AWS S3 and self-hosted MinIO instances, so several
// machines pointed at the same Immich server can share one cache bucket.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easy
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "autotag-cache")
package storage
