package respcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/txemi/immich-autotag-sub000/core/storage"

	"github.com/minio/minio-go/v7"
)

// BucketStore caches responses in an object bucket so several machines can share
// one cache. Entries are not partitioned by run: the bucket is a shared pool and
// staleness is handled by the entity wrappers, not the cache.
type BucketStore struct {
	client storage.Client
	bucket string
}

// NewBucketStore verifies the bucket exists (creating it when missing) and
// returns the store.
func NewBucketStore(ctx context.Context, client storage.Client, bucket string) (*BucketStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check cache bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create cache bucket: %w", err)
		}
	}
	return &BucketStore{client: client, bucket: bucket}, nil
}

func objectName(kind Kind, id string) string {
	return string(kind) + "/" + id + ".json"
}

func (s *BucketStore) Get(ctx context.Context, kind Kind, id string, out any) (bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName(kind, id), minio.GetObjectOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to fetch cache object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// Minio reports missing keys on first read, not on GetObject.
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to read cache object: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode cache object: %w", err)
	}
	return true, nil
}

func (s *BucketStore) Put(ctx context.Context, kind Kind, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache object: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, objectName(kind, id),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to store cache object: %w", err)
	}
	return nil
}

func (s *BucketStore) Delete(ctx context.Context, kind Kind, id string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName(kind, id), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove cache object: %w", err)
	}
	return nil
}
