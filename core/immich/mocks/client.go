package mocks

import (
	"context"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/immich"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of immich.Client
type Client struct {
	mock.Mock
}

func (m *Client) ListAlbums(ctx context.Context) ([]immich.Album, error) {
	args := m.Called(ctx)
	if albums, ok := args.Get(0).([]immich.Album); ok {
		return albums, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) GetAlbum(ctx context.Context, albumID string) (*immich.Album, error) {
	args := m.Called(ctx, albumID)
	if album, ok := args.Get(0).(*immich.Album); ok {
		return album, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) CreateAlbum(ctx context.Context, name string, assetIDs []string) (*immich.Album, error) {
	args := m.Called(ctx, name, assetIDs)
	if album, ok := args.Get(0).(*immich.Album); ok {
		return album, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) UpdateAlbumName(ctx context.Context, albumID, name string) error {
	args := m.Called(ctx, albumID, name)
	return args.Error(0)
}

func (m *Client) DeleteAlbum(ctx context.Context, albumID string) error {
	args := m.Called(ctx, albumID)
	return args.Error(0)
}

func (m *Client) AddAssets(ctx context.Context, albumID string, assetIDs []string) ([]immich.BulkResult, error) {
	args := m.Called(ctx, albumID, assetIDs)
	if results, ok := args.Get(0).([]immich.BulkResult); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) RemoveAssets(ctx context.Context, albumID string, assetIDs []string) ([]immich.BulkResult, error) {
	args := m.Called(ctx, albumID, assetIDs)
	if results, ok := args.Get(0).([]immich.BulkResult); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) AddAlbumUser(ctx context.Context, albumID, userID, role string) error {
	args := m.Called(ctx, albumID, userID, role)
	return args.Error(0)
}

func (m *Client) GetAsset(ctx context.Context, assetID string) (*immich.Asset, error) {
	args := m.Called(ctx, assetID)
	if asset, ok := args.Get(0).(*immich.Asset); ok {
		return asset, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) UpdateAssetDate(ctx context.Context, assetID string, date time.Time) error {
	args := m.Called(ctx, assetID, date)
	return args.Error(0)
}

func (m *Client) SearchAssets(ctx context.Context, page, size int) (*immich.SearchPage, error) {
	args := m.Called(ctx, page, size)
	if result, ok := args.Get(0).(*immich.SearchPage); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) ListDuplicateGroups(ctx context.Context) ([]immich.DuplicateGroup, error) {
	args := m.Called(ctx)
	if groups, ok := args.Get(0).([]immich.DuplicateGroup); ok {
		return groups, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) ListTags(ctx context.Context) ([]immich.Tag, error) {
	args := m.Called(ctx)
	if tags, ok := args.Get(0).([]immich.Tag); ok {
		return tags, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) CreateTag(ctx context.Context, name string) (*immich.Tag, error) {
	args := m.Called(ctx, name)
	if tag, ok := args.Get(0).(*immich.Tag); ok {
		return tag, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) DeleteTag(ctx context.Context, tagID string) error {
	args := m.Called(ctx, tagID)
	return args.Error(0)
}

func (m *Client) TagAssets(ctx context.Context, tagID string, assetIDs []string) ([]immich.BulkResult, error) {
	args := m.Called(ctx, tagID, assetIDs)
	if results, ok := args.Get(0).([]immich.BulkResult); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) UntagAssets(ctx context.Context, tagID string, assetIDs []string) ([]immich.BulkResult, error) {
	args := m.Called(ctx, tagID, assetIDs)
	if results, ok := args.Get(0).([]immich.BulkResult); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Me(ctx context.Context) (*immich.User, error) {
	args := m.Called(ctx)
	if user, ok := args.Get(0).(*immich.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}
