package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/txemi/immich-autotag-sub000/core/metrics"
)

// Client defines the remote operations the engine consumes.
type Client interface {
	// ListAlbums returns all albums without membership (partial representation).
	ListAlbums(ctx context.Context) ([]Album, error)
	// GetAlbum returns one album with full membership.
	GetAlbum(ctx context.Context, albumID string) (*Album, error)
	// CreateAlbum creates an album and returns its full representation.
	CreateAlbum(ctx context.Context, name string, assetIDs []string) (*Album, error)
	// UpdateAlbumName renames an album.
	UpdateAlbumName(ctx context.Context, albumID, name string) error
	// DeleteAlbum deletes an album.
	DeleteAlbum(ctx context.Context, albumID string) error
	// AddAssets adds assets to an album; one result per input id.
	AddAssets(ctx context.Context, albumID string, assetIDs []string) ([]BulkResult, error)
	// RemoveAssets removes assets from an album; one result per input id.
	RemoveAssets(ctx context.Context, albumID string, assetIDs []string) ([]BulkResult, error)
	// AddAlbumUser grants a user access to an album with the given role.
	AddAlbumUser(ctx context.Context, albumID, userID, role string) error

	// GetAsset returns one asset with tags.
	GetAsset(ctx context.Context, assetID string) (*Asset, error)
	// UpdateAssetDate sets the asset's capture date.
	UpdateAssetDate(ctx context.Context, assetID string, date time.Time) error
	// SearchAssets returns one page of the metadata search.
	SearchAssets(ctx context.Context, page, size int) (*SearchPage, error)
	// ListDuplicateGroups returns all duplicate groups.
	ListDuplicateGroups(ctx context.Context) ([]DuplicateGroup, error)

	// ListTags returns all tags.
	ListTags(ctx context.Context) ([]Tag, error)
	// CreateTag creates a tag by full name (e.g. "autotag/conflict").
	CreateTag(ctx context.Context, name string) (*Tag, error)
	// DeleteTag deletes a tag.
	DeleteTag(ctx context.Context, tagID string) error
	// TagAssets assigns a tag to assets; one result per input id.
	TagAssets(ctx context.Context, tagID string, assetIDs []string) ([]BulkResult, error)
	// UntagAssets removes a tag from assets; one result per input id.
	UntagAssets(ctx context.Context, tagID string, assetIDs []string) ([]BulkResult, error)

	// Me returns the authenticated user.
	Me(ctx context.Context) (*User, error)
}

// StatusError is a non-2xx HTTP response from the Immich API.
type StatusError struct {
	// Code is the HTTP status code.
	Code int
	// Endpoint is the logical endpoint name (e.g. "albums.get").
	Endpoint string
	// Message is the error body, truncated.
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("immich %s: HTTP %d: %s", e.Endpoint, e.Code, e.Message)
}

// Recoverable reports whether the status is a known-recoverable reload failure
// (not-found or no-access), as opposed to a genuine server fault.
func (e *StatusError) Recoverable() bool {
	return e.Code == http.StatusBadRequest || e.Code == http.StatusNotFound
}

// httpClient is the HTTP implementation of Client.
type httpClient struct {
	base    string
	apiKey  string
	http    *http.Client
	metrics metrics.Recorder
}

// NewClient creates an HTTP client for the configured Immich server.
func NewClient(cfg Config, rec metrics.Recorder) Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	if rec == nil {
		rec = metrics.Nop{}
	}

	return &httpClient{
		base:    strings.TrimRight(cfg.Endpoint, "/") + "/api",
		apiKey:  cfg.ApiKey,
		http:    &http.Client{Transport: transport, Timeout: timeoutDuration},
		metrics: rec,
	}
}

// do performs one request and decodes the JSON response into out (if non-nil).
func (c *httpClient) do(ctx context.Context, endpoint, method, path string, body, out any) error {
	c.metrics.APICall(endpoint)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("immich %s: encode request: %w", endpoint, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("immich %s: build request: %w", endpoint, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("immich %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Endpoint: endpoint, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("immich %s: decode response: %w", endpoint, err)
	}
	return nil
}

func (c *httpClient) ListAlbums(ctx context.Context) ([]Album, error) {
	var albums []Album
	if err := c.do(ctx, "albums.list", http.MethodGet, "/albums", nil, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

func (c *httpClient) GetAlbum(ctx context.Context, albumID string) (*Album, error) {
	var album Album
	if err := c.do(ctx, "albums.get", http.MethodGet, "/albums/"+albumID, nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

func (c *httpClient) CreateAlbum(ctx context.Context, name string, assetIDs []string) (*Album, error) {
	payload := map[string]any{"albumName": name}
	if len(assetIDs) > 0 {
		payload["assetIds"] = assetIDs
	}
	var album Album
	if err := c.do(ctx, "albums.create", http.MethodPost, "/albums", payload, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

func (c *httpClient) UpdateAlbumName(ctx context.Context, albumID, name string) error {
	payload := map[string]any{"albumName": name}
	return c.do(ctx, "albums.update", http.MethodPatch, "/albums/"+albumID, payload, nil)
}

func (c *httpClient) DeleteAlbum(ctx context.Context, albumID string) error {
	return c.do(ctx, "albums.delete", http.MethodDelete, "/albums/"+albumID, nil, nil)
}

func (c *httpClient) AddAssets(ctx context.Context, albumID string, assetIDs []string) ([]BulkResult, error) {
	payload := map[string]any{"ids": assetIDs}
	var results []BulkResult
	if err := c.do(ctx, "albums.addAssets", http.MethodPut, "/albums/"+albumID+"/assets", payload, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *httpClient) RemoveAssets(ctx context.Context, albumID string, assetIDs []string) ([]BulkResult, error) {
	payload := map[string]any{"ids": assetIDs}
	var results []BulkResult
	if err := c.do(ctx, "albums.removeAssets", http.MethodDelete, "/albums/"+albumID+"/assets", payload, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *httpClient) AddAlbumUser(ctx context.Context, albumID, userID, role string) error {
	payload := map[string]any{
		"albumUsers": []map[string]string{{"userId": userID, "role": role}},
	}
	return c.do(ctx, "albums.addUser", http.MethodPut, "/albums/"+albumID+"/users", payload, nil)
}

func (c *httpClient) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	var asset Asset
	if err := c.do(ctx, "assets.get", http.MethodGet, "/assets/"+assetID, nil, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (c *httpClient) UpdateAssetDate(ctx context.Context, assetID string, date time.Time) error {
	payload := map[string]any{"dateTimeOriginal": date.Format(time.RFC3339)}
	return c.do(ctx, "assets.update", http.MethodPut, "/assets/"+assetID, payload, nil)
}

func (c *httpClient) SearchAssets(ctx context.Context, page, size int) (*SearchPage, error) {
	payload := searchMetadataRequest{Page: page, Size: size}
	var result SearchPage
	if err := c.do(ctx, "search.metadata", http.MethodPost, "/search/metadata", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) ListDuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	var groups []DuplicateGroup
	if err := c.do(ctx, "duplicates.list", http.MethodGet, "/duplicates", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *httpClient) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.do(ctx, "tags.list", http.MethodGet, "/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *httpClient) CreateTag(ctx context.Context, name string) (*Tag, error) {
	payload := map[string]any{"name": name}
	var tag Tag
	if err := c.do(ctx, "tags.create", http.MethodPost, "/tags", payload, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *httpClient) DeleteTag(ctx context.Context, tagID string) error {
	return c.do(ctx, "tags.delete", http.MethodDelete, "/tags/"+tagID, nil, nil)
}

func (c *httpClient) TagAssets(ctx context.Context, tagID string, assetIDs []string) ([]BulkResult, error) {
	payload := map[string]any{"ids": assetIDs}
	var results []BulkResult
	if err := c.do(ctx, "tags.assign", http.MethodPut, "/tags/"+tagID+"/assets", payload, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *httpClient) UntagAssets(ctx context.Context, tagID string, assetIDs []string) ([]BulkResult, error) {
	payload := map[string]any{"ids": assetIDs}
	var results []BulkResult
	if err := c.do(ctx, "tags.unassign", http.MethodDelete, "/tags/"+tagID+"/assets", payload, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *httpClient) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, "users.me", http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
