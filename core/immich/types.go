package immich

import "time"

// Album represents an album as returned by the Immich API (AlbumResponseDto).
// Assets is only populated by GetAlbum; ListAlbums returns partial albums.
type Album struct {
	ID            string    `json:"id"`
	AlbumName     string    `json:"albumName"`
	OwnerID       string    `json:"ownerId"`
	AssetCount    int       `json:"assetCount"`
	Assets        []Asset   `json:"assets,omitempty"`
	StartDate     time.Time `json:"startDate,omitempty"`
	EndDate       time.Time `json:"endDate,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	HasSharedLink bool      `json:"hasSharedLink"`
	Shared        bool      `json:"shared"`
}

// Asset represents an asset as returned by the Immich API (AssetResponseDto).
type Asset struct {
	ID               string    `json:"id"`
	DeviceAssetID    string    `json:"deviceAssetId"`
	OwnerID          string    `json:"ownerId"`
	Type             string    `json:"type"`
	OriginalPath     string    `json:"originalPath"`
	OriginalFileName string    `json:"originalFileName"`
	FileCreatedAt    time.Time `json:"fileCreatedAt"`
	FileModifiedAt   time.Time `json:"fileModifiedAt"`
	LocalDateTime    time.Time `json:"localDateTime"`
	UpdatedAt        time.Time `json:"updatedAt"`
	DuplicateID      string    `json:"duplicateId,omitempty"`
	IsArchived       bool      `json:"isArchived"`
	IsTrashed        bool      `json:"isTrashed"`
	Tags             []Tag     `json:"tags,omitempty"`
}

// Tag represents a tag (TagResponseDto).
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User represents a user (UserResponseDto).
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DuplicateGroup is one group of assets the server considers likely copies.
type DuplicateGroup struct {
	DuplicateID string  `json:"duplicateId"`
	Assets      []Asset `json:"assets"`
}

// SearchPage is one page of a paginated metadata search.
type SearchPage struct {
	Assets struct {
		Total    int     `json:"total"`
		Count    int     `json:"count"`
		Items    []Asset `json:"items"`
		NextPage *string `json:"nextPage"`
	} `json:"assets"`
}

// searchMetadataRequest is the body for POST /api/search/metadata.
type searchMetadataRequest struct {
	Page     int  `json:"page"`
	Size     int  `json:"size"`
	WithExif bool `json:"withExif,omitempty"`
}

// BulkResult is one per-id outcome of a bulk operation (BulkIdResponseDto).
type BulkResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Known error strings the Immich API reports inside bulk results.
const (
	BulkErrDuplicate    = "duplicate"
	BulkErrNotFound     = "not_found"
	BulkErrNoPermission = "no_permission"
)

// Recoverable reports whether the bulk error string is a known condition the
// engine absorbs (already a member, already removed, not visible).
func (r BulkResult) Recoverable() bool {
	switch r.Error {
	case BulkErrDuplicate, BulkErrNotFound, BulkErrNoPermission:
		return true
	default:
		return false
	}
}
