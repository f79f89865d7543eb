package classify

// RuleConfig is one user-defined classification rule as it appears in the
// configuration file.
type RuleConfig struct {
	// Name identifies the rule in logs and audit entries.
	Name string `mapstructure:"name"`
	// Tags matches assets carrying any of these tag names.
	Tags []string `mapstructure:"tags"`
	// AlbumPatterns matches assets that are members of an album whose name
	// matches any of these regular expressions.
	AlbumPatterns []string `mapstructure:"album_patterns"`
	// AssetIDs matches these assets explicitly.
	AssetIDs []string `mapstructure:"asset_ids"`
}

// Config holds the classification and album-decision settings.
type Config struct {
	// Rules is the user-defined rule set.
	Rules []RuleConfig `mapstructure:"rules"`
	// EventAlbumPattern recognizes names that look like an event album. Only
	// candidates matching it are ever assigned.
	EventAlbumPattern string `mapstructure:"event_album_pattern" default:"^\\d{4}[-_]\\d{2}[-_]\\d{2}"`
	// FolderExtraSegments is how many path segments after the date-prefixed one
	// are appended to the folder-derived album name.
	FolderExtraSegments int `mapstructure:"folder_extra_segments" default:"0"`
	// ExcludedPathPatterns disables folder-derived names for matching paths
	// (e.g. camera upload buckets).
	ExcludedPathPatterns []string `mapstructure:"excluded_path_patterns"`
	// MinAlbumNameLength is the plausibility floor for folder-derived names. A
	// shorter result means the path parser misfired.
	MinAlbumNameLength int `mapstructure:"min_album_name_length" default:"6"`
}
