package organizer

// Tag conversion modes.
const (
	ConversionMove = "move"
	ConversionCopy = "copy"
)

// TagConversion renames a legacy tag to its canonical form. Move removes the
// legacy tag afterwards, copy keeps both.
type TagConversion struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
	Mode string `mapstructure:"mode" default:"move"`
}

// Config holds the reconciliation-driver settings.
type Config struct {
	// TagConversions run first in every asset pipeline.
	TagConversions []TagConversion `mapstructure:"tag_conversions"`

	// FolderAlbums enables folder-path-derived album assignment for
	// unclassified assets.
	FolderAlbums bool `mapstructure:"folder_albums" default:"true"`
	// DateCorrection enables the best-date correction step.
	DateCorrection bool `mapstructure:"date_correction"`
	// DuplicateCheck enables the duplicate-group tag consistency step.
	DuplicateCheck bool `mapstructure:"duplicate_check" default:"true"`

	// UnclassifiedTag and ConflictTag are the bookkeeping tags the driver keeps
	// in sync with the classification status.
	UnclassifiedTag string `mapstructure:"unclassified_tag" default:"autotag/unclassified"`
	ConflictTag     string `mapstructure:"conflict_tag" default:"autotag/conflict"`

	// Workers sizes the pool; 1 selects the sequential scheduler, which is the
	// only mode that checkpoints.
	Workers int `mapstructure:"workers" default:"1"`
	// Resume continues from the last checkpoint of an unfinished run.
	Resume bool `mapstructure:"resume"`
	// DryRun records report entries without mutating the remote service.
	DryRun bool `mapstructure:"dry_run"`

	// AssetIDs restricts the run to these assets. Empty means the whole
	// library (or the rules' focus set when one exists).
	AssetIDs []string `mapstructure:"asset_ids"`
}
