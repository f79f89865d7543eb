package collection

import "time"

// Duplicate-resolution policies.
const (
	PolicyAutoMerge        = "auto-merge"
	PolicyFailFast         = "fail-fast"
	PolicyCollectAndReport = "collect-and-report"
)

// Config holds the album-collection settings.
type Config struct {
	// DuplicatePolicy selects how duplicate album names found during a resync
	// are resolved (auto-merge, fail-fast, collect-and-report).
	DuplicatePolicy string `mapstructure:"duplicate_policy" default:"auto-merge"`
	// DuplicateReportPath is the summary file for the collect-and-report policy.
	DuplicateReportPath string `mapstructure:"duplicate_report_path" default:"duplicate-albums.txt"`

	// UnavailableThreshold is how many recoverable reload failures within the
	// window mark one album unavailable.
	UnavailableThreshold int `mapstructure:"unavailable_threshold" default:"3"`
	// UnavailableWindowSeconds is the sliding window for the threshold above.
	UnavailableWindowSeconds int `mapstructure:"unavailable_window_seconds" default:"300"`
	// GlobalUnavailableThreshold bounds distinct albums marked unavailable in
	// one run before the condition is treated as a systemic outage.
	GlobalUnavailableThreshold int `mapstructure:"global_unavailable_threshold" default:"10"`

	// TemporaryPattern is the reserved date-bucket name pattern of holding
	// albums the engine creates itself.
	TemporaryPattern string `mapstructure:"temporary_pattern" default:"^\\d{4}-\\d{2}$"`
	// TemporaryHealthWindowDays is the maximum member date spread of a healthy
	// temporary album.
	TemporaryHealthWindowDays int `mapstructure:"temporary_health_window_days" default:"30"`
}

// UnavailableWindow returns the sliding window as a duration.
func (c Config) UnavailableWindow() time.Duration {
	if c.UnavailableWindowSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.UnavailableWindowSeconds) * time.Second
}

// TemporaryHealthWindow returns the health window as a duration.
func (c Config) TemporaryHealthWindow() time.Duration {
	days := c.TemporaryHealthWindowDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}
