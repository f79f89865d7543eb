package catalog

import (
	"errors"
	"fmt"
	"time"
)

// LoadState says how complete a record's representation is.
type LoadState int

const (
	// LoadPartial is the shape produced by list/search responses: identity and
	// scalar fields only, no membership or relations.
	LoadPartial LoadState = iota + 1
	// LoadFull includes membership (albums) or tags (assets).
	LoadFull
)

func (s LoadState) String() string {
	switch s {
	case LoadPartial:
		return "PARTIAL"
	case LoadFull:
		return "FULL"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// Config holds configuration for the entity stores.
type Config struct {
	// MaxAgeSeconds is the freshness window for cached records.
	MaxAgeSeconds int `mapstructure:"max_age_seconds" default:"3600"`
}

// MaxAge returns the freshness window as a duration.
func (c Config) MaxAge() time.Duration {
	if c.MaxAgeSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

// ErrNotFull is returned by membership accessors on a partial record. It marks a
// caller that skipped EnsureFull, which is a programming error, not a remote one.
var ErrNotFull = errors.New("record is not fully loaded")

// StaleError reports that a cached record exceeded its freshness window while the
// caller explicitly asked for the cached value. Always recoverable by refetch.
type StaleError struct {
	Kind   string
	ID     string
	Age    time.Duration
	MaxAge time.Duration
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("stale %s %s: age %s exceeds %s", e.Kind, e.ID, e.Age.Round(time.Second), e.MaxAge)
}

// IsStale reports whether err is a StaleError.
func IsStale(err error) bool {
	var se *StaleError
	return errors.As(err, &se)
}
