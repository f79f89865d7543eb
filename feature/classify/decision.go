package classify

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/txemi/immich-autotag-sub000/feature/catalog"
)

// datePrefix recognizes the date-prefixed path segment a folder-derived album
// name starts at.
var datePrefix = regexp.MustCompile(`^\d{4}[-_]\d{2}[-_]\d{2}`)

// Decider builds album decisions; it holds the compiled decision settings.
type Decider struct {
	eventPattern  *regexp.Regexp
	excluded      []*regexp.Regexp
	extraSegments int
	minNameLength int
}

// NewDecider compiles the album-decision settings.
func NewDecider(cfg Config) (*Decider, error) {
	pattern := cfg.EventAlbumPattern
	if pattern == "" {
		pattern = `^\d{4}[-_]\d{2}[-_]\d{2}`
	}
	eventRE, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid event album pattern %q: %w", pattern, err)
	}

	d := &Decider{
		eventPattern:  eventRE,
		extraSegments: cfg.FolderExtraSegments,
		minNameLength: cfg.MinAlbumNameLength,
	}
	if d.minNameLength <= 0 {
		d.minNameLength = 6
	}
	for _, p := range cfg.ExcludedPathPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid excluded path pattern %q: %w", p, err)
		}
		d.excluded = append(d.excluded, re)
	}
	return d, nil
}

// Decision holds the candidate album names for one asset, from the two
// independent signals: folder path analysis and duplicate-group siblings.
type Decision struct {
	// FolderCandidate is the name derived from the asset's storage path, empty
	// when the path carries no date-prefixed segment or is excluded.
	FolderCandidate string
	// DuplicateCandidates are album names already held by sibling duplicates.
	DuplicateCandidates []string

	eventPattern *regexp.Regexp
}

// Decide builds the decision for one asset. siblingAlbums is the union of album
// names held by the asset's duplicate-group siblings.
func (d *Decider) Decide(asset *catalog.AssetRecord, siblingAlbums []string) (*Decision, error) {
	folder, err := d.folderCandidate(asset.OriginalPath)
	if err != nil {
		return nil, err
	}

	dedup := make(map[string]struct{}, len(siblingAlbums))
	duplicates := make([]string, 0, len(siblingAlbums))
	for _, name := range siblingAlbums {
		if _, ok := dedup[name]; ok {
			continue
		}
		dedup[name] = struct{}{}
		duplicates = append(duplicates, name)
	}
	sort.Strings(duplicates)

	return &Decision{
		FolderCandidate:     folder,
		DuplicateCandidates: duplicates,
		eventPattern:        d.eventPattern,
	}, nil
}

// folderCandidate locates a date-prefixed path segment and appends up to the
// configured number of following segments. A computed name shorter than the
// plausibility floor is a parsing bug, reported as an error rather than treated
// as a legitimate "no album" case.
func (d *Decider) folderCandidate(originalPath string) (string, error) {
	if originalPath == "" {
		return "", nil
	}
	for _, re := range d.excluded {
		if re.MatchString(originalPath) {
			return "", nil
		}
	}

	dir := path.Dir(originalPath)
	segments := strings.Split(dir, "/")
	for i, seg := range segments {
		if !datePrefix.MatchString(seg) {
			continue
		}
		parts := []string{seg}
		for j := i + 1; j < len(segments) && len(parts) <= d.extraSegments; j++ {
			parts = append(parts, segments[j])
		}
		name := strings.Join(parts, " - ")
		if len(name) < d.minNameLength {
			return "", fmt.Errorf("folder-derived album name %q from %q is implausibly short", name, originalPath)
		}
		return name, nil
	}
	return "", nil
}

// ValidAlbums filters all candidates through the event-album pattern, deduped
// and sorted.
func (dec *Decision) ValidAlbums() []string {
	seen := make(map[string]struct{})
	var valid []string
	consider := func(name string) {
		if name == "" || !dec.eventPattern.MatchString(name) {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		valid = append(valid, name)
	}
	consider(dec.FolderCandidate)
	for _, name := range dec.DuplicateCandidates {
		consider(name)
	}
	sort.Strings(valid)
	return valid
}

// IsUnique reports exactly one valid candidate.
func (dec *Decision) IsUnique() bool { return len(dec.ValidAlbums()) == 1 }

// HasConflict reports more than one valid candidate.
func (dec *Decision) HasConflict() bool { return len(dec.ValidAlbums()) > 1 }
