package classify

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/txemi/immich-autotag-sub000/feature/catalog"
)

// Status is the three-valued outcome of matching an asset against the rule set.
type Status string

const (
	// StatusUnclassified means zero rules matched.
	StatusUnclassified Status = "UNCLASSIFIED"
	// StatusClassified means exactly one rule matched with one destination.
	StatusClassified Status = "CLASSIFIED"
	// StatusConflict means several rules matched, or one rule produced several
	// destinations.
	StatusConflict Status = "CONFLICT"
)

// Rule is one compiled classification rule.
type Rule struct {
	Name          string
	Tags          map[string]struct{}
	AlbumPatterns []*regexp.Regexp
	AssetIDs      map[string]struct{}
}

// MatchResult records what a rule concretely matched for one asset.
type MatchResult struct {
	Rule *Rule
	// Tags are the rule tags found on the asset.
	Tags []string
	// Albums are the asset's album names that matched a rule pattern. Each one
	// is a distinct destination.
	Albums []string
	// ByID is true when the asset was matched by explicit id.
	ByID bool
}

// Destinations counts the distinct album destinations the match produced.
// Several matched tags of one rule share a single destination; several matched
// album patterns do not.
func (m MatchResult) Destinations() int {
	if len(m.Albums) > 1 {
		return len(m.Albums)
	}
	return 1
}

// MatchResultList is the outcome of matching one asset against all rules.
type MatchResultList []MatchResult

// Status reduces the list to the classification status.
func (l MatchResultList) Status() Status {
	switch {
	case len(l) == 0:
		return StatusUnclassified
	case len(l) == 1 && l[0].Destinations() == 1:
		return StatusClassified
	default:
		return StatusConflict
	}
}

// Engine evaluates the configured rules against assets.
type Engine struct {
	rules []Rule
}

// NewEngine compiles the configured rule set.
func NewEngine(cfg Config) (*Engine, error) {
	rules := make([]Rule, 0, len(cfg.Rules))
	for i, rc := range cfg.Rules {
		name := rc.Name
		if name == "" {
			name = fmt.Sprintf("rule-%d", i+1)
		}
		rule := Rule{
			Name:     name,
			Tags:     make(map[string]struct{}, len(rc.Tags)),
			AssetIDs: make(map[string]struct{}, len(rc.AssetIDs)),
		}
		for _, t := range rc.Tags {
			rule.Tags[t] = struct{}{}
		}
		for _, id := range rc.AssetIDs {
			rule.AssetIDs[id] = struct{}{}
		}
		for _, p := range rc.AlbumPatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rule %s: invalid album pattern %q: %w", name, p, err)
			}
			rule.AlbumPatterns = append(rule.AlbumPatterns, re)
		}
		rules = append(rules, rule)
	}
	return &Engine{rules: rules}, nil
}

// MatchingRules evaluates every rule against the asset. albumNames is the
// asset's current album membership as known by the collection's reverse index.
// The asset must be fully loaded (tags are a criterion).
func (e *Engine) MatchingRules(asset *catalog.AssetRecord, albumNames []string) (MatchResultList, error) {
	tags, err := asset.Tags()
	if err != nil {
		return nil, err
	}

	var results MatchResultList
	for i := range e.rules {
		rule := &e.rules[i]
		result := MatchResult{Rule: rule}

		for _, t := range tags {
			if _, ok := rule.Tags[t]; ok {
				result.Tags = append(result.Tags, t)
			}
		}
		for _, name := range albumNames {
			for _, re := range rule.AlbumPatterns {
				if re.MatchString(name) {
					result.Albums = append(result.Albums, name)
					break
				}
			}
		}
		if _, ok := rule.AssetIDs[asset.ID]; ok {
			result.ByID = true
		}

		if len(result.Tags) > 0 || len(result.Albums) > 0 || result.ByID {
			results = append(results, result)
		}
	}
	return results, nil
}

// TagCriteria returns the union of tag names any rule matches on, sorted.
// These are the "classification tags" the duplicate-group consistency check
// compares across siblings.
func (e *Engine) TagCriteria() []string {
	seen := make(map[string]struct{})
	var tags []string
	for i := range e.rules {
		for t := range e.rules[i].Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}

// IsFocused reports whether any rule targets concrete assets by id. Callers use
// this to process only the referenced assets instead of the whole library.
func (e *Engine) IsFocused() bool {
	for i := range e.rules {
		if len(e.rules[i].AssetIDs) > 0 {
			return true
		}
	}
	return false
}

// FocusAssetIDs returns the union of explicitly targeted asset ids.
func (e *Engine) FocusAssetIDs() []string {
	var ids []string
	seen := make(map[string]struct{})
	for i := range e.rules {
		for id := range e.rules[i].AssetIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
