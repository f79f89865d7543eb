// Package classify implements the rule engine and the album decision.
//
// A rule is a disjunction of criteria: tag names, album-name patterns, explicit
// asset ids. Matching an asset against the rule set yields a MatchResultList,
// reduced to the three-valued classification status. The status function is pure:
// it depends only on the asset's current tags, album names and id, so calling it
// twice without mutating the asset yields the same result.
//
// One deliberate asymmetry is preserved from the original behavior: a single rule
// matching several album-name patterns at once is a conflict (several possible
// destinations), while a single rule matching several of its tags is still
// classified (one destination, several confirmations). Do not "fix" this without
// talking to the maintainers first.
//
// The album decision combines two independent signals per asset: an album name
// derived from a date-prefixed folder path segment, and album names already held
// by the asset's duplicate-group siblings.
package classify
