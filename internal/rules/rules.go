// Package rules defines URL rules and per-profile save options.
// Rules map URL patterns to named profiles; a profile's options drive the
// save pipeline. The disabled profile is a sentinel that switches auto-save
// off for matching URLs regardless of any other flag.
package rules

import "strings"

// Profile names with reserved meaning.
const (
	ProfileDefault  = "default"
	ProfileDisabled = "__disabled__"
)

// Rule maps a URL pattern to a profile name.
// Patterns are matched by substring against the full tab URL; the longest
// matching pattern wins when several rules apply.
type Rule struct {
	ID        string `json:"id"`
	Pattern   string `json:"pattern"`
	Profile   string `json:"profile"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Matches reports whether the rule applies to the given URL.
// An empty pattern never matches.
func (r *Rule) Matches(url string) bool {
	return r.Pattern != "" && strings.Contains(url, r.Pattern)
}

// Disabled reports whether the rule forces auto-save off.
func (r *Rule) Disabled() bool {
	return r.Profile == ProfileDisabled
}

// BestMatch returns the most specific rule matching the URL, or nil.
// Specificity is pattern length; ties resolve to the earlier rule.
func BestMatch(rules []Rule, url string) *Rule {
	var best *Rule
	for i := range rules {
		r := &rules[i]
		if !r.Matches(url) {
			continue
		}
		if best == nil || len(r.Pattern) > len(best.Pattern) {
			best = r
		}
	}
	return best
}
