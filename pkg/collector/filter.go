package collector

import (
	"regexp"

	"github.com/spursup/feedserver/pkg/feed"
)

// Relevance patterns. The filter works on lowercased "title + summary" text,
// so all patterns are compiled case-insensitively to also cover config
// provided overrides.
var (
	// tokens that are strong enough to keep an entry on their own
	strongAnyPatterns = []string{
		`\bgamecocks?\b`,
		`\bshane\s+beamer\b`,
		`\bwilliams[- ]brice\b`,
		`\bspurs\s*up\b`,
		`\bgamecock\s*central\b`,
	}

	// "usc" is guarded against the USC Trojans below
	scOrUSCPatterns = []string{
		`\bsouth\s*carolina\b`,
		`\busc\b`,
	}

	footballTermPatterns = []string{
		`\bfootball\b`, `\bcoach(es|ing)?\b`, `\bquarterback|qb\b`,
		`\bdefense|offense\b`, `\bsec\b`, `\bncaa\b`,
		`\brecruit|\bcommit|\btransfer portal\b`, `\bspring game\b`, `\bdepth chart\b`,
	}

	excludeOtherSportsPatterns = []string{
		`\bwomen'?s\b`, `\bwbb\b`,
		`\bbasketball\b`, `\bbaseball\b`,
		`\bsoftball\b`, `\bvolleyball\b`, `\bsoccer\b`,
		`\btrack\b`, `\bgolf\b`,
	}

	negativeUSCPatterns = []string{
		`\btrojans\b`, `\blincoln\s+riley\b`, `\busc\s+trojans\b`,
	}
)

// Filter decides whether an item is about the team. It runs in two stages:
// StrictKeep for the first pass and FallbackKeep to top up the result when
// the strict pass leaves the list too short.
type Filter struct {
	strong      []*regexp.Regexp
	scOrUSC     []*regexp.Regexp
	football    []*regexp.Regexp
	excluded    []*regexp.Regexp
	negativeUSC []*regexp.Regexp
}

// NewFilter compiles the built-in relevance patterns
func NewFilter() *Filter {
	return &Filter{
		strong:      compileAll(strongAnyPatterns),
		scOrUSC:     compileAll(scOrUSCPatterns),
		football:    compileAll(footballTermPatterns),
		excluded:    compileAll(excludeOtherSportsPatterns),
		negativeUSC: compileAll(negativeUSCPatterns),
	}
}

// StrictKeep keeps entries with a strong team token, or an SC/USC mention in
// a football context that is not about the USC Trojans. Other sports are
// always dropped.
func (f *Filter) StrictKeep(text string) bool {
	if matchesAny(f.excluded, text) {
		return false
	}
	if matchesAny(f.strong, text) {
		return true
	}
	if matchesAny(f.scOrUSC, text) {
		if matchesAny(f.negativeUSC, text) {
			return false
		}
		if matchesAny(f.football, text) {
			return true
		}
	}
	return false
}

// FallbackKeep keeps any SC/USC or strong-token mention. The other-sports
// exclusion and the Trojans guard still apply.
func (f *Filter) FallbackKeep(text string) bool {
	if matchesAny(f.excluded, text) {
		return false
	}
	if matchesAny(f.strong, text) || matchesAny(f.scOrUSC, text) {
		if matchesAny(f.negativeUSC, text) {
			return false
		}
		return true
	}
	return false
}

// KeepItem applies StrictKeep to an item
func (f *Filter) KeepItem(it *feed.Item) bool {
	return f.StrictKeep(it.Text())
}

func compileAll(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return compiled
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
