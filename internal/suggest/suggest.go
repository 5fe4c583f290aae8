// Package suggest ranks catalog names by similarity to what the user
// typed. Used when the exact-match lookup fails.
package suggest

import (
	"sort"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
)

// Threshold is the minimum similarity ratio a candidate must score.
const Threshold = 0.4

// DefaultLimit caps how many suggestions are offered.
const DefaultLimit = 5

type scored struct {
	name  string
	score float64
	pos   int
}

// Ratio returns a normalized, case-insensitive similarity between a
// and b: 1 for identical strings, approaching 0 for nothing in
// common. Normalized against the combined length, so a short typo
// scores high ("narutoo" vs "naruto" is 0.92) while a long unrelated
// tail drags the score down.
func Ratio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1
	}
	dist := levenshtein.Distance(a, b)
	return 1 - float64(dist)/float64(total)
}

// Suggest returns up to limit names scoring above Threshold against
// input, best first. Ties keep the catalog's document order, so the
// ranking is deterministic for a given input and catalog.
func Suggest(input string, names []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates := lo.FilterMap(names, func(name string, i int) (scored, bool) {
		score := Ratio(input, name)
		return scored{name: name, score: score, pos: i}, score > Threshold
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return lo.Map(candidates, func(c scored, _ int) string { return c.name })
}
