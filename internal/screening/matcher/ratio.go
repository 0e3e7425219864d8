// Package matcher scores candidates against a screening query using fuzzy
// string similarity and a date-of-birth window.
package matcher

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the similarity of a and b in [0,100] as 2M/T, where M is the
// number of runes in matching blocks and T the combined length. Dropped or
// inserted letters cost one rune each, a substitution costs two. Empty input
// scores 0.
func Ratio(a, b string) int {
	if a == b && a != "" {
		return 100
	}
	ra, rb := runes(a), runes(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return percent(difflib.NewMatcher(ra, rb).Ratio())
}

// PartialRatio scores the shorter string against windows of the longer one
// anchored at each matching block, keeping the best Ratio. A query contained
// in a longer candidate name scores 100.
func PartialRatio(a, b string) int {
	if a == b && a != "" {
		return 100
	}
	short, long := runes(a), runes(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if strings.Contains(strings.Join(long, ""), strings.Join(short, "")) {
		return 100
	}

	best := 0.0
	seen := make(map[int]struct{})
	for _, block := range difflib.NewMatcher(short, long).GetMatchingBlocks() {
		start := max(0, block.B-block.A)
		if _, ok := seen[start]; ok {
			continue
		}
		seen[start] = struct{}{}

		end := min(start+len(short), len(long))
		r := difflib.NewMatcher(short, long[start:end]).Ratio()
		if r > 0.995 {
			return 100
		}
		best = max(best, r)
	}
	return percent(best)
}

// runes splits s into one-rune strings, the element type difflib compares.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func percent(r float64) int {
	return int(math.RoundToEven(100 * r))
}
