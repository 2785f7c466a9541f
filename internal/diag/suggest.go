package diag

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidate closest to name, if it is close enough to be
// a plausible typo.
func Suggest(name string, candidates []string) (string, bool) {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist == 0 && best == name {
		return "", false
	}
	limit := max(2, len(name)/3)
	if bestDist > limit {
		return "", false
	}
	return best, true
}

// WithSuggestion appends a "did you mean" hint to err when one of candidates
// is close to name. The original error stays in the chain.
func WithSuggestion(err error, name string, candidates []string) error {
	s, ok := Suggest(name, candidates)
	if !ok {
		return err
	}
	return fmt.Errorf("%w (did you mean %q?)", err, s)
}
