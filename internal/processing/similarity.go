package processing

import "github.com/pmezard/go-difflib/difflib"

// SimilarityRatio returns the matching-blocks ratio 2*M/T over the characters
// of a and b. Very frequent characters of a long b do not seed matches, so
// heavily repetitive texts can score lower than they look. Two empty texts are
// identical.
func SimilarityRatio(a, b string) float64 {
	return difflib.NewMatcher(characters(a), characters(b)).Ratio()
}

// SimilarityExceeds reports whether SimilarityRatio(a, b) > threshold. Cheap
// upper bounds are checked first so clearly different texts skip the full match.
func SimilarityExceeds(a, b string, threshold float64) bool {
	m := difflib.NewMatcher(characters(a), characters(b))
	if m.RealQuickRatio() <= threshold || m.QuickRatio() <= threshold {
		return false
	}
	return m.Ratio() > threshold
}

func characters(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
