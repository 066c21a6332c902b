package dedupe

import (
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// editRatio returns 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
// Two empty strings have nothing to compare and return 0.
func editRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	d := levenshtein.Distance(a, b, nil)
	return clamp01(1 - float64(d)/float64(longest))
}

// jaccard returns |a ∩ b| / |a ∪ b| for two sorted unique token sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var inter int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			inter++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func clamp01(v float64) float64 {
	switch {
	case v != v, v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
