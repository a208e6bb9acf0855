package importer

import "strings"

// FuzzyThreshold is the minimum score at which a header is considered a match
// for a canonical field. The cTrader alias vocabulary was tuned against this
// scorer; see FuzzyMatch before changing either.
const FuzzyThreshold = 80

// FuzzyMatch scores the similarity of two header strings on a 0-100 scale.
//
// The score is positional, not edit-distance based: after normalization the
// two strings are compared character by character over the shorter string's
// length and the match count is divided by the longer string's length. Equal
// normalized strings short-circuit to 100. Both strings containing "open"
// adds 10, both containing "time" adds 10, capped at 100.
//
// Transposed-but-similar headers therefore score lower than an edit-distance
// metric would give them. That asymmetry is load-bearing: real cTrader header
// resolution happens at the 80-point threshold.
func FuzzyMatch(a, b string) float64 {
	na := normalizeHeader(a)
	nb := normalizeHeader(b)
	if na == nb {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}

	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	matches := 0
	for i := 0; i < len(shorter); i++ {
		if shorter[i] == longer[i] {
			matches++
		}
	}
	score := float64(matches) / float64(len(longer)) * 100

	if strings.Contains(na, "open") && strings.Contains(nb, "open") {
		score += 10
	}
	if strings.Contains(na, "time") && strings.Contains(nb, "time") {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// normalizeHeader lowercases and strips everything but letters and digits.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
