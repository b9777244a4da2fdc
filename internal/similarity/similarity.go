package similarity

// Score returns the normalized edit-distance similarity between two code
// snapshots, in [0, 1]. 1.0 means identical. Defined as
// (maxLen - levenshtein) / maxLen over runes.
//
// Degenerate cases: both inputs empty scores 1.0 (nothing differs);
// exactly one empty scores 0.0.
//
// Cost is O(len(previous) * len(current)); snapshots can be tens of KB, so
// callers should invoke this at most once per observation cycle.
func Score(previous, current string) float64 {
	if previous == current {
		return 1.0
	}
	if previous == "" || current == "" {
		return 0.0
	}

	a := []rune(previous)
	b := []rune(current)

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}

	dist := levenshtein(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

// levenshtein computes the unit-cost edit distance between two rune slices
// using the classic DP recurrence, keeping only two rows.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // delete
				curr[j-1]+1,    // insert
				prev[j-1]+cost, // substitute
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
