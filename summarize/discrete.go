package summarize

// Mode returns the most frequent level. Ties are broken by the level
// encountered first in input order; because inputs arrive in container
// observation order this makes the result fully deterministic.
func Mode(values []string) string {
	level, _ := modeWithShare(values)
	return level
}

// ModeShare returns the fraction of values equal to the mode level,
// using the same first-seen tie-break as Mode.
func ModeShare(values []string) float64 {
	_, share := modeWithShare(values)
	return share
}

func modeWithShare(values []string) (string, float64) {
	if len(values) == 0 {
		return "", 0
	}

	counts := make(map[string]int, 8)
	firstSeen := make(map[string]int, 8)
	order := 0
	for _, v := range values {
		if _, ok := counts[v]; !ok {
			firstSeen[v] = order
			order++
		}
		counts[v]++
	}

	best := values[0]
	bestCount := counts[best]
	for v, n := range counts {
		if n > bestCount || (n == bestCount && firstSeen[v] < firstSeen[best]) {
			best = v
			bestCount = n
		}
	}
	return best, float64(bestCount) / float64(len(values))
}
