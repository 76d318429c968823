package link

import "strings"

// distance returns the case-insensitive Levenshtein edit distance between a
// and b, grounded on the original tool's dynamic-programming table.
func distance(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
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

// closestCandidate returns the candidate string closest to target by
// Levenshtein distance, used to build "did you mean?" LinkError messages.
// Returns "" if candidates is empty.
func closestCandidate(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	bestDist := distance(target, best)
	for _, c := range candidates[1:] {
		if d := distance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
