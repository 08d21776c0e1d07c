package config

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// suggestLimit is the largest edit distance still worth suggesting for a
// candidate of the given length.
func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// Suggest returns the candidate closest to token by edit distance, if any is
// close enough. Ties go to the alphabetically first candidate.
func Suggest(token string, candidates []string) (string, bool) {
	type scored struct {
		val  string
		dist int
	}
	var results []scored
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(token, cand)
		if dist > suggestLimit(len(cand)) {
			continue
		}
		results = append(results, scored{val: cand, dist: dist})
	}
	if len(results) == 0 {
		return "", false
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].dist == results[j].dist {
			return results[i].val < results[j].val
		}
		return results[i].dist < results[j].dist
	})
	return results[0].val, true
}
