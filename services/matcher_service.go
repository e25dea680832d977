package services

import (
	"strings"
)

// MaxEditDistance is the largest edit distance still treated as a typo of a
// known company name.
const MaxEditDistance = 2

// MatcherService resolves a free-text brand query against the set of company
// names that already have stored audits. Resolution is exact match first,
// then substring containment in either direction, then nearest neighbor by
// edit distance within MaxEditDistance.
type MatcherService struct{}

// NewMatcherService creates a new matcher service instance
func NewMatcherService() *MatcherService {
	return &MatcherService{}
}

// FindBestMatch returns the candidate the query resolves to, in its original
// stored casing, and whether any candidate matched. Candidates are examined
// in input order and the first rule that fires wins, so results are
// deterministic for a fixed candidate order.
func (s *MatcherService) FindBestMatch(query string, candidates []string) (string, bool) {
	normalizedQuery := strings.ToLower(strings.TrimSpace(query))

	for _, candidate := range candidates {
		if strings.ToLower(candidate) == normalizedQuery {
			return candidate, true
		}
	}

	// An empty query trivially "contains" every candidate; only the exact
	// rule may match it.
	if normalizedQuery == "" {
		return "", false
	}

	for _, candidate := range candidates {
		normalizedCandidate := strings.ToLower(candidate)
		if strings.Contains(normalizedCandidate, normalizedQuery) || strings.Contains(normalizedQuery, normalizedCandidate) {
			return candidate, true
		}
	}

	bestMatch := ""
	bestDistance := MaxEditDistance + 1
	found := false

	for _, candidate := range candidates {
		distance := levenshteinDistance(normalizedQuery, strings.ToLower(candidate))
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = candidate
			found = true
		}
	}

	return bestMatch, found
}

// levenshteinDistance computes the classic edit distance with unit-cost
// insertions, deletions and substitutions, over runes.
func levenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	previous := make([]int, len(rb)+1)
	current := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		previous[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current[j] = min3(
				previous[j-1]+cost, // substitution
				current[j-1]+1,     // insertion
				previous[j]+1,      // deletion
			)
		}
		previous, current = current, previous
	}

	return previous[len(rb)]
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
