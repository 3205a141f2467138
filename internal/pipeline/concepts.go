package pipeline

import (
	"regexp"
	"sort"
)

// maxHeuristicConcepts bounds the fallback concept list.
const maxHeuristicConcepts = 12

// conceptToken matches lowercase alphanumeric tokens of length >= 3 starting
// with a letter.
var conceptToken = regexp.MustCompile(`\b[a-z][a-z0-9]{2,}\b`)

// stopwords are filtered out of the heuristic concept ranking.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"that": true, "this": true, "are": true, "was": true, "were": true,
	"have": true, "has": true, "not": true, "you": true, "your": true,
	"into": true, "about": true, "can": true, "will": true, "they": true,
	"their": true, "then": true, "than": true, "also": true, "but": true,
	"all": true,
}

// heuristicConcepts is the deterministic fallback for concept extraction:
// rank tokens by descending frequency, breaking ties by first occurrence
// order, and keep the top entries.
func heuristicConcepts(text string) []string {
	tokens := conceptToken.FindAllString(text, -1)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string
	for _, token := range tokens {
		if stopwords[token] {
			continue
		}
		if _, ok := counts[token]; !ok {
			firstSeen[token] = len(order)
			order = append(order, token)
		}
		counts[token]++
	}

	sort.SliceStable(order, func(a, b int) bool {
		if counts[order[a]] != counts[order[b]] {
			return counts[order[a]] > counts[order[b]]
		}
		return firstSeen[order[a]] < firstSeen[order[b]]
	})

	if len(order) > maxHeuristicConcepts {
		order = order[:maxHeuristicConcepts]
	}
	return order
}
