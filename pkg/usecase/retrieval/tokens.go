package retrieval

import "strings"

var stopWords = map[string]struct{}{
	"and": {},
	"or":  {},
	"the": {},
	"a":   {},
	"is":  {},
}

// QueryTokens splits a query into a deduplicated lowercase word set with stop
// words removed.
func QueryTokens(query string) []string {
	seen := map[string]struct{}{}
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if _, ok := stopWords[w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}
	return tokens
}

// Score counts how many of the query tokens the candidate text contains.
func Score(tokens []string, text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			score++
		}
	}
	return score
}
