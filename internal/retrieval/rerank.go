package retrieval

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/guidekb/internal/model"
)

// termRe tokenizes query and chunk text into comparable terms: word
// characters and hyphens, length 3 or more, any script.
var termRe = regexp.MustCompile(`[\p{L}\p{N}_\-]{3,}`)

func terms(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range termRe.FindAllString(strings.ToLower(text), -1) {
		set[t] = true
	}
	return set
}

// countOverlap counts distinct shared terms without mutating the query set.
func countOverlap(queryTerms map[string]bool, text string) int {
	seen := make(map[string]bool)
	n := 0
	for _, t := range termRe.FindAllString(strings.ToLower(text), -1) {
		if queryTerms[t] && !seen[t] {
			seen[t] = true
			n++
		}
	}
	return n
}

// Rerank boosts candidate scores by lexical overlap with the query and a
// flat bonus for normative chunk types, then orders by score descending.
// Ties keep their incoming order.
func Rerank(query string, candidates []model.ChunkRecord) []model.ChunkRecord {
	queryTerms := terms(query)
	for i := range candidates {
		ov := countOverlap(queryTerms, candidates[i].Text)
		candidates[i].Score += float64(ov) * 0.05
		if candidates[i].Type.IsNormative() {
			candidates[i].Score += 0.2
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}
