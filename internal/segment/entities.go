package segment

import (
	"regexp"
	"sort"
)

// entityRe picks capitalized multi-character terms (Latin or Cyrillic).
// A simple heuristic standing in for an NER model; mentions are used only
// for retrieval expansion, never for display.
var entityRe = regexp.MustCompile(`\p{Lu}[\p{L}\-]{3,}`)

const maxEntityMentions = 10

// ExtractEntities returns up to 10 capitalized terms from the text, ranked
// by frequency with ties kept in first-occurrence order.
func ExtractEntities(text string) []string {
	terms := entityRe.FindAllString(text, -1)
	if len(terms) == 0 {
		return nil
	}

	freq := make(map[string]int)
	var order []string
	for _, term := range terms {
		if freq[term] == 0 {
			order = append(order, term)
		}
		freq[term]++
	}

	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if len(order) > maxEntityMentions {
		order = order[:maxEntityMentions]
	}
	return order
}

// ExpansionTerms returns the text's capitalized terms in first-occurrence
// order, deduplicated, for graph expansion seeding.
func ExpansionTerms(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, term := range entityRe.FindAllString(text, -1) {
		if seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, term)
	}
	return out
}
