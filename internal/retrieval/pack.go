package retrieval

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/guidekb/internal/model"
)

var packSpaceRe = regexp.MustCompile(`\s+`)

const sectionCap = 3

// PackContext selects up to targetN chunks for the final context window.
// Near-duplicate texts are dropped (first occurrence wins), normative
// types and lexical overlap with the query rank first, and no section
// contributes more than three chunks until the window is nearly full.
// The result reads in document order: (page_start, order) ascending.
func PackContext(query string, records []model.ChunkRecord, targetN, packedMin, packedMax int) []model.ChunkRecord {
	if targetN < packedMin {
		targetN = packedMin
	}
	if targetN > packedMax {
		targetN = packedMax
	}
	queryTerms := terms(query)

	type scored struct {
		typePriority int
		lexical      int
		rec          model.ChunkRecord
	}
	var candidates []scored
	seenText := make(map[string]bool)
	for _, r := range records {
		norm := packSpaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(r.Text)), " ")
		if seenText[norm] {
			continue
		}
		seenText[norm] = true
		priority := 0
		if r.Type.IsNormative() {
			priority = 2
		}
		candidates = append(candidates, scored{
			typePriority: priority,
			lexical:      countOverlap(queryTerms, r.Text),
			rec:          r,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.typePriority != b.typePriority {
			return a.typePriority > b.typePriority
		}
		if a.lexical != b.lexical {
			return a.lexical > b.lexical
		}
		return a.rec.Score > b.rec.Score
	})

	var packed []model.ChunkRecord
	sectionCount := make(map[string]int)
	for _, c := range candidates {
		if len(packed) >= targetN {
			break
		}
		// Section diversity holds until the window is one short of full;
		// the last slots accept whatever ranks highest.
		if sectionCount[c.rec.SectionPath] >= sectionCap && len(packed) < targetN-1 {
			continue
		}
		packed = append(packed, c.rec)
		sectionCount[c.rec.SectionPath]++
	}

	sort.SliceStable(packed, func(i, j int) bool {
		if packed[i].PageStart != packed[j].PageStart {
			return packed[i].PageStart < packed[j].PageStart
		}
		return packed[i].Order < packed[j].Order
	})
	return packed
}
