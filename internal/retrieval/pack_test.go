package retrieval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/guidekb/internal/model"
)

func record(id, section string, page, order int, score float64, typ model.ChunkType, text string) model.ChunkRecord {
	return model.ChunkRecord{
		ChunkID:     id,
		DocID:       "doc1",
		SectionPath: section,
		Order:       order,
		PageStart:   page,
		PageEnd:     page,
		Score:       score,
		Type:        typ,
		Text:        text,
	}
}

func TestPackContextDedupNormalizedText(t *testing.T) {
	records := []model.ChunkRecord{
		record("a", "s1", 1, 0, 0.9, model.TypeOther, "Same   Text here"),
		record("b", "s2", 2, 1, 0.8, model.TypeOther, "same text HERE"),
		record("c", "s3", 3, 2, 0.7, model.TypeOther, "different"),
	}
	packed := PackContext("query", records, 12, 1, 12)
	require.Len(t, packed, 2)
	// First occurrence wins the dedup.
	ids := []string{packed[0].ChunkID, packed[1].ChunkID}
	assert.Contains(t, ids, "a")
	assert.Contains(t, ids, "c")
}

func TestPackContextSectionCap(t *testing.T) {
	// 15 candidates across 5 sections, 3 per section, target 12: the cap
	// admits at most 3 per section until the window is nearly full, and the
	// result stays within [6, 12].
	var records []model.ChunkRecord
	id := 0
	for s := range 5 {
		for range 3 {
			id++
			records = append(records, record(
				fmt.Sprintf("c%d", id),
				fmt.Sprintf("section-%d", s),
				id, id, 1.0-float64(id)*0.01, model.TypeOther,
				fmt.Sprintf("unique chunk text %d", id),
			))
		}
	}
	packed := PackContext("query", records, 12, 6, 12)
	require.Len(t, packed, 12)

	counts := map[string]int{}
	for _, c := range packed {
		counts[c.SectionPath]++
	}
	for section, n := range counts {
		assert.LessOrEqual(t, n, 3, "section %s over cap", section)
	}
}

func TestPackContextSectionCapRelaxedNearTarget(t *testing.T) {
	// Target 8. One section holds the four top-ranked chunks; the fourth is
	// skipped while the window still has room, but admitted once only the
	// final slot remains.
	sectionZero := func(id string, score float64) model.ChunkRecord {
		return record(id, "s0", 1, 0, score, model.TypeOther, "s0 chunk "+id)
	}
	filler := func(id, section string, score float64) model.ChunkRecord {
		return record(id, section, 2, 1, score, model.TypeOther, "filler chunk "+id)
	}

	// Fourth s0 chunk ranks below the fillers: it arrives when 7 of 8 slots
	// are taken and the relaxation admits it as the section's fourth.
	records := []model.ChunkRecord{
		sectionZero("a1", 1.0), sectionZero("a2", 0.99), sectionZero("a3", 0.98),
		filler("f1", "s1", 0.9), filler("f2", "s2", 0.89),
		filler("f3", "s3", 0.88), filler("f4", "s4", 0.87),
		sectionZero("x", 0.8),
	}
	packed := PackContext("therapy", records, 8, 1, 12)
	require.Len(t, packed, 8)
	counts := map[string]int{}
	ids := map[string]bool{}
	for _, c := range packed {
		counts[c.SectionPath]++
		ids[c.ChunkID] = true
	}
	assert.Equal(t, 4, counts["s0"])
	assert.True(t, ids["x"])

	// Fourth s0 chunk ranks above the fillers: it arrives while the window
	// is far from full and the cap holds; fillers take the remaining slots.
	records = []model.ChunkRecord{
		sectionZero("a1", 1.0), sectionZero("a2", 0.99), sectionZero("a3", 0.98),
		sectionZero("x", 0.97),
		filler("f1", "s1", 0.9), filler("f2", "s2", 0.89),
		filler("f3", "s3", 0.88), filler("f4", "s4", 0.87),
		filler("f5", "s5", 0.86), filler("f6", "s6", 0.85),
	}
	packed = PackContext("therapy", records, 8, 1, 12)
	require.Len(t, packed, 8)
	counts = map[string]int{}
	ids = map[string]bool{}
	for _, c := range packed {
		counts[c.SectionPath]++
		ids[c.ChunkID] = true
	}
	assert.Equal(t, 3, counts["s0"])
	assert.False(t, ids["x"])
}

func TestPackContextOutputInDocumentOrder(t *testing.T) {
	records := []model.ChunkRecord{
		record("late", "s1", 9, 5, 0.9, model.TypeOther, "late text"),
		record("early", "s2", 2, 1, 0.1, model.TypeOther, "early text"),
		record("mid", "s3", 5, 3, 0.5, model.TypeOther, "mid text"),
	}
	packed := PackContext("query", records, 12, 1, 12)
	require.Len(t, packed, 3)
	assert.Equal(t, []string{"early", "mid", "late"}, []string{packed[0].ChunkID, packed[1].ChunkID, packed[2].ChunkID})
}

func TestPackContextNormativeTypesRankFirst(t *testing.T) {
	// Target 1: only the highest-ranked candidate survives, and the
	// recommendation outranks a higher-scored plain chunk.
	records := []model.ChunkRecord{
		record("plain", "s1", 1, 0, 5.0, model.TypeOther, "plain text"),
		record("rec", "s2", 2, 1, 0.1, model.TypeRecommendation, "recommended action"),
	}
	packed := PackContext("query", records, 1, 1, 12)
	require.Len(t, packed, 1)
	assert.Equal(t, "rec", packed[0].ChunkID)
}

func TestPackContextTargetClamped(t *testing.T) {
	var records []model.ChunkRecord
	for i := range 20 {
		records = append(records, record(
			fmt.Sprintf("c%d", i), fmt.Sprintf("s%d", i), i+1, i, 0.5, model.TypeOther,
			fmt.Sprintf("text %d", i),
		))
	}
	// Target above packedMax clamps down to it.
	packed := PackContext("query", records, 100, 6, 12)
	assert.Len(t, packed, 12)

	// Target below packedMin clamps up to it.
	packed = PackContext("query", records, 1, 6, 12)
	assert.Len(t, packed, 6)
}

func TestPackContextEmpty(t *testing.T) {
	assert.Empty(t, PackContext("query", nil, 12, 6, 12))
}
