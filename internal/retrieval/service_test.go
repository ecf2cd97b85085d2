package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/guidekb/internal/model"
)

func TestHybridSearchFusesByChunkID(t *testing.T) {
	fs := &fakeStore{
		bm25: []model.ChunkRecord{
			record("both", "s1", 1, 0, 2.5, model.TypeOther, "shared"),
			record("lex-only", "s1", 1, 1, 1.5, model.TypeOther, "lexical"),
		},
		vector: []model.ChunkRecord{
			{ChunkID: "both", DocID: "doc1", SectionPath: "s1", Score: 0.9, Source: model.SourceVector, Text: "shared"},
			{ChunkID: "vec-only", DocID: "doc1", SectionPath: "s2", Score: 0.8, Source: model.SourceVector, Text: "vector"},
		},
	}
	svc := NewService(fs, fakeEmbedder{}, DefaultConfig(), discard())

	fused, err := svc.HybridSearch(context.Background(), "doc1", "query", model.QueryFilters{}, 32)
	require.NoError(t, err)
	require.Len(t, fused, 3)

	byID := map[string]model.ChunkRecord{}
	for _, r := range fused {
		byID[r.ChunkID] = r
	}
	// The chunk found by both paths keeps its higher score and carries
	// hybrid provenance.
	assert.Equal(t, model.SourceHybrid, byID["both"].Source)
	assert.InDelta(t, 2.5, byID["both"].Score, 1e-9)
	assert.Equal(t, "lex-only", fused[1].ChunkID)

	// Sorted by score descending.
	assert.Equal(t, "both", fused[0].ChunkID)
}

func TestHybridSearchTruncatesToLimit(t *testing.T) {
	fs := &fakeStore{
		bm25: []model.ChunkRecord{
			record("a", "s1", 1, 0, 3.0, model.TypeOther, "a"),
			record("b", "s1", 1, 1, 2.0, model.TypeOther, "b"),
			record("c", "s1", 1, 2, 1.0, model.TypeOther, "c"),
		},
	}
	svc := NewService(fs, fakeEmbedder{}, DefaultConfig(), discard())

	fused, err := svc.HybridSearch(context.Background(), "doc1", "query", model.QueryFilters{}, 2)
	require.NoError(t, err)
	assert.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].ChunkID)
}

func TestRetrieveContextEndToEnd(t *testing.T) {
	fs := &fakeStore{
		bm25: []model.ChunkRecord{
			record("c1", "s1", 1, 0, 2.0, model.TypeRecommendation, "warfarin recommendation text"),
			record("c2", "s2", 3, 2, 1.0, model.TypeOther, "background information"),
		},
		byID: map[string]model.ChunkRecord{
			"c1": record("c1", "s1", 1, 0, 2.0, model.TypeRecommendation, "warfarin recommendation text"),
			"c2": record("c2", "s2", 3, 2, 1.0, model.TypeOther, "background information"),
			"n1": record("n1", "s1", 1, 1, 0, model.TypeOther, "neighbor text"),
		},
		neighbors: map[string][]model.ChunkRecord{
			"s1": {record("n1", "s1", 1, 1, 0, model.TypeOther, "neighbor text")},
		},
	}
	svc := NewService(fs, fakeEmbedder{}, Config{KInitial: 32, KTop: 12, KExpand: 8, PackedMin: 1, PackedMax: 12}, discard())

	packed, err := svc.RetrieveContext(context.Background(), "doc1", "warfarin", model.QueryFilters{})
	require.NoError(t, err)
	require.Len(t, packed, 3)

	// Document order: (page_start, order) ascending.
	assert.Equal(t, "c1", packed[0].ChunkID)
	assert.Equal(t, "n1", packed[1].ChunkID)
	assert.Equal(t, "c2", packed[2].ChunkID)
}
