package retrieval

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/guidekb/internal/model"
)

// fakeStore implements Store for service and expansion tests.
type fakeStore struct {
	bm25      []model.ChunkRecord
	vector    []model.ChunkRecord
	byID      map[string]model.ChunkRecord
	neighbors map[string][]model.ChunkRecord
	byEntity  []model.ChunkRecord
	recLinked []model.ChunkRecord
}

func (f *fakeStore) SearchBM25(ctx context.Context, docID, query string, _ model.QueryFilters, limit int) ([]model.ChunkRecord, error) {
	return f.bm25, nil
}

func (f *fakeStore) SearchNearVector(ctx context.Context, docID string, _ []float32, _ model.QueryFilters, limit int) ([]model.ChunkRecord, error) {
	return f.vector, nil
}

func (f *fakeStore) FetchChunksByIDs(ctx context.Context, docID string, ids []string) ([]model.ChunkRecord, error) {
	var out []model.ChunkRecord
	for _, id := range ids {
		if r, ok := f.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) FetchSectionNeighbors(ctx context.Context, docID, sectionPath string, centerOrder, limit int) ([]model.ChunkRecord, error) {
	records := f.neighbors[sectionPath]
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (f *fakeStore) FetchChunksByEntityMentions(ctx context.Context, docID string, terms []string, limit int) ([]model.ChunkRecord, error) {
	records := f.byEntity
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (f *fakeStore) FetchRecommendationLinked(ctx context.Context, docID string, seedIDs []string, limit int) ([]model.ChunkRecord, error) {
	records := f.recLinked
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExpandGraphExcludesSeedsAndRespectsBudget(t *testing.T) {
	seed := record("seed1", "s1", 1, 5, 1.0, model.TypeOther, "seed text")
	fs := &fakeStore{
		byID: map[string]model.ChunkRecord{"seed1": seed},
		neighbors: map[string][]model.ChunkRecord{
			"s1": {
				record("seed1", "s1", 1, 5, 0, model.TypeOther, "seed text"),
				record("n1", "s1", 1, 4, 0, model.TypeOther, "n1"),
				record("n2", "s1", 1, 6, 0, model.TypeOther, "n2"),
			},
		},
		byEntity: []model.ChunkRecord{
			record("e1", "s2", 2, 0, 0, model.TypeOther, "e1"),
			record("e2", "s2", 2, 1, 0, model.TypeOther, "e2"),
		},
		recLinked: []model.ChunkRecord{
			record("r1", "s3", 3, 0, 0, model.TypeOther, "r1"),
		},
	}
	svc := NewService(fs, fakeEmbedder{}, DefaultConfig(), discard())

	ids, err := svc.ExpandGraph(context.Background(), "doc1", []string{"seed1"}, 3)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.NotContains(t, ids, "seed1")
	// Section neighbors come first.
	assert.Equal(t, "n1", ids[0])
	assert.Equal(t, "n2", ids[1])
}

func TestExpandGraphSourcePriority(t *testing.T) {
	seed := record("seed1", "s1", 1, 0, 1.0, model.TypeOther, "Варфарин описан здесь")
	fs := &fakeStore{
		byID:      map[string]model.ChunkRecord{"seed1": seed},
		neighbors: map[string][]model.ChunkRecord{},
		byEntity:  []model.ChunkRecord{record("e1", "s2", 2, 0, 0, model.TypeOther, "e1")},
		recLinked: []model.ChunkRecord{record("r1", "s3", 3, 0, 0, model.TypeOther, "r1")},
	}
	svc := NewService(fs, fakeEmbedder{}, DefaultConfig(), discard())

	ids, err := svc.ExpandGraph(context.Background(), "doc1", []string{"seed1"}, 8)
	require.NoError(t, err)
	// No neighbors: entity matches precede recommendation-linked.
	assert.Equal(t, []string{"e1", "r1"}, ids)
}

func TestExpandGraphZeroBudget(t *testing.T) {
	svc := NewService(&fakeStore{}, fakeEmbedder{}, DefaultConfig(), discard())
	ids, err := svc.ExpandGraph(context.Background(), "doc1", []string{"seed1"}, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
