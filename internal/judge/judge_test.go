package judge

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/guidekb/internal/model"
)

type fakeStore struct {
	stored []model.VerdictEvaluation
}

func (f *fakeStore) StoreVerdictEvaluation(ctx context.Context, eval model.VerdictEvaluation) (string, error) {
	f.stored = append(f.stored, eval)
	return "eval-1", nil
}

type fakeRetriever struct {
	queries []string
	records []model.ChunkRecord
}

func (f *fakeRetriever) RetrieveContext(ctx context.Context, docID, query string, _ model.QueryFilters) ([]model.ChunkRecord, error) {
	f.queries = append(f.queries, query)
	return f.records, nil
}

type fakeChat struct {
	response string
	prompt   string
}

func (f *fakeChat) ChatJSON(ctx context.Context, system, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, nil
}

func (f *fakeChat) Model() string { return "test-model" }

func chunk(id string, score float64) model.ChunkRecord {
	return model.ChunkRecord{
		ChunkID:     id,
		DocID:       "doc1",
		SectionPath: "s1",
		PageStart:   1,
		PageEnd:     2,
		Type:        model.TypeRecommendation,
		Text:        "chunk " + id,
		Score:       score,
	}
}

func TestSubqueries(t *testing.T) {
	got := subqueries("Пациенту назначен Варфарин при Фибрилляции предсердий. Варфарин контролируется по МНО.")
	// Distinct capitalized terms, first occurrence order, capped at 4.
	assert.Equal(t, []string{"Пациенту", "Варфарин", "Фибрилляции", "МНО"}, got)
}

func TestSubqueriesEmpty(t *testing.T) {
	assert.Empty(t, subqueries("нет заглавных терминов"))
}

func TestParseResult(t *testing.T) {
	result := parseResult(`{"verdict":"correct","explanation":"ok","citations":[{"chunk_id":"c1","section_path":"s1","pages":"1-2"}]}`)
	require.NotNil(t, result)
	assert.Equal(t, model.VerdictCorrect, result.Verdict)
	assert.Len(t, result.Citations, 1)
}

func TestParseResultUnknownLabelNormalized(t *testing.T) {
	result := parseResult(`{"verdict":"maybe","explanation":"?"}`)
	require.NotNil(t, result)
	assert.Equal(t, model.VerdictInsufficientInfo, result.Verdict)
}

func TestParseResultGarbage(t *testing.T) {
	assert.Nil(t, parseResult("not json"))
}

func TestEvaluateVerdict(t *testing.T) {
	fs := &fakeStore{}
	fr := &fakeRetriever{records: []model.ChunkRecord{chunk("c1", 2.0), chunk("c2", 1.0)}}
	fc := &fakeChat{response: `{"verdict":"partially_correct","explanation":"частично"}`}
	j := New(fs, fr, fc, 12, slog.New(slog.DiscardHandler))

	result, err := j.EvaluateVerdict(context.Background(), "doc1", "Назначен Варфарин пациенту")
	require.NoError(t, err)
	assert.Equal(t, model.VerdictPartiallyCorrect, result.Verdict)

	// Verdict itself plus one subquery per capitalized term.
	assert.Equal(t, []string{"Назначен Варфарин пациенту", "Назначен", "Варфарин"}, fr.queries)

	// Context chunks appear in the prompt with their ids.
	assert.Contains(t, fc.prompt, "chunk c1")
	assert.Contains(t, fc.prompt, "[chunk_id=c1]")

	require.Len(t, fs.stored, 1)
	assert.Equal(t, "doc1", fs.stored[0].DocID)
	assert.Equal(t, "test-model", fs.stored[0].ModelName)
	assert.ElementsMatch(t, []string{"c1", "c2"}, fs.stored[0].ChunkIDs)
}

func TestEvaluateVerdictUnparseableDegrades(t *testing.T) {
	fs := &fakeStore{}
	fr := &fakeRetriever{records: []model.ChunkRecord{chunk("c1", 1.0)}}
	fc := &fakeChat{response: "model rambled instead of JSON"}
	j := New(fs, fr, fc, 12, slog.New(slog.DiscardHandler))

	result, err := j.EvaluateVerdict(context.Background(), "doc1", "вердикт")
	require.NoError(t, err)
	assert.Equal(t, model.VerdictInsufficientInfo, result.Verdict)
	assert.Contains(t, result.MissingInfo, "structured_json_response")

	// The raw output is still recorded.
	require.Len(t, fs.stored, 1)
	assert.Equal(t, "model rambled instead of JSON", fs.stored[0].Output)
}
