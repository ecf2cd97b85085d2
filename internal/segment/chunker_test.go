package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/guidekb/internal/textutil"
)

// para builds a paragraph of n words.
func para(n int, word string) string {
	words := make([]string, n)
	for i := range words {
		words[i] = word
	}
	return strings.Join(words, " ")
}

func TestSplitSectionEmpty(t *testing.T) {
	assert.Nil(t, SplitSection("", DefaultChunkConfig()))
	assert.Nil(t, SplitSection("   \n\n  ", DefaultChunkConfig()))
}

func TestSplitSectionShortTextSingleChunk(t *testing.T) {
	chunks := SplitSection("short paragraph\n\nanother short one", DefaultChunkConfig())
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "short paragraph")
	assert.Contains(t, chunks[0], "another short one")
}

func TestSplitSectionTokenBand(t *testing.T) {
	// Eight paragraphs of ~200 tokens merge into chunks within the band;
	// no chunk but the last may fall under the minimum.
	cfg := DefaultChunkConfig()
	var parts []string
	for range 20 {
		parts = append(parts, para(100, "слово")) // 130 tokens each
	}
	chunks := SplitSection(strings.Join(parts, "\n\n"), cfg)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		tokens := textutil.EstimateTokens(c)
		assert.LessOrEqual(t, tokens, cfg.MaxTokens, "chunk %d over max", i)
		if i < len(chunks)-1 {
			assert.GreaterOrEqual(t, tokens, cfg.MinTokens, "chunk %d under min", i)
		}
	}
}

func TestSplitSectionOversizedStructuralBlockWholeChunk(t *testing.T) {
	// A structural block over the maximum is emitted whole, not fractured.
	cfg := ChunkConfig{MinTokens: 50, MaxTokens: 100}
	big := "Рекомендация 5. " + para(200, "пункт")
	text := para(40, "intro") + "\n\n" + big

	chunks := SplitSection(text, cfg)
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[1], "Рекомендация 5."))
	assert.Greater(t, textutil.EstimateTokens(chunks[1]), cfg.MaxTokens)
}

func TestSplitSectionStructuralStartOpensNewBlock(t *testing.T) {
	cfg := ChunkConfig{MinTokens: 5, MaxTokens: 20}
	text := para(10, "background") + "\n\nAlgorithm for triage\n\n" + para(10, "steps")

	chunks := SplitSection(text, cfg)
	require.GreaterOrEqual(t, len(chunks), 2)
	// The structural paragraph begins a chunk, never ends up mid-chunk.
	found := false
	for _, c := range chunks {
		if strings.HasPrefix(c, "Algorithm for triage") {
			found = true
		}
	}
	assert.True(t, found)
}
