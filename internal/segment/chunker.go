package segment

import (
	"regexp"
	"strings"

	"github.com/dgallion1/guidekb/internal/textutil"
)

// blockStartRe marks paragraphs that open a structurally significant block:
// recommendations, algorithms, tables, criteria and appendices, matched in
// Russian and English spellings.
var blockStartRe = regexp.MustCompile(`(?i)(рекомендац|алгоритм|таблица|критери|приложени|recommendation|algorithm|table)`)

// ChunkConfig bounds the token band chunks are merged into.
type ChunkConfig struct {
	MinTokens int
	MaxTokens int
}

// DefaultChunkConfig returns the standard 500..1200 token band.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{MinTokens: 500, MaxTokens: 1200}
}

// SplitSection splits a section's text into paragraph-grouped chunks within
// the token band. A block that exceeds the maximum on its own AND matches
// the structural-start pattern is emitted whole, so a self-contained
// recommendation or table is never fractured.
func SplitSection(text string, cfg ChunkConfig) []string {
	if cfg.MinTokens <= 0 || cfg.MaxTokens <= 0 {
		cfg = DefaultChunkConfig()
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	// Group consecutive paragraphs into blocks, starting a fresh block
	// whenever a structural-start paragraph arrives while one is open.
	var blocks []string
	var carry []string
	for _, para := range paragraphs {
		if blockStartRe.MatchString(para) && len(carry) > 0 {
			blocks = append(blocks, strings.Join(carry, "\n\n"))
			carry = []string{para}
		} else {
			carry = append(carry, para)
		}
	}
	if len(carry) > 0 {
		blocks = append(blocks, strings.Join(carry, "\n\n"))
	}

	// Merge blocks into chunks targeting the token band.
	var chunks []string
	var current []string
	tokens := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			tokens = 0
		}
	}

	for _, block := range blocks {
		blockTokens := textutil.EstimateTokens(block)
		if blockTokens > cfg.MaxTokens && blockStartRe.MatchString(block) {
			flush()
			chunks = append(chunks, block)
			continue
		}
		if tokens+blockTokens > cfg.MaxTokens && tokens >= cfg.MinTokens {
			flush()
		}
		current = append(current, block)
		tokens += blockTokens
	}
	flush()

	return chunks
}
