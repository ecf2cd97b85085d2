// Package judge evaluates a clinician's verdict against one document's
// retrieved context and records the outcome.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/dgallion1/guidekb/internal/model"
	"github.com/dgallion1/guidekb/internal/retrieval"
)

// Store persists evaluation records.
type Store interface {
	StoreVerdictEvaluation(ctx context.Context, eval model.VerdictEvaluation) (string, error)
}

// Retriever supplies packed context for the verdict and its subqueries.
type Retriever interface {
	RetrieveContext(ctx context.Context, docID, query string, f model.QueryFilters) ([]model.ChunkRecord, error)
}

// ChatModel answers a prompt with a JSON object.
type ChatModel interface {
	ChatJSON(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

const maxSubqueries = 4
const maxQueries = 5

// subqueryRe picks capitalized terms out of the verdict to use as focused
// follow-up queries. No ASCII word boundary: Cyrillic capitals count.
var subqueryRe = regexp.MustCompile(`\p{Lu}[\p{L}\p{N}\-]{2,}`)

// Judge evaluates verdicts against packed document context.
type Judge struct {
	store     Store
	retriever Retriever
	chat      ChatModel
	packedMax int
	log       *slog.Logger
}

func New(store Store, retriever Retriever, chat ChatModel, packedMax int, log *slog.Logger) *Judge {
	if packedMax <= 0 {
		packedMax = retrieval.DefaultConfig().PackedMax
	}
	return &Judge{store: store, retriever: retriever, chat: chat, packedMax: packedMax, log: log}
}

// EvaluateVerdict retrieves context for the verdict text plus entity
// subqueries, asks the chat model for a structured judgement grounded only
// in that context, and stores the evaluation. A response that cannot be
// parsed degrades to insufficient_info rather than failing the call.
func (j *Judge) EvaluateVerdict(ctx context.Context, docID, verdictText string) (*model.VerdictResult, error) {
	log := j.log.With("doc_id", docID)
	log.Info("verdict evaluation started", "verdict_len", len(verdictText))

	queries := append([]string{verdictText}, subqueries(verdictText)...)
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}

	best := make(map[string]model.ChunkRecord)
	var order []string
	for _, q := range queries {
		records, err := j.retriever.RetrieveContext(ctx, docID, q, model.QueryFilters{})
		if err != nil {
			return nil, fmt.Errorf("retrieve context for subquery: %w", err)
		}
		for _, r := range records {
			if r.DocID != docID {
				continue
			}
			existing, ok := best[r.ChunkID]
			if !ok {
				order = append(order, r.ChunkID)
			}
			if !ok || r.Score > existing.Score {
				best[r.ChunkID] = r
			}
		}
	}

	merged := make([]model.ChunkRecord, 0, len(order))
	for _, id := range order {
		merged = append(merged, best[id])
	}
	packed := retrieval.PackContext(verdictText, merged, j.packedMax, 1, j.packedMax)

	raw, err := j.chat.ChatJSON(ctx, systemPrompt, buildPrompt(docID, verdictText, packed))
	if err != nil {
		return nil, fmt.Errorf("chat model: %w", err)
	}

	result := parseResult(raw)
	if result == nil {
		log.Error("chat output not parseable, degrading", "raw_len", len(raw))
		result = &model.VerdictResult{
			Verdict:     model.VerdictInsufficientInfo,
			Explanation: "Не удалось получить структурированный ответ от модели",
			MissingInfo: []string{"structured_json_response"},
		}
	}

	chunkIDs := make([]string, len(packed))
	for i, c := range packed {
		chunkIDs[i] = c.ChunkID
	}
	if _, err := j.store.StoreVerdictEvaluation(ctx, model.VerdictEvaluation{
		DocID:       docID,
		VerdictText: verdictText,
		ChunkIDs:    chunkIDs,
		Output:      raw,
		ModelName:   j.chat.Model(),
	}); err != nil {
		return nil, fmt.Errorf("store evaluation: %w", err)
	}

	log.Info("verdict evaluation finished", "verdict", result.Verdict, "citations", len(result.Citations))
	return result, nil
}

// subqueries extracts up to 4 distinct capitalized terms from the verdict.
func subqueries(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, term := range subqueryRe.FindAllString(text, -1) {
		if seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, term)
		if len(out) == maxSubqueries {
			break
		}
	}
	return out
}

// parseResult decodes the model output, normalizing unknown verdict labels
// to insufficient_info. Returns nil when the output is not a JSON object.
func parseResult(raw string) *model.VerdictResult {
	var result model.VerdictResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}
	switch result.Verdict {
	case model.VerdictCorrect, model.VerdictPartiallyCorrect, model.VerdictIncorrect, model.VerdictInsufficientInfo:
	default:
		result.Verdict = model.VerdictInsufficientInfo
	}
	return &result
}

const systemPrompt = "Ты медицинский ассистент для проверки клинического вердикта. " +
	"Оцени вердикт врача только по приведенным фрагментам. " +
	"Если данных недостаточно, верни insufficient_info. Не используй внешние знания."

func buildPrompt(docID, verdictText string, chunks []model.ChunkRecord) string {
	var sb []byte
	sb = fmt.Appendf(sb, "doc_id: %s\nТекст вердикта врача: %s\n\nКонтекстные фрагменты:\n", docID, verdictText)
	for _, c := range chunks {
		sb = fmt.Appendf(sb, "[chunk_id=%s] [section=%s] [pages=%d-%d] [type=%s]\n%s\n\n",
			c.ChunkID, c.SectionPath, c.PageStart, c.PageEnd, c.Type, c.Text)
	}
	sb = append(sb, `Ответь только JSON-объектом по схеме:
{"verdict": "correct|partially_correct|incorrect|insufficient_info","explanation": "краткое объяснение","citations": [{"chunk_id":"...","section_path":"...","pages":"x-y"}],"missing_info": ["..."],"recommended_action": "рекомендуемое действие"}`...)
	return string(sb)
}
