// Package model defines the persistent and retrieval-time types of the
// guideline knowledge base.
package model

import "time"

// ChunkType is the closed semantic classification attached to every chunk.
type ChunkType string

const (
	TypeRecommendation ChunkType = "recommendation"
	TypeAlgorithm      ChunkType = "algorithm"
	TypeTable          ChunkType = "table"
	TypeDefinition     ChunkType = "definition"
	TypeEvidence       ChunkType = "evidence"
	TypeAppendix       ChunkType = "appendix"
	TypeOther          ChunkType = "other"
)

// ParseChunkType maps a string to a known ChunkType, defaulting to other.
func ParseChunkType(s string) ChunkType {
	switch ChunkType(s) {
	case TypeRecommendation, TypeAlgorithm, TypeTable, TypeDefinition, TypeEvidence, TypeAppendix:
		return ChunkType(s)
	}
	return TypeOther
}

// IsNormative reports whether a chunk type carries prescriptive guidance.
// Recommendation and algorithm chunks get priority in reranking and packing.
func (t ChunkType) IsNormative() bool {
	return t == TypeRecommendation || t == TypeAlgorithm
}

// Document is one ingested source file and its metadata. Identity within
// the corpus is DocID; duplicate ingestion is detected by Hash, the SHA-256
// of the concatenated page text.
type Document struct {
	DocID     string    `json:"doc_id"`
	Title     string    `json:"title"`
	Year      int       `json:"year,omitempty"`
	Specialty string    `json:"specialty,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

// Section is a titled, page-bounded region of a document's hierarchy.
// Order is dense starting at 0; page ranges are inclusive.
type Section struct {
	DocID     string `json:"doc_id"`
	Path      string `json:"path"`
	Order     int    `json:"order"`
	Level     int    `json:"level"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
}

// Chunk is the unit of retrieval: a bounded span of one section's text.
// Hash is unique within a document, so re-ingesting identical text resolves
// to the same chunk identity. EntityMentions feed retrieval expansion only.
type Chunk struct {
	DocID          string    `json:"doc_id"`
	SectionPath    string    `json:"section_path"`
	Order          int       `json:"order"`
	PageStart      int       `json:"page_start"`
	PageEnd        int       `json:"page_end"`
	Text           string    `json:"chunk_text"`
	Type           ChunkType `json:"chunk_type"`
	TokenCount     int       `json:"token_count"`
	Hash           string    `json:"chunk_hash"`
	EntityMentions []string  `json:"entity_mentions,omitempty"`
}

// Recommendation is derived from recommendation/algorithm chunks. It
// references the chunks that support it without owning them.
type Recommendation struct {
	RecID     string   `json:"recommendation_id"`
	DocID     string   `json:"doc_id"`
	Statement string   `json:"statement"`
	ChunkIDs  []string `json:"chunk_ids"`
}

// Retrieval provenance tags recorded on ChunkRecord.Source.
const (
	SourceLexical        = "lexical"
	SourceVector         = "vector"
	SourceHybrid         = "hybrid"
	SourceFetch          = "fetch"
	SourceSection        = "section"
	SourceEntity         = "entity"
	SourceRecommendation = "recommendation"
)

// ChunkRecord is a retrieval-time view of a chunk enriched with a relevance
// score and the provenance of the retrieval path that produced it. It is
// never persisted.
type ChunkRecord struct {
	ChunkID        string    `json:"chunk_id"`
	DocID          string    `json:"doc_id"`
	SectionPath    string    `json:"section_path"`
	Order          int       `json:"order"`
	PageStart      int       `json:"page_start"`
	PageEnd        int       `json:"page_end"`
	Type           ChunkType `json:"chunk_type"`
	Text           string    `json:"chunk_text"`
	EntityMentions []string  `json:"-"`
	Score          float64   `json:"score"`
	Source         string    `json:"source"`
}

// QueryFilters narrow a retrieval call within one document. Zero values
// mean "no filter". Filters are ANDed into the underlying queries before
// fusion, never applied after.
type QueryFilters struct {
	SectionPrefix string
	Types         []ChunkType
	PageStart     int
	PageEnd       int
}

// Empty reports whether no filter is set.
func (f QueryFilters) Empty() bool {
	return f.SectionPrefix == "" && len(f.Types) == 0 && f.PageStart == 0 && f.PageEnd == 0
}

// Verdict labels produced by the judge.
const (
	VerdictCorrect          = "correct"
	VerdictPartiallyCorrect = "partially_correct"
	VerdictIncorrect        = "incorrect"
	VerdictInsufficientInfo = "insufficient_info"
)

// Citation points a judge explanation back at a retrieved chunk.
type Citation struct {
	ChunkID     string `json:"chunk_id"`
	SectionPath string `json:"section_path"`
	Pages       string `json:"pages"`
}

// VerdictResult is the structured outcome of evaluating a clinician verdict
// against a single document's packed context.
type VerdictResult struct {
	Verdict           string     `json:"verdict"`
	Explanation       string     `json:"explanation"`
	Citations         []Citation `json:"citations"`
	MissingInfo       []string   `json:"missing_info"`
	RecommendedAction string     `json:"recommended_action,omitempty"`
}

// VerdictEvaluation is the persisted record of one judge call.
type VerdictEvaluation struct {
	EvalID      string    `json:"evaluation_id"`
	DocID       string    `json:"doc_id"`
	VerdictText string    `json:"verdict_text"`
	ChunkIDs    []string  `json:"retrieved_chunk_ids"`
	Output      string    `json:"llm_output"`
	ModelName   string    `json:"model_name"`
	CreatedAt   time.Time `json:"created_at"`
}
