package store

import (
	"context"
	"fmt"
	"net/http"
)

// Weaviate class names.
const (
	classDocument       = "Document"
	classSection        = "Section"
	classChunk          = "Chunk"
	classRecommendation = "Recommendation"
	classEvaluation     = "VerdictEvaluation"
)

type schemaProperty struct {
	Name     string   `json:"name"`
	DataType []string `json:"dataType"`
}

type schemaClass struct {
	Class      string           `json:"class"`
	Vectorizer string           `json:"vectorizer"`
	Properties []schemaProperty `json:"properties"`
}

func prop(name, dataType string) schemaProperty {
	return schemaProperty{Name: name, DataType: []string{dataType}}
}

// EnsureSchema creates any missing classes. Vectors are supplied by the
// ingestion side, so every class uses vectorizer "none".
func (c *Client) EnsureSchema(ctx context.Context) error {
	var current struct {
		Classes []struct {
			Class string `json:"class"`
		} `json:"classes"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/v1/schema", nil, &current); err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	existing := make(map[string]bool, len(current.Classes))
	for _, cl := range current.Classes {
		existing[cl.Class] = true
	}

	for _, class := range allClasses() {
		if existing[class.Class] {
			continue
		}
		c.log.Info("creating class", "class", class.Class)
		if _, err := c.do(ctx, http.MethodPost, "/v1/schema", class, nil); err != nil {
			return fmt.Errorf("create class %s: %w", class.Class, err)
		}
	}
	return nil
}

func allClasses() []schemaClass {
	return []schemaClass{
		{
			Class:      classDocument,
			Vectorizer: "none",
			Properties: []schemaProperty{
				prop("doc_id", "text"),
				prop("title", "text"),
				prop("year", "int"),
				prop("specialty", "text"),
				prop("source_url", "text"),
				prop("hash", "text"),
				prop("created_at", "date"),
			},
		},
		{
			Class:      classSection,
			Vectorizer: "none",
			Properties: []schemaProperty{
				prop("section_id", "text"),
				prop("doc_id", "text"),
				prop("path", "text"),
				prop("order", "int"),
				prop("level", "int"),
				prop("page_start", "int"),
				prop("page_end", "int"),
			},
		},
		{
			Class:      classChunk,
			Vectorizer: "none",
			Properties: []schemaProperty{
				prop("chunk_id", "text"),
				prop("doc_id", "text"),
				prop("section_path", "text"),
				prop("section_id", "text"),
				prop("order", "int"),
				prop("page_start", "int"),
				prop("page_end", "int"),
				prop("chunk_text", "text"),
				prop("chunk_type", "text"),
				prop("token_count", "int"),
				prop("chunk_hash", "text"),
				prop("entity_mentions", "text[]"),
			},
		},
		{
			Class:      classRecommendation,
			Vectorizer: "none",
			Properties: []schemaProperty{
				prop("recommendation_id", "text"),
				prop("doc_id", "text"),
				prop("statement", "text"),
				prop("chunk_ids", "text[]"),
			},
		},
		{
			Class:      classEvaluation,
			Vectorizer: "none",
			Properties: []schemaProperty{
				prop("evaluation_id", "text"),
				prop("doc_id", "text"),
				prop("verdict_text", "text"),
				prop("retrieved_chunk_ids", "text[]"),
				prop("llm_output", "text"),
				prop("model_name", "text"),
				prop("created_at", "date"),
			},
		},
	}
}
