package store

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dgallion1/guidekb/internal/model"
	"github.com/dgallion1/guidekb/internal/textutil"
)

// Writes go through the REST objects API with deterministic v5 UUIDs.
// Updates are full-record replaces: last write wins, and single-object
// atomicity is all we rely on from the backend.

type objectPayload struct {
	Class      string         `json:"class"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	Vector     []float32      `json:"vector,omitempty"`
}

// putObject inserts an object, falling back to a full replace when the id
// already exists.
func (c *Client) putObject(ctx context.Context, class, id string, properties map[string]any, vector []float32) error {
	payload := objectPayload{Class: class, ID: id, Properties: properties, Vector: vector}
	status, err := c.do(ctx, http.MethodPost, "/v1/objects", payload, nil)
	if err == nil {
		return nil
	}
	if status == http.StatusUnprocessableEntity || status == http.StatusConflict {
		if _, err := c.do(ctx, http.MethodPut, "/v1/objects/"+class+"/"+id, payload, nil); err != nil {
			return fmt.Errorf("replace %s: %w", class, err)
		}
		return nil
	}
	return fmt.Errorf("insert %s: %w", class, err)
}

// getObjectProperties reads an object's current properties for a
// read-modify-replace update.
func (c *Client) getObjectProperties(ctx context.Context, class, id string) (map[string]any, error) {
	var obj struct {
		Properties map[string]any `json:"properties"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/v1/objects/"+class+"/"+id, nil, &obj); err != nil {
		return nil, err
	}
	return obj.Properties, nil
}

func (c *Client) replaceObject(ctx context.Context, class, id string, properties map[string]any) error {
	payload := objectPayload{Class: class, ID: id, Properties: properties}
	if _, err := c.do(ctx, http.MethodPut, "/v1/objects/"+class+"/"+id, payload, nil); err != nil {
		return fmt.Errorf("replace %s: %w", class, err)
	}
	return nil
}

// UpsertDocument stores or replaces a document record.
func (c *Client) UpsertDocument(ctx context.Context, doc model.Document) error {
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	props := map[string]any{
		"doc_id":     doc.DocID,
		"title":      doc.Title,
		"year":       doc.Year,
		"specialty":  doc.Specialty,
		"source_url": doc.SourceURL,
		"hash":       doc.Hash,
		"created_at": createdAt.UTC().Format(time.RFC3339),
	}
	c.log.Info("upsert document", "doc_id", doc.DocID)
	return c.putObject(ctx, classDocument, objectID("document", doc.DocID), props, nil)
}

// UpsertSection stores a section and returns its stable section id.
func (c *Client) UpsertSection(ctx context.Context, sec model.Section) (string, error) {
	sectionID := textutil.StableHash(sec.DocID + "|" + sec.Path)
	props := map[string]any{
		"section_id": sectionID,
		"doc_id":     sec.DocID,
		"path":       sec.Path,
		"order":      sec.Order,
		"level":      sec.Level,
		"page_start": sec.PageStart,
		"page_end":   sec.PageEnd,
	}
	if err := c.putObject(ctx, classSection, objectID("section", sectionID), props, nil); err != nil {
		return "", err
	}
	c.log.Info("upsert section", "doc_id", sec.DocID, "path", sec.Path)
	return sectionID, nil
}

// UpsertChunk stores a chunk, idempotent by content hash within the
// document: identical text re-ingested for the same document resolves to
// the existing chunk id instead of creating a duplicate.
func (c *Client) UpsertChunk(ctx context.Context, chunk model.Chunk, vector []float32) (string, error) {
	hash := chunk.Hash
	if hash == "" {
		hash = textutil.StableHash(chunk.Text)
	}

	where := whereAnd(whereEqText("doc_id", chunk.DocID), whereEqText("chunk_hash", hash))
	existing, err := c.fetchChunks(ctx, where, 1, model.SourceFetch)
	if err != nil {
		return "", fmt.Errorf("chunk hash lookup: %w", err)
	}
	if len(existing) > 0 && existing[0].ChunkID != "" {
		return existing[0].ChunkID, nil
	}

	chunkID := textutil.StableHash(chunk.DocID + "|" + chunk.SectionPath + "|" + hash)
	props := map[string]any{
		"chunk_id":        chunkID,
		"doc_id":          chunk.DocID,
		"section_path":    chunk.SectionPath,
		"section_id":      textutil.StableHash(chunk.DocID + "|" + chunk.SectionPath),
		"order":           chunk.Order,
		"page_start":      chunk.PageStart,
		"page_end":        chunk.PageEnd,
		"chunk_text":      chunk.Text,
		"chunk_type":      string(chunk.Type),
		"token_count":     chunk.TokenCount,
		"chunk_hash":      hash,
		"entity_mentions": chunk.EntityMentions,
	}
	if err := c.putObject(ctx, classChunk, objectID("chunk", chunkID), props, vector); err != nil {
		return "", err
	}
	c.log.Debug("upsert chunk", "doc_id", chunk.DocID, "chunk_id", chunkID)
	return chunkID, nil
}

// LinkChunkToSection records the section association on the chunk.
func (c *Client) LinkChunkToSection(ctx context.Context, chunkID, sectionID string) error {
	id := objectID("chunk", chunkID)
	props, err := c.getObjectProperties(ctx, classChunk, id)
	if err != nil {
		return fmt.Errorf("link chunk to section: %w", err)
	}
	props["section_id"] = sectionID
	return c.replaceObject(ctx, classChunk, id, props)
}

// LinkChunkToDocument records the document association on the chunk.
func (c *Client) LinkChunkToDocument(ctx context.Context, chunkID, docID string) error {
	id := objectID("chunk", chunkID)
	props, err := c.getObjectProperties(ctx, classChunk, id)
	if err != nil {
		return fmt.Errorf("link chunk to document: %w", err)
	}
	props["doc_id"] = docID
	return c.replaceObject(ctx, classChunk, id, props)
}

// UpsertRecommendation stores a recommendation statement and returns its
// stable id. Identical statements within a document share one record.
func (c *Client) UpsertRecommendation(ctx context.Context, docID, statement string) (string, error) {
	recID := textutil.StableHash(docID + "|" + statement)
	props := map[string]any{
		"recommendation_id": recID,
		"doc_id":            docID,
		"statement":         statement,
		"chunk_ids":         []string{},
	}
	status, err := c.do(ctx, http.MethodPost, "/v1/objects", objectPayload{
		Class:      classRecommendation,
		ID:         objectID("recommendation", recID),
		Properties: props,
	}, nil)
	// An existing record keeps its chunk_ids; only a fresh insert writes
	// the empty list.
	if err != nil && status != http.StatusUnprocessableEntity && status != http.StatusConflict {
		return "", fmt.Errorf("insert recommendation: %w", err)
	}
	return recID, nil
}

// LinkRecommendationToChunk adds a supporting chunk to a recommendation.
func (c *Client) LinkRecommendationToChunk(ctx context.Context, recID, chunkID string) error {
	id := objectID("recommendation", recID)
	props, err := c.getObjectProperties(ctx, classRecommendation, id)
	if err != nil {
		return fmt.Errorf("link recommendation to chunk: %w", err)
	}
	existing, _ := props["chunk_ids"].([]any)
	for _, v := range existing {
		if s, ok := v.(string); ok && s == chunkID {
			return nil
		}
	}
	props["chunk_ids"] = append(existing, chunkID)
	return c.replaceObject(ctx, classRecommendation, id, props)
}

// StoreVerdictEvaluation persists one judge call outcome.
func (c *Client) StoreVerdictEvaluation(ctx context.Context, eval model.VerdictEvaluation) (string, error) {
	createdAt := eval.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	evalID := eval.EvalID
	if evalID == "" {
		evalID = textutil.StableHash(eval.DocID + "|" + eval.VerdictText + "|" + createdAt.Format(time.RFC3339Nano))
	}
	props := map[string]any{
		"evaluation_id":       evalID,
		"doc_id":              eval.DocID,
		"verdict_text":        eval.VerdictText,
		"retrieved_chunk_ids": eval.ChunkIDs,
		"llm_output":          eval.Output,
		"model_name":          eval.ModelName,
		"created_at":          createdAt.UTC().Format(time.RFC3339),
	}
	if err := c.putObject(ctx, classEvaluation, objectID("evaluation", evalID), props, nil); err != nil {
		return "", err
	}
	c.log.Info("stored verdict evaluation", "doc_id", eval.DocID, "eval_id", evalID)
	return evalID, nil
}
