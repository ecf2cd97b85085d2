package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/dgallion1/guidekb/internal/model"
)

// SearchBM25 runs a keyword query over one document's chunks.
func (c *Client) SearchBM25(ctx context.Context, docID, query string, f model.QueryFilters, limit int) ([]model.ChunkRecord, error) {
	q := fmt.Sprintf(
		`{ Get { Chunk(bm25:{query:%s}, where:%s, limit:%d) { %s _additional { score } } } }`,
		gqlString(query), chunkWhere(docID, f), limit, chunkFields,
	)
	var resp chunkGetResponse
	if err := c.graphQL(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}
	records := make([]model.ChunkRecord, 0, len(resp.Get.Chunk))
	for _, o := range resp.Get.Chunk {
		records = append(records, o.toRecord(model.SourceLexical))
	}
	c.log.Debug("bm25 search", "doc_id", docID, "hits", len(records))
	return records, nil
}

// SearchNearVector runs a vector-similarity query over one document's
// chunks. Scores are 1 - distance.
func (c *Client) SearchNearVector(ctx context.Context, docID string, vector []float32, f model.QueryFilters, limit int) ([]model.ChunkRecord, error) {
	q := fmt.Sprintf(
		`{ Get { Chunk(nearVector:{vector:%s}, where:%s, limit:%d) { %s _additional { distance } } } }`,
		vectorLiteral(vector), chunkWhere(docID, f), limit, chunkFields,
	)
	var resp chunkGetResponse
	if err := c.graphQL(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	records := make([]model.ChunkRecord, 0, len(resp.Get.Chunk))
	for _, o := range resp.Get.Chunk {
		records = append(records, o.toRecord(model.SourceVector))
	}
	c.log.Debug("vector search", "doc_id", docID, "hits", len(records))
	return records, nil
}

// fetchChunks runs a filtered (non-scoring) chunk fetch.
func (c *Client) fetchChunks(ctx context.Context, where string, limit int, source string) ([]model.ChunkRecord, error) {
	q := fmt.Sprintf(`{ Get { Chunk(where:%s, limit:%d) { %s } } }`, where, limit, chunkFields)
	var resp chunkGetResponse
	if err := c.graphQL(ctx, q, &resp); err != nil {
		return nil, err
	}
	records := make([]model.ChunkRecord, 0, len(resp.Get.Chunk))
	for _, o := range resp.Get.Chunk {
		records = append(records, o.toRecord(source))
	}
	return records, nil
}

// FetchChunksByIDs hydrates chunk records for the given ids, scoped to one
// document.
func (c *Client) FetchChunksByIDs(ctx context.Context, docID string, ids []string) ([]model.ChunkRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where := whereAnd(whereEqText("doc_id", docID), whereContainsAny("chunk_id", ids))
	records, err := c.fetchChunks(ctx, where, len(ids)+4, model.SourceFetch)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks by ids: %w", err)
	}
	return records, nil
}

// FetchSectionNeighbors returns chunks in the same section ranked by
// positional closeness to centerOrder.
func (c *Client) FetchSectionNeighbors(ctx context.Context, docID, sectionPath string, centerOrder, limit int) ([]model.ChunkRecord, error) {
	fetchLimit := limit * 3
	if fetchLimit < 8 {
		fetchLimit = 8
	}
	where := whereAnd(whereEqText("doc_id", docID), whereEqText("section_path", sectionPath))
	records, err := c.fetchChunks(ctx, where, fetchLimit, model.SourceSection)
	if err != nil {
		return nil, fmt.Errorf("fetch section neighbors: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return abs(records[i].Order-centerOrder) < abs(records[j].Order-centerOrder)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// FetchChunksByEntityMentions returns chunks whose entity-mention set
// intersects the given terms.
func (c *Client) FetchChunksByEntityMentions(ctx context.Context, docID string, terms []string, limit int) ([]model.ChunkRecord, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	where := whereAnd(whereEqText("doc_id", docID), whereContainsAny("entity_mentions", terms))
	records, err := c.fetchChunks(ctx, where, limit, model.SourceEntity)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks by entity mentions: %w", err)
	}
	return records, nil
}

// FetchRecommendationLinked returns chunks linked to any recommendation
// that references one of the seed chunk ids.
func (c *Client) FetchRecommendationLinked(ctx context.Context, docID string, seedIDs []string, limit int) ([]model.ChunkRecord, error) {
	if len(seedIDs) == 0 {
		return nil, nil
	}
	where := whereAnd(whereEqText("doc_id", docID), whereContainsAny("chunk_ids", seedIDs))
	q := fmt.Sprintf(`{ Get { Recommendation(where:%s, limit:%d) { chunk_ids } } }`, where, limit)
	var resp struct {
		Get struct {
			Recommendation []struct {
				ChunkIDs []string `json:"chunk_ids"`
			} `json:"Recommendation"`
		} `json:"Get"`
	}
	if err := c.graphQL(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("fetch recommendation linked: %w", err)
	}

	var linked []string
	seen := make(map[string]bool)
	for _, rec := range resp.Get.Recommendation {
		for _, id := range rec.ChunkIDs {
			if !seen[id] {
				seen[id] = true
				linked = append(linked, id)
			}
		}
	}
	if len(linked) > limit {
		linked = linked[:limit]
	}

	records, err := c.FetchChunksByIDs(ctx, docID, linked)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Source = model.SourceRecommendation
	}
	return records, nil
}

type documentObject struct {
	DocID     string `json:"doc_id"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Specialty string `json:"specialty"`
	SourceURL string `json:"source_url"`
	Hash      string `json:"hash"`
}

func (o documentObject) toModel() model.Document {
	return model.Document{
		DocID:     o.DocID,
		Title:     o.Title,
		Year:      o.Year,
		Specialty: o.Specialty,
		SourceURL: o.SourceURL,
		Hash:      o.Hash,
	}
}

const documentFields = `doc_id title year specialty source_url hash`

// FindDocumentByHash returns the document with the given content hash, or
// nil if none exists.
func (c *Client) FindDocumentByHash(ctx context.Context, hash string) (*model.Document, error) {
	q := fmt.Sprintf(`{ Get { Document(where:%s, limit:1) { %s } } }`, whereEqText("hash", hash), documentFields)
	var resp struct {
		Get struct {
			Document []documentObject `json:"Document"`
		} `json:"Get"`
	}
	if err := c.graphQL(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("find document by hash: %w", err)
	}
	if len(resp.Get.Document) == 0 {
		return nil, nil
	}
	doc := resp.Get.Document[0].toModel()
	return &doc, nil
}

// ListDocuments returns all ingested documents up to limit.
func (c *Client) ListDocuments(ctx context.Context, limit int) ([]model.Document, error) {
	q := fmt.Sprintf(`{ Get { Document(limit:%d) { %s } } }`, limit, documentFields)
	var resp struct {
		Get struct {
			Document []documentObject `json:"Document"`
		} `json:"Get"`
	}
	if err := c.graphQL(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]model.Document, 0, len(resp.Get.Document))
	for _, o := range resp.Get.Document {
		docs = append(docs, o.toModel())
	}
	return docs, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
