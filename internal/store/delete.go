package store

import (
	"context"
	"fmt"
	"net/http"
)

type batchDeleteRequest struct {
	Match struct {
		Class string         `json:"class"`
		Where map[string]any `json:"where"`
	} `json:"match"`
}

type batchDeleteResponse struct {
	Results struct {
		Matches    int `json:"matches"`
		Successful int `json:"successful"`
	} `json:"results"`
}

// DeleteDocument removes a document and everything derived from it. Each
// class is cleared by a batch delete matching doc_id; the document record
// itself goes last so a partial failure leaves the document visible and
// the delete retryable.
func (c *Client) DeleteDocument(ctx context.Context, docID string) (int, error) {
	classes := []string{classEvaluation, classRecommendation, classChunk, classSection, classDocument}
	total := 0
	for _, class := range classes {
		var req batchDeleteRequest
		req.Match.Class = class
		req.Match.Where = map[string]any{
			"path":      []string{"doc_id"},
			"operator":  "Equal",
			"valueText": docID,
		}
		var resp batchDeleteResponse
		if _, err := c.do(ctx, http.MethodDelete, "/v1/batch/objects", req, &resp); err != nil {
			return total, fmt.Errorf("delete %s objects: %w", class, err)
		}
		total += resp.Results.Successful
	}
	c.log.Info("deleted document", "doc_id", docID, "objects", total)
	return total, nil
}
