package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/guidekb/internal/model"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, slog.New(slog.DiscardHandler))
}

func TestObjectIDDeterministic(t *testing.T) {
	a := objectID("chunk", "abc")
	b := objectID("chunk", "abc")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, objectID("chunk", "abd"))
	assert.NotEqual(t, a, objectID("document", "abc"))
	assert.Len(t, a, 36)
}

func TestUnavailableErrorOnConnectionRefused(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, slog.New(slog.DiscardHandler))
	_, err := c.SearchBM25(context.Background(), "doc1", "query", model.QueryFilters{}, 10)
	require.Error(t, err)

	var unavailable *UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestUnavailableErrorOnServerError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.FindDocumentByHash(context.Background(), "hash")
	require.Error(t, err)
	var unavailable *UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestClientErrorIsNotUnavailable(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))

	err := c.UpsertDocument(context.Background(), model.Document{DocID: "d1"})
	require.Error(t, err)
	var unavailable *UnavailableError
	assert.False(t, errors.As(err, &unavailable))
}

func TestPutObjectFallsBackToReplace(t *testing.T) {
	var posts, puts int
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			posts++
			http.Error(w, `{"error":"id already exists"}`, http.StatusUnprocessableEntity)
		case http.MethodPut:
			puts++
			w.WriteHeader(http.StatusOK)
		}
	}))

	err := c.putObject(context.Background(), classDocument, objectID("document", "d1"), map[string]any{"doc_id": "d1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, posts)
	assert.Equal(t, 1, puts)
}

func TestSearchBM25ParsesStringScores(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "bm25")
		assert.Contains(t, req.Query, `"doc1"`)

		resp := map[string]any{
			"data": map[string]any{
				"Get": map[string]any{
					"Chunk": []map[string]any{
						{
							"chunk_id":   "c1",
							"doc_id":     "doc1",
							"chunk_text": "text one",
							"chunk_type": "recommendation",
							"_additional": map[string]any{
								"score": "2.53",
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))

	records, err := c.SearchBM25(context.Background(), "doc1", "query", model.QueryFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c1", records[0].ChunkID)
	assert.InDelta(t, 2.53, records[0].Score, 1e-9)
	assert.Equal(t, model.TypeRecommendation, records[0].Type)
	assert.Equal(t, model.SourceLexical, records[0].Source)
}

func TestSearchNearVectorDistanceToScore(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"data": map[string]any{
				"Get": map[string]any{
					"Chunk": []map[string]any{
						{
							"chunk_id": "c1",
							"doc_id":   "doc1",
							"_additional": map[string]any{
								"distance": 0.25,
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))

	records, err := c.SearchNearVector(context.Background(), "doc1", []float32{0.1}, model.QueryFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 0.75, records[0].Score, 1e-9)
	assert.Equal(t, model.SourceVector, records[0].Source)
}

func TestGraphQLErrorSurfaced(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": "no such class"}},
		})
	}))

	_, err := c.ListDocuments(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such class")
}

func TestDeleteDocumentCascadesAllClasses(t *testing.T) {
	var classes []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/v1/batch/objects", r.URL.Path)

		var req batchDeleteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		classes = append(classes, req.Match.Class)
		assert.Equal(t, "doc1", req.Match.Where["valueText"])

		json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{"matches": 2, "successful": 2},
		})
	}))

	total, err := c.DeleteDocument(context.Background(), "doc1")
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	assert.Equal(t, []string{classEvaluation, classRecommendation, classChunk, classSection, classDocument}, classes)
}

func TestEnsureSchemaCreatesMissingClasses(t *testing.T) {
	var created []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"classes": []map[string]any{{"class": classDocument}},
			})
		case http.MethodPost:
			var class schemaClass
			require.NoError(t, json.NewDecoder(r.Body).Decode(&class))
			created = append(created, class.Class)
			w.WriteHeader(http.StatusOK)
		}
	}))

	require.NoError(t, c.EnsureSchema(context.Background()))
	assert.Equal(t, []string{classSection, classChunk, classRecommendation, classEvaluation}, created)
}

func TestFindDocumentByHashNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"Get": map[string]any{"Document": []any{}}},
		})
	}))

	doc, err := c.FindDocumentByHash(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, doc)
}
