package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/guidekb/internal/model"
	"github.com/dgallion1/guidekb/internal/store"
)

type queryRequest struct {
	DocID         string   `json:"doc_id"`
	Text          string   `json:"text"`
	SectionPrefix string   `json:"section_prefix,omitempty"`
	ChunkTypes    []string `json:"chunk_types,omitempty"`
	PageStart     int      `json:"page_start,omitempty"`
	PageEnd       int      `json:"page_end,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocID == "" || req.Text == "" {
		jsonError(w, "doc_id and text are required", http.StatusBadRequest)
		return
	}

	filters := model.QueryFilters{
		SectionPrefix: req.SectionPrefix,
		PageStart:     req.PageStart,
		PageEnd:       req.PageEnd,
	}
	for _, t := range req.ChunkTypes {
		filters.Types = append(filters.Types, model.ParseChunkType(t))
	}

	chunks, err := s.retrieval.RetrieveContext(r.Context(), req.DocID, req.Text, filters)
	if err != nil {
		var unavailable *store.UnavailableError
		if errors.As(err, &unavailable) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.log.Error("query failed", "doc_id", req.DocID, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if chunks == nil {
		chunks = []model.ChunkRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id": req.DocID,
		"chunks": chunks,
	})
}
