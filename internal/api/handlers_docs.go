package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/guidekb/internal/model"
	"github.com/dgallion1/guidekb/internal/store"
)

const listDocumentsLimit = 500

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context(), listDocumentsLimit)
	if err != nil {
		var unavailable *store.UnavailableError
		if errors.As(err, &unavailable) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.log.Error("list documents failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []model.Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if docID == "" {
		jsonError(w, "doc_id is required", http.StatusBadRequest)
		return
	}

	deleted, err := s.store.DeleteDocument(r.Context(), docID)
	if err != nil {
		var unavailable *store.UnavailableError
		if errors.As(err, &unavailable) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.log.Error("delete document failed", "doc_id", docID, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":          docID,
		"objects_deleted": deleted,
	})
}
