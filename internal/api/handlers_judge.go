package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/guidekb/internal/store"
)

type judgeRequest struct {
	DocID   string `json:"doc_id"`
	Verdict string `json:"verdict"`
}

func (s *Server) handleJudge(w http.ResponseWriter, r *http.Request) {
	var req judgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocID == "" || req.Verdict == "" {
		jsonError(w, "doc_id and verdict are required", http.StatusBadRequest)
		return
	}

	result, err := s.judge.EvaluateVerdict(r.Context(), req.DocID, req.Verdict)
	if err != nil {
		var unavailable *store.UnavailableError
		if errors.As(err, &unavailable) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.log.Error("judge failed", "doc_id", req.DocID, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
