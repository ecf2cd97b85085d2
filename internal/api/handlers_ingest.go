package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/guidekb/internal/ingest"
	"github.com/dgallion1/guidekb/internal/parser"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size; extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	docID := r.FormValue("doc_id")
	if docID == "" {
		docID = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	meta := ingest.Meta{
		DocID:     docID,
		Title:     r.FormValue("title"),
		Specialty: r.FormValue("specialty"),
		SourceURL: r.FormValue("source_url"),
	}
	if v := r.FormValue("year"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			meta.Year = n
		}
	}

	job := s.orchestrator.NewJob(filename, data, meta)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"doc_id":   docID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

type scanRequest struct {
	InputDir     string `json:"input_dir"`
	ManifestPath string `json:"manifest_path"`
}

// handleScan runs a manifest-driven batch ingestion synchronously and
// returns the full accounting.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.InputDir == "" || req.ManifestPath == "" {
		jsonError(w, "input_dir and manifest_path are required", http.StatusBadRequest)
		return
	}

	result, err := s.ingest.ScanDirectory(r.Context(), ingest.ScanOptions{
		InputDir:       req.InputDir,
		ManifestPath:   req.ManifestPath,
		CheckpointPath: s.cfg.CheckpointFile,
	})
	if err != nil {
		s.log.Error("scan failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
