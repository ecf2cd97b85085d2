// Package retrieval answers scoped context queries against one document:
// hybrid candidate search, lexical reranking, graph expansion and context
// packing.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgallion1/guidekb/internal/model"
)

// Store is the query surface retrieval needs.
type Store interface {
	SearchBM25(ctx context.Context, docID, query string, f model.QueryFilters, limit int) ([]model.ChunkRecord, error)
	SearchNearVector(ctx context.Context, docID string, vector []float32, f model.QueryFilters, limit int) ([]model.ChunkRecord, error)
	FetchChunksByIDs(ctx context.Context, docID string, ids []string) ([]model.ChunkRecord, error)
	FetchSectionNeighbors(ctx context.Context, docID, sectionPath string, centerOrder, limit int) ([]model.ChunkRecord, error)
	FetchChunksByEntityMentions(ctx context.Context, docID string, terms []string, limit int) ([]model.ChunkRecord, error)
	FetchRecommendationLinked(ctx context.Context, docID string, seedIDs []string, limit int) ([]model.ChunkRecord, error)
}

// Embedder turns the query text into the vector used for similarity
// search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config carries the retrieval constants.
type Config struct {
	KInitial  int
	KTop      int
	KExpand   int
	PackedMin int
	PackedMax int
}

// DefaultConfig returns the standard retrieval constants.
func DefaultConfig() Config {
	return Config{KInitial: 32, KTop: 12, KExpand: 8, PackedMin: 6, PackedMax: 12}
}

// Service wires the retrieval stages together.
type Service struct {
	store    Store
	embedder Embedder
	cfg      Config
	log      *slog.Logger
}

func NewService(store Store, embedder Embedder, cfg Config, log *slog.Logger) *Service {
	if cfg.KInitial <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{store: store, embedder: embedder, cfg: cfg, log: log}
}

// HybridSearch runs the lexical and vector searches and fuses them by
// chunk identity, keeping the higher score. A chunk found by both carries
// hybrid provenance.
func (s *Service) HybridSearch(ctx context.Context, docID, query string, f model.QueryFilters, limit int) ([]model.ChunkRecord, error) {
	lexical, err := s.store.SearchBM25(ctx, docID, query, f, limit)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	similar, err := s.store.SearchNearVector(ctx, docID, vector, f, limit)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(lexical))
	fused := make([]model.ChunkRecord, 0, len(lexical)+len(similar))
	for _, r := range lexical {
		byID[r.ChunkID] = len(fused)
		fused = append(fused, r)
	}
	for _, r := range similar {
		if i, ok := byID[r.ChunkID]; ok {
			if r.Score > fused[i].Score {
				fused[i].Score = r.Score
			}
			fused[i].Source = model.SourceHybrid
			continue
		}
		byID[r.ChunkID] = len(fused)
		fused = append(fused, r)
	}

	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

// RetrieveContext runs the full retrieval pipeline for one query against
// one document and returns the packed context in document order.
func (s *Service) RetrieveContext(ctx context.Context, docID, query string, f model.QueryFilters) ([]model.ChunkRecord, error) {
	log := s.log.With("doc_id", docID)

	candidates, err := s.HybridSearch(ctx, docID, query, f, s.cfg.KInitial)
	if err != nil {
		return nil, err
	}
	log.Debug("retrieve: candidates", "count", len(candidates))

	ranked := Rerank(query, candidates)
	if len(ranked) > s.cfg.KTop {
		ranked = ranked[:s.cfg.KTop]
	}

	seedIDs := make([]string, len(ranked))
	for i, r := range ranked {
		seedIDs[i] = r.ChunkID
	}
	expandedIDs, err := s.ExpandGraph(ctx, docID, seedIDs, s.cfg.KExpand)
	if err != nil {
		return nil, err
	}
	log.Debug("retrieve: expanded", "count", len(expandedIDs))

	expanded, err := s.store.FetchChunksByIDs(ctx, docID, expandedIDs)
	if err != nil {
		return nil, err
	}

	packed := PackContext(query, append(ranked, expanded...), s.cfg.PackedMax, s.cfg.PackedMin, s.cfg.PackedMax)
	log.Info("retrieve: packed context", "chunks", len(packed), "query_len", len(query))
	return packed, nil
}
