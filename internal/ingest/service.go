// Package ingest drives the per-document pipeline: parse, segment,
// classify, embed and persist, plus the manifest-driven batch scan.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/guidekb/internal/model"
	"github.com/dgallion1/guidekb/internal/parser"
	"github.com/dgallion1/guidekb/internal/segment"
	"github.com/dgallion1/guidekb/internal/textutil"
)

// Store is the persistence surface ingestion needs.
type Store interface {
	FindDocumentByHash(ctx context.Context, hash string) (*model.Document, error)
	UpsertDocument(ctx context.Context, doc model.Document) error
	UpsertSection(ctx context.Context, sec model.Section) (string, error)
	UpsertChunk(ctx context.Context, chunk model.Chunk, vector []float32) (string, error)
	LinkChunkToSection(ctx context.Context, chunkID, sectionID string) error
	LinkChunkToDocument(ctx context.Context, chunkID, docID string) error
	UpsertRecommendation(ctx context.Context, docID, statement string) (string, error)
	LinkRecommendationToChunk(ctx context.Context, recID, chunkID string) error
}

// Embedder produces the vector stored alongside each chunk.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Meta carries operator-supplied document metadata.
type Meta struct {
	DocID     string
	Title     string
	Year      int
	Specialty string
	SourceURL string
}

// Ingestion outcome statuses.
const (
	StatusIngested         = "ingested"
	StatusDuplicateSkipped = "duplicate_skipped"
)

// Summary is the per-document accounting every ingestion returns.
type Summary struct {
	DocID     string  `json:"doc_id"`
	Status    string  `json:"status"`
	Pages     int     `json:"pages"`
	Sections  int     `json:"sections"`
	Chunks    int     `json:"chunks"`
	AvgTokens float64 `json:"avg_tokens"`
}

// Service runs document ingestion against a store and embedder.
type Service struct {
	store    Store
	embedder Embedder
	chunkCfg segment.ChunkConfig
	log      *slog.Logger
}

func NewService(store Store, embedder Embedder, chunkCfg segment.ChunkConfig, log *slog.Logger) *Service {
	if chunkCfg.MinTokens <= 0 || chunkCfg.MaxTokens <= 0 {
		chunkCfg = segment.DefaultChunkConfig()
	}
	return &Service{store: store, embedder: embedder, chunkCfg: chunkCfg, log: log}
}

// IngestFile parses one source file and ingests it.
func (s *Service) IngestFile(ctx context.Context, path string, meta Meta) (*Summary, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	parsed, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if meta.DocID == "" {
		base := filepath.Base(path)
		meta.DocID = base[:len(base)-len(filepath.Ext(base))]
	}
	return s.IngestParsed(ctx, parsed, meta)
}

// IngestParsed persists one parsed document: duplicate check by content
// hash, then document, sections, chunks with vectors and links, and
// recommendations derived from normative chunks.
func (s *Service) IngestParsed(ctx context.Context, parsed *parser.Parsed, meta Meta) (*Summary, error) {
	if meta.DocID == "" {
		return nil, fmt.Errorf("doc id required")
	}
	log := s.log.With("doc_id", meta.DocID)

	hash := textutil.StableHash(parsed.Text())
	existing, err := s.store.FindDocumentByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		log.Info("duplicate content, skipping", "existing_doc_id", existing.DocID)
		return &Summary{DocID: meta.DocID, Status: StatusDuplicateSkipped, Pages: len(parsed.Pages)}, nil
	}

	title := meta.Title
	if title == "" {
		title = parsed.Title
	}
	if title == "" {
		title = meta.DocID
	}
	doc := model.Document{
		DocID:     meta.DocID,
		Title:     title,
		Year:      meta.Year,
		Specialty: meta.Specialty,
		SourceURL: meta.SourceURL,
		Hash:      hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.UpsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("upsert document: %w", err)
	}

	sections := segment.DetectSections(meta.DocID, parsed.Pages, parsed.TOC)
	chunkOrder := 0
	totalTokens := 0

	for _, sec := range sections {
		sectionID, err := s.store.UpsertSection(ctx, sec)
		if err != nil {
			return nil, fmt.Errorf("upsert section %q: %w", sec.Path, err)
		}

		for _, text := range segment.SplitSection(segment.SectionText(sec, parsed.Pages), s.chunkCfg) {
			chunk := model.Chunk{
				DocID:          meta.DocID,
				SectionPath:    sec.Path,
				Order:          chunkOrder,
				PageStart:      sec.PageStart,
				PageEnd:        sec.PageEnd,
				Text:           text,
				Type:           segment.Classify(sec.Path, text),
				TokenCount:     textutil.EstimateTokens(text),
				Hash:           textutil.StableHash(text),
				EntityMentions: segment.ExtractEntities(text),
			}

			vector, err := s.embedder.Embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("embed chunk %d: %w", chunkOrder, err)
			}
			chunkID, err := s.store.UpsertChunk(ctx, chunk, vector)
			if err != nil {
				return nil, fmt.Errorf("upsert chunk %d: %w", chunkOrder, err)
			}
			if err := s.store.LinkChunkToSection(ctx, chunkID, sectionID); err != nil {
				return nil, err
			}
			if err := s.store.LinkChunkToDocument(ctx, chunkID, meta.DocID); err != nil {
				return nil, err
			}

			if chunk.Type.IsNormative() {
				recID, err := s.store.UpsertRecommendation(ctx, meta.DocID, recommendationStatement(text))
				if err != nil {
					return nil, fmt.Errorf("upsert recommendation: %w", err)
				}
				if err := s.store.LinkRecommendationToChunk(ctx, recID, chunkID); err != nil {
					return nil, fmt.Errorf("link recommendation: %w", err)
				}
			}

			totalTokens += chunk.TokenCount
			chunkOrder++
		}
	}

	summary := &Summary{
		DocID:    meta.DocID,
		Status:   StatusIngested,
		Pages:    len(parsed.Pages),
		Sections: len(sections),
		Chunks:   chunkOrder,
	}
	if chunkOrder > 0 {
		summary.AvgTokens = float64(totalTokens) / float64(chunkOrder)
	}
	log.Info("document ingested",
		"pages", summary.Pages,
		"sections", summary.Sections,
		"chunks", summary.Chunks,
	)
	return summary, nil
}

const statementMaxRunes = 300

// recommendationStatement condenses a normative chunk into the statement
// stored on its recommendation node.
func recommendationStatement(text string) string {
	s := textutil.NormalizeSpace(text)
	if r := []rune(s); len(r) > statementMaxRunes {
		return string(r[:statementMaxRunes])
	}
	return s
}
