package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/guidekb/internal/parser"
)

// ScanOptions configure a manifest-driven batch ingestion of a directory.
type ScanOptions struct {
	InputDir       string
	ManifestPath   string
	CheckpointPath string
}

// ScanResult accounts for every manifest row and every file seen during a
// batch scan.
type ScanResult struct {
	Ingested  []Summary `json:"ingested"`
	Skipped   []Summary `json:"skipped"`
	Failed    []string  `json:"failed,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	Unmatched []string  `json:"unmatched,omitempty"`
}

// ScanDirectory ingests every manifest entry found under the input
// directory. Already-checkpointed documents and duplicate content are
// skipped; per-document failures are recorded and the scan continues.
// Supported files present in the directory but absent from the manifest
// are reported as unmatched.
func (s *Service) ScanDirectory(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	entries, warnings, err := LoadManifest(opts.ManifestPath)
	if err != nil {
		return nil, err
	}
	cp, err := LoadCheckpoint(opts.CheckpointPath)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Warnings: warnings}
	listed := make(map[string]bool, len(entries))

	for _, entry := range entries {
		listed[entry.File] = true
		if cp.Done(entry.DocID) {
			result.Skipped = append(result.Skipped, Summary{DocID: entry.DocID, Status: StatusDuplicateSkipped})
			continue
		}

		path := filepath.Join(opts.InputDir, entry.File)
		if _, err := os.Stat(path); err != nil {
			result.Failed = append(result.Failed, fmt.Sprintf("%s: %v", entry.File, err))
			continue
		}

		summary, err := s.IngestFile(ctx, path, Meta{
			DocID:     entry.DocID,
			Title:     entry.Title,
			Year:      entry.Year,
			Specialty: entry.Specialty,
			SourceURL: entry.SourceURL,
		})
		if err != nil {
			s.log.Error("scan: document failed", "file", entry.File, "error", err)
			result.Failed = append(result.Failed, fmt.Sprintf("%s: %v", entry.File, err))
			continue
		}

		if summary.Status == StatusDuplicateSkipped {
			result.Skipped = append(result.Skipped, *summary)
		} else {
			result.Ingested = append(result.Ingested, *summary)
		}
		if err := cp.MarkDone(entry.DocID); err != nil {
			return result, err
		}
	}

	dirEntries, err := os.ReadDir(opts.InputDir)
	if err != nil {
		return result, fmt.Errorf("read input dir: %w", err)
	}
	for _, de := range dirEntries {
		if de.IsDir() || !parser.IsSupportedExtension(de.Name()) {
			continue
		}
		if !listed[de.Name()] {
			result.Unmatched = append(result.Unmatched, de.Name())
			s.log.Warn("scan: file not in manifest", "file", de.Name())
		}
	}

	return result, nil
}
