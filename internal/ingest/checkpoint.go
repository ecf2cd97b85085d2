package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Checkpoint records which documents a batch scan has already completed, so
// an interrupted scan resumes without re-ingesting. Backed by a small JSON
// file of doc id to completion timestamp.
type Checkpoint struct {
	path string
	done map[string]time.Time
}

// LoadCheckpoint reads the checkpoint file; a missing file yields an empty
// checkpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	cp := &Checkpoint{path: path, done: make(map[string]time.Time)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &cp.done); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	return cp, nil
}

// Done reports whether a document was already completed.
func (c *Checkpoint) Done(docID string) bool {
	_, ok := c.done[docID]
	return ok
}

// MarkDone records a completed document and persists the file immediately,
// so a crash between documents loses at most the one in flight.
func (c *Checkpoint) MarkDone(docID string) error {
	c.done[docID] = time.Now().UTC()
	data, err := json.MarshalIndent(c.done, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Len returns the number of completed documents.
func (c *Checkpoint) Len() int { return len(c.done) }
