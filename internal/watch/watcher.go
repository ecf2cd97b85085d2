// Package watch submits documents that appear in a watched directory for
// ingestion.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/guidekb/internal/ingest"
	"github.com/dgallion1/guidekb/internal/parser"
	"github.com/dgallion1/guidekb/internal/pipeline"
)

// settleDelay gives an uploader time to finish writing before we read the
// file.
const settleDelay = 2 * time.Second

// Watcher turns file creation events in one directory into ingestion jobs.
type Watcher struct {
	dir  string
	orch *pipeline.Orchestrator
	log  *slog.Logger

	mu        sync.Mutex
	submitted map[string]time.Time
}

func New(dir string, orch *pipeline.Orchestrator, log *slog.Logger) *Watcher {
	return &Watcher{
		dir:       dir,
		orch:      orch,
		log:       log,
		submitted: make(map[string]time.Time),
	}
}

// Run watches the directory until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !parser.IsSupportedExtension(event.Name) {
				continue
			}
			if !w.markSubmitted(event.Name) {
				continue
			}
			go w.submit(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

// markSubmitted dedupes the create+write event bursts one upload produces.
func (w *Watcher) markSubmitted(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if last, ok := w.submitted[path]; ok && time.Since(last) < 30*time.Second {
		return false
	}
	w.submitted[path] = time.Now()
	return true
}

func (w *Watcher) submit(ctx context.Context, path string) {
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Error("read watched file", "path", path, "error", err)
		return
	}

	base := filepath.Base(path)
	docID := strings.TrimSuffix(base, filepath.Ext(base))
	job := w.orch.NewJob(base, data, ingest.Meta{DocID: docID})
	if err := w.orch.Submit(job); err != nil {
		w.log.Error("submit watched file", "path", path, "error", err)
		return
	}
	w.log.Info("watched file submitted", "file", base, "job_id", job.ID)
}
