package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/guidekb/internal/ingest"
	"github.com/dgallion1/guidekb/internal/parser"
)

// Worker processes a single ingestion job: parse the upload, then run the
// ingestion service, retrying only while the storage backend is down.
type Worker struct {
	svc *ingest.Service
	log *slog.Logger
}

func NewWorker(svc *ingest.Service, log *slog.Logger) *Worker {
	return &Worker{svc: svc, log: log}
}

// Process runs the full pipeline for one job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.Meta.DocID, "filename", job.Filename)
	defer job.dropFileData()

	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	parsed, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	job.SetStatus(StatusIngesting, "ingesting")
	var summary *ingest.Summary
	var lastErr error
	for attempt := range MaxRetries {
		summary, lastErr = w.svc.IngestParsed(ctx, parsed, job.Meta)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("storage unavailable, retrying", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed, "ingesting")
			return
		}
	}
	if lastErr != nil {
		log.Error("ingestion failed", "error", lastErr)
		job.AddError(lastErr.Error())
		job.SetStatus(StatusFailed, "ingesting")
		return
	}

	job.SetSummary(summary)
	if summary.Status == ingest.StatusDuplicateSkipped {
		log.Info("duplicate document, skipped")
		job.SetStatus(StatusDupSkipped, "done")
		return
	}
	log.Info("ingestion complete", "sections", summary.Sections, "chunks", summary.Chunks)
	job.SetStatus(StatusCompleted, "done")
}
