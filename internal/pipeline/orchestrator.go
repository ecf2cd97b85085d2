package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/guidekb/internal/ingest"
)

// Orchestrator manages the asynchronous ingestion pipeline.
type Orchestrator struct {
	jobs        *JobStore
	queue       chan *Job
	svc         *ingest.Service
	log         *slog.Logger
	workerCount int
	maxQueue    int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline; Start launches its workers.
func NewOrchestrator(svc *ingest.Service, workerCount, maxQueueSize int, jobTTL time.Duration, log *slog.Logger) *Orchestrator {
	if workerCount <= 0 {
		workerCount = 2
	}
	if maxQueueSize <= 0 {
		maxQueueSize = 64
	}
	return &Orchestrator{
		jobs:        NewJobStore(jobTTL),
		queue:       make(chan *Job, maxQueueSize),
		svc:         svc,
		log:         log,
		workerCount: workerCount,
		maxQueue:    maxQueueSize,
	}
}

// Start launches worker goroutines and the job store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.workerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.svc, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// NewJob registers a queued job for an uploaded file.
func (o *Orchestrator) NewJob(filename string, data []byte, meta ingest.Meta) *Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		Meta:      meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData(data)
	return job
}

// Submit queues a job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.maxQueue)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
