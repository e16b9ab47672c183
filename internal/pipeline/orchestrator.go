package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/assets"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/catalog"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/config"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/enrich"
)

// Orchestrator manages the enrichment pipeline: a bounded job queue drained
// by a fixed pool of workers.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	enricher *enrich.Enricher
	cat      *catalog.Catalog
	prober   *assets.Prober
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, enricher *enrich.Enricher, cat *catalog.Catalog, prober *assets.Prober, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		enricher: enricher,
		cat:      cat,
		prober:   prober,
		log:      log,
		cfg:      cfg,
	}
}

// NewJob builds a queued job for an uploaded article.
func (o *Orchestrator) NewJob(filename string, keywords []string, data []byte) *Job {
	now := time.Now()
	job := &Job{
		ID:        NewJobID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Keywords:  keywords,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetSourceData(data)
	return job
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.enricher, o.cat, o.prober, o.jobs, o.cfg.BrandRules, o.log)
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

	// Start job store cleanup.
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

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
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
