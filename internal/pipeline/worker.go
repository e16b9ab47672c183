package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/assets"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/catalog"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/enrich"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/input"
)

// Worker processes a single enrichment job end to end.
type Worker struct {
	enricher   *enrich.Enricher
	cat        *catalog.Catalog
	prober     *assets.Prober
	store      *JobStore
	brandRules string
	log        *slog.Logger
}

func NewWorker(enricher *enrich.Enricher, cat *catalog.Catalog, prober *assets.Prober, store *JobStore, brandRules string, log *slog.Logger) *Worker {
	return &Worker{
		enricher:   enricher,
		cat:        cat,
		prober:     prober,
		store:      store,
		brandRules: brandRules,
		log:        log,
	}
}

// Process runs the full enrichment pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Read and normalize the article.
	job.SetStatus(StatusReading, "reading")
	article, err := input.ReadArticle(bytes.NewReader(job.SourceData()), job.Filename)
	if err != nil {
		log.Error("article read failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "reading")
		return
	}

	// Phase 1.5: Dedup. An identical article already enriched in this
	// store's window is skipped; the status carries the fact.
	job.ContentHash = ContentHashHex([]byte(article))
	if prev, ok := w.store.LookupHash(job.ContentHash); ok && prev != job.ID {
		log.Info("duplicate article, skipping", "existing_job_id", prev)
		job.AddError(fmt.Sprintf("duplicate of job %s", prev))
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: Profile the article and shortlist catalog assets.
	job.SetStatus(StatusShortlisting, "shortlisting")
	profile := catalog.BuildProfile(article)

	images, err := w.cat.Images(ctx)
	if err != nil {
		w.fail(job, log, "shortlisting", fmt.Errorf("load images: %w", err))
		return
	}
	videos, err := w.cat.Videos(ctx)
	if err != nil {
		w.fail(job, log, "shortlisting", fmt.Errorf("load videos: %w", err))
		return
	}
	links, err := w.cat.Links(ctx)
	if err != nil {
		w.fail(job, log, "shortlisting", fmt.Errorf("load links: %w", err))
		return
	}

	candidates := catalog.Shortlist(article, job.Keywords, images, videos, links)
	log.Info("shortlisted candidates",
		"hero", len(candidates.Hero),
		"context", len(candidates.Context),
		"links", len(candidates.Links))
	if len(candidates.Hero) == 0 || len(candidates.Links) < 2 {
		w.fail(job, log, "shortlisting", fmt.Errorf("catalog too thin: %d hero, %d link candidates", len(candidates.Hero), len(candidates.Links)))
		return
	}

	// Phase 3: Drop candidates whose URLs don't respond.
	if w.prober != nil {
		job.SetStatus(StatusProbing, "probing")
		candidates = w.prober.Filter(ctx, candidates)
	}
	job.SetCandidates(len(candidates.Hero) + len(candidates.Context) + len(candidates.Links))

	// Phase 4: Run the selection loop.
	job.SetStatus(StatusEnriching, "enriching")
	enriched, report, err := w.enricher.Enrich(ctx, article, enrich.Inputs{
		Profile:    profile,
		Keywords:   job.Keywords,
		Candidates: candidates,
		BrandRules: w.brandRules,
	})
	if err != nil {
		var exhausted *enrich.QAExhaustedError
		if errors.As(err, &exhausted) {
			for _, r := range exhausted.Reasons {
				job.AddError(r)
			}
		} else {
			job.AddError(err.Error())
		}
		log.Error("enrichment failed", "error", err)
		job.SetStatus(StatusFailed, "enriching")
		return
	}

	job.SetResult(enriched, report)
	w.store.IndexHash(job.ContentHash, job.ID)
	log.Info("enrichment complete",
		"attempts", report.Attempts,
		"degraded_links", report.DegradedCount,
		"diversity_ratio", report.DiversityRatio)
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) fail(job *Job, log *slog.Logger, phase string, err error) {
	log.Error("pipeline phase failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
