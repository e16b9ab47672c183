// Package enrich drives the selection loop: request a candidate selection,
// pre-validate it locally, render it, submit the result for a verdict, and
// decide whether to accept, retry with an updated avoid-set, or fail.
// Attempts are strictly sequential; each attempt's hints depend on the
// previous attempt's outcome.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/catalog"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/render"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/selection"
)

// SelectionRequest is what a selection provider receives. AvoidURLs and
// LastReasons are hints accumulated from rejected attempts; the provider may
// ignore them and the loop does not depend on compliance.
type SelectionRequest struct {
	Article     string
	Profile     *catalog.Profile
	Keywords    []string
	Candidates  catalog.Candidates
	BrandRules  string
	AvoidURLs   []string
	LastReasons []string
}

// SelectionProvider produces one enrichment candidate.
type SelectionProvider interface {
	Select(ctx context.Context, req SelectionRequest) (*selection.Selection, error)
}

// VerdictProvider judges one rendered candidate document.
type VerdictProvider interface {
	Verify(ctx context.Context, rendered string, sel *selection.Selection, keywords []string, brandRules string) (*selection.Verdict, error)
}

// Inputs are the per-run collaborator products the loop threads through to
// the providers.
type Inputs struct {
	Profile    *catalog.Profile
	Keywords   []string
	Candidates catalog.Candidates
	BrandRules string
}

// Report summarizes one enrichment run for observability.
type Report struct {
	Attempts       int                   `json:"attempts"`
	Accepted       bool                  `json:"accepted"`
	Degraded       []render.DegradedLink `json:"-"`
	DegradedCount  int                   `json:"degraded_links"`
	TotalURLs      int                   `json:"total_urls"`
	UniqueURLs     int                   `json:"unique_urls"`
	DiversityRatio float64               `json:"diversity_ratio"`
	LastReasons    []string              `json:"last_reasons,omitempty"`
}

// Enricher runs the selection loop against a pair of providers, with
// deterministic local fallbacks substituted when a provider fails. Provider
// errors are recovered here and never surface to the caller.
type Enricher struct {
	sel         SelectionProvider
	verdict     VerdictProvider
	fallbackSel SelectionProvider
	fallbackVer VerdictProvider
	cfg         Config
	log         *slog.Logger
}

// New builds an Enricher. The fallback providers must be local and
// deterministic; they are what keeps ProviderUnavailable from ever becoming
// a runtime failure.
func New(sel SelectionProvider, verdict VerdictProvider, fallbackSel SelectionProvider, fallbackVer VerdictProvider, cfg Config, log *slog.Logger) *Enricher {
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{
		sel:         sel,
		verdict:     verdict,
		fallbackSel: fallbackSel,
		fallbackVer: fallbackVer,
		cfg:         cfg.withDefaults(),
		log:         log,
	}
}

// attemptState accumulates across the retry loop of a single run. It is
// created per run, mutated after every rejected attempt, and discarded when
// the run terminates. Never shared across runs.
type attemptState struct {
	avoidSet    map[string]bool
	avoidURLs   []string
	lastReasons []string
}

func (s *attemptState) addURLs(urls []string) {
	for _, u := range urls {
		if u == "" || s.avoidSet[u] {
			continue
		}
		s.avoidSet[u] = true
		s.avoidURLs = append(s.avoidURLs, u)
	}
}

// Enrich runs up to MaxAttempts rounds and returns the accepted enriched
// markdown. Every attempt renders against a fresh parse of the original
// article, never a previous attempt's output. Cancellation is honored
// between attempts only.
func (e *Enricher) Enrich(ctx context.Context, article string, in Inputs) (string, *Report, error) {
	state := &attemptState{avoidSet: map[string]bool{}}
	report := &Report{}
	seen := map[string]bool{}

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", report, err
		}
		report.Attempts = attempt
		log := e.log.With("attempt", attempt, "max_attempts", e.cfg.MaxAttempts)

		req := SelectionRequest{
			Article:     article,
			Profile:     in.Profile,
			Keywords:    in.Keywords,
			Candidates:  in.Candidates,
			BrandRules:  in.BrandRules,
			AvoidURLs:   state.avoidURLs,
			LastReasons: state.lastReasons,
		}
		sel, err := e.sel.Select(ctx, req)
		if err != nil {
			log.Warn("selection provider unavailable; substituting deterministic fallback", "error", err)
			sel, err = e.fallbackSel.Select(ctx, req)
			if err != nil {
				return "", report, fmt.Errorf("fallback selection: %w", err)
			}
		}

		for _, u := range sel.URLs() {
			report.TotalURLs++
			if !seen[u] {
				seen[u] = true
				report.UniqueURLs++
			}
		}

		score := e.preValidate(sel, in.Keywords)
		if score < e.cfg.PreValidationThreshold {
			log.Info("pre-validation rejected selection", "score", score, "threshold", e.cfg.PreValidationThreshold)
			state.addURLs(sel.URLs())
			state.lastReasons = []string{"pre-validation quality below threshold"}
			continue
		}

		mut := &render.Mutator{TokenMinLen: e.cfg.TokenMinLen, Log: log}
		rendered, err := mut.Render(article, sel, in.Keywords)
		if err != nil {
			// Structural: the document lacks required anchors, retrying
			// cannot fix it.
			return "", report, err
		}
		report.Degraded = rendered.Degraded
		report.DegradedCount = len(rendered.Degraded)

		verdict, err := e.verdict.Verify(ctx, rendered.Markdown, sel, in.Keywords, in.BrandRules)
		if err != nil {
			log.Warn("verdict provider unavailable; substituting rule-based fallback", "error", err)
			verdict, err = e.fallbackVer.Verify(ctx, rendered.Markdown, sel, in.Keywords, in.BrandRules)
			if err != nil {
				return "", report, fmt.Errorf("fallback verdict: %w", err)
			}
		}
		if verdict.Threshold == 0 {
			verdict.Threshold = e.cfg.VerdictThreshold
		}

		if verdict.Passed() {
			report.Accepted = true
			e.logDiversity(report)
			log.Info("selection accepted",
				"rating", ratingOrNil(verdict),
				"degraded_links", len(rendered.Degraded),
			)
			return rendered.Markdown, report, nil
		}

		log.Info("selection rejected", "rating", ratingOrNil(verdict), "reasons", strings.Join(verdict.Reasons, "; "))
		state.addURLs(sel.URLs())
		state.lastReasons = verdict.Reasons
	}

	report.LastReasons = state.lastReasons
	e.logDiversity(report)
	return "", report, &QAExhaustedError{Attempts: e.cfg.MaxAttempts, Reasons: state.lastReasons}
}

// logDiversity records the unique/total URL ratio across all attempts. The
// metric is observational only and never gates acceptance.
func (e *Enricher) logDiversity(report *Report) {
	if report.TotalURLs > 0 {
		report.DiversityRatio = float64(report.UniqueURLs) / float64(report.TotalURLs)
	}
	e.log.Info("diversity metric",
		"unique_urls", report.UniqueURLs,
		"total_urls", report.TotalURLs,
		"ratio", report.DiversityRatio,
	)
}

var genericAnchors = map[string]bool{
	"click here": true,
	"learn more": true,
	"read more":  true,
	"overview":   true,
	"basics":     true,
}

// preValidate scores a selection locally before spending a render and a
// verdict call on it. Each link contributes up to four points: keyword
// presence, length within bounds, at least two alphabetic tokens, and not
// being a generic phrase.
func (e *Enricher) preValidate(sel *selection.Selection, keywords []string) int {
	score := 0
	for _, l := range sel.Links {
		a := strings.TrimSpace(l.Anchor)
		lower := strings.ToLower(a)

		hasKeyword := false
		for _, k := range keywords {
			if k != "" && strings.Contains(lower, strings.ToLower(k)) {
				hasKeyword = true
				break
			}
		}
		if hasKeyword || (l.Keyword != "" && strings.Contains(lower, strings.ToLower(l.Keyword))) {
			score++
		}
		if len(a) >= e.cfg.AnchorMinLen && len(a) <= e.cfg.AnchorMaxLen {
			score++
		}
		if alphaTokenCount(a) >= 2 {
			score++
		}
		if !genericAnchors[lower] {
			score++
		}
	}
	return score
}

func alphaTokenCount(s string) int {
	n := 0
	for _, f := range strings.Fields(s) {
		alpha := f != ""
		for _, r := range f {
			if !unicode.IsLetter(r) {
				alpha = false
				break
			}
		}
		if alpha {
			n++
		}
	}
	return n
}

func ratingOrNil(v *selection.Verdict) any {
	if v.Rating == nil {
		return nil
	}
	return *v.Rating
}

// Document is the one-call form of the core interface: enrich raw markdown
// with the given providers and configuration. Fallback providers must be
// supplied through New for custom wiring; here the providers themselves are
// also used as fallbacks, so callers passing local deterministic providers
// get the documented always-have-a-selection behavior.
func Document(ctx context.Context, raw string, sel SelectionProvider, verdict VerdictProvider, cfg Config, in Inputs, log *slog.Logger) (string, error) {
	e := New(sel, verdict, sel, verdict, cfg, log)
	out, _, err := e.Enrich(ctx, raw, in)
	return out, err
}
