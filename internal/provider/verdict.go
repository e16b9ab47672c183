package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/selection"
)

const verdictSystemPrompt = "You are a strict editorial QA reviewer. Return only valid JSON."

// LLMVerifier grades a rendered article against the selection that produced
// it and returns a structured verdict.
type LLMVerifier struct {
	Client      *Client
	Temperature float64
	Threshold   int
}

type verdictPrompt struct {
	RenderedMarkdown string   `json:"rendered_markdown"`
	Hero             string   `json:"hero_url"`
	ContextItem      string   `json:"context_url"`
	LinkAnchors      []string `json:"link_anchors"`
	LinkURLs         []string `json:"link_urls"`
	Keywords         []string `json:"keywords"`
	BrandRules       string   `json:"brand_rules,omitempty"`
	Checks           []string `json:"checks"`
	OutputSchema     string   `json:"output_schema"`
}

var verdictChecks = []string{
	"Hero image appears directly after the first H1 heading",
	"Context media appears inside the body, not at the very top or bottom",
	"Both link anchors read naturally inside their sentences",
	"Anchors are descriptive phrases, not bare keywords or generic calls to action",
	"No sentence was broken mid-word and no number was split",
	"Links point at the URLs listed; no URL was rewritten",
}

type wireVerdict struct {
	Accepted *bool    `json:"accepted"`
	Rating   *int     `json:"rating"`
	Reasons  []string `json:"reasons"`
}

// Verify implements enrich.VerdictProvider.
func (v *LLMVerifier) Verify(ctx context.Context, rendered string, sel *selection.Selection, keywords []string, brandRules string) (*selection.Verdict, error) {
	p := verdictPrompt{
		RenderedMarkdown: rendered,
		Hero:             sel.Hero.URL,
		ContextItem:      sel.ContextItem.URL,
		Keywords:         keywords,
		BrandRules:       brandRules,
		Checks:           verdictChecks,
		OutputSchema:     `{"accepted": bool, "rating": int 0-10, "reasons": [string]}`,
	}
	for _, l := range sel.Links {
		p.LinkAnchors = append(p.LinkAnchors, l.Anchor)
		p.LinkURLs = append(p.LinkURLs, l.URL)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal verdict prompt: %w", err)
	}

	out, err := completeWithRetry(ctx, v.Client, verdictSystemPrompt, string(body), v.Temperature)
	if err != nil {
		return nil, fmt.Errorf("verdict call: %w", err)
	}

	var w wireVerdict
	if err := json.Unmarshal([]byte(out), &w); err != nil {
		return nil, fmt.Errorf("decode verdict: %w (raw: %s)", err, truncate(out, 200))
	}
	if w.Accepted == nil && w.Rating == nil {
		return nil, fmt.Errorf("verdict carries neither accepted nor rating")
	}
	return &selection.Verdict{
		Accepted:  w.Accepted,
		Rating:    w.Rating,
		Reasons:   w.Reasons,
		Threshold: v.Threshold,
	}, nil
}
