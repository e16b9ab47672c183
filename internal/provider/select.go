package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/catalog"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/enrich"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/selection"
)

const selectionSystemPrompt = "You are a precise content selection assistant. Return only valid JSON per the provided schema."

// LLMSelector asks the model to pick a hero image, a context media item and
// two inline links from shortlisted candidates. The model's untyped JSON is
// mapped to a typed Selection and validated here, at the boundary.
type LLMSelector struct {
	Client      *Client
	Temperature float64
	// Sanitize repairs banned or keyword-less anchors after parsing.
	Sanitize bool
	Log      *slog.Logger
}

type promptAsset struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

type promptSection struct {
	Heading    string   `json:"heading"`
	Paragraphs []string `json:"paragraphs"`
}

type selectionPrompt struct {
	ArticleText     string          `json:"article_text"`
	ArticleSections []promptSection `json:"article_sections"`
	Keywords        []string        `json:"keywords"`
	BrandRules      string          `json:"brand_rules"`
	Candidates      struct {
		Hero    []promptAsset `json:"hero"`
		Context []promptAsset `json:"context"`
		Links   []promptAsset `json:"links"`
	} `json:"candidates"`
	Constraints   []string `json:"constraints"`
	AnchorRules   []string `json:"anchor_requirements"`
	RejectReasons []string `json:"reject_reasons,omitempty"`
	AvoidURLs     []string `json:"avoid_urls,omitempty"`
}

var selectionConstraints = []string{
	"Select exactly one hero image at the beginning of the article",
	"Select exactly one in-context item (image or video)",
	"Select exactly two links; anchor text must include provided keywords and be descriptive",
	"Links must come from the 'links' candidates bucket; do not reuse hero/context URLs as links",
	"Alt text must be descriptive and <=125 chars; do not start with 'Image of' or 'Picture of'",
	"Use only URLs from candidates; do not modify URLs",
	"Indices are zero-based. Paragraphs are contiguous non-empty lines in the target section. Sentence index is the position within the chosen paragraph when splitting on '.', '!', or '?'",
	"Return strictly valid JSON only; no prose",
	"Diversity: avoid repeating any URL listed in avoid_urls",
}

var anchorRequirements = []string{
	"MANDATORY: anchor text must be an exact phrase that already exists in the target sentence",
	"Extract a phrase from the article text; do not invent a descriptive title",
	"The anchor should be 2-6 words that appear verbatim in the sentence",
	"Include the provided keyword within or near the extracted phrase",
	"The link must be placed within a sentence, never appended after the final period",
	"Whole-word insertion only; never split numbers or decimals",
}

// Select implements enrich.SelectionProvider.
func (s *LLMSelector) Select(ctx context.Context, req enrich.SelectionRequest) (*selection.Selection, error) {
	prompt, err := buildSelectionPrompt(req)
	if err != nil {
		return nil, err
	}
	out, err := completeWithRetry(ctx, s.Client, selectionSystemPrompt, prompt, s.Temperature)
	if err != nil {
		return nil, fmt.Errorf("selection call: %w", err)
	}

	sel, err := parseSelection(out)
	if err != nil {
		return nil, fmt.Errorf("parse selection: %w", err)
	}
	if s.Sanitize {
		if n := SanitizeAnchors(sel, req.Keywords); n > 0 && s.Log != nil {
			s.Log.Info("anchor sanitization applied", "links", n)
		}
	}
	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}
	return sel, nil
}

func buildSelectionPrompt(req enrich.SelectionRequest) (string, error) {
	p := selectionPrompt{
		ArticleText:   req.Article,
		Keywords:      req.Keywords,
		BrandRules:    req.BrandRules,
		Constraints:   selectionConstraints,
		AnchorRules:   anchorRequirements,
		RejectReasons: req.LastReasons,
		AvoidURLs:     req.AvoidURLs,
	}
	if req.Profile != nil {
		for i, sec := range req.Profile.Sections {
			if i >= 6 {
				break
			}
			p.ArticleSections = append(p.ArticleSections, promptSection{
				Heading:    sec.Heading,
				Paragraphs: sec.Paragraphs(),
			})
		}
	}
	p.Candidates.Hero = compactAssets(req.Candidates.Hero)
	p.Candidates.Context = compactAssets(req.Candidates.Context)
	p.Candidates.Links = compactAssets(req.Candidates.Links)

	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal prompt: %w", err)
	}
	return string(body), nil
}

func compactAssets(assets []catalog.Asset) []promptAsset {
	out := make([]promptAsset, 0, len(assets))
	for _, a := range assets {
		out = append(out, promptAsset{
			ID:          a.ID,
			Type:        a.Kind,
			URL:         a.URL,
			Title:       a.Title,
			Description: a.Description,
			Tags:        a.Tags,
		})
	}
	return out
}

type wirePlace struct {
	SectionHeading string `json:"section_heading"`
	ParagraphIndex *int   `json:"paragraph_index"`
	SentenceIndex  *int   `json:"sentence_index"`
}

type wireMedia struct {
	ID    int64     `json:"id"`
	Type  string    `json:"type"`
	URL   string    `json:"url"`
	Alt   string    `json:"alt"`
	Place wirePlace `json:"place"`
}

type wireLink struct {
	ID      int64     `json:"id"`
	URL     string    `json:"url"`
	Anchor  string    `json:"anchor"`
	Keyword string    `json:"keyword"`
	Place   wirePlace `json:"place"`
}

type wireSelection struct {
	Hero        wireMedia  `json:"hero"`
	ContextItem wireMedia  `json:"context_item"`
	Links       []wireLink `json:"links"`
}

func parseSelection(raw string) (*selection.Selection, error) {
	var w wireSelection
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("decode json: %w (raw: %s)", err, truncate(raw, 200))
	}
	sel := &selection.Selection{
		Hero:        mapMedia(w.Hero),
		ContextItem: mapMedia(w.ContextItem),
	}
	for _, l := range w.Links {
		sel.Links = append(sel.Links, selection.LinkSelection{
			ID:      l.ID,
			URL:     l.URL,
			Anchor:  l.Anchor,
			Keyword: l.Keyword,
			Place: selection.Placement{
				SectionHeading: l.Place.SectionHeading,
				ParagraphIndex: l.Place.ParagraphIndex,
				SentenceIndex:  l.Place.SentenceIndex,
			},
		})
	}
	return sel, nil
}

func mapMedia(m wireMedia) selection.MediaSelection {
	kind := selection.Kind(m.Type)
	if kind != selection.KindVideo {
		kind = selection.KindImage
	}
	return selection.MediaSelection{
		ID:   m.ID,
		Kind: kind,
		URL:  m.URL,
		Alt:  m.Alt,
		Place: selection.Placement{
			SectionHeading: m.Place.SectionHeading,
			ParagraphIndex: m.Place.ParagraphIndex,
			SentenceIndex:  m.Place.SentenceIndex,
		},
	}
}
