package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/catalog"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/enrich"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/selection"
)

// FallbackSelector picks the top-ranked candidate from each bucket without
// consulting any external service. Shortlist order is already relevance
// order, so index zero is the best local guess. Deterministic: the same
// request always yields the same selection.
type FallbackSelector struct{}

// Select implements enrich.SelectionProvider.
func (FallbackSelector) Select(_ context.Context, req enrich.SelectionRequest) (*selection.Selection, error) {
	avoid := make(map[string]bool, len(req.AvoidURLs))
	for _, u := range req.AvoidURLs {
		avoid[u] = true
	}

	hero, ok := pickMedia(req.Candidates.Hero, avoid, true)
	if !ok {
		// Diversity pressure never justifies an empty hero slot.
		hero, ok = pickMedia(req.Candidates.Hero, nil, true)
	}
	if !ok {
		return nil, fmt.Errorf("fallback: no hero image candidate")
	}
	used := map[string]bool{hero.URL: true}

	ctxItem, ok := pickContext(req.Candidates.Context, avoid, used)
	if !ok {
		ctxItem, ok = pickContext(req.Candidates.Context, nil, used)
	}
	if !ok {
		return nil, fmt.Errorf("fallback: no context media candidate")
	}
	used[ctxItem.URL] = true

	links := pickLinks(req, avoid, used)
	if len(links) < 2 {
		links = pickLinks(req, nil, used)
	}
	if len(links) < 2 {
		return nil, fmt.Errorf("fallback: need 2 link candidates, have %d", len(links))
	}

	zero := 0
	ctxItem.Place = selection.Placement{
		SectionHeading: targetSection(req, ctxItem.Alt),
		ParagraphIndex: &zero,
	}
	return &selection.Selection{Hero: hero, ContextItem: ctxItem, Links: links}, nil
}

func pickMedia(assets []catalog.Asset, avoid map[string]bool, imageOnly bool) (selection.MediaSelection, bool) {
	for _, a := range assets {
		if avoid[a.URL] {
			continue
		}
		if imageOnly && a.Kind == string(selection.KindVideo) {
			continue
		}
		return selection.MediaSelection{
			ID:   a.ID,
			Kind: mediaKind(a.Kind),
			URL:  a.URL,
			Alt:  mediaAlt(a),
		}, true
	}
	return selection.MediaSelection{}, false
}

func pickContext(assets []catalog.Asset, avoid, used map[string]bool) (selection.MediaSelection, bool) {
	for _, a := range assets {
		if avoid[a.URL] || used[a.URL] {
			continue
		}
		return selection.MediaSelection{
			ID:   a.ID,
			Kind: mediaKind(a.Kind),
			URL:  a.URL,
			Alt:  mediaAlt(a),
		}, true
	}
	return selection.MediaSelection{}, false
}

func pickLinks(req enrich.SelectionRequest, avoid, used map[string]bool) []selection.LinkSelection {
	zero := 0
	var links []selection.LinkSelection
	for i, a := range req.Candidates.Links {
		if len(links) == 2 {
			break
		}
		if avoid[a.URL] || used[a.URL] {
			continue
		}
		kw := linkKeyword(req.Keywords, i)
		links = append(links, selection.LinkSelection{
			ID:      a.ID,
			URL:     a.URL,
			Anchor:  fallbackAnchor(a, kw),
			Keyword: kw,
			Place: selection.Placement{
				SectionHeading: targetSection(req, a.Title+" "+a.Description),
				ParagraphIndex: &zero,
				SentenceIndex:  &zero,
			},
		})
	}
	return links
}

func mediaKind(k string) selection.Kind {
	if k == string(selection.KindVideo) {
		return selection.KindVideo
	}
	return selection.KindImage
}

func mediaAlt(a catalog.Asset) string {
	if a.Title != "" {
		return a.Title
	}
	if a.Description != "" {
		return clipText(a.Description, selection.MaxAltLen)
	}
	return "Illustration"
}

func linkKeyword(keywords []string, i int) string {
	if len(keywords) == 0 {
		return ""
	}
	return keywords[i%len(keywords)]
}

// fallbackAnchor derives a short anchor that carries the keyword. Asset
// titles win when they already mention it; otherwise the keyword itself is
// padded into a readable phrase.
func fallbackAnchor(a catalog.Asset, keyword string) string {
	title := strings.TrimSpace(a.Title)
	if title != "" && len(title) <= 60 {
		if keyword == "" || strings.Contains(strings.ToLower(title), strings.ToLower(keyword)) {
			return title
		}
	}
	if keyword != "" {
		return keyword + " basics"
	}
	return "further reading"
}

// targetSection chooses the profile section whose heading shares the most
// tokens with the asset's text, defaulting to the first section.
func targetSection(req enrich.SelectionRequest, assetText string) string {
	if req.Profile == nil || len(req.Profile.Sections) == 0 {
		return ""
	}
	toks := catalog.Tokenize(catalog.NormalizeText(assetText))
	want := make(map[string]bool, len(toks))
	for _, t := range toks {
		want[t] = true
	}
	best, bestScore := "", 0
	for _, sec := range req.Profile.Sections {
		if sec.Heading == "" {
			continue
		}
		score := 0
		for _, t := range catalog.Tokenize(catalog.NormalizeText(sec.Heading)) {
			if want[t] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = sec.Heading, score
		}
	}
	if best == "" {
		for _, sec := range req.Profile.Sections {
			if sec.Heading != "" {
				return sec.Heading
			}
		}
	}
	return best
}

func clipText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndexByte(s[:n], ' ')
	if cut <= 0 {
		cut = n
	}
	return s[:cut]
}

// RuleVerifier is the local stand-in for the LLM verdict: structural checks
// on the rendered markdown, no judgment of prose quality. It parses the
// document with goldmark and requires the hero image to be the first thing
// after the opening H1.
type RuleVerifier struct {
	Threshold int
}

var genericAnchorPhrases = []string{"click here", "learn more", "read more", "here"}

// Verify implements enrich.VerdictProvider.
func (r RuleVerifier) Verify(_ context.Context, rendered string, sel *selection.Selection, _ []string, _ string) (*selection.Verdict, error) {
	var reasons []string

	if !strings.Contains(rendered, sel.Hero.URL) {
		reasons = append(reasons, "hero image URL missing from rendered document")
	} else if !heroFollowsTitle(rendered, sel.Hero.URL) {
		reasons = append(reasons, "hero image is not directly after the title")
	}
	if !strings.Contains(rendered, sel.ContextItem.URL) {
		reasons = append(reasons, "context media URL missing from rendered document")
	}
	for _, l := range sel.Links {
		if strings.TrimSpace(l.Anchor) == "" {
			reasons = append(reasons, "empty link anchor")
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(l.Anchor))
		for _, g := range genericAnchorPhrases {
			if lower == g {
				reasons = append(reasons, fmt.Sprintf("generic anchor %q", l.Anchor))
				break
			}
		}
		if !strings.Contains(rendered, "]("+l.URL+")") {
			reasons = append(reasons, fmt.Sprintf("link URL %s not rendered", l.URL))
		}
	}

	accepted := len(reasons) == 0
	rating := 9
	if !accepted {
		rating = 9 - 2*len(reasons)
		if rating < 0 {
			rating = 0
		}
	}
	return &selection.Verdict{
		Accepted:  &accepted,
		Rating:    &rating,
		Reasons:   reasons,
		Threshold: r.Threshold,
	}, nil
}

// heroFollowsTitle walks the goldmark AST and reports whether the first
// block after the leading H1 is a paragraph containing an image with the
// given destination.
func heroFollowsTitle(markdown, heroURL string) bool {
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	node := doc.FirstChild()
	if h, ok := node.(*ast.Heading); !ok || h.Level != 1 {
		return false
	}
	node = node.NextSibling()
	para, ok := node.(*ast.Paragraph)
	if !ok {
		return false
	}
	for c := para.FirstChild(); c != nil; c = c.NextSibling() {
		if img, ok := c.(*ast.Image); ok && string(img.Destination) == heroURL {
			return true
		}
	}
	return false
}
