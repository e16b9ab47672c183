// Package render performs the physical document edits: hero insertion,
// in-context media insertion and link wrapping. Edits are applied in a fixed
// order per attempt (hero, context, links) because every insertion shifts
// later line indices; each step re-derives its targets from the mutated
// line numbering.
package render

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/anchor"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/docmodel"
	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/selection"
)

// Structural errors. These are fatal: the document is malformed with
// respect to the system's assumptions and no retry can fix it.
var (
	ErrNoHeroAnchor    = errors.New("document has no level-1 heading for the hero image")
	ErrNoContextAnchor = errors.New("no resolvable heading for the context media item")
)

// DegradedLink records a link that could not be matched inline at any tier
// and was appended to its paragraph instead. The outcome is observable but
// not failing: the phrase is not guaranteed to read naturally.
type DegradedLink struct {
	Anchor string
	URL    string
}

// Result is one rendered enrichment candidate.
type Result struct {
	Markdown string
	Degraded []DegradedLink
}

// Mutator renders a Selection into a Markdown document.
type Mutator struct {
	TokenMinLen int
	Log         *slog.Logger
}

// Render applies the full mutation sequence to a fresh parse of original
// and returns the enriched text. original is never modified; a structural
// error leaves no partial output.
func (m *Mutator) Render(original string, sel *selection.Selection, keywords []string) (*Result, error) {
	log := m.Log
	if log == nil {
		log = slog.Default()
	}
	doc := docmodel.Parse(original)
	res := &Result{}

	// Hero goes right after the first H1.
	h1, ok := doc.FirstHeading(1)
	if !ok {
		return nil, ErrNoHeroAnchor
	}
	insertAfter(doc, h1, imageMarkdown(sel.Hero.Alt, sel.Hero.URL))
	log.Debug("hero inserted", "line", h1, "url", sel.Hero.URL)

	// Context media under its section heading, falling back to the first H2.
	ctxLine, ok := doc.ResolveHeading(sel.ContextItem.Place.SectionHeading)
	if !ok {
		ctxLine, ok = doc.FirstHeading(2)
	}
	if !ok {
		return nil, ErrNoContextAnchor
	}
	block := imageMarkdown(sel.ContextItem.Alt, sel.ContextItem.URL)
	if sel.ContextItem.Kind == selection.KindVideo {
		block = videoMarkdown(sel.ContextItem.Alt, sel.ContextItem.URL)
	}
	insertAfter(doc, ctxLine, block)
	log.Debug("context media inserted", "line", ctxLine, "kind", sel.ContextItem.Kind)

	// Links, one paragraph each per section.
	usedBySection := map[string]map[int]bool{}
	for _, link := range sel.Links {
		target := link.Place.SectionHeading
		if target == "" {
			target = sel.ContextItem.Place.SectionHeading
		}
		key := strings.ToLower(strings.TrimSpace(target))
		if usedBySection[key] == nil {
			usedBySection[key] = map[int]bool{}
		}
		m.insertLink(doc, link, target, keywords, usedBySection[key], res, log)
	}

	// Any selected link URL still absent lands at the end of its section.
	full := doc.String()
	for _, link := range sel.Links {
		if strings.Contains(full, link.URL) {
			continue
		}
		target := link.Place.SectionHeading
		if target == "" {
			target = sel.ContextItem.Place.SectionHeading
		}
		b := sectionOrWholeDoc(doc, target)
		tail := []string{"", fmt.Sprintf("[%s](%s)", link.Anchor, link.URL)}
		doc.Lines = append(doc.Lines[:b.End], append(tail, doc.Lines[b.End:]...)...)
		full = doc.String()
		log.Warn("link missing after insert; appended at section end", "url", link.URL, "section", target)
	}

	res.Markdown = doc.String()
	return res, nil
}

// insertLink weaves one link into the best paragraph of its target section.
func (m *Mutator) insertLink(doc *docmodel.Document, link selection.LinkSelection, target string, keywords []string, used map[int]bool, res *Result, log *slog.Logger) {
	b := sectionOrWholeDoc(doc, target)
	pranges := doc.ParagraphRanges(b.Start, b.End)
	if len(pranges) == 0 {
		markup := fmt.Sprintf("[%s](%s)", link.Anchor, link.URL)
		idx := b.Start
		if idx < len(doc.Lines) && strings.TrimSpace(doc.Lines[idx]) != "" {
			doc.Lines[idx] = doc.Lines[idx] + " " + markup
		} else {
			doc.Lines = append(doc.Lines[:idx], append([]string{markup}, doc.Lines[idx:]...)...)
		}
		res.Degraded = append(res.Degraded, DegradedLink{Anchor: link.Anchor, URL: link.URL})
		log.Warn("no paragraphs in section; link placed at section start", "section", target, "url", link.URL)
		return
	}

	chosen := m.chooseParagraph(doc, pranges, link, keywords, used)
	used[chosen] = true
	r := pranges[chosen]
	paragraph := doc.ParagraphText(r)

	if strings.Contains(paragraph, link.URL) {
		log.Info("link already present in target paragraph", "section", target, "paragraph", chosen, "url", link.URL)
		return
	}

	sentenceHint := -1
	if link.Place.SentenceIndex != nil {
		sentenceHint = *link.Place.SentenceIndex
	}
	matcher := anchor.Matcher{TokenMinLen: m.TokenMinLen}
	match, ok := matcher.Find(paragraph, link.Anchor, sentenceHint)
	if !ok {
		// Last resort: append to the end of the paragraph.
		last := strings.TrimRight(doc.Lines[r.End-1], " ")
		doc.Lines[r.End-1] = last + fmt.Sprintf(" [%s](%s)", link.Anchor, link.URL)
		res.Degraded = append(res.Degraded, DegradedLink{Anchor: link.Anchor, URL: link.URL})
		log.Warn("anchor not found at any tier; link appended", "section", target, "anchor", link.Anchor, "url", link.URL)
		return
	}

	before := paragraph[:match.Start]
	middle := paragraph[match.Start:match.End]
	after := paragraph[match.End:]

	// A trailing possessive stays attached to the link.
	possessive := ""
	if strings.HasPrefix(after, "'s") || strings.HasPrefix(after, "’s") {
		cut := len("'s")
		if strings.HasPrefix(after, "’s") {
			cut = len("’s")
		}
		possessive = after[:cut]
		after = after[cut:]
	}

	linkText := fmt.Sprintf("[%s](%s)%s", middle, link.URL, possessive)
	rewritten := before + linkText + after

	origLens := make([]int, 0, r.End-r.Start)
	for _, line := range doc.Lines[r.Start:r.End] {
		origLens = append(origLens, len(line))
	}
	newLines := rewrap(rewritten, origLens, linkSpans(rewritten))
	doc.Lines = append(doc.Lines[:r.Start], append(newLines, doc.Lines[r.End:]...)...)
	log.Info("link inserted", "section", target, "paragraph", chosen, "tier", match.Tier.String(), "url", link.URL)
}

// chooseParagraph picks the paragraph to receive a link: the first unused
// paragraph where the full anchor matches word-bounded, then the placement
// hint, then the best keyword-scored paragraph.
func (m *Mutator) chooseParagraph(doc *docmodel.Document, pranges []docmodel.Range, link selection.LinkSelection, keywords []string, used map[int]bool) int {
	matcher := anchor.Matcher{TokenMinLen: m.TokenMinLen}
	for idx, r := range pranges {
		if used[idx] {
			continue
		}
		if match, ok := matcher.Find(doc.ParagraphText(r), link.Anchor, -1); ok && match.Tier == anchor.TierParagraph {
			return idx
		}
	}
	if hint := link.Place.ParagraphIndex; hint != nil && *hint >= 0 && *hint < len(pranges) && !used[*hint] {
		return *hint
	}
	best, bestScore := -1, -1
	for idx, r := range pranges {
		if used[idx] {
			continue
		}
		score := scoreParagraph(doc.ParagraphText(r), link.Keyword, keywords, link.Anchor)
		if score > bestScore {
			best, bestScore = idx, score
		}
	}
	if best < 0 {
		best = 0
	}
	return best
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9]+(?:-[A-Za-z0-9]+)?`)

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, t := range wordRe.FindAllString(strings.ToLower(s), -1) {
		set[t] = true
	}
	return set
}

// scoreParagraph ranks a paragraph by token overlap with the link keyword
// (double weight), the anchor and the article-level keywords.
func scoreParagraph(text, keyword string, keywords []string, anchorText string) int {
	ptoks := tokenSet(text)
	score := 0
	for t := range tokenSet(keyword) {
		if ptoks[t] {
			score += 2
		}
	}
	for t := range tokenSet(anchorText) {
		if ptoks[t] {
			score++
		}
	}
	global := map[string]bool{}
	for _, k := range keywords {
		for t := range tokenSet(k) {
			global[t] = true
		}
	}
	for t := range global {
		if ptoks[t] {
			score++
		}
	}
	return score
}

// sectionOrWholeDoc resolves a section's line bounds, treating the whole
// document as the section when the heading cannot be found.
func sectionOrWholeDoc(doc *docmodel.Document, heading string) docmodel.Range {
	if line, ok := doc.ResolveHeading(heading); ok {
		return doc.SectionBounds(line)
	}
	return docmodel.Range{Start: 0, End: len(doc.Lines)}
}

// insertAfter places a block after line idx with blank-line padding.
func insertAfter(doc *docmodel.Document, idx int, block string) {
	tail := append([]string{"", block, ""}, doc.Lines[idx+1:]...)
	doc.Lines = append(doc.Lines[:idx+1], tail...)
}

func imageMarkdown(alt, url string) string {
	return fmt.Sprintf("![%s](%s)", alt, url)
}

// videoMarkdown emits a distinguishable play marker for video assets.
func videoMarkdown(title, url string) string {
	text := strings.TrimSpace(title)
	if text == "" {
		text = "Watch"
	}
	text = strings.TrimSpace(strings.TrimSuffix(text, "."))
	return fmt.Sprintf("▶ [%s](%s)", text, url)
}

var linkMarkupRe = regexp.MustCompile(`!?\[[^][]*\]\([^()\s]*\)`)

// linkSpans returns the byte range of every Markdown link or image in text.
// A trailing possessive belongs to its link's span so it can never start a
// new physical line on its own.
func linkSpans(text string) [][2]int {
	var spans [][2]int
	for _, m := range linkMarkupRe.FindAllStringIndex(text, -1) {
		end := m[1]
		for _, suffix := range []string{"'s", "’s"} {
			if strings.HasPrefix(text[end:], suffix) {
				end += len(suffix)
				break
			}
		}
		spans = append(spans, [2]int{m[0], end})
	}
	return spans
}

// moveOffSpans shifts a split point that landed inside a protected span.
// It moves forward to the span end when the remaining lines still fit,
// otherwise back to the span start so the whole span drops to the next
// line. When neither direction is open the span wins over the length
// budget and the trailing lines run short.
func moveOffSpans(split, pos, maxEnd int, spans [][2]int) int {
	for _, sp := range spans {
		if split <= sp[0] || split >= sp[1] {
			continue
		}
		switch {
		case sp[1] <= maxEnd:
			split = sp[1]
		case sp[0] > pos:
			split = sp[0]
		default:
			split = sp[1]
		}
	}
	return split
}

// rewrap re-splits rewritten paragraph text back into exactly as many
// physical lines as the original paragraph had, by greedy cumulative
// length. Split points fall after whitespace or punctuation and never
// inside link markup, including links woven in by earlier passes; the
// final line absorbs the growth.
func rewrap(text string, origLens []int, spans [][2]int) []string {
	n := len(origLens)
	if n <= 1 {
		return []string{text}
	}
	lines := make([]string, 0, n)
	pos := 0
	for i := 0; i < n-1; i++ {
		remaining := n - 1 - i
		maxEnd := len(text) - remaining
		target := pos + origLens[i]
		if target > maxEnd {
			target = maxEnd
		}
		if target <= pos {
			target = pos + 1
		}
		split := target
		for split < maxEnd && !breakByte(text[split-1]) {
			split++
		}
		split = moveOffSpans(split, pos, maxEnd, spans)
		for split < maxEnd && (text[split] == ' ' || text[split] == '\t') {
			split++
		}
		if split <= pos {
			split = pos + 1
		}
		if split > len(text) {
			split = len(text)
		}
		// Physical lines never carry the separator space.
		lines = append(lines, strings.TrimRight(text[pos:split], " \t"))
		pos = split
	}
	lines = append(lines, text[pos:])
	return lines
}

func breakByte(b byte) bool {
	switch b {
	case ' ', '\t', ',', ';', ':', '!', '?':
		return true
	}
	return false
}
