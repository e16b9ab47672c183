// Package docmodel turns raw Markdown text into an addressable structure:
// lines, headings, section bounds, paragraph ranges and sentence spans.
// It never mutates input; all derived views are recomputed from the line
// slice and are invalid once the lines change.
package docmodel

import (
	"regexp"
	"strings"
)

// Heading is a Markdown ATX heading located by line index.
type Heading struct {
	Level int
	Text  string
	Line  int
}

// Range is a half-open line range [Start, End).
type Range struct {
	Start int
	End   int
}

// Span is a half-open byte range [Start, End) within a paragraph string.
type Span struct {
	Start int
	End   int
}

// Document is an ordered sequence of lines with stable 0-based indices.
type Document struct {
	Lines []string
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// Parse splits text on line boundaries. It never fails; empty or degenerate
// input yields a Document with zero paragraphs and headings.
func Parse(text string) *Document {
	if text == "" {
		return &Document{Lines: []string{}}
	}
	return &Document{Lines: strings.Split(text, "\n")}
}

// String reassembles the document from its lines.
func (d *Document) String() string {
	return strings.Join(d.Lines, "\n")
}

// Headings returns all ATX headings in line order.
func (d *Document) Headings() []Heading {
	var out []Heading
	for i, line := range d.Lines {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			out = append(out, Heading{
				Level: len(m[1]),
				Text:  strings.TrimSpace(m[2]),
				Line:  i,
			})
		}
	}
	return out
}

// FirstHeading returns the line index of the first heading with the given
// level. Absence is signaled, not raised: callers decide whether a missing
// heading is fatal.
func (d *Document) FirstHeading(level int) (int, bool) {
	for _, h := range d.Headings() {
		if h.Level == level {
			return h.Line, true
		}
	}
	return 0, false
}

// HeadingByText finds a heading whose trimmed text matches exactly
// (case-sensitive), at any level.
func (d *Document) HeadingByText(text string) (int, bool) {
	want := strings.TrimSpace(text)
	if want == "" {
		return 0, false
	}
	for _, h := range d.Headings() {
		if h.Text == want {
			return h.Line, true
		}
	}
	return 0, false
}

// ResolveHeading locates a heading from a placement hint, degrading from
// exact case-sensitive match to case-insensitive match to substring match.
func (d *Document) ResolveHeading(text string) (int, bool) {
	if line, ok := d.HeadingByText(text); ok {
		return line, true
	}
	want := strings.ToLower(strings.TrimSpace(text))
	if want == "" {
		return 0, false
	}
	heads := d.Headings()
	for _, h := range heads {
		if strings.ToLower(h.Text) == want {
			return h.Line, true
		}
	}
	for _, h := range heads {
		if strings.Contains(strings.ToLower(h.Text), want) {
			return h.Line, true
		}
	}
	return 0, false
}

// SectionBounds returns the line range of the section owned by the heading
// at headingLine: from the line after the heading up to the next heading of
// equal or shallower level, or the end of the document.
func (d *Document) SectionBounds(headingLine int) Range {
	start := headingLine + 1
	level := 6
	if m := headingRe.FindStringSubmatch(d.Lines[headingLine]); m != nil {
		level = len(m[1])
	}
	end := start
	for end < len(d.Lines) {
		if m := headingRe.FindStringSubmatch(d.Lines[end]); m != nil && len(m[1]) <= level {
			break
		}
		end++
	}
	return Range{Start: start, End: end}
}

// IsListItem reports whether a line begins a bullet or numbered list item.
func IsListItem(line string) bool {
	s := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(s, "* ") || strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "+ ") {
		return true
	}
	return numberedItemRe.MatchString(s)
}

var numberedItemRe = regexp.MustCompile(`^\d+\.\s`)

// IsMediaLine reports whether a line holds inserted media markup: an image
// or a video play marker.
func IsMediaLine(line string) bool {
	s := strings.TrimSpace(line)
	return strings.HasPrefix(s, "![") || strings.HasPrefix(s, "▶ ")
}

// ParagraphRanges groups the lines in [start, end) into paragraph ranges.
// Blank lines and media lines separate paragraphs. Each list item is its own
// paragraph, including indented continuation lines, so wrapping a link never
// merges list entries.
func (d *Document) ParagraphRanges(start, end int) []Range {
	if start < 0 {
		start = 0
	}
	if end > len(d.Lines) {
		end = len(d.Lines)
	}
	var ranges []Range
	i := start
	for i < end {
		for i < end && (strings.TrimSpace(d.Lines[i]) == "" || IsMediaLine(d.Lines[i]) || headingRe.MatchString(d.Lines[i])) {
			i++
		}
		if i >= end {
			break
		}
		if IsListItem(d.Lines[i]) {
			j := i + 1
			for j < end && strings.TrimSpace(d.Lines[j]) != "" && !IsMediaLine(d.Lines[j]) && !IsListItem(d.Lines[j]) && strings.HasPrefix(d.Lines[j], "  ") {
				j++
			}
			ranges = append(ranges, Range{Start: i, End: j})
			i = j
			continue
		}
		j := i
		for j < end && strings.TrimSpace(d.Lines[j]) != "" && !IsMediaLine(d.Lines[j]) && !IsListItem(d.Lines[j]) && !headingRe.MatchString(d.Lines[j]) {
			j++
		}
		ranges = append(ranges, Range{Start: i, End: j})
		i = j + 1
	}
	return ranges
}

// ParagraphContaining returns the paragraph range covering the given line.
func (d *Document) ParagraphContaining(line int) (Range, bool) {
	for _, r := range d.ParagraphRanges(0, len(d.Lines)) {
		if line >= r.Start && line < r.End {
			return r, true
		}
	}
	return Range{}, false
}

// NthParagraphInSection returns the n-th paragraph (0-based) in the section
// owned by the heading at headingLine.
func (d *Document) NthParagraphInSection(headingLine, n int) (Range, bool) {
	b := d.SectionBounds(headingLine)
	ranges := d.ParagraphRanges(b.Start, b.End)
	if n < 0 || n >= len(ranges) {
		return Range{}, false
	}
	return ranges[n], true
}

// ParagraphText joins a paragraph's physical lines with single spaces.
func (d *Document) ParagraphText(r Range) string {
	return strings.Join(d.Lines[r.Start:r.End], " ")
}

// SplitSentences splits paragraph text into sentence spans on terminal
// punctuation followed by whitespace. Decimal numbers do not split. The
// boundary is heuristic: abbreviations are tolerated imperfectly.
func SplitSentences(text string) []Span {
	var spans []Span
	start := 0
	i := 0
	for i < len(text) {
		ch := text[i]
		if ch == '.' || ch == '!' || ch == '?' {
			if ch == '.' && i > 0 && i+1 < len(text) && isDigit(text[i-1]) && isDigit(text[i+1]) {
				i++
				continue
			}
			end := i + 1
			spans = append(spans, Span{Start: start, End: end})
			for end < len(text) && (text[end] == ' ' || text[end] == '\t' || text[end] == '\n') {
				end++
			}
			start = end
			i = end
			continue
		}
		i++
	}
	if start < len(text) {
		spans = append(spans, Span{Start: start, End: len(text)})
	}
	return spans
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
