// Package anchor locates a word-bounded occurrence of an anchor phrase
// inside a paragraph using three progressively looser tiers. Matching is
// pure: it never mutates its inputs and is deterministic for a given input.
package anchor

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/docmodel"
)

// Tier identifies which matching strategy produced a match.
type Tier int

const (
	TierParagraph Tier = iota + 1
	TierSentence
	TierToken
)

func (t Tier) String() string {
	switch t {
	case TierParagraph:
		return "paragraph"
	case TierSentence:
		return "sentence"
	case TierToken:
		return "token"
	}
	return "none"
}

// Match is a byte range into the original paragraph text.
type Match struct {
	Start int
	End   int
	Tier  Tier
}

// Matcher holds the tunable knobs of the tiered search.
type Matcher struct {
	// TokenMinLen is the minimum token length considered in the token tier.
	TokenMinLen int
}

// DefaultTokenMinLen is the token-tier cutoff when Matcher.TokenMinLen is zero.
const DefaultTokenMinLen = 3

var tokenRe = regexp.MustCompile(`[A-Za-z0-9]+(?:-[A-Za-z0-9]+)?`)

// Find applies the three tiers in strict order and returns the first
// success. sentenceHint is a 0-based sentence index within the paragraph;
// pass a negative value when no hint is available.
func (m Matcher) Find(paragraph, anchor string, sentenceHint int) (Match, bool) {
	if strings.TrimSpace(anchor) == "" || paragraph == "" {
		return Match{}, false
	}

	// Tier 1: anywhere in the paragraph.
	if start, end, ok := boundedSearch(paragraph, anchor, 0); ok {
		return Match{Start: start, End: end, Tier: TierParagraph}, true
	}

	// Tier 2: restricted to the hinted sentence.
	if sentenceHint >= 0 {
		spans := docmodel.SplitSentences(paragraph)
		if sentenceHint < len(spans) {
			s := spans[sentenceHint]
			if start, end, ok := boundedSearch(paragraph[s.Start:s.End], anchor, s.Start); ok {
				return Match{Start: start, End: end, Tier: TierSentence}, true
			}
		}
	}

	// Tier 3: longest anchor token with word boundaries.
	tokens := tokenRe.FindAllString(strings.ToLower(anchor), -1)
	sort.SliceStable(tokens, func(i, j int) bool { return len(tokens[i]) > len(tokens[j]) })
	minLen := m.TokenMinLen
	if minLen <= 0 {
		minLen = DefaultTokenMinLen
	}
	for _, tok := range tokens {
		if len(tok) < minLen {
			continue
		}
		if start, end, ok := boundedSearch(paragraph, tok, 0); ok {
			return Match{Start: start, End: end, Tier: TierToken}, true
		}
	}

	return Match{}, false
}

// boundedSearch finds the first case-insensitive, word-bounded occurrence of
// needle in text and returns byte offsets shifted by base. The comparison
// runs over a normalized view (markdown emphasis stripped, unicode hyphens
// folded, whitespace collapsed) mapped back to original offsets.
func boundedSearch(text, needle string, base int) (int, int, bool) {
	norm := normalize(text)
	want := []rune(normalizeAnchor(needle))
	if len(want) == 0 {
		return 0, 0, false
	}
	for from := 0; from+len(want) <= len(norm.runes); from++ {
		if !runesEqual(norm.runes[from:from+len(want)], want) {
			continue
		}
		start := norm.byteStart[from]
		end := norm.byteEnd[from+len(want)-1]
		if wordBounded(text, start, end) {
			return base + start, base + end, true
		}
	}
	return 0, 0, false
}

// wordBounded checks the whole-word rule: the character before the match
// (if any) is not alphanumeric; the character after (if any) is not
// alphanumeric or is terminal punctuation.
func wordBounded(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isAlnum(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isAlnum(r) && !strings.ContainsRune(".,;:!?-", r) {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// normText is a normalized, lowercased view of a string with per-rune maps
// back to original byte offsets.
type normText struct {
	runes     []rune
	byteStart []int
	byteEnd   []int
}

var unicodeHyphens = map[rune]bool{
	'‐': true, '‑': true, '‒': true,
	'–': true, '—': true, '−': true,
}

func normalize(s string) normText {
	var n normText
	prevSpace := false
	for i, r := range s {
		size := utf8.RuneLen(r)
		switch {
		case r == '*' || r == '_' || r == '`':
			continue
		case unicodeHyphens[r]:
			r = '-'
		}
		if unicode.IsSpace(r) {
			if prevSpace {
				continue
			}
			n.runes = append(n.runes, ' ')
			n.byteStart = append(n.byteStart, i)
			n.byteEnd = append(n.byteEnd, i+size)
			prevSpace = true
			continue
		}
		n.runes = append(n.runes, unicode.ToLower(r))
		n.byteStart = append(n.byteStart, i)
		n.byteEnd = append(n.byteEnd, i+size)
		prevSpace = false
	}
	return n
}

// normalizeAnchor folds unicode hyphens, collapses whitespace and lowercases.
func normalizeAnchor(a string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range strings.TrimSpace(a) {
		if unicodeHyphens[r] {
			r = '-'
		}
		if unicode.IsSpace(r) {
			if prevSpace {
				continue
			}
			b.WriteRune(' ')
			prevSpace = true
			continue
		}
		b.WriteRune(unicode.ToLower(r))
		prevSpace = false
	}
	return b.String()
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
