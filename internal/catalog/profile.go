package catalog

import (
	"regexp"
	"strings"
)

// Section is one heading-delimited slice of the article.
type Section struct {
	Heading string
	Level   int
	Lines   []string
}

// Profile is the token-level view of an article used for shortlisting and
// provider prompts.
type Profile struct {
	Sections []Section
	Headings []string
	Tokens   []string
}

var sectionRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// BuildProfile walks the article's headings and collects section content
// and a flat token list.
func BuildProfile(markdown string) *Profile {
	p := &Profile{Tokens: Tokenize(markdown)}
	var current *Section
	for _, line := range strings.Split(markdown, "\n") {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				p.Sections = append(p.Sections, *current)
			}
			current = &Section{Heading: strings.TrimSpace(m[2]), Level: len(m[1])}
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}
	if current != nil {
		p.Sections = append(p.Sections, *current)
	}
	for _, s := range p.Sections {
		p.Headings = append(p.Headings, s.Heading)
	}
	return p
}

// Paragraphs joins a section's contiguous non-blank lines into paragraph
// strings for provider prompts.
func (s Section) Paragraphs() []string {
	var out []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.TrimSpace(strings.Join(current, " ")))
			current = nil
		}
	}
	for _, line := range s.Lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return out
}

var tokenRe = regexp.MustCompile(`[a-zA-Z0-9\-]+`)

// NormalizeText collapses whitespace and lowercases.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Tokenize splits text into lowercase alphanumeric-or-hyphen tokens.
func Tokenize(s string) []string {
	return tokenRe.FindAllString(NormalizeText(s), -1)
}
