package provider

import (
	"strings"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/selection"
)

const maxAnchorLen = 80

var bannedAnchors = map[string]bool{
	"click here":   true,
	"learn more":   true,
	"read more":    true,
	"here":         true,
	"this":         true,
	"this page":    true,
	"link":         true,
	"more info":    true,
	"check it out": true,
}

// SanitizeAnchors repairs anchors the model produced badly: banned or empty
// anchors are replaced with "<keyword> overview", and anchors missing their
// keyword get it appended when the result still fits. Returns the number of
// links changed.
func SanitizeAnchors(sel *selection.Selection, keywords []string) int {
	changed := 0
	for i := range sel.Links {
		l := &sel.Links[i]
		kw := l.Keyword
		if kw == "" && len(keywords) > 0 {
			kw = keywords[i%len(keywords)]
			l.Keyword = kw
		}
		anchor := strings.TrimSpace(l.Anchor)
		lower := strings.ToLower(anchor)

		if anchor == "" || bannedAnchors[lower] {
			if kw != "" {
				l.Anchor = kw + " overview"
			} else {
				l.Anchor = "related reading"
			}
			changed++
			continue
		}
		if kw != "" && !strings.Contains(lower, strings.ToLower(kw)) {
			repaired := anchor + " (" + kw + ")"
			if len(repaired) <= maxAnchorLen {
				l.Anchor = repaired
				changed++
			}
		}
	}
	return changed
}
