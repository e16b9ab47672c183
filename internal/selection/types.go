// Package selection defines the strongly-typed structures exchanged with
// the selection and verdict providers. Untyped provider output is mapped
// into these types and validated once at the provider boundary; the rest of
// the system never inspects loose data.
package selection

// Kind distinguishes media asset types.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Placement is a hint locating where in the document an asset or link should
// be inserted. It is a hint, not a guarantee: resolution degrades gracefully
// when a hint is absent or inaccurate.
type Placement struct {
	SectionHeading string `json:"section_heading,omitempty"`
	ParagraphIndex *int   `json:"paragraph_index,omitempty"`
	SentenceIndex  *int   `json:"sentence_index,omitempty"`
}

// MediaSelection is one media item (hero or in-context) to insert.
type MediaSelection struct {
	ID    int64     `json:"id"`
	Kind  Kind      `json:"type"`
	URL   string    `json:"url"`
	Alt   string    `json:"alt"`
	Place Placement `json:"place"`
}

// LinkSelection is one hyperlink to weave into a paragraph. The anchor is
// expected to exist verbatim in the article text; whether it does is
// discovered by the matcher, not assumed here.
type LinkSelection struct {
	ID      int64     `json:"id"`
	URL     string    `json:"url"`
	Anchor  string    `json:"anchor"`
	Keyword string    `json:"keyword"`
	Place   Placement `json:"place"`
}

// Selection is one complete enrichment candidate: a hero image, an
// in-context media item and exactly two links.
type Selection struct {
	Hero        MediaSelection  `json:"hero"`
	ContextItem MediaSelection  `json:"context_item"`
	Links       []LinkSelection `json:"links"`
}

// URLs returns every asset URL in the selection, in a fixed order.
func (s *Selection) URLs() []string {
	urls := []string{s.Hero.URL, s.ContextItem.URL}
	for _, l := range s.Links {
		urls = append(urls, l.URL)
	}
	return urls
}

// Verdict is the accept/reject judgment on one rendered candidate document.
type Verdict struct {
	Accepted  *bool    `json:"accepted,omitempty"`
	Rating    *int     `json:"rating,omitempty"`
	Reasons   []string `json:"reasons"`
	Threshold int      `json:"threshold"`
}

// Passed applies the pass rule: explicitly accepted, or rated at or above
// the threshold.
func (v *Verdict) Passed() bool {
	if v.Accepted != nil && *v.Accepted {
		return true
	}
	return v.Rating != nil && *v.Rating >= v.Threshold
}
