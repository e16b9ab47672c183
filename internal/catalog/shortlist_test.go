package catalog

import (
	"fmt"
	"testing"
)

func TestInitialism(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"electric vehicle", "ev"},
		{"point of sale", "ps"},
		{"battery management system", "bms"},
		{"the quick brown fox", "qbf"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Initialism(tt.in); got != tt.want {
			t.Errorf("Initialism(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAcronymPairs(t *testing.T) {
	text := "Adoption of the electric vehicle (EV) is rising. BMS (battery management system) firmware matters too. Random (XYZ) is ignored."
	pairs := AcronymPairs(text)

	if pairs["ev"] != "electric vehicle" {
		t.Errorf("expected ev pair, got %q", pairs["ev"])
	}
	if pairs["electric vehicle"] != "ev" {
		t.Errorf("expected reverse pair, got %q", pairs["electric vehicle"])
	}
	if pairs["bms"] != "battery management system" {
		t.Errorf("expected acronym-first pair, got %q", pairs["bms"])
	}
	if _, ok := pairs["xyz"]; ok {
		t.Error("expected mismatched initialism rejected")
	}
}

func TestKeywordVariants_Forms(t *testing.T) {
	got := KeywordVariants("e-bike", nil, nil, nil)
	want := map[string]bool{"e-bike": true, "e bike": true, "ebike": true, "e bikes": true}
	for v := range want {
		if !contains(got, v) {
			t.Errorf("expected variant %q in %v", v, got)
		}
	}
}

func TestKeywordVariants_PluralizesY(t *testing.T) {
	got := KeywordVariants("battery", nil, nil, nil)
	if !contains(got, "batteries") {
		t.Errorf("expected y-pluralization, got %v", got)
	}
	if contains(got, "batterys") {
		t.Errorf("expected no naive plural, got %v", got)
	}
}

func TestKeywordVariants_AcronymFromPairs(t *testing.T) {
	pairs := map[string]string{"electric vehicle": "ev", "ev": "electric vehicle"}
	got := KeywordVariants("electric vehicle", nil, nil, pairs)
	if !contains(got, "ev") {
		t.Errorf("expected acronym variant from pairs, got %v", got)
	}
}

func TestKeywordVariants_InitialismNeedsEvidence(t *testing.T) {
	// The initialism is only admitted when the article or assets use it.
	got := KeywordVariants("battery management system", nil, nil, nil)
	if contains(got, "bms") {
		t.Errorf("expected no unevidenced initialism, got %v", got)
	}
	got = KeywordVariants("battery management system", []string{"bms"}, nil, nil)
	if !contains(got, "bms") {
		t.Errorf("expected initialism admitted with article evidence, got %v", got)
	}
}

func TestKeywordVariants_FuzzyAssetTokens(t *testing.T) {
	assetToks := map[string]bool{"ebikes": true, "helmet": true}
	got := KeywordVariants("ebike", nil, assetToks, nil)
	if !contains(got, "ebikes") {
		t.Errorf("expected near-match asset token, got %v", got)
	}
	if contains(got, "helmet") {
		t.Errorf("expected unrelated token excluded, got %v", got)
	}
}

func TestSimilarity(t *testing.T) {
	if s := similarity("ebike", "ebike"); s != 1 {
		t.Errorf("identical strings: %f", s)
	}
	if s := similarity("ebike", "ebikes"); s < fuzzyThreshold {
		t.Errorf("expected near-match above threshold, got %f", s)
	}
	if s := similarity("ebike", "helmet"); s >= fuzzyThreshold {
		t.Errorf("expected unrelated below threshold, got %f", s)
	}
	if s := similarity("a", "ab"); s != 0 {
		t.Errorf("expected 0 for sub-bigram input, got %f", s)
	}
}

const shortlistArticle = `# E-Bike Adoption

Commuters are switching to e-bikes for daily trips. Battery range and
charging infrastructure drive adoption in dense cities.
`

func TestShortlist_RanksKeywordMatches(t *testing.T) {
	images := []Asset{
		{ID: 1, Kind: "image", URL: "https://img.example/cat.jpg", Title: "Office cat", Description: "A cat"},
		{ID: 2, Kind: "image", URL: "https://img.example/ebike.jpg", Title: "E-bike commuter", Description: "Commuter riding an e-bike in the city", Tags: "e-bike,commute"},
	}
	videos := []Asset{
		{ID: 3, Kind: "video", URL: "https://vid.example/charge.mp4", Title: "Battery charging", Description: "Charging an e-bike battery"},
	}
	links := []Asset{
		{ID: 4, Kind: "resource", URL: "https://links.example/r", Title: "E-bike adoption report", Description: "Adoption data for e-bikes", ResourceType: "report"},
		{ID: 5, Kind: "resource", URL: "https://links.example/b", Title: "Helmet blog", Description: "Helmet styles", ResourceType: "blog"},
	}

	c := Shortlist(shortlistArticle, []string{"e-bike", "battery"}, images, videos, links)

	if len(c.Hero) == 0 || c.Hero[0].URL != "https://img.example/ebike.jpg" {
		t.Errorf("expected keyword-matched image ranked first for hero, got %+v", c.Hero)
	}
	for _, a := range c.Hero {
		if a.Kind == "video" {
			t.Errorf("expected no video in hero bucket while images exist: %+v", a)
		}
	}
	if len(c.Context) == 0 || c.Context[0].URL != "https://vid.example/charge.mp4" {
		t.Errorf("expected best-scoring media first in context bucket, got %+v", c.Context)
	}
	if len(c.Links) == 0 || c.Links[0].URL != "https://links.example/r" {
		t.Errorf("expected topical report ranked first, got %+v", c.Links)
	}
}

func TestShortlist_ResourceTypeWeight(t *testing.T) {
	// Identical metadata; only the authority class differs. The report must
	// outrank the blog even when listed after it.
	links := []Asset{
		{ID: 1, URL: "https://links.example/blog", Title: "E-bike basics", Description: "Intro to e-bikes", ResourceType: "blog"},
		{ID: 2, URL: "https://links.example/report", Title: "E-bike basics", Description: "Intro to e-bikes", ResourceType: "report"},
	}
	c := Shortlist(shortlistArticle, []string{"e-bike"}, nil, nil, links)
	if len(c.Links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(c.Links))
	}
	if c.Links[0].URL != "https://links.example/report" {
		t.Errorf("expected report weighted above blog, got %s first", c.Links[0].URL)
	}
}

func TestShortlist_ClipsBuckets(t *testing.T) {
	var images, links []Asset
	for i := 0; i < 12; i++ {
		images = append(images, Asset{ID: int64(i), Kind: "image", URL: fmt.Sprintf("https://img.example/%d.jpg", i), Title: "E-bike photo"})
		links = append(links, Asset{ID: int64(100 + i), URL: fmt.Sprintf("https://links.example/%d", i), Title: "E-bike resource"})
	}
	c := Shortlist(shortlistArticle, []string{"e-bike"}, images, nil, links)
	if len(c.Hero) > heroShortlist {
		t.Errorf("hero bucket over limit: %d", len(c.Hero))
	}
	if len(c.Context) > contextShortlist {
		t.Errorf("context bucket over limit: %d", len(c.Context))
	}
	if len(c.Links) > linkShortlist {
		t.Errorf("links bucket over limit: %d", len(c.Links))
	}
}

func TestShortlist_VideoHeroFallback(t *testing.T) {
	videos := []Asset{{ID: 1, Kind: "video", URL: "https://vid.example/only.mp4", Title: "E-bike video"}}
	c := Shortlist(shortlistArticle, []string{"e-bike"}, nil, videos, nil)
	if len(c.Hero) != 1 || c.Hero[0].Kind != "video" {
		t.Errorf("expected video fallback when no images exist, got %+v", c.Hero)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
