package catalog

import (
	"regexp"
	"sort"
	"strings"
)

// stopwords skipped when building initialisms.
var stopwords = map[string]bool{
	"and": true, "of": true, "to": true, "for": true, "the": true,
	"a": true, "an": true, "in": true, "on": true, "with": true,
}

var wordOnlyRe = regexp.MustCompile(`[A-Za-z0-9]+`)

// Initialism builds an acronym from a phrase, skipping common stopwords.
func Initialism(phrase string) string {
	var b strings.Builder
	for _, p := range wordOnlyRe.FindAllString(strings.ToLower(phrase), -1) {
		if stopwords[p] {
			continue
		}
		b.WriteByte(p[0])
	}
	return b.String()
}

var (
	longformAcroRe = regexp.MustCompile(`\b([A-Za-z][A-Za-z \-]{2,})\s*\(([A-Z]{2,6})\)`)
	acroLongformRe = regexp.MustCompile(`\b([A-Z]{2,6})\s*\(([A-Za-z][A-Za-z \-]{2,})\)`)
)

// AcronymPairs maps acronym↔longform pairs found in the article text, in
// either "longform (ACRO)" or "ACRO (longform)" order. Only pairs whose
// initialism actually matches are kept.
func AcronymPairs(text string) map[string]string {
	pairs := map[string]string{}
	for _, m := range longformAcroRe.FindAllStringSubmatch(text, -1) {
		acr := strings.ToLower(m[2])
		lf := trimLongform(m[1], len(acr))
		if Initialism(lf) == acr {
			pairs[acr] = lf
			pairs[lf] = acr
		}
	}
	for _, m := range acroLongformRe.FindAllStringSubmatch(text, -1) {
		acr := strings.ToLower(m[1])
		lf := trimLongform(m[2], len(acr))
		if Initialism(lf) == acr {
			pairs[acr] = lf
			pairs[lf] = acr
		}
	}
	return pairs
}

// trimLongform keeps the trailing words of a greedy capture so that the
// phrase holds exactly n acronym-bearing words. "adoption of the electric
// vehicle" trimmed for a 2-letter acronym becomes "electric vehicle".
func trimLongform(capture string, n int) string {
	words := strings.Fields(NormalizeText(capture))
	kept := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		start = i
		if !stopwords[words[i]] {
			kept++
			if kept == n {
				break
			}
		}
	}
	return strings.Join(words[start:], " ")
}

// assetTokens collects tokens from all asset metadata for variant matching.
func assetTokens(media, links []Asset) map[string]bool {
	set := map[string]bool{}
	add := func(a Asset) {
		for _, field := range []string{a.Title, a.Description, a.Tags} {
			for _, t := range Tokenize(field) {
				set[t] = true
			}
		}
	}
	for _, a := range media {
		add(a)
	}
	for _, a := range links {
		add(a)
	}
	return set
}

// KeywordVariants expands one keyword into normalized spelling variants:
// hyphenated/spaced/joined forms, safe pluralization, acronym↔longform
// pairs present in the article, and fuzzy near-matches drawn from the
// article and asset token universes.
func KeywordVariants(kw string, articleTokens []string, assetToks map[string]bool, pairs map[string]string) []string {
	base := NormalizeText(kw)
	tokens := wordOnlyRe.FindAllString(base, -1)

	variants := map[string]bool{base: true}
	if len(tokens) > 0 {
		variants[strings.Join(tokens, "-")] = true
		variants[strings.Join(tokens, " ")] = true
		variants[strings.Join(tokens, "")] = true

		last := tokens[len(tokens)-1]
		if strings.HasSuffix(last, "y") && len(last) > 1 {
			plural := append(append([]string{}, tokens[:len(tokens)-1]...), last[:len(last)-1]+"ies")
			variants[strings.Join(plural, " ")] = true
		} else {
			variants[strings.Join(tokens, " ")+"s"] = true
		}
	}

	if lf, ok := pairs[base]; ok {
		variants[lf] = true
	}
	articleSet := map[string]bool{}
	for _, t := range articleTokens {
		articleSet[t] = true
	}
	if acr := Initialism(base); acr != "" && (assetToks[acr] || articleSet[acr]) {
		variants[acr] = true
	}

	compact := strings.ReplaceAll(base, " ", "")
	for cand := range assetToks {
		if len(cand) >= 3 && similarity(cand, compact) >= fuzzyThreshold {
			variants[cand] = true
		}
	}
	for cand := range articleSet {
		if len(cand) >= 3 && similarity(cand, compact) >= fuzzyThreshold {
			variants[cand] = true
		}
	}

	out := make([]string, 0, len(variants))
	for v := range variants {
		v = NormalizeText(v)
		if len(v) >= 1 && len(v) <= 60 {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

const fuzzyThreshold = 0.82

// similarity is a character-bigram Dice coefficient, a cheap stand-in for a
// full edit-distance ratio that behaves well on single tokens.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}
	ba := bigrams(a)
	bb := bigrams(b)
	common := 0
	for g, n := range ba {
		if m, ok := bb[g]; ok {
			if m < n {
				n = m
			}
			common += n
		}
	}
	return 2 * float64(common) / float64(len(a)-1+len(b)-1)
}

func bigrams(s string) map[string]int {
	m := map[string]int{}
	for i := 0; i+2 <= len(s); i++ {
		m[s[i:i+2]]++
	}
	return m
}

// typeWeight ranks link resources by authority class.
var typeWeight = map[string]float64{
	"report":     2.2,
	"research":   2.0,
	"fact sheet": 1.8,
	"guide":      1.6,
	"policy":     1.5,
	"data":       1.4,
	"article":    1.2,
	"blog":       1.0,
}

const (
	heroShortlist    = 5
	contextShortlist = 5
	linkShortlist    = 6
	topMediaPool     = 8
)

// Shortlist scores every asset against the expanded keyword set and the
// article tokens and returns the top candidates per bucket. Hero candidates
// prefer images; context candidates may be any media.
func Shortlist(articleText string, keywords []string, images, videos, links []Asset) Candidates {
	articleToks := Tokenize(articleText)
	pairs := AcronymPairs(articleText)
	media := append(append([]Asset{}, images...), videos...)
	assetToks := assetTokens(media, links)

	kset := map[string]bool{}
	for _, k := range keywords {
		for _, v := range KeywordVariants(k, articleToks, assetToks, pairs) {
			kset[v] = true
		}
	}

	type scored struct {
		asset Asset
		score float64
	}
	mediaScores := make([]scored, 0, len(media))
	for _, a := range media {
		mediaScores = append(mediaScores, scored{a, scoreAsset(a, kset, articleToks)})
	}
	sort.SliceStable(mediaScores, func(i, j int) bool { return mediaScores[i].score > mediaScores[j].score })

	linkScores := make([]scored, 0, len(links))
	for _, a := range links {
		w, ok := typeWeight[strings.ToLower(strings.TrimSpace(a.ResourceType))]
		if !ok {
			w = 1.0
		}
		linkScores = append(linkScores, scored{a, scoreAsset(a, kset, articleToks) * w})
	}
	sort.SliceStable(linkScores, func(i, j int) bool { return linkScores[i].score > linkScores[j].score })

	var topMedia []Asset
	for i, s := range mediaScores {
		if i >= topMediaPool {
			break
		}
		topMedia = append(topMedia, s.asset)
	}
	var heroPool []Asset
	for _, a := range topMedia {
		if a.Kind == "image" {
			heroPool = append(heroPool, a)
		}
	}
	if len(heroPool) == 0 {
		heroPool = topMedia
	}

	var topLinks []Asset
	for i, s := range linkScores {
		if i >= topMediaPool {
			break
		}
		topLinks = append(topLinks, s.asset)
	}

	return Candidates{
		Hero:    clip(heroPool, heroShortlist),
		Context: clip(topMedia, contextShortlist),
		Links:   clip(topLinks, linkShortlist),
	}
}

// scoreAsset combines keyword-variant overlap (double weight) with raw
// article-token overlap, plus a bonus when both title and description hit.
func scoreAsset(a Asset, kset map[string]bool, articleToks []string) float64 {
	toks := map[string]bool{}
	for _, field := range []string{a.Title, a.Description, a.Tags} {
		for _, t := range Tokenize(field) {
			toks[t] = true
		}
	}
	kwOverlap := 0
	for t := range toks {
		for kv := range kset {
			if strings.Contains(t, kv) || strings.Contains(kv, t) {
				kwOverlap++
				break
			}
		}
	}
	articleSet := map[string]bool{}
	for _, t := range articleToks {
		articleSet[t] = true
	}
	articleOverlap := 0
	for t := range toks {
		if articleSet[t] {
			articleOverlap++
		}
	}
	score := 2.0*float64(kwOverlap) + float64(articleOverlap)

	titleHits := hits(a.Title, kset)
	descHits := hits(a.Description, kset)
	if titleHits > 0 && descHits > 0 {
		score += 1.5
	}
	return score
}

func hits(field string, kset map[string]bool) int {
	n := 0
	for _, t := range Tokenize(field) {
		if kset[t] {
			n++
		}
	}
	return n
}

func clip(assets []Asset, n int) []Asset {
	if len(assets) > n {
		return assets[:n]
	}
	return assets
}
