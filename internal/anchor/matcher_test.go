package anchor

import (
	"testing"
)

const ebikePara = "Survey data shows that 72% of new e-bike owners replaced at least one weekly car trip. The shift is most pronounced in dense cities."

func TestFind_ParagraphTier(t *testing.T) {
	m := Matcher{}
	match, ok := m.Find(ebikePara, "new e-bike owners", -1)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.Tier != TierParagraph {
		t.Errorf("expected paragraph tier, got %s", match.Tier)
	}
	if got := ebikePara[match.Start:match.End]; got != "new e-bike owners" {
		t.Errorf("expected exact phrase, got %q", got)
	}
}

func TestFind_CaseInsensitive(t *testing.T) {
	m := Matcher{}
	match, ok := m.Find(ebikePara, "Survey Data Shows", -1)
	if !ok {
		t.Fatal("expected case-insensitive match")
	}
	if got := ebikePara[match.Start:match.End]; got != "Survey data shows" {
		t.Errorf("expected original casing in range, got %q", got)
	}
}

func TestFind_CollapsesAnchorWhitespace(t *testing.T) {
	m := Matcher{}
	match, ok := m.Find(ebikePara, "new  e-bike   owners", -1)
	if !ok {
		t.Fatal("expected whitespace-collapsed match")
	}
	if match.Tier != TierParagraph {
		t.Errorf("expected paragraph tier, got %s", match.Tier)
	}
}

func TestFind_SkipsEmphasisMarkers(t *testing.T) {
	para := "Many **new e-bike** owners commute daily."
	m := Matcher{}
	match, ok := m.Find(para, "new e-bike owners", -1)
	if !ok {
		t.Fatal("expected match through bold markers")
	}
	// The range lands on the visible phrase; trailing markers inside the
	// phrase are carried along.
	if got := para[match.Start:match.End]; got != "new e-bike** owners" {
		t.Errorf("unexpected matched range %q", got)
	}
}

func TestFind_FoldsUnicodeHyphens(t *testing.T) {
	// Non-breaking hyphen in the text, ASCII hyphen in the anchor.
	para := "Most e‑bike commuters ride daily."
	m := Matcher{}
	match, ok := m.Find(para, "e-bike commuters", -1)
	if !ok {
		t.Fatal("expected match across hyphen variants")
	}
	if match.Tier != TierParagraph {
		t.Errorf("expected paragraph tier, got %s", match.Tier)
	}
}

func TestFind_RejectsMidWordMatch(t *testing.T) {
	m := Matcher{}
	if _, ok := m.Find("The carpet is red.", "car", -1); ok {
		t.Error("expected no match inside a larger word")
	}
	if _, ok := m.Find("A cart stands here.", "car", -1); ok {
		t.Error("expected no match when followed by a letter")
	}
}

func TestFind_AllowsTerminalPunctuationAfter(t *testing.T) {
	m := Matcher{}
	match, ok := m.Find(ebikePara, "weekly car trip", -1)
	if !ok {
		t.Fatal("expected match before the period")
	}
	if got := ebikePara[match.Start:match.End]; got != "weekly car trip" {
		t.Errorf("unexpected range %q", got)
	}
}

func TestFind_SkipsUnboundedOccurrence(t *testing.T) {
	// First occurrence is embedded in a longer word; the second stands alone.
	para := "The traindata file and the train schedule."
	m := Matcher{}
	match, ok := m.Find(para, "train", -1)
	if !ok {
		t.Fatal("expected the freestanding occurrence to match")
	}
	if match.Start != len("The traindata file and the ") {
		t.Errorf("expected match at second occurrence, got offset %d", match.Start)
	}
}

func TestFind_TokenTier(t *testing.T) {
	para := "Commuters care about battery performance above all."
	m := Matcher{}
	match, ok := m.Find(para, "battery range basics", -1)
	if !ok {
		t.Fatal("expected token-tier match")
	}
	if match.Tier != TierToken {
		t.Errorf("expected token tier, got %s", match.Tier)
	}
	if got := para[match.Start:match.End]; got != "battery" {
		t.Errorf("expected longest present token, got %q", got)
	}
}

func TestFind_TokenTierPrefersLongest(t *testing.T) {
	para := "Range anxiety fades with experience, basics aside."
	m := Matcher{}
	match, ok := m.Find(para, "range basics", -1)
	if !ok {
		t.Fatal("expected token-tier match")
	}
	// "basics" (6) sorts before "range" (5).
	if got := para[match.Start:match.End]; got != "basics" {
		t.Errorf("expected longest token first, got %q", got)
	}
}

func TestFind_TokenTierMinLength(t *testing.T) {
	para := "We go to work by bike."
	m := Matcher{}
	if _, ok := m.Find(para, "go up", -1); ok {
		t.Error("expected short tokens to be discarded")
	}

	m = Matcher{TokenMinLen: 2}
	if _, ok := m.Find(para, "go up", -1); !ok {
		t.Error("expected lowered min length to admit the token")
	}
}

func TestFind_HyphenatedTokens(t *testing.T) {
	para := "An e-bike changes commuting habits."
	m := Matcher{}
	match, ok := m.Find(para, "affordable e-bike models", -1)
	if !ok {
		t.Fatal("expected hyphenated token match")
	}
	if got := para[match.Start:match.End]; got != "e-bike" {
		t.Errorf("expected hyphenated token to match whole, got %q", got)
	}
}

func TestFind_EmptyInputs(t *testing.T) {
	m := Matcher{}
	if _, ok := m.Find(ebikePara, "", -1); ok {
		t.Error("expected no match for empty anchor")
	}
	if _, ok := m.Find(ebikePara, "   ", -1); ok {
		t.Error("expected no match for blank anchor")
	}
	if _, ok := m.Find("", "anchor", -1); ok {
		t.Error("expected no match in empty paragraph")
	}
}

func TestFind_SentenceHintOutOfRange(t *testing.T) {
	m := Matcher{}
	// A hint past the last sentence must not panic or block tier 3.
	match, ok := m.Find(ebikePara, "pronounced adoption", 99)
	if !ok {
		t.Fatal("expected token-tier match despite bad hint")
	}
	if match.Tier != TierToken {
		t.Errorf("expected token tier, got %s", match.Tier)
	}
	if got := ebikePara[match.Start:match.End]; got != "pronounced" {
		t.Errorf("unexpected range %q", got)
	}
}

func TestTierString(t *testing.T) {
	if TierParagraph.String() != "paragraph" || TierSentence.String() != "sentence" || TierToken.String() != "token" {
		t.Error("unexpected tier names")
	}
	if Tier(0).String() != "none" {
		t.Errorf("expected none for zero tier, got %s", Tier(0).String())
	}
}
