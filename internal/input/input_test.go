package input

import (
	"strings"
	"testing"
)

func TestIsSupportedExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"article.md", true},
		{"article.MD", true},
		{"article.markdown", true},
		{"notes.txt", true},
		{"page.html", true},
		{"page.htm", true},
		{"doc.pdf", false},
		{"archive.tar.gz", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsSupportedExtension(tt.name); got != tt.want {
			t.Errorf("IsSupportedExtension(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestReadArticle_MarkdownPassthrough(t *testing.T) {
	src := "# Title\n\nLine one\nline two of the same paragraph.\n"
	out, err := ReadArticle(strings.NewReader(src), "article.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != src {
		t.Errorf("expected byte-identical passthrough, got %q", out)
	}
}

func TestReadArticle_TextPassthrough(t *testing.T) {
	src := "Plain text body.\nSecond line.\n"
	out, err := ReadArticle(strings.NewReader(src), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != src {
		t.Errorf("expected passthrough, got %q", out)
	}
}

func TestReadArticle_ConvertsHTML(t *testing.T) {
	src := `<html><body><h1>Adoption Report</h1><p>Survey data shows growth.</p></body></html>`
	out, err := ReadArticle(strings.NewReader(src), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "# Adoption Report") {
		t.Errorf("expected heading converted to markdown, got %q", out)
	}
	if !strings.Contains(out, "Survey data shows growth.") {
		t.Errorf("expected paragraph text preserved, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected trailing newline")
	}
}

func TestReadArticle_SniffsExtensionlessHTML(t *testing.T) {
	src := `<html><body><p>Real markup here.</p></body></html>`
	out, err := ReadArticle(strings.NewReader(src), "upload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "<p>") {
		t.Errorf("expected HTML converted, got %q", out)
	}
}

func TestReadArticle_ExtensionlessMarkdownStaysRaw(t *testing.T) {
	src := "# Title\n\nValues like 3 < 5 should not trigger conversion.\n"
	out, err := ReadArticle(strings.NewReader(src), "upload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != src {
		t.Errorf("expected passthrough for non-HTML content, got %q", out)
	}
}

func TestReadArticle_EmptySource(t *testing.T) {
	_, err := ReadArticle(strings.NewReader("   \n\t\n"), "article.md")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected empty-article error, got %v", err)
	}
}

func TestReadArticle_UnsupportedExtension(t *testing.T) {
	_, err := ReadArticle(strings.NewReader("data"), "doc.pdf")
	if err == nil || !strings.Contains(err.Error(), "unsupported article format") {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestReadArticle_SizeLimit(t *testing.T) {
	big := strings.Repeat("a", MaxArticleBytes+1)
	_, err := ReadArticle(strings.NewReader(big), "article.md")
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"full document", "<html><body><p>x</p></body></html>", true},
		{"article fragment", "<article><h2>t</h2></article>", true},
		{"plain text", "no markup at all", false},
		{"stray bracket", "value is < 10 in all cases", false},
		{"single element", "<p>just one paragraph", false},
	}
	for _, tt := range tests {
		if got := looksLikeHTML([]byte(tt.in)); got != tt.want {
			t.Errorf("%s: looksLikeHTML = %v, want %v", tt.name, got, tt.want)
		}
	}
}
