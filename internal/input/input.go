// Package input normalizes article sources into Markdown. Markdown and
// plain text pass through untouched so line structure survives; HTML is
// converted.
package input

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"golang.org/x/net/html"
)

// MaxArticleBytes bounds how much of a source we read. Articles are prose;
// anything bigger is almost certainly the wrong file.
const MaxArticleBytes = 4 << 20

var supportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
	".htm":      true,
}

// IsSupportedExtension reports whether the filename's extension names a
// readable article format.
func IsSupportedExtension(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ReadArticle reads an article from r and returns it as Markdown. The
// filename's extension decides handling; files with no extension are
// sniffed for HTML and otherwise treated as Markdown.
func ReadArticle(r io.Reader, filename string) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxArticleBytes+1))
	if err != nil {
		return "", fmt.Errorf("read article: %w", err)
	}
	if len(raw) > MaxArticleBytes {
		return "", fmt.Errorf("article exceeds %d bytes", MaxArticleBytes)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", fmt.Errorf("article is empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown", ".txt":
		return string(raw), nil
	case ".html", ".htm":
		return convertHTML(raw)
	case "":
		if looksLikeHTML(raw) {
			return convertHTML(raw)
		}
		return string(raw), nil
	default:
		return "", fmt.Errorf("unsupported article format %q", ext)
	}
}

func convertHTML(raw []byte) (string, error) {
	conv := md.NewConverter("", true, nil)
	out, err := conv.ConvertString(string(raw))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("html source produced no content")
	}
	return out + "\n", nil
}

// looksLikeHTML parses the head of the document and reports whether it
// contains real element structure, not just a stray angle bracket.
func looksLikeHTML(raw []byte) bool {
	head := raw
	if len(head) > 2048 {
		head = head[:2048]
	}
	if !bytes.Contains(head, []byte("<")) {
		return false
	}
	tok := html.NewTokenizer(bytes.NewReader(head))
	elements := 0
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return elements >= 2
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tok.TagName()
			switch string(name) {
			case "html", "head", "body", "article", "p", "div", "h1", "h2", "h3", "img", "a", "ul", "ol":
				elements++
			}
			if elements >= 2 {
				return true
			}
		}
	}
}
