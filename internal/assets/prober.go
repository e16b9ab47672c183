// Package assets probes candidate URLs for availability before they are
// offered to a selection provider. A dead image link that survives into a
// published article is far more expensive than the probe traffic.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/catalog"
)

const defaultConcurrency = 8

// Prober checks that candidate asset URLs respond. Results are cached for
// the prober's lifetime so repeated attempts in one run don't re-fetch.
type Prober struct {
	client      *http.Client
	concurrency int
	log         *slog.Logger

	mu    sync.Mutex
	cache map[string]bool
}

// NewProber builds a prober with the given per-request timeout.
func NewProber(timeout time.Duration, concurrency int, log *slog.Logger) *Prober {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = slog.Default()
	}
	return &Prober{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		concurrency: concurrency,
		log:         log,
		cache:       make(map[string]bool),
	}
}

// Filter probes every URL in the candidate buckets and drops the ones that
// fail. A bucket that would end up empty is returned unfiltered instead:
// a possibly-dead candidate beats no candidate at all.
func (p *Prober) Filter(ctx context.Context, c catalog.Candidates) catalog.Candidates {
	alive := p.probeAll(ctx, collectURLs(c))
	out := catalog.Candidates{
		Hero:    keepAlive(c.Hero, alive),
		Context: keepAlive(c.Context, alive),
		Links:   keepAlive(c.Links, alive),
	}
	if len(out.Hero) == 0 && len(c.Hero) > 0 {
		p.log.Warn("all hero candidates failed probe, keeping bucket unfiltered", "count", len(c.Hero))
		out.Hero = c.Hero
	}
	if len(out.Context) == 0 && len(c.Context) > 0 {
		p.log.Warn("all context candidates failed probe, keeping bucket unfiltered", "count", len(c.Context))
		out.Context = c.Context
	}
	if len(out.Links) < 2 && len(c.Links) >= 2 {
		p.log.Warn("too few link candidates survived probe, keeping bucket unfiltered", "survived", len(out.Links))
		out.Links = c.Links
	}
	return out
}

func collectURLs(c catalog.Candidates) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, bucket := range [][]catalog.Asset{c.Hero, c.Context, c.Links} {
		for _, a := range bucket {
			if a.URL != "" && !seen[a.URL] {
				seen[a.URL] = true
				urls = append(urls, a.URL)
			}
		}
	}
	return urls
}

func keepAlive(assets []catalog.Asset, alive map[string]bool) []catalog.Asset {
	var out []catalog.Asset
	for _, a := range assets {
		if alive[a.URL] {
			out = append(out, a)
		}
	}
	return out
}

func (p *Prober) probeAll(ctx context.Context, urls []string) map[string]bool {
	results := make([]bool, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = p.probe(ctx, u)
			return nil
		})
	}
	// Workers never return errors; Wait only orders the writes.
	_ = g.Wait()

	alive := make(map[string]bool, len(urls))
	for i, u := range urls {
		alive[u] = results[i]
	}
	return alive
}

// probe tries a HEAD first and falls back to a 1-byte ranged GET for
// servers that reject HEAD. 401/403 counts as alive when the URL looks like
// a media file: CDNs often gate direct access but serve the embed fine.
func (p *Prober) probe(ctx context.Context, url string) bool {
	p.mu.Lock()
	if ok, hit := p.cache[url]; hit {
		p.mu.Unlock()
		return ok
	}
	p.mu.Unlock()

	ok := p.probeOnce(ctx, url, http.MethodHead)
	if !ok {
		ok = p.probeOnce(ctx, url, http.MethodGet)
	}

	p.mu.Lock()
	p.cache[url] = ok
	p.mu.Unlock()
	return ok
}

func (p *Prober) probeOnce(ctx context.Context, url, method string) bool {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "*/*")
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return looksLikeMediaFile(url)
	default:
		return false
	}
}

var mediaExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".svg": true, ".avif": true, ".mp4": true, ".webm": true, ".mov": true,
}

func looksLikeMediaFile(url string) bool {
	clean := url
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	return mediaExtensions[strings.ToLower(path.Ext(clean))]
}
