// Package detect scans a live page for known third-party ad providers.
//
// The scanner is deliberately shallow: fetch the page, collect script src
// URLs, and match them (plus the raw HTML) against a static signature
// table. It outputs provider tags only; the exclusion fragments for those
// tags live in the rule store like any other rule source.
//
// A failed or timed-out fetch degrades to "no providers detected" at the
// call site; it never fails a resolution.
package detect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds the page fetch when the caller does not configure
// one.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much HTML is read from a scanned page.
const maxBodyBytes = 4 << 20

// userAgent mirrors a desktop browser; several ad scripts are only served
// to browser user agents.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// adthriveHostRE matches any *.adthrive.com script host, which AdThrive
// uses for per-site subdomains.
var adthriveHostRE = regexp.MustCompile(`(?i)https?://([a-z0-9-]+\.)*adthrive\.com/`)

// Detector fetches pages and matches them against the signature table.
type Detector struct {
	client *http.Client
	log    zerolog.Logger
}

// New creates a detector with the given fetch timeout. A non-positive
// timeout falls back to DefaultTimeout.
func New(timeout time.Duration, log zerolog.Logger) *Detector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Detector{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Scan fetches the site and returns the detected provider tags in
// signature-table order. The site may be a bare domain; https:// is
// assumed when no scheme is present.
func (d *Detector) Scan(ctx context.Context, site string) ([]string, error) {
	pageURL := site
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		pageURL = "https://" + pageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", site, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}

	html := string(body)
	tags := Match(html, scriptSources(html))
	d.log.Debug().Str("site", site).Strs("providers", tags).Msg("ad provider scan complete")
	return tags, nil
}

// scriptSources extracts every script src URL from the page. Unparseable
// markup yields no sources; body pattern matching still applies.
func scriptSources(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var srcs []string
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			srcs = append(srcs, src)
		}
	})
	return srcs
}

// Match returns the tags of every provider whose signature matches the
// page, in signature-table order. Matching is pure so it can be tested
// without a network.
func Match(html string, scriptSrcs []string) []string {
	htmlLower := strings.ToLower(html)

	var tags []string
	for _, sig := range Signatures {
		if matchSignature(sig, htmlLower, scriptSrcs) {
			tags = append(tags, sig.Tag)
		}
	}
	return tags
}

func matchSignature(sig Signature, htmlLower string, scriptSrcs []string) bool {
	for _, src := range scriptSrcs {
		srcLower := strings.ToLower(src)
		for _, domain := range sig.Domains {
			if strings.Contains(srcLower, domain) {
				return true
			}
		}
		// AdThrive serves per-site bundles from arbitrary subdomains and
		// generic paths that never mention the provider name.
		if sig.Tag == "adthrive" {
			if adthriveHostRE.MatchString(src) {
				return true
			}
			if strings.Contains(srcLower, "ads.min.js") || strings.Contains(srcLower, "/sites/") {
				return true
			}
		}
	}

	for _, pattern := range sig.Patterns {
		if strings.Contains(htmlLower, pattern) {
			return true
		}
	}
	return false
}
