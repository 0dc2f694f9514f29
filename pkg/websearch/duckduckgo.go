// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	duckDuckGoLiteURL = "https://lite.duckduckgo.com/lite/"
	userAgent         = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// maxLitePages stops a result stream that keeps offering "Next Page".
	maxLitePages = 20
)

func init() {
	Providers.Register(EngineDuckDuckGo, func(_ context.Context, p FactoryParams) (Provider, error) {
		return NewDuckDuckGo(p.Config.DuckDuckGo, p.HTTPClient, p.Sink)
	})
}

// DuckDuckGoConfig holds configuration for the DuckDuckGo provider.
type DuckDuckGoConfig struct {
	APIURL     string `yaml:"api_url"`     // lite HTML endpoint
	SafeSearch string `yaml:"safe_search"` // "on", "moderate" or "off"
	TimeLimit  string `yaml:"time_limit"`  // "d", "w", "m", "y" or "" for any time
	Region     string `yaml:"region"`      // e.g. "wt-wt", "us-en"
}

var safeSearchParams = map[string]string{
	"on":       "1",
	"moderate": "-1",
	"off":      "-2",
}

var timeLimits = map[string]bool{"": true, "d": true, "w": true, "m": true, "y": true}

func (c DuckDuckGoConfig) withDefaults() DuckDuckGoConfig {
	if c.APIURL == "" {
		c.APIURL = duckDuckGoLiteURL
	}
	if c.SafeSearch == "" {
		c.SafeSearch = "off"
	}
	if c.TimeLimit == "" {
		c.TimeLimit = "y"
	}
	if c.Region == "" {
		c.Region = "wt-wt"
	}
	return c
}

// DuckDuckGo scrapes the DuckDuckGo lite HTML endpoint. No API key needed.
type DuckDuckGo struct {
	cfg        DuckDuckGoConfig
	httpClient *http.Client
	sink       DiagnosticSink
}

// NewDuckDuckGo creates a DuckDuckGo provider after applying defaults and
// validating the filter settings.
func NewDuckDuckGo(cfg DuckDuckGoConfig, httpClient *http.Client, sink DiagnosticSink) (*DuckDuckGo, error) {
	cfg = cfg.withDefaults()
	cfg.SafeSearch = strings.ToLower(cfg.SafeSearch)
	if _, ok := safeSearchParams[cfg.SafeSearch]; !ok {
		return nil, fmt.Errorf("duckduckgo: invalid safe_search %q (want on, moderate or off)", cfg.SafeSearch)
	}
	if !timeLimits[cfg.TimeLimit] {
		return nil, fmt.Errorf("duckduckgo: invalid time_limit %q (want d, w, m or y)", cfg.TimeLimit)
	}
	if _, err := url.Parse(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("duckduckgo: invalid api_url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if sink == nil {
		sink = LogSink{}
	}
	return &DuckDuckGo{cfg: cfg, httpClient: httpClient, sink: sink}, nil
}

func (d *DuckDuckGo) Name() string { return EngineDuckDuckGo }

// Search returns the first maxResults entries of the lazy result stream.
// Pages beyond what the cap needs are never fetched.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	q, n, err := normalizeRequest(query, maxResults)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, n)
	for r, err := range d.Results(ctx, q) {
		if err != nil {
			d.report(ctx, err)
			return nil, nil
		}
		results = append(results, r)
		if len(results) >= n {
			break
		}
	}
	return results, nil
}

// Results streams results page by page, fetching the next page only when
// the consumer asks for more. A fetch failure is yielded once and ends the
// stream.
func (d *DuckDuckGo) Results(ctx context.Context, query string) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		form := d.firstPageForm(query)
		for range maxLitePages {
			page, err := d.fetchPage(ctx, form)
			if err != nil {
				yield(Result{}, err)
				return
			}
			for _, r := range page.results {
				if !yield(r, nil) {
					return
				}
			}
			if len(page.results) == 0 || page.next == nil {
				return
			}
			form = page.next
		}
	}
}

// SearchImages is not offered by this gateway.
func (d *DuckDuckGo) SearchImages(ctx context.Context, _ string, _ int) ([]Result, error) {
	return nil, unsupported(ctx, d.sink, d.Name(), "images")
}

// SearchNews is not offered by this gateway.
func (d *DuckDuckGo) SearchNews(ctx context.Context, _ string, _ int) ([]Result, error) {
	return nil, unsupported(ctx, d.sink, d.Name(), "news")
}

func (d *DuckDuckGo) firstPageForm(query string) url.Values {
	form := url.Values{
		"q":  {query},
		"kl": {d.cfg.Region},
		"kp": {safeSearchParams[d.cfg.SafeSearch]},
	}
	if d.cfg.TimeLimit != "" {
		form.Set("df", d.cfg.TimeLimit)
	}
	return form
}

// fetchError carries the diagnostic classification of a page fetch failure.
type fetchError struct {
	kind   DiagnosticKind
	status int
	err    error
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

type litePage struct {
	results []Result
	next    url.Values
}

func (d *DuckDuckGo) fetchPage(ctx context.Context, form url.Values) (*litePage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &fetchError{kind: KindTransport, err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", d.cfg.APIURL)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &fetchError{kind: KindTransport, err: fmt.Errorf("duckduckgo search request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes+utf8.UTFMax))
		return nil, &fetchError{
			kind:   KindBackend,
			status: resp.StatusCode,
			err:    fmt.Errorf("duckduckgo search returned status %d: %s", resp.StatusCode, truncate(string(body), maxErrorBodyBytes)),
		}
	}

	// Failures reading or decoding a 200 body are backend failures.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &fetchError{kind: KindBackend, status: resp.StatusCode, err: fmt.Errorf("decode charset: %w", err)}
	}
	root, err := html.Parse(body)
	if err != nil {
		return nil, &fetchError{kind: KindBackend, status: resp.StatusCode, err: fmt.Errorf("read response: %w", err)}
	}
	return parseLitePage(root, form), nil
}

// parseLitePage extracts organic results and the "Next Page" form from a
// lite results document. Result rows come in order: link row, snippet row,
// url row. Sponsored rows are skipped.
func parseLitePage(root *html.Node, current url.Values) *litePage {
	doc := goquery.NewDocumentFromNode(root)
	page := &litePage{}

	last := -1
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if link := row.Find("a.result-link").First(); link.Length() > 0 {
			if row.HasClass("result-sponsored") {
				last = -1
				return
			}
			href, _ := link.Attr("href")
			page.results = append(page.results, Result{
				Title: collapseSpace(link.Text()),
				Link:  resolveLiteLink(href),
			})
			last = len(page.results) - 1
			return
		}
		if snippet := row.Find("td.result-snippet").First(); snippet.Length() > 0 && last >= 0 {
			page.results[last].Snippet = collapseSpace(snippet.Text())
		}
	})

	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		if form.Find(`input.navbutton[value*="Next"]`).Length() == 0 {
			return true
		}
		next := url.Values{}
		for k, v := range current {
			next[k] = append([]string(nil), v...)
		}
		form.Find(`input[type="hidden"]`).Each(func(_ int, in *goquery.Selection) {
			name, ok := in.Attr("name")
			if !ok || name == "" {
				return
			}
			value, _ := in.Attr("value")
			next.Set(name, value)
		})
		page.next = next
		return false
	})

	return page
}

// resolveLiteLink unwraps DuckDuckGo redirect links ("//duckduckgo.com/l/?uddg=...")
// and gives scheme-relative links an https scheme.
func resolveLiteLink(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (d *DuckDuckGo) report(ctx context.Context, err error) {
	diag := Diagnostic{
		Provider: d.Name(),
		Op:       "search",
		Kind:     KindTransport,
		Err:      err,
	}
	var fe *fetchError
	if errors.As(err, &fe) {
		diag.Kind = fe.kind
		diag.Status = fe.status
	}
	d.sink.Report(ctx, diag)
}
