// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

const serperSearchURL = "https://google.serper.dev/search"

const (
	maxSerperResponseBytes = 1 << 20
	maxErrorBodyBytes      = 512
)

func init() {
	Providers.Register(EngineSerper, func(_ context.Context, p FactoryParams) (Provider, error) {
		return NewSerper(p.Config.Serper, p.HTTPClient, p.Sink)
	})
}

// SerperConfig holds configuration for the Serper provider.
type SerperConfig struct {
	APIKey string `yaml:"api_key"`
}

// Configured reports whether a Serper API key is set.
func (c SerperConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Serper performs web searches using the Serper Google Search API.
type Serper struct {
	apiKey string
	client *resty.Client
	sink   DiagnosticSink
}

// NewSerper creates a Serper provider. A nil httpClient gets a client with a
// 15s timeout; a nil sink logs through slog.Default. httpClient is copied and
// never modified, so one client may back many providers.
func NewSerper(cfg SerperConfig, httpClient *http.Client, sink DiagnosticSink) (*Serper, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("serper: %w", ErrMissingAPIKey)
	}
	var client *resty.Client
	if httpClient != nil {
		// resty fills in a nil Transport on the client it is given.
		hc := *httpClient
		client = resty.NewWithClient(&hc)
	} else {
		client = resty.New().SetTimeout(15 * time.Second)
	}
	client.SetHeader("User-Agent", userAgent)
	if sink == nil {
		sink = LogSink{}
	}
	return &Serper{
		apiKey: strings.TrimSpace(cfg.APIKey),
		client: client,
		sink:   sink,
	}, nil
}

func (s *Serper) Name() string { return EngineSerper }

// Search queries the Serper API and returns at most maxResults organic
// results in backend order.
func (s *Serper) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	q, n, err := normalizeRequest(query, maxResults)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(serperSearchRequest{Q: q, Num: n}).
		SetDoNotParseResponse(true).
		Post(serperSearchURL)
	if err != nil {
		s.report(ctx, KindTransport, 0, fmt.Errorf("serper search request: %w", err))
		return nil, nil
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes+utf8.UTFMax))
		s.report(ctx, KindBackend, resp.StatusCode(),
			fmt.Errorf("serper search returned status %d: %s", resp.StatusCode(), truncate(string(msg), maxErrorBodyBytes)))
		return nil, nil
	}

	var result serperSearchResponse
	if err := json.NewDecoder(io.LimitReader(body, maxSerperResponseBytes)).Decode(&result); err != nil {
		s.report(ctx, KindBackend, resp.StatusCode(), fmt.Errorf("parse response: %w", err))
		return nil, nil
	}

	results := make([]Result, 0, min(len(result.Organic), n))
	for _, r := range result.Organic {
		if len(results) >= n {
			break
		}
		results = append(results, Result{
			Title:   r.Title,
			Link:    r.Link,
			Snippet: r.Snippet,
		})
	}
	return results, nil
}

// SearchImages is not offered by this gateway.
func (s *Serper) SearchImages(ctx context.Context, _ string, _ int) ([]Result, error) {
	return nil, unsupported(ctx, s.sink, s.Name(), "images")
}

// SearchNews is not offered by this gateway.
func (s *Serper) SearchNews(ctx context.Context, _ string, _ int) ([]Result, error) {
	return nil, unsupported(ctx, s.sink, s.Name(), "news")
}

func (s *Serper) report(ctx context.Context, kind DiagnosticKind, status int, err error) {
	s.sink.Report(ctx, Diagnostic{
		Provider: s.Name(),
		Op:       "search",
		Kind:     kind,
		Status:   status,
		Err:      err,
	})
}

type serperSearchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperSearchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
