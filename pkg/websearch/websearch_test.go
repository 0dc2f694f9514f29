// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestSerper_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/search" {
			t.Errorf("expected path /search, got %q", r.URL.Path)
		}
		if r.Header.Get("X-API-KEY") != "test-key" {
			t.Errorf("expected API key header, got %q", r.Header.Get("X-API-KEY"))
		}

		var req serperSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Q != "golang testing" {
			t.Errorf("expected query 'golang testing', got %q", req.Q)
		}
		if req.Num != 5 {
			t.Errorf("expected num 5, got %d", req.Num)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"organic":[
			{"title":"Go Testing","link":"https://golang.org/testing","snippet":"Testing in Go","position":1},
			{"title":"Go Docs","link":"https://golang.org/doc","snippet":"Go documentation","position":2}
		]}`)
	}))
	defer server.Close()

	sink := &recordingSink{}
	p := newTestSerper(t, server.URL, sink)

	results, err := p.Search(context.Background(), "  golang testing ", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	want := Result{Title: "Go Testing", Link: "https://golang.org/testing", Snippet: "Testing in Go"}
	if results[0] != want {
		t.Errorf("results[0] = %+v, want %+v", results[0], want)
	}
	if results[1].Title != "Go Docs" {
		t.Errorf("expected second title 'Go Docs', got %q", results[1].Title)
	}
	if n := len(sink.all()); n != 0 {
		t.Errorf("expected no diagnostics, got %d", n)
	}
}

func TestSerper_TruncatesToMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp serperSearchResponse
		for i := range 10 {
			resp.Organic = append(resp.Organic, struct {
				Title   string `json:"title"`
				Link    string `json:"link"`
				Snippet string `json:"snippet"`
			}{
				Title:   fmt.Sprintf("Result %d", i),
				Link:    fmt.Sprintf("https://example.com/%d", i),
				Snippet: fmt.Sprintf("Snippet %d", i),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := newTestSerper(t, server.URL, &recordingSink{})

	results, err := p.Search(context.Background(), "many", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Title != fmt.Sprintf("Result %d", i) {
			t.Errorf("results[%d].Title = %q, want backend order", i, r.Title)
		}
	}
}

func TestSerper_Non200ReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Unauthorized."}`, http.StatusForbidden)
	}))
	defer server.Close()

	sink := &recordingSink{}
	p := newTestSerper(t, server.URL, sink)

	results, err := p.Search(context.Background(), "query", 5)
	if err != nil {
		t.Fatalf("expected error to be swallowed, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}

	diags := sink.all()
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Kind != KindBackend || diags[0].Status != http.StatusForbidden {
		t.Errorf("diagnostic = %+v, want backend/403", diags[0])
	}
	if diags[0].Provider != EngineSerper {
		t.Errorf("diagnostic provider = %q", diags[0].Provider)
	}
}

func TestSerper_Non200BodyIsBounded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "x"+strings.Repeat("é", 4096))
	}))
	defer server.Close()

	sink := &recordingSink{}
	p := newTestSerper(t, server.URL, sink)

	if _, err := p.Search(context.Background(), "query", 5); err != nil {
		t.Fatalf("expected error to be swallowed, got %v", err)
	}
	diags := sink.all()
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	msg := diags[0].Err.Error()
	if !utf8.ValidString(msg) {
		t.Errorf("diagnostic message is not valid UTF-8: %q", msg)
	}
	if len(msg) > maxErrorBodyBytes+64 {
		t.Errorf("diagnostic message not bounded: %d bytes", len(msg))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"aéb", 3, "aé"},
		{"日本語", 4, "日"},
		{"日本語", 2, ""},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) split a rune", tt.in, tt.n)
		}
	}
}

func TestNewSerper_DoesNotModifySharedClient(t *testing.T) {
	shared := &http.Client{}
	for range 3 {
		if _, err := NewSerper(SerperConfig{APIKey: "k"}, shared, nil); err != nil {
			t.Fatalf("NewSerper: %v", err)
		}
	}
	if shared.Transport != nil || shared.Jar != nil || shared.Timeout != 0 {
		t.Errorf("shared client was modified: %+v", shared)
	}
}

func TestSerper_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"organic": [`)
	}))
	defer server.Close()

	sink := &recordingSink{}
	p := newTestSerper(t, server.URL, sink)

	results, err := p.Search(context.Background(), "query", 5)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty result and nil error, got %d results, err=%v", len(results), err)
	}
	if diags := sink.all(); len(diags) != 1 || diags[0].Kind != KindBackend {
		t.Errorf("expected one backend diagnostic, got %+v", diags)
	}
}

func TestSerper_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	sink := &recordingSink{}
	p := newTestSerper(t, url, sink)

	results, err := p.Search(context.Background(), "query", 5)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty result and nil error, got %d results, err=%v", len(results), err)
	}
	diags := sink.all()
	if len(diags) != 1 || diags[0].Kind != KindTransport {
		t.Fatalf("expected one transport diagnostic, got %+v", diags)
	}
	if diags[0].Err == nil {
		t.Error("transport diagnostic should carry the cause")
	}
}

func TestSerper_MissingAPIKey(t *testing.T) {
	_, err := NewSerper(SerperConfig{APIKey: "   "}, nil, nil)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestProviders_EmptyQuery(t *testing.T) {
	serper := newTestSerper(t, "http://127.0.0.1:1", &recordingSink{})
	ddg, err := NewDuckDuckGo(DuckDuckGoConfig{APIURL: "http://127.0.0.1:1"}, nil, &recordingSink{})
	if err != nil {
		t.Fatalf("NewDuckDuckGo: %v", err)
	}

	for _, p := range []Provider{serper, ddg} {
		if _, err := p.Search(context.Background(), " \t ", 5); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("%s: expected ErrEmptyQuery, got %v", p.Name(), err)
		}
	}
}

func TestProviders_UnsupportedCapabilities(t *testing.T) {
	sink := &recordingSink{}
	serper := newTestSerper(t, "http://127.0.0.1:1", sink)
	ddg, err := NewDuckDuckGo(DuckDuckGoConfig{}, nil, sink)
	if err != nil {
		t.Fatalf("NewDuckDuckGo: %v", err)
	}

	for _, p := range []Provider{serper, ddg} {
		for capability, call := range map[string]func(context.Context, string, int) ([]Result, error){
			"images": p.SearchImages,
			"news":   p.SearchNews,
		} {
			results, err := call(context.Background(), "cats", 5)
			if !errors.Is(err, ErrUnsupported) {
				t.Errorf("%s %s: expected ErrUnsupported, got %v", p.Name(), capability, err)
				continue
			}
			var ue *UnsupportedError
			if !errors.As(err, &ue) || ue.Provider != p.Name() || ue.Capability != capability {
				t.Errorf("%s %s: unexpected error detail %v", p.Name(), capability, err)
			}
			if results != nil {
				t.Errorf("%s %s: expected nil results", p.Name(), capability)
			}
		}
	}

	for _, d := range sink.all() {
		if d.Kind != KindUnsupported {
			t.Errorf("expected unsupported diagnostics only, got %+v", d)
		}
	}
	if n := len(sink.all()); n != 4 {
		t.Errorf("expected 4 diagnostics, got %d", n)
	}
}

func newTestSerper(t *testing.T, targetURL string, sink DiagnosticSink) *Serper {
	t.Helper()
	p, err := NewSerper(SerperConfig{APIKey: "test-key"}, &http.Client{
		Transport: &rewriteTransport{targetURL: targetURL},
	}, sink)
	if err != nil {
		t.Fatalf("NewSerper: %v", err)
	}
	return p
}

type recordingSink struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (s *recordingSink) Report(_ context.Context, d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = append(s.diags, d)
}

func (s *recordingSink) all() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Diagnostic(nil), s.diags...)
}

// rewriteTransport rewrites requests to point at a test server.
type rewriteTransport struct {
	base      http.RoundTripper
	targetURL string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.URL.Host = t.targetURL[len("http://"):]
	transport := t.base
	if transport == nil {
		transport = http.DefaultTransport
	}
	return transport.RoundTrip(req)
}
