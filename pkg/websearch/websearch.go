// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package websearch normalizes web search backends behind a single
// Provider interface. Engines self-register in Providers and are built
// per call with NewProvider.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Engine names accepted by NewProvider.
const (
	EngineDuckDuckGo = "duckduckgo"
	EngineSerper     = "serper"
)

// DefaultEngine is used by callers that have no engine configured.
const DefaultEngine = EngineDuckDuckGo

// DefaultMaxResults applies when a caller passes a non-positive cap.
const DefaultMaxResults = 5

var (
	// ErrEmptyQuery is returned when the query is blank after trimming.
	ErrEmptyQuery = errors.New("websearch: query is empty")

	// ErrUnsupported is returned by capabilities a provider does not implement.
	ErrUnsupported = errors.New("websearch: capability not supported")

	// ErrMissingAPIKey is returned when an authenticated engine has no key.
	ErrMissingAPIKey = errors.New("websearch: api_key is required")
)

// Result is a single normalized search result. Order in a slice is the
// backend's relevance order.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Provider performs web searches against one external backend.
//
// Search never surfaces transport or backend failures: it returns an empty
// slice and reports a Diagnostic instead. A non-nil error means the caller
// broke the contract (e.g. an empty query).
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
	SearchImages(ctx context.Context, query string, maxResults int) ([]Result, error)
	SearchNews(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// UnsupportedError names the provider and capability behind ErrUnsupported.
type UnsupportedError struct {
	Provider   string
	Capability string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("websearch: %s does not support %s search", e.Provider, e.Capability)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// Config holds the web search plugin settings, one sub-config per engine.
type Config struct {
	Engine     string           `yaml:"engine"`
	MaxResults int              `yaml:"max_results"`
	Timeout    time.Duration    `yaml:"timeout"`
	DuckDuckGo DuckDuckGoConfig `yaml:"duckduckgo"`
	Serper     SerperConfig     `yaml:"serper"`
}

// IsEngine reports whether name is one of the known engines.
func IsEngine(name string) bool {
	return Providers.Has(name)
}

// normalizeRequest validates the query and resolves the result cap.
func normalizeRequest(query string, maxResults int) (string, int, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", 0, ErrEmptyQuery
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return q, maxResults, nil
}

// unsupported reports the diagnostic and builds the error for a capability
// the provider lacks.
func unsupported(ctx context.Context, sink DiagnosticSink, provider, capability string) error {
	err := &UnsupportedError{Provider: provider, Capability: capability}
	sink.Report(ctx, Diagnostic{
		Provider: provider,
		Op:       "search_" + capability,
		Kind:     KindUnsupported,
		Err:      err,
	})
	return err
}
