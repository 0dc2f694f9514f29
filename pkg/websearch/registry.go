// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"net/http"

	"github.com/voxkit/websearch/pkg/provider"
)

// FactoryParams is what every engine factory receives. Factories read only
// their own sub-config.
type FactoryParams struct {
	Config     Config
	HTTPClient *http.Client
	Sink       DiagnosticSink
}

// Providers holds the closed set of engines; each engine file registers
// itself in init().
var Providers = provider.NewRegistry[FactoryParams, Provider]("web_search")

// Option customizes provider construction.
type Option func(*FactoryParams)

// WithHTTPClient sets the HTTP client used for backend requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *FactoryParams) { p.HTTPClient = c }
}

// WithDiagnosticSink sets where swallowed failures are reported.
func WithDiagnosticSink(s DiagnosticSink) Option {
	return func(p *FactoryParams) { p.Sink = s }
}

// NewProvider builds the provider registered under engine with its scoped
// sub-config from cfg. It does not default: any engine outside the
// registered set yields an error wrapping provider.ErrUnknownProvider.
func NewProvider(ctx context.Context, engine string, cfg Config, opts ...Option) (Provider, error) {
	params := FactoryParams{Config: cfg}
	for _, opt := range opts {
		opt(&params)
	}
	if params.Sink == nil {
		params.Sink = LogSink{}
	}
	return Providers.New(ctx, engine, params)
}
