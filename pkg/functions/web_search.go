// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/voxkit/websearch/pkg/core/config"
	"github.com/voxkit/websearch/pkg/websearch"
)

// WebSearchName is the name the web search function is registered under.
const WebSearchName = "web_search"

// DefaultSearchTimeout bounds a search when the plugin config sets none.
const DefaultSearchTimeout = 10 * time.Second

// ApologyText is returned to the model whenever the search path fails.
const ApologyText = "Sorry, something went wrong while searching the web. Please try again later."

const searchReportTemplate = "Answer the user's question in %s based on the following search results:\n\n" +
	"Search results:\n%s\n" +
	"(Combine the search results, extract the most relevant information and answer the user's question. " +
	"If the search results contain nothing relevant, tell the user that no relevant results were found.)"

// WebSearch is the web_search function.
type WebSearch struct {
	logger     *slog.Logger
	httpClient *http.Client

	newProvider func(ctx context.Context, engine string, cfg websearch.Config, opts ...websearch.Option) (websearch.Provider, error)
}

// NewWebSearch creates the web_search function. A nil httpClient lets each
// provider use its own default client.
func NewWebSearch(logger *slog.Logger, httpClient *http.Client) *WebSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSearch{
		logger:      logger,
		httpClient:  httpClient,
		newProvider: websearch.NewProvider,
	}
}

// Function returns the registrable function for w.
func (w *WebSearch) Function() Function {
	return Function{
		Name:       WebSearchName,
		Type:       ToolTypeSystemControl,
		Definition: WebSearchDefinition(),
		Handler:    w.Call,
	}
}

// WebSearchDefinition is the JSON-schema description offered to the model.
func WebSearchDefinition() shared.FunctionDefinitionParam {
	return shared.FunctionDefinitionParam{
		Name:        WebSearchName,
		Description: openai.String("Search the internet for information on a given query"),
		Parameters: shared.FunctionParameters{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to look up on the internet",
				},
				"search_engine": map[string]any{
					"type":        "string",
					"description": "Which search engine to use. Only honored when the system has no engine configured.",
					"enum":        []string{websearch.EngineDuckDuckGo, websearch.EngineSerper},
					"default":     websearch.DefaultEngine,
				},
			},
			"required": []string{"query"},
		},
	}
}

type webSearchArgs struct {
	Query        string `json:"query"`
	SearchEngine string `json:"search_engine,omitempty"`
	Lang         string `json:"lang,omitempty"`
}

// Call runs a search and returns an ActionReqLLM directive carrying the
// formatted results. Every failure, including a panic, becomes the same
// directive carrying ApologyText.
func (w *WebSearch) Call(ctx context.Context, conn *Conn, rawArgs json.RawMessage) (resp Directive) {
	defer func() {
		if rec := recover(); rec != nil {
			w.logger.Error("Web search panicked", "panic", fmt.Sprint(rec))
			resp = apology()
		}
	}()

	var args webSearchArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			w.logger.Error("Invalid web search arguments", "error", err)
			return apology()
		}
	}

	var (
		cfg      websearch.Config
		language string
		deviceID string
	)
	if conn != nil {
		cfg = conn.Plugins.WebSearch
		language = conn.Language
		deviceID = conn.DeviceID
	}
	engine := ResolveEngine(cfg.Engine, args.SearchEngine)
	language = firstNonEmpty(args.Lang, language, config.DefaultLanguage)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := w.logger.With("engine", engine, "device_id", deviceID)

	p, err := w.newProvider(ctx, engine, cfg,
		websearch.WithHTTPClient(w.httpClient),
		websearch.WithDiagnosticSink(websearch.LogSink{Logger: logger}),
	)
	if err != nil {
		logger.Error("Failed to build search provider", "error", err)
		return apology()
	}

	results, err := p.Search(ctx, args.Query, cfg.MaxResults)
	if err != nil {
		logger.Error("Web search failed", "error", err)
		return apology()
	}
	logger.Info("Web search completed", "results", len(results))

	formatted := websearch.FormatResults(results, engine)
	return Directive{
		Action: ActionReqLLM,
		Result: fmt.Sprintf(searchReportTemplate, language, formatted),
	}
}

// ResolveEngine picks the engine for one call: the configured engine when
// it is known, else the model's requested engine when known, else
// websearch.DefaultEngine.
func ResolveEngine(configured, requested string) string {
	for _, name := range []string{configured, requested} {
		name = strings.ToLower(strings.TrimSpace(name))
		if websearch.IsEngine(name) {
			return name
		}
	}
	return websearch.DefaultEngine
}

func apology() Directive {
	return Directive{Action: ActionReqLLM, Result: ApologyText}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
