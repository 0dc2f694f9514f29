// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package functions holds the assistant-facing functions that a language
// model can call, and the directives they hand back to the caller.
package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/voxkit/websearch/pkg/core/config"
)

// Action tells the caller what to do with a Directive.
type Action int

const (
	ActionError    Action = iota // the function failed; Result carries the reason
	ActionNotFound               // no function with that name
	ActionNone                   // nothing further to do
	ActionResponse               // speak Response directly to the user
	ActionReqLLM                 // feed Result to the language model for the final answer
)

var actionNames = map[Action]string{
	ActionError:    "error",
	ActionNotFound: "not_found",
	ActionNone:     "none",
	ActionResponse: "response",
	ActionReqLLM:   "reqllm",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(b []byte) error {
	for k, v := range actionNames {
		if v == string(b) {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", string(b))
}

// Directive is what a function returns to its caller.
type Directive struct {
	Action   Action `json:"action"`
	Result   string `json:"result,omitempty"`   // payload for the language model
	Response string `json:"response,omitempty"` // text for the user
}

// ToolType classifies functions for the caller.
type ToolType int

const (
	ToolTypeNone ToolType = iota
	ToolTypeWait
	ToolTypeSystemControl
)

// Conn is the per-connection context a function runs with.
type Conn struct {
	DeviceID string
	Language string
	Plugins  config.PluginsConfig
}

// NewConn builds a connection context from the loaded configuration.
func NewConn(deviceID string, cfg *config.Config) *Conn {
	return &Conn{
		DeviceID: deviceID,
		Language: cfg.Language,
		Plugins:  cfg.Plugins,
	}
}

// Handler runs a function call. Handlers never return errors; failures are
// expressed in the Directive.
type Handler func(ctx context.Context, conn *Conn, args json.RawMessage) Directive

// Function is a named, schema-described callable.
type Function struct {
	Name       string
	Type       ToolType
	Definition shared.FunctionDefinitionParam
	Handler    Handler
}

// Registry is a thread-safe set of functions keyed by name.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewRegistry creates an empty function registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Function)}
}

// Register adds fn. Names must be unique.
func (r *Registry) Register(fn Function) error {
	if fn.Name == "" || fn.Handler == nil {
		return fmt.Errorf("functions: name and handler are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[fn.Name]; exists {
		return fmt.Errorf("functions: %q already registered", fn.Name)
	}
	if fn.Definition.Name == "" {
		fn.Definition.Name = fn.Name
	}
	r.funcs[fn.Name] = fn
	return nil
}

// Get returns the function registered under name.
func (r *Registry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Definitions returns all function definitions sorted by name.
func (r *Registry) Definitions() []shared.FunctionDefinitionParam {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]shared.FunctionDefinitionParam, 0, len(r.funcs))
	for _, fn := range r.funcs {
		defs = append(defs, fn.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Tools returns the definitions as chat completion tools.
func (r *Registry) Tools() []openai.ChatCompletionToolParam {
	defs := r.Definitions()
	tools := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, openai.ChatCompletionToolParam{Function: def})
	}
	return tools
}

// Call runs the named function. Unknown names yield ActionNotFound.
func (r *Registry) Call(ctx context.Context, conn *Conn, name string, args json.RawMessage) Directive {
	fn, ok := r.Get(name)
	if !ok {
		return Directive{
			Action: ActionNotFound,
			Result: fmt.Sprintf("function %q not found", name),
		}
	}
	return fn.Handler(ctx, conn, args)
}
