// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider implements a generic factory registry for pluggable backends.
//
// Each subsystem (web search engines, device profile stores) creates a typed
// Registry and implementations self-register via init(). Blank-import an
// implementation package to activate it, then call Registry.New(name, params)
// to instantiate.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned by Registry.New for names outside the
// registered set.
var ErrUnknownProvider = errors.New("unknown provider")

// Factory is a constructor function that creates a backend instance from
// typed parameters P. Implementations pick the fields they need and ignore
// the rest.
type Factory[P, T any] func(ctx context.Context, params P) (T, error)

// Registry is a thread-safe registry of named factory functions for a
// given backend interface T built from parameters P.
type Registry[P, T any] struct {
	subsystem string
	mu        sync.RWMutex
	factories map[string]Factory[P, T]
}

// NewRegistry creates a new Registry. The subsystem name is used in error
// messages (e.g. "web_search", "profile_store").
func NewRegistry[P, T any](subsystem string) *Registry[P, T] {
	return &Registry[P, T]{
		subsystem: subsystem,
		factories: make(map[string]Factory[P, T]),
	}
}

// Register adds a named factory. Panics if the name is already registered
// (catches duplicate init() registrations at startup).
func (r *Registry[P, T]) Register(name string, f Factory[P, T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("provider: %s backend %q already registered", r.subsystem, name))
	}
	r.factories[name] = f
}

// Has reports whether name is registered.
func (r *Registry[P, T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// New creates a backend instance by name. Returns an error wrapping
// ErrUnknownProvider if the name is not registered.
func (r *Registry[P, T]) New(ctx context.Context, name string, params P) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q (available: %v)", ErrUnknownProvider, r.subsystem, name, r.Available())
	}
	return f(ctx, params)
}

// Available returns the sorted list of registered backend names.
func (r *Registry[P, T]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
