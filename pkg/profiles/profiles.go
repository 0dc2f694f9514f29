// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package profiles stores per-device overrides for the function-calling
// context: which search engine a device uses and which language it answers
// in. Backends self-register in Backends via init(); blank-import one to
// activate it.
package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/voxkit/websearch/pkg/provider"
)

// ErrNotFound is returned when a device has no profile.
var ErrNotFound = errors.New("profile not found")

// Profile holds the overrides for one device. Empty fields fall back to
// the server configuration.
type Profile struct {
	DeviceID  string    `json:"device_id"`
	Engine    string    `json:"engine,omitempty"`
	Language  string    `json:"language,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists device profiles.
type Store interface {
	Get(ctx context.Context, deviceID string) (*Profile, error)
	Put(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, deviceID string) error
	List(ctx context.Context) ([]*Profile, error)
	Close() error
}

// BackendParams configures a store backend.
type BackendParams struct {
	DSN string
}

// Backends holds the registered store implementations.
var Backends = provider.NewRegistry[BackendParams, Store]("profile_store")

// Open creates the store registered under typ.
func Open(ctx context.Context, typ, dsn string) (Store, error) {
	return Backends.New(ctx, typ, BackendParams{DSN: dsn})
}
