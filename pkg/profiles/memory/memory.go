// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/voxkit/websearch/pkg/profiles"
)

func init() {
	profiles.Backends.Register("memory", func(_ context.Context, _ profiles.BackendParams) (profiles.Store, error) {
		return New(), nil
	})
}

// Store is an in-memory implementation of profiles.Store
type Store struct {
	mu       sync.RWMutex
	profiles map[string]profiles.Profile
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		profiles: make(map[string]profiles.Profile),
	}
}

// Get retrieves a profile by device ID
func (s *Store) Get(_ context.Context, deviceID string) (*profiles.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.profiles[deviceID]
	if !exists {
		return nil, fmt.Errorf("device %s: %w", deviceID, profiles.ErrNotFound)
	}
	return &p, nil
}

// Put creates or replaces a profile
func (s *Store) Put(_ context.Context, p *profiles.Profile) error {
	if p.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *p
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	s.profiles[p.DeviceID] = stored
	return nil
}

// Delete removes a profile
func (s *Store) Delete(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[deviceID]; !exists {
		return fmt.Errorf("device %s: %w", deviceID, profiles.ErrNotFound)
	}
	delete(s.profiles, deviceID)
	return nil
}

// List returns all profiles ordered by device ID
func (s *Store) List(_ context.Context) ([]*profiles.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*profiles.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}

// Close is a no-op
func (s *Store) Close() error { return nil }
