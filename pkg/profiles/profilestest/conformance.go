// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package profilestest provides a shared conformance test suite for
// profiles.Store implementations. Each backend should call
// RunConformanceTests from its own _test.go file.
package profilestest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voxkit/websearch/pkg/profiles"
)

// RunConformanceTests exercises a Store implementation against the shared
// contract. The newStore function is called once per sub-test and must
// return an empty store.
func RunConformanceTests(t *testing.T, newStore func(t *testing.T) profiles.Store) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()
		ctx := context.Background()

		p := &profiles.Profile{
			DeviceID:  "dev-1",
			Engine:    "serper",
			Language:  "en_US",
			UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}
		if err := store.Put(ctx, p); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := store.Get(ctx, "dev-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.DeviceID != p.DeviceID || got.Engine != p.Engine || got.Language != p.Language {
			t.Errorf("Get returned %+v, want %+v", got, p)
		}
		if !got.UpdatedAt.Equal(p.UpdatedAt) {
			t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, p.UpdatedAt)
		}
	})

	t.Run("PutReplaces", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()
		ctx := context.Background()

		if err := store.Put(ctx, &profiles.Profile{DeviceID: "dev-1", Engine: "serper", Language: "en_US"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := store.Put(ctx, &profiles.Profile{DeviceID: "dev-1", Engine: "duckduckgo"}); err != nil {
			t.Fatalf("Put (replace): %v", err)
		}

		got, err := store.Get(ctx, "dev-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Engine != "duckduckgo" || got.Language != "" {
			t.Errorf("expected replaced profile, got %+v", got)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("expected UpdatedAt to be set on Put")
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := store.Get(context.Background(), "nobody")
		if !errors.Is(err, profiles.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("PutRequiresDeviceID", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		if err := store.Put(context.Background(), &profiles.Profile{Engine: "serper"}); err == nil {
			t.Fatal("expected error for empty device ID")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()
		ctx := context.Background()

		if err := store.Put(ctx, &profiles.Profile{DeviceID: "dev-1"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := store.Delete(ctx, "dev-1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := store.Get(ctx, "dev-1"); !errors.Is(err, profiles.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, "dev-1"); !errors.Is(err, profiles.ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("ListOrdered", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()
		ctx := context.Background()

		for _, id := range []string{"charlie", "alpha", "bravo"} {
			if err := store.Put(ctx, &profiles.Profile{DeviceID: id}); err != nil {
				t.Fatalf("Put(%s): %v", id, err)
			}
		}

		list, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 3 || list[0].DeviceID != "alpha" || list[1].DeviceID != "bravo" || list[2].DeviceID != "charlie" {
			t.Errorf("unexpected list: %+v", list)
		}
	})
}
