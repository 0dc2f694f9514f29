// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory_test

import (
	"context"
	"testing"

	"github.com/voxkit/websearch/pkg/profiles"
	"github.com/voxkit/websearch/pkg/profiles/memory"
	"github.com/voxkit/websearch/pkg/profiles/profilestest"
)

func TestMemoryConformance(t *testing.T) {
	profilestest.RunConformanceTests(t, func(t *testing.T) profiles.Store {
		return memory.New()
	})
}

func TestMemoryRegistered(t *testing.T) {
	store, err := profiles.Open(context.Background(), "memory", "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*memory.Store); !ok {
		t.Errorf("expected *memory.Store, got %T", store)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.Put(ctx, &profiles.Profile{DeviceID: "dev", Engine: "serper"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, _ := store.Get(ctx, "dev")
	got.Engine = "mutated"

	again, _ := store.Get(ctx, "dev")
	if again.Engine != "serper" {
		t.Errorf("store state leaked through Get: %q", again.Engine)
	}
}
