package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonesrussell/studysearch/internal/cache"
)

func TestMemoryStore_PutThenGet(t *testing.T) {
	s := cache.NewMemoryStore(30 * time.Minute)
	ctx := context.Background()

	if err := s.Put(ctx, "curate:rust", []byte(`{"subject":"rust"}`)); err != nil {
		t.Fatalf("Put() unexpected error: %v", err)
	}

	got, ok := s.Get(ctx, "curate:rust")
	if !ok {
		t.Fatal("Get() = absent, want hit")
	}
	if string(got) != `{"subject":"rust"}` {
		t.Errorf("Get() = %s, want stored value", got)
	}
}

func TestMemoryStore_MissingKey(t *testing.T) {
	s := cache.NewMemoryStore(30 * time.Minute)

	if _, ok := s.Get(context.Background(), "curate:absent"); ok {
		t.Error("Get() on missing key = hit, want absent")
	}
}

func TestMemoryStore_ExpiryOnRead(t *testing.T) {
	s := cache.NewMemoryStore(30 * time.Minute)
	ctx := context.Background()

	now := time.Now()
	s.SetNowFunc(func() time.Time { return now })

	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put() unexpected error: %v", err)
	}

	// Just under the TTL: still fresh
	now = now.Add(30*time.Minute - time.Second)
	if _, ok := s.Get(ctx, "k"); !ok {
		t.Error("Get() just under TTL = absent, want hit")
	}

	// At the TTL boundary: treated as absent and lazily evicted
	now = now.Add(time.Second)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("Get() at TTL = hit, want absent")
	}
	if s.Len() != 0 {
		t.Errorf("Len() after expired read = %d, want 0", s.Len())
	}
}

func TestMemoryStore_PutOverwrites(t *testing.T) {
	s := cache.NewMemoryStore(time.Hour)
	ctx := context.Background()

	_ = s.Put(ctx, "k", []byte("old"))
	_ = s.Put(ctx, "k", []byte("new"))

	got, ok := s.Get(ctx, "k")
	if !ok {
		t.Fatal("Get() = absent, want hit")
	}
	if string(got) != "new" {
		t.Errorf("Get() = %s, want new", got)
	}
}

func TestMemoryStore_OverwriteResetsAge(t *testing.T) {
	s := cache.NewMemoryStore(10 * time.Minute)
	ctx := context.Background()

	now := time.Now()
	s.SetNowFunc(func() time.Time { return now })

	_ = s.Put(ctx, "k", []byte("old"))
	now = now.Add(9 * time.Minute)
	_ = s.Put(ctx, "k", []byte("new"))
	now = now.Add(9 * time.Minute)

	if _, ok := s.Get(ctx, "k"); !ok {
		t.Error("Get() after overwrite within fresh window = absent, want hit")
	}
}

func TestMemoryStore_Evict(t *testing.T) {
	s := cache.NewMemoryStore(time.Hour)
	ctx := context.Background()

	_ = s.Put(ctx, "k", []byte("v"))
	s.Evict(ctx, "k")

	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("Get() after Evict = hit, want absent")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := cache.NewMemoryStore(time.Hour)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = s.Put(ctx, "shared", []byte("v"))
				_, _ = s.Get(ctx, "shared")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	if _, ok := s.Get(ctx, "shared"); !ok {
		t.Error("Get() after concurrent writes = absent, want hit")
	}
}
