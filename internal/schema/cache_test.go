package schema

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	value string
	err   error
	block chan struct{}
}

func (f *fakeProvider) Describe(_ context.Context) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return "", f.err
	}
	return f.value, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCacheFetchesOnceWithinTTL(t *testing.T) {
	provider := &fakeProvider{value: "Table productos:\n  sku text\n"}
	cache := NewCache(provider, time.Minute)

	for i := 0; i < 5; i++ {
		got, err := cache.Description(context.Background())
		if err != nil {
			t.Fatalf("Description() error = %v", err)
		}
		if got != provider.value {
			t.Fatalf("Description() = %q", got)
		}
	}
	if provider.callCount() != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.callCount())
	}
}

func TestCacheFirstFetchErrorPropagates(t *testing.T) {
	provider := &fakeProvider{err: errors.New("db down")}
	cache := NewCache(provider, time.Minute)

	if _, err := cache.Description(context.Background()); err == nil {
		t.Fatal("expected error when no cached value exists")
	}
}

func TestCacheServesStaleWhileRefreshing(t *testing.T) {
	provider := &fakeProvider{value: "Table a:\n  x int\n", block: make(chan struct{})}
	cache := NewCache(provider, time.Minute)

	close(provider.block)
	if _, err := cache.Description(context.Background()); err != nil {
		t.Fatalf("Description() error = %v", err)
	}

	// Expire the entry and make the next refresh hang. Readers must still
	// get the previous value without blocking.
	provider.block = make(chan struct{})
	cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	done := make(chan string, 1)
	go func() {
		got, _ := cache.Description(context.Background())
		done <- got
	}()
	select {
	case got := <-done:
		if got != provider.value {
			t.Fatalf("stale read = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("reader blocked on in-flight refresh")
	}
	close(provider.block)
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	provider := &fakeProvider{value: "Table a:\n  x int\n"}
	cache := NewCache(provider, time.Minute)

	if _, err := cache.Description(context.Background()); err != nil {
		t.Fatalf("Description() error = %v", err)
	}
	cache.Invalidate()
	if _, err := cache.Description(context.Background()); err != nil {
		t.Fatalf("Description() error = %v", err)
	}
	if provider.callCount() != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.callCount())
	}
}
