package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shoplens/backend/internal/domain"
)

type cachedResult struct {
	Query    string   `json:"query"`
	Titles   []string `json:"titles"`
	BestSeen *float64 `json:"bestSeen,omitempty"`
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()
	best := 1299.0

	tests := []struct {
		name  string
		key   string
		value cachedResult
		ttl   time.Duration
	}{
		{
			name:  "store and retrieve struct",
			key:   "search:wireless headphones:3",
			value: cachedResult{Query: "wireless headphones", Titles: []string{"Sony WH-1000XM4"}, BestSeen: &best},
			ttl:   time.Minute,
		},
		{
			name:  "store without expiry",
			key:   "search:laptop:3",
			value: cachedResult{Query: "laptop"},
			ttl:   0,
		},
		{
			name:  "store with short TTL",
			key:   "search:mug:3",
			value: cachedResult{Query: "mug"},
			ttl:   time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cache.Set(ctx, tt.key, tt.value, tt.ttl); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			var got cachedResult
			if tt.ttl > 0 && tt.ttl < 10*time.Millisecond {
				time.Sleep(10 * time.Millisecond)
				if err := cache.Get(ctx, tt.key, &got); !errors.Is(err, domain.ErrCacheMiss) {
					t.Errorf("Expected cache miss after expiration, got error = %v", err)
				}
				return
			}

			if err := cache.Get(ctx, tt.key, &got); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Query != tt.value.Query || len(got.Titles) != len(tt.value.Titles) {
				t.Errorf("Get() = %+v, want %+v", got, tt.value)
			}
			if tt.value.BestSeen != nil && (got.BestSeen == nil || *got.BestSeen != *tt.value.BestSeen) {
				t.Errorf("BestSeen = %v, want %v", got.BestSeen, *tt.value.BestSeen)
			}
		})
	}
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	value := cachedResult{Titles: []string{"original"}}
	if err := cache.Set(ctx, "k", value, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value.Titles[0] = "mutated"

	var got cachedResult
	if err := cache.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Titles[0] != "original" {
		t.Errorf("cached value changed to %q", got.Titles[0])
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := NewMemoryCache(0)

	var dest cachedResult
	err := cache.Get(context.Background(), "non-existent-key", &dest)
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_Set_Unencodable(t *testing.T) {
	cache := NewMemoryCache(0)

	if err := cache.Set(context.Background(), "bad", make(chan int), time.Minute); err == nil {
		t.Error("Set() expected error for unencodable value")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	key := "delete-test"
	if err := cache.Set(ctx, key, "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Errorf("Delete() error = %v", err)
	}

	var got string
	if err := cache.Get(ctx, key, &got); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_Exists(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "exists-test")
	if err != nil || exists {
		t.Errorf("Exists() = %v, %v; want false, nil", exists, err)
	}

	if err := cache.Set(ctx, "exists-test", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if exists, _ = cache.Exists(ctx, "exists-test"); !exists {
		t.Error("Exists() = false, want true after setting value")
	}

	if err := cache.Set(ctx, "short-ttl", "value", time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if exists, _ = cache.Exists(ctx, "short-ttl"); exists {
		t.Error("Exists() = true, want false after expiration")
	}
}

func TestMemoryCache_SizeAndClear(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	if size := cache.Size(); size != 0 {
		t.Errorf("Size() = %d, want 0 for empty cache", size)
	}

	for i := 0; i < 5; i++ {
		if err := cache.Set(ctx, string(rune('a'+i)), i, time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if size := cache.Size(); size != 5 {
		t.Errorf("Size() = %d, want 5", size)
	}

	cache.Clear()
	if size := cache.Size(); size != 0 {
		t.Errorf("Size() after Clear = %d, want 0", size)
	}
}

func TestMemoryCache_ImplementsRepository(t *testing.T) {
	var _ domain.CacheRepository = NewMemoryCache(0)
	var _ domain.CacheRepository = (*RedisCache)(nil)
}
