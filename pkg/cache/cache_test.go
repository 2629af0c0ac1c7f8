package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Errorf("Get(missing) = ok=%v err=%v, want miss", ok, err)
	}

	if err := c.Set(ctx, "k", []byte("payload"), 0); err != nil {
		t.Fatal(err)
	}
	data, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("double Delete = %v, want nil", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("null cache must never hit")
	}
}

func TestAnalysisKeyOrderIndependent(t *testing.T) {
	a := AnalysisKey("python", map[string]string{"a.py": "h1", "b.py": "h2"})
	b := AnalysisKey("python", map[string]string{"b.py": "h2", "a.py": "h1"})
	if a != b {
		t.Error("key must not depend on map iteration order")
	}

	changed := AnalysisKey("python", map[string]string{"a.py": "h1", "b.py": "CHANGED"})
	if a == changed {
		t.Error("content change must change the key")
	}
	otherFamily := AnalysisKey("terraform", map[string]string{"a.py": "h1", "b.py": "h2"})
	if a == otherFamily {
		t.Error("family must be part of the key")
	}
}

func TestHashStable(t *testing.T) {
	if Hash([]byte("x")) != Hash([]byte("x")) {
		t.Error("Hash is not deterministic")
	}
	if len(Hash([]byte("x"))) != 64 {
		t.Errorf("Hash length = %d, want 64", len(Hash([]byte("x"))))
	}
}
