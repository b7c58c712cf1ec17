package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowlens/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	auto := k.GraphKey("abc", GraphKeyOpts{AutoLayout: true, HorizontalSpacing: 300})
	offsets := k.GraphKey("abc", GraphKeyOpts{AutoLayout: false, HorizontalSpacing: 300})
	if auto == offsets {
		t.Error("layout mode should change the graph key")
	}
	if !strings.HasPrefix(auto, "graph:") {
		t.Errorf("GraphKey = %q, want graph: prefix", auto)
	}
	if auto != k.GraphKey("abc", GraphKeyOpts{AutoLayout: true, HorizontalSpacing: 300}) {
		t.Error("GraphKey should be deterministic")
	}

	svg := k.RenderKey("abc", RenderKeyOpts{Format: "svg"})
	png := k.RenderKey("abc", RenderKeyOpts{Format: "png"})
	if svg == png {
		t.Error("format should change the render key")
	}
	if !strings.HasPrefix(svg, "render:") {
		t.Errorf("RenderKey = %q, want render: prefix", svg)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "tenant:1:")

	opts := GraphKeyOpts{AutoLayout: true}
	if got, want := scoped.GraphKey("h", opts), "tenant:1:"+inner.GraphKey("h", opts); got != want {
		t.Errorf("GraphKey = %q, want %q", got, want)
	}
	ropts := RenderKeyOpts{Format: "dot"}
	if got, want := scoped.RenderKey("h", ropts), "tenant:1:"+inner.RenderKey("h", ropts); got != want {
		t.Errorf("RenderKey = %q, want %q", got, want)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "p:")
	if got := scoped.RenderKey("h", RenderKeyOpts{}); !strings.HasPrefix(got, "p:render:") {
		t.Errorf("unexpected key with nil inner: %s", got)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("payload"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "payload" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "short", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear", len(entries))
	}
}

func TestLookupAndPutReportToHooks(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Lookup(ctx, c, KeyTypeGraph, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Lookup on empty cache: %v, want ErrCacheMiss", err)
	}
	if err := Put(ctx, c, KeyTypeGraph, "k", []byte("1234"), TTLGraph); err != nil {
		t.Fatal(err)
	}
	data, err := Lookup(ctx, c, KeyTypeGraph, "k")
	if err != nil || string(data) != "1234" {
		t.Fatalf("Lookup = %q, %v", data, err)
	}

	want := []string{"miss:graph", "set:graph:4", "hit:graph"}
	if strings.Join(hooks.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", hooks.events, want)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	base := errors.New("connection refused")
	err := Retryable(base)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != base.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if IsRetryable(base) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond

	permanent := errors.New("bad auth")
	transient := errors.New("timeout")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{name: "success", failures: 0, wantCalls: 1},
		{name: "non retryable stops", failures: 5, err: permanent, wantCalls: 1, wantErr: permanent},
		{name: "retry then succeed", failures: 1, err: Retryable(transient), wantCalls: 2},
		{name: "gives up after three", failures: 5, err: Retryable(transient), wantCalls: 3, wantErr: transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errors.New("timeout"))
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

type recordingHooks struct {
	observability.NoopCacheHooks
	events []string
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string) {
	h.events = append(h.events, "hit:"+keyType)
}

func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.events = append(h.events, "miss:"+keyType)
}

func (h *recordingHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.events = append(h.events, "set:"+keyType+":"+strconv.Itoa(size))
}
