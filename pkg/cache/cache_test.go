package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "chord:abc"); hit {
		t.Fatal("empty cache reported a hit")
	}
	if err := c.Set(ctx, "chord:abc", []byte(`{"x":1}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "chord:abc")
	if err != nil || !hit || string(data) != `{"x":1}` {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "chord:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "chord:abc"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "chord:abc"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry reported as hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("different inputs should hash differently")
	}
	if n := len(Hash([]byte("hello"))); n != 64 {
		t.Errorf("hash length = %d, want 64", n)
	}
}

func TestHashJSONMapOrder(t *testing.T) {
	a := map[string]string{"x": "1", "y": "2"}
	b := map[string]string{"y": "2", "x": "1"}
	ha, err := HashJSON(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, _ := HashJSON(b)
	if ha != hb {
		t.Error("equal maps hashed differently")
	}
	if _, err := HashJSON(make(chan int)); err == nil {
		t.Error("unencodable value should fail")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	c1 := k.ChordKey("t1", ChordKeyOpts{AnnotationHash: "a", TaxonomyHash: "x"})
	c2 := k.ChordKey("t1", ChordKeyOpts{AnnotationHash: "a", TaxonomyHash: "y"})
	if c1 == c2 {
		t.Error("different taxonomy maps should produce different keys")
	}
	if !strings.HasPrefix(c1, KeyTypeChord+":") {
		t.Errorf("chord key %q lacks prefix", c1)
	}

	t1 := k.TreeKey("t1", TreeKeyOpts{RecordsHash: "r", Levels: []string{"phylum", "genus"}})
	t2 := k.TreeKey("t1", TreeKeyOpts{RecordsHash: "r", Levels: []string{"genus", "phylum"}})
	if t1 == t2 {
		t.Error("level order should be part of the tree key")
	}

	if k.CountsKey("t1", CountsKeyOpts{CategoryHash: "c"}) == k.CountsKey("t2", CountsKeyOpts{CategoryHash: "c"}) {
		t.Error("different tables should produce different keys")
	}
	if k.ArtifactKey("h", "svg") == k.ArtifactKey("h", "dot") {
		t.Error("different formats should produce different keys")
	}
	if k.LayoutKey(LayoutKeyOpts{NodesHash: "n"}) == k.LayoutKey(LayoutKeyOpts{NodesHash: "m"}) {
		t.Error("different node sets should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "db:123:")

	want := "db:123:" + inner.LayoutKey(LayoutKeyOpts{NodesHash: "n"})
	if got := scoped.LayoutKey(LayoutKeyOpts{NodesHash: "n"}); got != want {
		t.Errorf("LayoutKey = %q, want %q", got, want)
	}
	if got := NewScopedKeyer(nil, "p:").ArtifactKey("h", "svg"); !strings.HasPrefix(got, "p:artifact:") {
		t.Errorf("nil inner key = %q", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	ctx := context.Background()
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"permanent error stops", 5, permanent, 1, permanent},
		{"retryable then success", 1, Retryable(ErrNetwork), 2, nil},
		{"retryable exhausted", 5, Retryable(ErrNetwork), 3, ErrNetwork},
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
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrNetwork) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	plain := errors.New("boom")
	if IsRetryable(classify(plain)) {
		t.Error("non-network errors should not be retryable")
	}
	netErr := &timeoutError{}
	if !IsRetryable(classify(netErr)) {
		t.Error("network errors should be retryable")
	}
}

type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }
