package store

import (
	"strconv"
	"sync"
	"testing"

	"github.com/cyclechain/ignix/internal/interfaces"
)

func TestSetGet(t *testing.T) {
	s := New()
	s.Set([]byte("foo"), interfaces.Value{Kind: interfaces.KindText, Bytes: []byte("bar")})

	v, ok := s.Get([]byte("foo"))
	if !ok {
		t.Fatal("expected foo to exist")
	}
	if string(v.Bytes) != "bar" {
		t.Errorf("got %q, want bar", v.Bytes)
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	_, ok := s.Get([]byte("nope"))
	if ok {
		t.Error("expected missing key to report absent")
	}
}

func TestDel(t *testing.T) {
	s := New()
	s.Set([]byte("k"), interfaces.Value{Kind: interfaces.KindText, Bytes: []byte("v")})

	if !s.Del([]byte("k")) {
		t.Error("expected Del to report existed=true")
	}
	if s.Del([]byte("k")) {
		t.Error("expected second Del to report existed=false")
	}
	if s.Exists([]byte("k")) {
		t.Error("expected key to be gone")
	}
}

func TestExists(t *testing.T) {
	s := New()
	if s.Exists([]byte("missing")) {
		t.Error("expected false for missing key")
	}
	s.Set([]byte("present"), interfaces.Value{Kind: interfaces.KindText, Bytes: []byte("1")})
	if !s.Exists([]byte("present")) {
		t.Error("expected true for present key")
	}
}

func TestRenameBasic(t *testing.T) {
	s := New()
	s.Set([]byte("a"), interfaces.Value{Kind: interfaces.KindText, Bytes: []byte("va")})

	if !s.Rename([]byte("a"), []byte("b")) {
		t.Fatal("expected rename to report from existed")
	}
	if s.Exists([]byte("a")) {
		t.Error("expected a to be gone after rename")
	}
	v, ok := s.Get([]byte("b"))
	if !ok || string(v.Bytes) != "va" {
		t.Errorf("expected b=va, got %+v ok=%v", v, ok)
	}
}

func TestRenameMissingSource(t *testing.T) {
	s := New()
	if s.Rename([]byte("none"), []byte("other")) {
		t.Error("expected rename of missing key to report existed=false")
	}
}

func TestRenameOverwritesDestination(t *testing.T) {
	s := New()
	s.Set([]byte("a"), interfaces.Value{Kind: interfaces.KindText, Bytes: []byte("va")})
	s.Set([]byte("b"), interfaces.Value{Kind: interfaces.KindText, Bytes: []byte("vb")})

	s.Rename([]byte("a"), []byte("b"))
	v, _ := s.Get([]byte("b"))
	if string(v.Bytes) != "va" {
		t.Errorf("expected b to be overwritten with va, got %q", v.Bytes)
	}
}

func TestRenameSameKeyIsNoOp(t *testing.T) {
	s := New()
	s.Set([]byte("a"), interfaces.Value{Kind: interfaces.KindText, Bytes: []byte("va")})

	if !s.Rename([]byte("a"), []byte("a")) {
		t.Error("expected no-op rename on existing key to report true")
	}
	v, ok := s.Get([]byte("a"))
	if !ok || string(v.Bytes) != "va" {
		t.Error("expected value unchanged after self-rename")
	}

	if s.Rename([]byte("missing"), []byte("missing")) {
		t.Error("expected no-op self-rename on missing key to report false")
	}
}

func TestIncrAbsentKey(t *testing.T) {
	s := New()
	if got := s.Incr([]byte("counter")); got != 1 {
		t.Errorf("Incr on absent key = %d, want 1", got)
	}
	v, _ := s.Get([]byte("counter"))
	if v.Kind != interfaces.KindInteger || v.Int != 1 {
		t.Errorf("expected Integer(1), got %+v", v)
	}
}

func TestIncrIntegerValue(t *testing.T) {
	s := New()
	s.Set([]byte("counter"), interfaces.Value{Kind: interfaces.KindInteger, Int: 41})
	if got := s.Incr([]byte("counter")); got != 42 {
		t.Errorf("Incr = %d, want 42", got)
	}
}

func TestIncrTextValue(t *testing.T) {
	s := New()
	s.Set([]byte("counter"), interfaces.Value{Kind: interfaces.KindText, Bytes: []byte("9")})
	if got := s.Incr([]byte("counter")); got != 10 {
		t.Errorf("Incr = %d, want 10", got)
	}
	v, _ := s.Get([]byte("counter"))
	if v.Kind != interfaces.KindText || string(v.Bytes) != "10" {
		t.Errorf("expected Text(10), got %+v", v)
	}
}

func TestIncrTextValueUnparseable(t *testing.T) {
	s := New()
	s.Set([]byte("counter"), interfaces.Value{Kind: interfaces.KindText, Bytes: []byte("not-a-number")})
	if got := s.Incr([]byte("counter")); got != 1 {
		t.Errorf("Incr on unparseable text = %d, want 1 (treated as 0+1)", got)
	}
}

func TestIncrBlobValueNotMutated(t *testing.T) {
	s := New()
	s.Set([]byte("k"), interfaces.Value{Kind: interfaces.KindBlob, Bytes: []byte("binary")})
	if got := s.Incr([]byte("k")); got != 0 {
		t.Errorf("Incr on blob = %d, want 0", got)
	}
	v, _ := s.Get([]byte("k"))
	if v.Kind != interfaces.KindBlob || string(v.Bytes) != "binary" {
		t.Error("expected blob value to remain unmutated")
	}
}

func TestIncrConcurrentProducesDistinctSuccessors(t *testing.T) {
	s := New()
	const n = 200
	var wg sync.WaitGroup
	results := make([]int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Incr([]byte("shared"))
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, r := range results {
		if seen[r] {
			t.Fatalf("duplicate Incr result %d", r)
		}
		seen[r] = true
	}
	v, _ := s.Get([]byte("shared"))
	if v.Int != int64(n) {
		t.Errorf("final value = %d, want %d", v.Int, n)
	}
}

func TestDisjointKeysScaleIndependently(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := []byte("key" + strconv.Itoa(i))
			for j := 0; j < 100; j++ {
				s.Set(key, interfaces.Value{Kind: interfaces.KindInteger, Int: int64(j)})
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		key := []byte("key" + strconv.Itoa(i))
		v, ok := s.Get(key)
		if !ok || v.Int != 99 {
			t.Errorf("key%d final value = %+v ok=%v, want 99", i, v, ok)
		}
	}
}
