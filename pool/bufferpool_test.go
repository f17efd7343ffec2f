package pool

import (
	"testing"

	"github.com/RLBot/cpp-interface/api"
)

func TestBufferPool_GetReleaseRecycles(t *testing.T) {
	p := NewBufferPool(4)
	p.RegisterPreferred(2)

	b := p.Get()
	if !b.Preferred() {
		t.Fatalf("expected first Get to return a preferred cell")
	}
	if got, want := len(b.Bytes()), api.BufferCapacity; got != want {
		t.Fatalf("buffer size = %d, want %d", got, want)
	}

	b.Release()
	stats := p.Stats()
	if stats.InUse != 0 {
		t.Fatalf("InUse = %d after release, want 0", stats.InUse)
	}
	if stats.Preferred != 2 {
		t.Fatalf("Preferred free-list depth = %d, want 2", stats.Preferred)
	}
}

func TestBufferPool_RefCountingSlice(t *testing.T) {
	p := NewBufferPool(1)
	b := p.Get()
	copy(b.Bytes(), []byte("hello"))

	sl := b.Slice(0, 5)
	b.Release()
	if got, want := string(sl.Bytes()), "hello"; got != want {
		t.Fatalf("sliced view = %q, want %q", got, want)
	}

	sl.Release()
	if got := p.Stats().InUse; got != 0 {
		t.Fatalf("InUse after both releases = %d, want 0", got)
	}
}

func TestBufferPool_Watermark(t *testing.T) {
	p := NewBufferPool(1)
	a := p.Get()
	b := p.Get()
	if got := p.Stats().Watermark; got != 2 {
		t.Fatalf("watermark = %d, want 2", got)
	}
	a.Release()
	if got := p.Stats().Watermark; got != 2 {
		t.Fatalf("watermark dropped to %d after release, want it to stay at 2", got)
	}
	b.Release()
}

func TestSyncPool_ResetOnGet(t *testing.T) {
	sp := NewSyncPool(
		func() *[]int { s := make([]int, 0, 4); return &s },
		func(s *[]int) { *s = (*s)[:0] },
	)

	s := sp.Get()
	*s = append(*s, 1, 2, 3)
	sp.Put(s)

	s2 := sp.Get()
	if len(*s2) != 0 {
		t.Fatalf("expected reset slice, got len %d", len(*s2))
	}
}
