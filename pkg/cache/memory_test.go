package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestMemoryExpiry(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clk))
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), 4*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get before expiry: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}

	clk.Advance(3 * time.Second)
	if _, err := m.Get(ctx, "k"); err != nil {
		t.Fatalf("get at 3s: %v", err)
	}

	clk.Advance(2 * time.Second)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("get after expiry: want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(context.Background(), "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("want ErrCacheMiss, got %v", err)
	}
}

func TestMemorySweepOnMaxSize(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clk), WithMaxSize(2))
	ctx := context.Background()

	_ = m.Set(ctx, "a", []byte("1"), time.Second)
	_ = m.Set(ctx, "b", []byte("2"), time.Second)

	clk.Advance(2 * time.Second)

	// Third set triggers the sweep of the two expired entries.
	_ = m.Set(ctx, "c", []byte("3"), time.Second)

	if n := m.Len(); n != 1 {
		t.Fatalf("len after sweep: got %d, want 1", n)
	}
}

func TestKey(t *testing.T) {
	got := Key("candles", "BTCUSD", "1m")
	want := "candles:BTCUSD:1m"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
