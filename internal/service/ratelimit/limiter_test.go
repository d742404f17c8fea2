package ratelimit

import "testing"

func TestAllowConsumesBurstThenBlocks(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		if !l.Allow("finnhub", 3, 0.001) {
			t.Fatalf("call %d: expected token available", i)
		}
	}
	if l.Allow("finnhub", 3, 0.001) {
		t.Fatal("expected bucket exhausted")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()

	for i := 0; i < 2; i++ {
		l.Allow("binance", 2, 0.001)
	}
	if l.Allow("binance", 2, 0.001) {
		t.Fatal("binance bucket should be empty")
	}
	if !l.Allow("yahoo", 2, 0.001) {
		t.Fatal("yahoo bucket should be untouched")
	}
}
