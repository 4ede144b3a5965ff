package oracle

import (
	"errors"
	"testing"
	"time"
)

func TestFresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	threshold := 30 * time.Second

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"brand new", 0, true},
		{"within threshold", 29 * time.Second, true},
		{"exactly at threshold", 30 * time.Second, true},
		{"just past threshold", 30*time.Second + time.Nanosecond, false},
		{"long stale", time.Hour, false},
	}

	for _, tt := range tests {
		if got := Fresh(now.Add(-tt.age), now, threshold); got != tt.want {
			t.Errorf("%s: Fresh = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAdapterFreshPrice(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := NewManual()
	adapter := NewAdapter(src, 30*time.Second, func() time.Time { return now })

	src.SetPrice("ALPHA", 500, now.Add(-10*time.Second))
	price, err := adapter.FreshPrice("ALPHA")
	if err != nil {
		t.Fatalf("FreshPrice failed: %v", err)
	}
	if price != 500 {
		t.Errorf("expected 500, got %d", price)
	}
}

func TestAdapterStalePrice(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := NewManual()
	adapter := NewAdapter(src, 30*time.Second, func() time.Time { return now })

	src.SetPrice("ALPHA", 500, now.Add(-31*time.Second))
	_, err := adapter.FreshPrice("ALPHA")
	if !errors.Is(err, ErrStalePrice) {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}
}

func TestManualUnknownAsset(t *testing.T) {
	src := NewManual()
	_, err := src.ReadPrice("NOPE")
	if !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestWalkTick(t *testing.T) {
	w := NewWalk(map[string]int64{"ALPHA": 500, "BETA": 300}, 25)

	before, err := w.ReadPrice("ALPHA")
	if err != nil {
		t.Fatalf("ReadPrice failed: %v", err)
	}

	for i := 0; i < 100; i++ {
		w.tick()
	}

	after, err := w.ReadPrice("ALPHA")
	if err != nil {
		t.Fatalf("ReadPrice failed: %v", err)
	}
	if after.Price < 1 {
		t.Errorf("price fell below floor: %d", after.Price)
	}
	if after.Timestamp.Before(before.Timestamp) {
		t.Error("expected timestamp to advance on tick")
	}

	if _, err := w.ReadPrice("NOPE"); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestWalkStepBound(t *testing.T) {
	w := NewWalk(map[string]int64{"ALPHA": 500}, 10)

	prev, _ := w.ReadPrice("ALPHA")
	for i := 0; i < 50; i++ {
		w.tick()
		cur, _ := w.ReadPrice("ALPHA")
		diff := cur.Price - prev.Price
		if diff < -10 || diff > 10 {
			t.Fatalf("tick moved price by %d, step bound is 10", diff)
		}
		prev = cur
	}
}

func TestWalkQuotes(t *testing.T) {
	w := NewWalk(map[string]int64{"ALPHA": 500, "BETA": 300}, 25)

	quotes := w.Quotes()
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	if quotes["ALPHA"].Price != 500 || quotes["BETA"].Price != 300 {
		t.Errorf("unexpected starting quotes: %v", quotes)
	}
}
