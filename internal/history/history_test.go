package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"BullionSentinel/internal/model"
)

func TestAppend_Eviction(t *testing.T) {
	const limit = 5
	var prices []float64
	for i := 1; i <= limit+3; i++ {
		prices = Append(prices, float64(i), limit)
	}
	want := []float64{4, 5, 6, 7, 8}
	if len(prices) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(prices))
	}
	for i := range want {
		if prices[i] != want[i] {
			t.Errorf("prices[%d] = %v, want %v", i, prices[i], want[i])
		}
	}
}

func TestAppend_DoesNotModifyInput(t *testing.T) {
	in := make([]float64, 3, 10)
	in[0], in[1], in[2] = 1, 2, 3
	out := Append(in, 4, 3)
	if in[0] != 1 || len(in) != 3 {
		t.Errorf("input mutated: %v", in)
	}
	if len(out) != 3 || out[0] != 2 || out[2] != 4 {
		t.Errorf("unexpected output %v", out)
	}
	if got := Append([]float64(nil), 1, 0); len(got) != 1 {
		t.Errorf("unbounded append should keep value, got %v", got)
	}
}

func TestSeries_EvictsOldestFirst(t *testing.T) {
	tests := []struct {
		capacity int
		extra    int
	}{
		{1, 0},
		{1, 5},
		{3, 10},
		{200, 0},
		{200, 1},
		{200, 650},
	}
	for _, tt := range tests {
		s := NewSeries(tt.capacity)
		total := tt.capacity + tt.extra
		for i := 0; i < total; i++ {
			s.Add(model.PricePoint{Value: float64(i)})
		}
		got := s.Values()
		if len(got) != tt.capacity {
			t.Fatalf("cap %d extra %d: expected %d values, got %d", tt.capacity, tt.extra, tt.capacity, len(got))
		}
		for i, v := range got {
			if want := float64(tt.extra + i); v != want {
				t.Fatalf("cap %d extra %d: values[%d] = %v, want %v", tt.capacity, tt.extra, i, v, want)
			}
		}
		if cap(s.buf) > 2*tt.capacity {
			t.Errorf("backing array grew to %d for capacity %d", cap(s.buf), tt.capacity)
		}
	}
}

func TestSeries_PartialFill(t *testing.T) {
	s := NewSeries(10)
	if _, ok := s.Latest(); ok {
		t.Error("empty series should have no latest point")
	}
	s.Add(model.PricePoint{Value: 1})
	s.Add(model.PricePoint{Value: 2})
	if s.Len() != 2 || s.Cap() != 10 {
		t.Errorf("unexpected len/cap %d/%d", s.Len(), s.Cap())
	}
	if p, _ := s.Latest(); p.Value != 2 {
		t.Errorf("expected latest 2, got %v", p.Value)
	}
	vals := s.Values()
	vals[0] = 99
	if s.Values()[0] != 1 {
		t.Error("Values must return a copy")
	}
}

func TestNewSeries_DefaultCapacity(t *testing.T) {
	if got := NewSeries(0).Cap(); got != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, got)
	}
}

func TestBook_InstrumentsIndependent(t *testing.T) {
	b, err := NewBook(3, "")
	if err != nil {
		t.Fatalf("NewBook: %v", err)
	}
	now := time.Now()
	for i := 1; i <= 5; i++ {
		b.Append(model.Silver, float64(i), now)
	}
	got := b.Append(model.Gold, 100, now)
	if len(got) != 1 || got[0] != 100 {
		t.Errorf("gold series should be independent, got %v", got)
	}
	silver := b.Values(model.Silver)
	if len(silver) != 3 || silver[0] != 3 || silver[2] != 5 {
		t.Errorf("unexpected silver series %v", silver)
	}
	if err := b.Save(); err != nil {
		t.Errorf("in-memory save should be a no-op, got %v", err)
	}
	if b.Persistent() {
		t.Error("book without file should not be persistent")
	}
}

func TestBook_StateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.json")

	b, err := NewBook(4, path)
	if err != nil {
		t.Fatalf("NewBook: %v", err)
	}
	if b.Len(model.Silver) != 0 {
		t.Fatal("missing state file should start empty")
	}
	now := time.Now()
	for i := 1; i <= 6; i++ {
		b.Append(model.Silver, float64(i), now)
		b.Append(model.Gold, float64(i*10), now)
	}
	if err := b.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A smaller capacity on reload keeps only the newest points.
	reloaded, err := NewBook(2, path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	silver := reloaded.Values(model.Silver)
	if len(silver) != 2 || silver[0] != 5 || silver[1] != 6 {
		t.Errorf("unexpected restored silver %v", silver)
	}
	gold := reloaded.Values(model.Gold)
	if len(gold) != 2 || gold[1] != 60 {
		t.Errorf("unexpected restored gold %v", gold)
	}
}

func TestLoadState_EmptySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := SaveState(path, &model.HistorySnapshot{}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	snap, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if snap.Series == nil {
		t.Error("expected non-nil series map")
	}
}

func TestNewBook_CorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewBook(10, path); err == nil {
		t.Error("expected error for corrupt state file")
	}
}

func TestAppend_CopiesRarely(t *testing.T) {
	const limit = 4
	var series []int
	copies := 0
	for i := 0; i < 100; i++ {
		before := cap(series)
		series = Append(series, i, limit)
		if cap(series) > before {
			copies++
		}
		if cap(series) > 2*limit {
			t.Fatalf("backing array grew to %d", cap(series))
		}
	}
	// one copy per limit appends at most, after the initial allocation
	if copies > 100/limit+1 {
		t.Errorf("expected amortized appends, got %d copies", copies)
	}
	if len(series) != limit || series[0] != 96 || series[limit-1] != 99 {
		t.Errorf("unexpected window %v", series)
	}
}
