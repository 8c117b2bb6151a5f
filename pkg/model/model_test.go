package model

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestNewSymbolSetNormalizes(t *testing.T) {
	set := NewSymbolSet(" btcusdt", "BTCUSDT", "", "ethusdt")
	if len(set) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(set))
	}
	if !set.Has("BTCUSDT") || !set.Has("ETHUSDT") {
		t.Fatalf("unexpected set contents: %v", set.Sorted())
	}
}

func TestSymbolSetHasIgnoresCase(t *testing.T) {
	set := NewSymbolSet("adausdt")
	for _, query := range []string{"ADAUSDT", "adausdt", " AdaUsdt "} {
		if !set.Has(query) {
			t.Errorf("expected Has(%q) to be true", query)
		}
	}
	if set.Has("BTCUSDT") {
		t.Fatalf("unexpected member BTCUSDT")
	}
}

func TestUnionDeduplicatesAndSorts(t *testing.T) {
	holding := NewSymbolSet("ETHUSDT", "BTCUSDT")
	watch := NewSymbolSet("BTCUSDT", "ADAUSDT", "LINKUSDT")

	got := Union(holding, watch)
	want := []string{"ADAUSDT", "BTCUSDT", "ETHUSDT", "LINKUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestHoldDecision(t *testing.T) {
	d := HoldDecision()
	if d.Signal != SignalHold || d.Strength != 0 || d.Reasons == nil || len(d.Reasons) != 0 {
		t.Fatalf("unexpected hold decision: %+v", d)
	}
}

func TestNewSignalEventAssignsID(t *testing.T) {
	a := NewSignalEvent("run-1", "BTCUSDT", HoldDecision())
	b := NewSignalEvent("run-1", "BTCUSDT", HoldDecision())
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}
}

func TestNewSignalEventSanitizesNaN(t *testing.T) {
	d := HoldDecision()
	d.Signal = SignalBuy
	d.Price = 101.5
	d.RSI = math.NaN()
	d.VolumeRatio = math.Inf(1)

	ev := NewSignalEvent("run-1", "ADAUSDT", d)
	if ev.Decision.RSI != 0 || ev.Decision.VolumeRatio != 0 || ev.Decision.Price != 101.5 {
		t.Fatalf("unexpected decision: %+v", ev.Decision)
	}
	if _, err := json.Marshal(ev); err != nil {
		t.Fatalf("event must be serializable: %v", err)
	}
}
