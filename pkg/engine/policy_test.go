package engine

import (
	"testing"

	"TrendRadar/pkg/model"
)

func TestShouldNotify(t *testing.T) {
	cases := []struct {
		symbol  string
		signal  model.Signal
		holding model.SymbolSet
		watch   model.SymbolSet
		want    bool
	}{
		{"BTCUSDT", model.SignalBuy, model.NewSymbolSet("BTCUSDT"), model.NewSymbolSet("BTCUSDT"), false},
		{"ADAUSDT", model.SignalBuy, model.NewSymbolSet(), model.NewSymbolSet("ADAUSDT"), true},
		{"ETHUSDT", model.SignalSell, model.NewSymbolSet("ETHUSDT"), model.NewSymbolSet(), true},
		{"LINKUSDT", model.SignalSell, model.NewSymbolSet(), model.NewSymbolSet("LINKUSDT"), false},
		{"DOTUSDT", model.SignalBuy, model.NewSymbolSet(), model.NewSymbolSet(), false},
		{"BTCUSDT", model.SignalHold, model.NewSymbolSet("BTCUSDT"), model.NewSymbolSet("BTCUSDT"), false},
		{"BTCUSDT", model.Signal("UNKNOWN"), model.NewSymbolSet("BTCUSDT"), model.NewSymbolSet("BTCUSDT"), false},
	}
	for _, tc := range cases {
		if got := ShouldNotify(tc.symbol, tc.signal, tc.holding, tc.watch); got != tc.want {
			t.Errorf("ShouldNotify(%s, %s) = %v, want %v", tc.symbol, tc.signal, got, tc.want)
		}
	}
}

func TestShouldNotifyNilSets(t *testing.T) {
	if ShouldNotify("BTCUSDT", model.SignalSell, nil, nil) {
		t.Fatalf("nil sets must behave as empty")
	}
}

func TestShouldNotifyLowercaseSymbol(t *testing.T) {
	watch := model.NewSymbolSet("adausdt")
	if !ShouldNotify("adausdt", model.SignalBuy, model.NewSymbolSet(), watch) {
		t.Fatalf("expected lowercase watched symbol to be notified")
	}
	if !ShouldNotify("ethusdt", model.SignalSell, model.NewSymbolSet("ETHUSDT"), nil) {
		t.Fatalf("expected lowercase holding symbol to be notified")
	}
}
