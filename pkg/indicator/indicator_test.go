package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"TrendRadar/pkg/model"
)

func makeBars(n int, closeAt func(i int) float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := range bars {
		c := closeAt(i)
		bars[i] = model.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000 + float64(i%7)*10,
		}
	}
	return bars
}

func TestEnrichComputesIndicators(t *testing.T) {
	bars := makeBars(100, func(i int) float64 { return 100 + 10*math.Sin(float64(i)/5) })
	calc := NewCalculator(DefaultParams())

	out, err := calc.Enrich(bars)
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if len(out) != len(bars) {
		t.Fatalf("expected %d bars, got %d", len(bars), len(out))
	}

	last := out[len(out)-1]
	fields := map[string]float64{
		"rsi": last.RSI, "ma_short": last.MAShort, "ma_long": last.MALong,
		"macd": last.MACD, "macd_signal": last.MACDSignal, "macd_histogram": last.MACDHistogram,
		"bb_upper": last.BBUpper, "bb_middle": last.BBMiddle, "bb_lower": last.BBLower,
		"volume_ma": last.VolumeMA, "stoch_k": last.StochK, "stoch_d": last.StochD,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("expected finite %s on last bar, got %v", name, v)
		}
	}
	if last.RSI < 0 || last.RSI > 100 {
		t.Errorf("rsi out of range: %v", last.RSI)
	}
	if !(last.BBLower <= last.BBMiddle && last.BBMiddle <= last.BBUpper) {
		t.Errorf("bollinger bands out of order: %v %v %v", last.BBLower, last.BBMiddle, last.BBUpper)
	}

	first := out[0]
	if !math.IsNaN(first.RSI) || !math.IsNaN(first.MALong) || !math.IsNaN(first.MACD) || !math.IsNaN(first.StochD) {
		t.Errorf("expected NaN indicators in look-back region, got %+v", first)
	}
}

func TestEnrichStochasticLookback(t *testing.T) {
	bars := makeBars(60, func(i int) float64 { return 100 + 10*math.Sin(float64(i)/5) })
	out, err := NewCalculator(DefaultParams()).Enrich(bars)
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}

	lookback := stochKPeriod + stochDPeriod - 2
	for i := 0; i < lookback; i++ {
		if !math.IsNaN(out[i].StochK) || !math.IsNaN(out[i].StochD) {
			t.Fatalf("bar %d: expected NaN stochastic, got K=%v D=%v", i, out[i].StochK, out[i].StochD)
		}
	}
	if math.IsNaN(out[lookback].StochK) || math.IsNaN(out[lookback].StochD) {
		t.Fatalf("bar %d: expected stochastic values, got K=%v D=%v", lookback, out[lookback].StochK, out[lookback].StochD)
	}
}

func TestEnrichMovingAverageOfConstantSeries(t *testing.T) {
	bars := makeBars(60, func(int) float64 { return 42 })
	out, err := NewCalculator(DefaultParams()).Enrich(bars)
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	last := out[len(out)-1]
	if math.Abs(last.MAShort-42) > 1e-9 || math.Abs(last.MALong-42) > 1e-9 {
		t.Fatalf("expected moving averages of 42, got %v / %v", last.MAShort, last.MALong)
	}
	if math.Abs(last.BBMiddle-42) > 1e-9 {
		t.Fatalf("expected bollinger middle 42, got %v", last.BBMiddle)
	}
	// 第 9 根起短均线有值
	if math.IsNaN(out[8].MAShort) || !math.IsNaN(out[7].MAShort) {
		t.Fatalf("unexpected ma_short look-back: %v %v", out[7].MAShort, out[8].MAShort)
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	bars := makeBars(80, func(i int) float64 { return float64(100 + i) })
	_, err := NewCalculator(DefaultParams()).Enrich(bars)
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	for i, b := range bars {
		if b.RSI != 0 || b.MAShort != 0 || b.VolumeMA != 0 {
			t.Fatalf("input bar %d was mutated: %+v", i, b)
		}
	}
}

func TestEnrichInsufficientBars(t *testing.T) {
	bars := makeBars(10, func(i int) float64 { return float64(i + 1) })
	out, err := NewCalculator(DefaultParams()).Enrich(bars)
	if !errors.Is(err, ErrInsufficientBars) {
		t.Fatalf("expected ErrInsufficientBars, got %v", err)
	}
	if len(out) != len(bars) {
		t.Fatalf("expected unmodified length, got %d", len(out))
	}
	for _, b := range out {
		if !math.IsNaN(b.RSI) || !math.IsNaN(b.VolumeMA) {
			t.Fatalf("expected NaN indicators, got %+v", b)
		}
		if b.Close == 0 {
			t.Fatalf("expected price fields to be preserved")
		}
	}
}

func TestLookback(t *testing.T) {
	calc := NewCalculator(DefaultParams())
	if got := calc.Lookback(); got != 34 {
		t.Fatalf("expected look-back 34 for default params, got %d", got)
	}
	calc = NewCalculator(Params{RSIPeriod: 14, MAShort: 9, MALong: 50, VolumeMAPeriod: 20})
	if got := calc.Lookback(); got != 50 {
		t.Fatalf("expected look-back 50, got %d", got)
	}
}
