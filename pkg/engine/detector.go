// Package engine 趋势反转检测引擎
package engine

import (
	"math"

	"TrendRadar/pkg/model"
)

// MinBars 检测所需的最少K线数量
const MinBars = 30

// Thresholds 信号成立条件
type Thresholds struct {
	MinReasons  int
	MinStrength int
}

// DefaultThresholds 默认信号成立条件
func DefaultThresholds() Thresholds {
	return Thresholds{MinReasons: 2, MinStrength: 4}
}

// Detector 趋势反转信号检测器
//
// Detector 不持有可变状态，可在多个 goroutine 中共享。
type Detector struct {
	rules      []Rule
	thresholds Thresholds
}

// NewDetector 创建检测器，minStrength 不大于0时使用默认值
func NewDetector(minStrength int) *Detector {
	t := DefaultThresholds()
	if minStrength > 0 {
		t.MinStrength = minStrength
	}
	return &Detector{rules: DefaultRules(), thresholds: t}
}

// Thresholds 当前信号成立条件
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Detect 根据最近三根K线判断买卖信号
func (d *Detector) Detect(bars []model.Bar) model.Decision {
	if len(bars) < MinBars {
		return model.HoldDecision()
	}

	n := len(bars)
	w := Window{Latest: bars[n-1], Prev: bars[n-2], Prev2: bars[n-3]}

	tally := d.Evaluate(w)

	decision := model.HoldDecision()
	switch {
	case len(tally.Buy) >= d.thresholds.MinReasons && tally.Strength >= d.thresholds.MinStrength:
		decision.Signal = model.SignalBuy
		decision.Reasons = tally.Buy
	case len(tally.Sell) >= d.thresholds.MinReasons && tally.Strength >= d.thresholds.MinStrength:
		decision.Signal = model.SignalSell
		decision.Reasons = tally.Sell
	}
	decision.Strength = tally.Strength
	decision.Price = w.Latest.Close
	decision.RSI = w.Latest.RSI
	decision.VolumeRatio = volumeRatio(w.Latest)
	return decision
}

// Evaluate 按固定顺序折叠全部规则
func (d *Detector) Evaluate(w Window) Tally {
	tally := Tally{Buy: []string{}, Sell: []string{}}
	for _, rule := range d.rules {
		vote, ok := rule.Eval(w, tally)
		if !ok {
			continue
		}
		if vote.Side == SideBuy {
			tally.Buy = append(tally.Buy, vote.Reason)
		} else {
			tally.Sell = append(tally.Sell, vote.Reason)
		}
		tally.Strength += vote.Weight
	}
	return tally
}

// volumeRatio 成交量均值无效时返回0
func volumeRatio(b model.Bar) float64 {
	if math.IsNaN(b.VolumeMA) || b.VolumeMA <= 0 {
		return 0
	}
	return b.Volume / b.VolumeMA
}
