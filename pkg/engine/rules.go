package engine

import (
	"fmt"
	"math"

	"TrendRadar/pkg/model"
)

// Side 信号方向
type Side int

const (
	sideNone Side = iota - 1
	SideBuy
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// 规则权重
const (
	WeightRSI        = 2
	WeightMACross    = 3
	WeightMACD       = 2
	WeightBollinger  = 1
	WeightVolume     = 1
	WeightStochastic = 1
	WeightMomentum   = 1
)

const (
	rsiOversold    = 30.0
	rsiOverbought  = 70.0
	volumeSpike    = 1.5
	stochLowZone   = 20.0
	stochHighZone  = 80.0
	momentumChange = 0.03
)

// 信号原因
const (
	ReasonRSIOversold   = "RSI从超卖区反弹"
	ReasonRSIOverbought = "RSI进入超买区"
	ReasonGoldenCross   = "短期均线上穿长期均线(金叉)"
	ReasonDeathCross    = "短期均线下穿长期均线(死叉)"
	ReasonMACDGolden    = "MACD金叉"
	ReasonMACDDeath     = "MACD死叉"
	ReasonBBLower       = "价格触及布林带下轨"
	ReasonBBUpper       = "价格触及布林带上轨"
	ReasonVolume        = "成交量放大确认"
	ReasonStochGolden   = "随机指标低位金叉"
	ReasonStochDeath    = "随机指标高位死叉"
)

// Window 检测使用的最近三根K线
type Window struct {
	Latest model.Bar
	Prev   model.Bar
	Prev2  model.Bar
}

// Tally 规则折叠过程中的累计结果
type Tally struct {
	Buy      []string
	Sell     []string
	Strength int
}

// Vote 单条规则的投票
type Vote struct {
	Side   Side
	Weight int
	Reason string
}

// Rule 规则评估函数，可读取已累计的结果
type Rule struct {
	Name string
	Eval func(w Window, t Tally) (Vote, bool)
}

// DefaultRules 固定顺序的规则列表
func DefaultRules() []Rule {
	return []Rule{
		{Name: "rsi_reversal", Eval: rsiReversal},
		{Name: "ma_cross", Eval: maCross},
		{Name: "macd_cross", Eval: macdCross},
		{Name: "bollinger_touch", Eval: bollingerTouch},
		{Name: "volume_confirmation", Eval: volumeConfirmation},
		{Name: "stochastic_cross", Eval: stochasticCross},
		{Name: "momentum_confirmation", Eval: momentumConfirmation},
	}
}

func rsiReversal(w Window, _ Tally) (Vote, bool) {
	switch {
	case w.Latest.RSI < rsiOversold && w.Prev.RSI >= rsiOversold:
		return Vote{SideBuy, WeightRSI, ReasonRSIOversold}, true
	case w.Latest.RSI > rsiOverbought && w.Prev.RSI <= rsiOverbought:
		return Vote{SideSell, WeightRSI, ReasonRSIOverbought}, true
	}
	return Vote{}, false
}

func maCross(w Window, _ Tally) (Vote, bool) {
	switch crossing(w.Latest.MAShort, w.Latest.MALong, w.Prev.MAShort, w.Prev.MALong) {
	case SideBuy:
		return Vote{SideBuy, WeightMACross, ReasonGoldenCross}, true
	case SideSell:
		return Vote{SideSell, WeightMACross, ReasonDeathCross}, true
	}
	return Vote{}, false
}

func macdCross(w Window, _ Tally) (Vote, bool) {
	switch crossing(w.Latest.MACD, w.Latest.MACDSignal, w.Prev.MACD, w.Prev.MACDSignal) {
	case SideBuy:
		return Vote{SideBuy, WeightMACD, ReasonMACDGolden}, true
	case SideSell:
		return Vote{SideSell, WeightMACD, ReasonMACDDeath}, true
	}
	return Vote{}, false
}

func bollingerTouch(w Window, _ Tally) (Vote, bool) {
	switch {
	case w.Latest.Close < w.Latest.BBLower && w.Prev.Close >= w.Prev.BBLower:
		return Vote{SideBuy, WeightBollinger, ReasonBBLower}, true
	case w.Latest.Close > w.Latest.BBUpper && w.Prev.Close <= w.Prev.BBUpper:
		return Vote{SideSell, WeightBollinger, ReasonBBUpper}, true
	}
	return Vote{}, false
}

// volumeConfirmation 只确认已有方向，买方优先
func volumeConfirmation(w Window, t Tally) (Vote, bool) {
	if len(t.Buy) == 0 && len(t.Sell) == 0 {
		return Vote{}, false
	}
	if !(w.Latest.Volume > w.Latest.VolumeMA*volumeSpike) {
		return Vote{}, false
	}
	if len(t.Buy) > 0 {
		return Vote{SideBuy, WeightVolume, ReasonVolume}, true
	}
	return Vote{SideSell, WeightVolume, ReasonVolume}, true
}

func stochasticCross(w Window, _ Tally) (Vote, bool) {
	switch crossing(w.Latest.StochK, w.Latest.StochD, w.Prev.StochK, w.Prev.StochD) {
	case SideBuy:
		if w.Latest.StochK < stochLowZone {
			return Vote{SideBuy, WeightStochastic, ReasonStochGolden}, true
		}
	case SideSell:
		if w.Latest.StochK > stochHighZone {
			return Vote{SideSell, WeightStochastic, ReasonStochDeath}, true
		}
	}
	return Vote{}, false
}

// momentumConfirmation 比较最新收盘价与前两根K线收盘价
func momentumConfirmation(w Window, t Tally) (Vote, bool) {
	base := w.Prev2.Close
	if base == 0 || math.IsNaN(base) {
		return Vote{}, false
	}
	change := (w.Latest.Close - base) / base
	switch {
	case change > momentumChange && len(t.Buy) > 0:
		return Vote{SideBuy, WeightMomentum, fmt.Sprintf("价格强势上涨 %.2f%%", change*100)}, true
	case change < -momentumChange && len(t.Sell) > 0:
		return Vote{SideSell, WeightMomentum, fmt.Sprintf("价格快速下跌 %.2f%%", change*100)}, true
	}
	return Vote{}, false
}

// crossing 判断快线本根是否穿越慢线
func crossing(fast, slow, prevFast, prevSlow float64) Side {
	switch {
	case fast > slow && prevFast <= prevSlow:
		return SideBuy
	case fast < slow && prevFast >= prevSlow:
		return SideSell
	}
	return sideNone
}
