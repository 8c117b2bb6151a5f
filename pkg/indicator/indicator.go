// Package indicator 基于 go-talib 为K线序列计算技术指标
package indicator

import (
	"errors"
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"TrendRadar/pkg/model"
)

// ErrInsufficientBars K线数量不足以计算全部指标
var ErrInsufficientBars = errors.New("K线数量不足")

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	bbPeriod = 20
	bbDev    = 2.0

	stochKPeriod = 14
	stochDPeriod = 3
)

// Params 指标参数
type Params struct {
	RSIPeriod      int
	MAShort        int
	MALong         int
	VolumeMAPeriod int
}

// DefaultParams 默认指标参数
func DefaultParams() Params {
	return Params{RSIPeriod: 14, MAShort: 9, MALong: 21, VolumeMAPeriod: 20}
}

// Calculator 技术指标计算器
type Calculator struct {
	params Params
}

// NewCalculator 创建指标计算器
func NewCalculator(params Params) *Calculator {
	return &Calculator{params: params}
}

// Lookback 计算全部指标所需的最少K线数量
func (c *Calculator) Lookback() int {
	need := []int{
		c.params.RSIPeriod + 1,
		c.params.MALong,
		c.params.MAShort,
		macdSlow + macdSignal - 1,
		bbPeriod,
		stochKPeriod + stochDPeriod - 1,
		c.params.VolumeMAPeriod,
	}
	max := 0
	for _, n := range need {
		if n > max {
			max = n
		}
	}
	return max
}

// Enrich 返回带指标的新序列，输入不会被修改
//
// 计算失败时返回未计算指标的副本和错误，调用方记录日志后可继续使用。
func (c *Calculator) Enrich(bars []model.Bar) (out []model.Bar, err error) {
	out = make([]model.Bar, len(bars))
	copy(out, bars)
	for i := range out {
		out[i].ClearIndicators()
	}

	if len(bars) < c.Lookback() {
		return out, fmt.Errorf("%w: 需要%d根, 实际%d根", ErrInsufficientBars, c.Lookback(), len(bars))
	}

	defer func() {
		if r := recover(); r != nil {
			for i := range out {
				out[i].ClearIndicators()
			}
			err = fmt.Errorf("计算技术指标失败: %v", r)
		}
	}()

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	rsi := mask(talib.Rsi(closes, c.params.RSIPeriod), c.params.RSIPeriod)
	maShort := mask(talib.Sma(closes, c.params.MAShort), c.params.MAShort-1)
	maLong := mask(talib.Sma(closes, c.params.MALong), c.params.MALong-1)

	macd, signal, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	macdLookback := macdSlow + macdSignal - 2
	macd, signal, hist = mask(macd, macdLookback), mask(signal, macdLookback), mask(hist, macdLookback)

	upper, middle, lower := talib.BBands(closes, bbPeriod, bbDev, bbDev, talib.SMA)
	upper, middle, lower = mask(upper, bbPeriod-1), mask(middle, bbPeriod-1), mask(lower, bbPeriod-1)

	volumeMA := mask(talib.Sma(volumes, c.params.VolumeMAPeriod), c.params.VolumeMAPeriod-1)

	stochK, stochD := talib.StochF(highs, lows, closes, stochKPeriod, stochDPeriod, talib.SMA)
	stochLookback := stochKPeriod + stochDPeriod - 2
	stochK, stochD = mask(stochK, stochLookback), mask(stochD, stochLookback)

	for i := range out {
		out[i].RSI = rsi[i]
		out[i].MAShort = maShort[i]
		out[i].MALong = maLong[i]
		out[i].MACD = macd[i]
		out[i].MACDSignal = signal[i]
		out[i].MACDHistogram = hist[i]
		out[i].BBUpper = upper[i]
		out[i].BBMiddle = middle[i]
		out[i].BBLower = lower[i]
		out[i].VolumeMA = volumeMA[i]
		out[i].StochK = stochK[i]
		out[i].StochD = stochD[i]
	}
	return out, nil
}

// mask 将回看期内的输出置为 NaN（talib 在回看期输出 0）
func mask(values []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}
