package model

import (
	"math"
	"time"
)

// Bar 一根K线及其技术指标
//
// Bar 由行情提供方生成后不再修改。指标字段在回看期内为 NaN。
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`

	RSI           float64 `json:"rsi"`
	MAShort       float64 `json:"ma_short"`
	MALong        float64 `json:"ma_long"`
	MACD          float64 `json:"macd"`
	MACDSignal    float64 `json:"macd_signal"`
	MACDHistogram float64 `json:"macd_histogram"`
	BBUpper       float64 `json:"bb_upper"`
	BBMiddle      float64 `json:"bb_middle"`
	BBLower       float64 `json:"bb_lower"`
	VolumeMA      float64 `json:"volume_ma"`
	StochK        float64 `json:"stoch_k"`
	StochD        float64 `json:"stoch_d"`
}

// ClearIndicators 将所有指标字段置为 NaN
func (b *Bar) ClearIndicators() {
	nan := math.NaN()
	b.RSI = nan
	b.MAShort, b.MALong = nan, nan
	b.MACD, b.MACDSignal, b.MACDHistogram = nan, nan, nan
	b.BBUpper, b.BBMiddle, b.BBLower = nan, nan, nan
	b.VolumeMA = nan
	b.StochK, b.StochD = nan, nan
}
