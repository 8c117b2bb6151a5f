package model

import "time"

// TopSignal 当日强度最高的信号
type TopSignal struct {
	Symbol   string `json:"symbol"`
	Action   Signal `json:"action"`
	Strength int    `json:"strength"`
}

// DailySummary 每日信号总结
type DailySummary struct {
	Date          time.Time      `json:"date"`
	BuySignals    int            `json:"buy_signals"`
	SellSignals   int            `json:"sell_signals"`
	TotalChecks   int            `json:"total_checks"`
	ActiveSymbols map[string]int `json:"active_symbols"` // 交易对 -> 信号次数
	TopSignals    []TopSignal    `json:"top_signals"`
}
