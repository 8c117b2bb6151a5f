package engine

import "TrendRadar/pkg/model"

// ShouldNotify 判断信号是否需要通知
//
// 买入信号只提醒未持仓的观察币种，卖出信号只提醒持仓币种。
func ShouldNotify(symbol string, signal model.Signal, holding, watch model.SymbolSet) bool {
	switch signal {
	case model.SignalBuy:
		return !holding.Has(symbol) && watch.Has(symbol)
	case model.SignalSell:
		return holding.Has(symbol)
	default:
		return false
	}
}
