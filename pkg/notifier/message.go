package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"TrendRadar/pkg/model"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatSignal 格式化交易信号通知
func FormatSignal(symbol string, d model.Decision, at time.Time) (title, body string) {
	emoji, action, advice := "🔴", "卖出信号", "考虑减仓或止盈，注意趋势变化"
	if d.Signal == model.SignalBuy {
		emoji, action, advice = "🟢", "买入信号", "考虑建仓，注意风险控制"
	}
	title = fmt.Sprintf("%s %s %s", emoji, symbol, action)

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **交易对**: %s\n", symbol)
	fmt.Fprintf(&b, "💰 **当前价格**: $%s\n", decimal.NewFromFloat(d.Price).StringFixed(6))
	fmt.Fprintf(&b, "📈 **信号强度**: %d/10\n", d.Strength)
	fmt.Fprintf(&b, "📊 **RSI**: %.2f\n", d.RSI)
	fmt.Fprintf(&b, "📈 **成交量倍数**: %.2fx\n", d.VolumeRatio)
	b.WriteString("\n🎯 **触发原因**:\n")
	for i, reason := range d.Reasons {
		fmt.Fprintf(&b, "%d. %s\n", i+1, reason)
	}
	fmt.Fprintf(&b, "\n⏰ **时间**: %s", at.Format(timeLayout))
	fmt.Fprintf(&b, "\n\n💡 **建议**: %s", advice)
	return title, b.String()
}

// FormatDailySummary 格式化每日总结
func FormatDailySummary(s model.DailySummary) (title, body string) {
	title = "📊 每日交易信号总结"

	var b strings.Builder
	fmt.Fprintf(&b, "📅 **日期**: %s\n\n", s.Date.Format("2006-01-02"))
	b.WriteString("📈 **今日信号统计**:\n")
	fmt.Fprintf(&b, "• 买入信号: %d 个\n", s.BuySignals)
	fmt.Fprintf(&b, "• 卖出信号: %d 个\n", s.SellSignals)
	fmt.Fprintf(&b, "• 总检测次数: %d 次\n", s.TotalChecks)
	b.WriteString("\n🎯 **活跃交易对**:\n")

	symbols := make([]string, 0, len(s.ActiveSymbols))
	for symbol := range s.ActiveSymbols {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		fmt.Fprintf(&b, "• %s: %d 次信号\n", symbol, s.ActiveSymbols[symbol])
	}

	if len(s.TopSignals) > 0 {
		b.WriteString("\n🔥 **最强信号**:\n")
		for _, top := range s.TopSignals {
			fmt.Fprintf(&b, "• %s: %s (强度: %d)\n", top.Symbol, top.Action, top.Strength)
		}
	}
	return title, b.String()
}
