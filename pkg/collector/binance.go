package collector

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"TrendRadar/pkg/model"
)

// BinanceFetcher 币安现货K线数据源
type BinanceFetcher struct {
	client *binance.Client
}

// NewBinanceFetcher 创建币安数据源，baseURL 为空时使用官方地址
//
// K线为公开接口，无需API密钥。
func NewBinanceFetcher(baseURL string) *BinanceFetcher {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	client.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	return &BinanceFetcher{client: client}
}

// FetchBars 获取K线数据
func (f *BinanceFetcher) FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("交易对不能为空")
	}

	klines, err := f.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取%s K线失败: %w", symbol, err)
	}

	bars := make([]model.Bar, 0, len(klines))
	for _, k := range klines {
		bar, err := normalizeKline(k)
		if err != nil {
			return nil, fmt.Errorf("解析%s K线失败: %w", symbol, err)
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}

// normalizeKline 将币安K线转换为统一数据模型
func normalizeKline(k *binance.Kline) (model.Bar, error) {
	bar := model.Bar{Timestamp: time.UnixMilli(k.OpenTime).UTC()}
	fields := []struct {
		name  string
		value string
		dst   *float64
	}{
		{"open", k.Open, &bar.Open},
		{"high", k.High, &bar.High},
		{"low", k.Low, &bar.Low},
		{"close", k.Close, &bar.Close},
		{"volume", k.Volume, &bar.Volume},
	}

	for _, f := range fields {
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return model.Bar{}, fmt.Errorf("字段%s无效: %q", f.name, f.value)
		}
		*f.dst = d.InexactFloat64()
	}
	bar.ClearIndicators()
	return bar, nil
}
