package collector

import (
	"context"

	"TrendRadar/pkg/model"
)

// BarFetcher K线数据获取接口
type BarFetcher interface {
	// FetchBars 按时间升序返回最近 limit 根K线
	FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.Bar, error)
}
