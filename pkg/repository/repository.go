package repository

import (
	"sort"
	"sync"
	"time"

	"TrendRadar/pkg/model"
)

const (
	defaultHistorySize = 500
	topSignalCount     = 5
)

// SignalRepository 信号仓库
//
// 数据只保存在内存中，进程重启后清空。
type SignalRepository struct {
	mutex    sync.RWMutex
	events   []model.SignalEvent
	capacity int

	day         time.Time
	buySignals  int
	sellSignals int
	totalChecks int
	active      map[string]int
	top         []model.TopSignal
	now         func() time.Time
}

// NewSignalRepository 创建信号仓库，capacity 为保留的历史信号数量
func NewSignalRepository(capacity int) *SignalRepository {
	if capacity <= 0 {
		capacity = defaultHistorySize
	}
	r := &SignalRepository{
		events:   make([]model.SignalEvent, 0, capacity),
		capacity: capacity,
		active:   make(map[string]int),
		now:      time.Now,
	}
	r.day = startOfDay(r.now())
	return r
}

// RecordCheck 记录一次检测结果
func (r *SignalRepository) RecordCheck(symbol string, decision model.Decision) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// 跨天后统计从新的一天开始
	if today := startOfDay(r.now()); today.After(r.day) {
		r.resetLocked(today)
	}

	r.totalChecks++
	switch decision.Signal {
	case model.SignalBuy:
		r.buySignals++
	case model.SignalSell:
		r.sellSignals++
	default:
		return
	}

	r.active[symbol]++
	r.top = append(r.top, model.TopSignal{Symbol: symbol, Action: decision.Signal, Strength: decision.Strength})
	sort.SliceStable(r.top, func(i, j int) bool {
		return r.top[i].Strength > r.top[j].Strength
	})
	if len(r.top) > topSignalCount {
		r.top = r.top[:topSignalCount]
	}
}

// SaveSignal 保存信号事件
func (r *SignalRepository) SaveSignal(event model.SignalEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.events) == r.capacity {
		copy(r.events, r.events[1:])
		r.events = r.events[:len(r.events)-1]
	}
	r.events = append(r.events, event)
}

// GetSignalHistory 获取信号历史，最新的在前
func (r *SignalRepository) GetSignalHistory(symbol string, limit int) []model.SignalEvent {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]model.SignalEvent, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		// 未指定交易对时返回全部
		if symbol == "" || r.events[i].Symbol == symbol {
			result = append(result, r.events[i])
		}
	}
	return result
}

// Summary 当日统计
func (r *SignalRepository) Summary() model.DailySummary {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	active := make(map[string]int, len(r.active))
	for symbol, count := range r.active {
		active[symbol] = count
	}
	top := make([]model.TopSignal, len(r.top))
	copy(top, r.top)

	return model.DailySummary{
		Date:          r.day,
		BuySignals:    r.buySignals,
		SellSignals:   r.sellSignals,
		TotalChecks:   r.totalChecks,
		ActiveSymbols: active,
		TopSignals:    top,
	}
}

// Reset 清空当日统计，历史信号保留
func (r *SignalRepository) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.resetLocked(startOfDay(r.now()))
}

func (r *SignalRepository) resetLocked(day time.Time) {
	r.day = day
	r.buySignals = 0
	r.sellSignals = 0
	r.totalChecks = 0
	r.active = make(map[string]int)
	r.top = nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
