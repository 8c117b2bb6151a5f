package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Signal 交易信号
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Decision 一次检测的结果
type Decision struct {
	Signal      Signal   `json:"signal"`
	Strength    int      `json:"strength"`
	Reasons     []string `json:"reasons"`
	Price       float64  `json:"price"`
	RSI         float64  `json:"rsi"`
	VolumeRatio float64  `json:"volume_ratio"`
}

// HoldDecision 返回空的观望结果
func HoldDecision() Decision {
	return Decision{Signal: SignalHold, Reasons: []string{}}
}

// SignalEvent 检测到的买卖信号事件
type SignalEvent struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	Symbol      string    `json:"symbol"`
	Decision    Decision  `json:"decision"`
	Notified    bool      `json:"notified"`
	NotifyError string    `json:"notify_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSignalEvent 创建信号事件，非有限数值置为0以便序列化
func NewSignalEvent(runID, symbol string, decision Decision) SignalEvent {
	decision.Price = finite(decision.Price)
	decision.RSI = finite(decision.RSI)
	decision.VolumeRatio = finite(decision.VolumeRatio)
	return SignalEvent{
		ID:        uuid.New().String(),
		RunID:     runID,
		Symbol:    symbol,
		Decision:  decision,
		CreatedAt: time.Now(),
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
