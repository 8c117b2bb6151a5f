package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"TrendRadar/pkg/engine"
	"TrendRadar/pkg/model"
	"TrendRadar/pkg/monitor"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// StatusProvider 监控引擎状态
type StatusProvider interface {
	Status() engine.Status
}

// SignalReader 信号历史和当日统计
type SignalReader interface {
	GetSignalHistory(symbol string, limit int) []model.SignalEvent
	Summary() model.DailySummary
}

// Handlers API处理程序
type Handlers struct {
	engine  StatusProvider
	signals SignalReader
	health  *monitor.Monitor
	metrics http.Handler
}

// NewHandlers 创建新的API处理程序，metrics 可为空
func NewHandlers(engine StatusProvider, signals SignalReader, health *monitor.Monitor, metrics http.Handler) *Handlers {
	return &Handlers{
		engine:  engine,
		signals: signals,
		health:  health,
		metrics: metrics,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck 就绪检查处理程序
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	if h.health != nil && !h.health.Healthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "unavailable",
			"components": h.health.GetAllStatus(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// GetStatus 监控引擎和组件状态
func (h *Handlers) GetStatus(c *gin.Context) {
	resp := gin.H{"engine": h.engine.Status()}
	if h.health != nil {
		resp["components"] = h.health.GetAllStatus()
	}
	c.JSON(http.StatusOK, resp)
}

// GetSignalHistory 获取信号历史处理程序
func (h *Handlers) GetSignalHistory(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit参数无效",
			})
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{
		"data": h.signals.GetSignalHistory(symbol, limit),
	})
}

// GetSummary 获取当日统计处理程序
func (h *Handlers) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.signals.Summary(),
	})
}
