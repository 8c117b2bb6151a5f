// Package monitor 组件健康状态
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// 组件状态
const (
	StatusUnknown   = "unknown"
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus 健康状态
type HealthStatus struct {
	Component   string    `json:"component"`
	Status      string    `json:"status"`
	LastChecked time.Time `json:"last_checked"`
	Message     string    `json:"message,omitempty"`
}

// Monitor 监控系统
type Monitor struct {
	components map[string]*HealthStatus
	mutex      sync.RWMutex
	alertFunc  func(component, status, message string)
	client     *http.Client
}

// NewMonitor 创建新的监控系统，状态变为非健康时调用 alertFunc
func NewMonitor(alertFunc func(component, status, message string)) *Monitor {
	return &Monitor{
		components: make(map[string]*HealthStatus),
		alertFunc:  alertFunc,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// RegisterComponent 注册组件
func (m *Monitor) RegisterComponent(component string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.components[component]; exists {
		return
	}
	m.components[component] = &HealthStatus{
		Component:   component,
		Status:      StatusUnknown,
		LastChecked: time.Now(),
	}
}

// UpdateStatus 更新组件状态
func (m *Monitor) UpdateStatus(component, status, message string) {
	m.mutex.Lock()
	current, exists := m.components[component]
	if !exists {
		current = &HealthStatus{Component: component}
		m.components[component] = current
	}

	oldStatus := current.Status
	current.Status = status
	current.LastChecked = time.Now()
	current.Message = message
	m.mutex.Unlock()

	// 状态变为不健康时触发告警
	if oldStatus != status && status != StatusHealthy && m.alertFunc != nil {
		m.alertFunc(component, status, message)
	}
}

// GetStatus 获取组件状态
func (m *Monitor) GetStatus(component string) (HealthStatus, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if status, exists := m.components[component]; exists {
		return *status, true
	}
	return HealthStatus{}, false
}

// GetAllStatus 获取所有组件状态，按名称排序
func (m *Monitor) GetAllStatus() []HealthStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	statuses := make([]HealthStatus, 0, len(m.components))
	for _, status := range m.components {
		statuses = append(statuses, *status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Component < statuses[j].Component
	})
	return statuses
}

// Healthy 所有已检查的组件是否均健康
func (m *Monitor) Healthy() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, status := range m.components {
		if status.Status == StatusUnhealthy {
			return false
		}
	}
	return true
}

// CheckHTTPEndpoint 检查HTTP端点健康状态
func (m *Monitor) CheckHTTPEndpoint(ctx context.Context, component, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		m.UpdateStatus(component, StatusUnhealthy, fmt.Sprintf("创建请求失败: %v", err))
		return
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.UpdateStatus(component, StatusUnhealthy, fmt.Sprintf("HTTP请求失败: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.UpdateStatus(component, StatusDegraded, fmt.Sprintf("HTTP状态码非200: %d", resp.StatusCode))
		return
	}

	m.UpdateStatus(component, StatusHealthy, "")
}

// StartChecking 定期检查端点，ctx 取消后停止
func (m *Monitor) StartChecking(ctx context.Context, component, url string, interval time.Duration) {
	m.StartFuncChecking(ctx, component, interval, func(ctx context.Context) {
		m.CheckHTTPEndpoint(ctx, component, url)
	})
}

// CheckFunc 检查组件，check 返回错误时组件不健康
func (m *Monitor) CheckFunc(ctx context.Context, component string, check func(ctx context.Context) error) {
	if err := check(ctx); err != nil {
		m.UpdateStatus(component, StatusUnhealthy, err.Error())
		return
	}
	m.UpdateStatus(component, StatusHealthy, "")
}

// StartFuncChecking 立即执行一次 check，之后按 interval 定期执行
func (m *Monitor) StartFuncChecking(ctx context.Context, component string, interval time.Duration, check func(ctx context.Context)) {
	m.RegisterComponent(component)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check(ctx)
			}
		}
	}()
}
