package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"TrendRadar/pkg/collector"
	"TrendRadar/pkg/metrics"
	"TrendRadar/pkg/model"
	"TrendRadar/pkg/monitor"
	"TrendRadar/pkg/notifier"
)

// 健康检查组件名称
const (
	ComponentCollector = "collector"
	ComponentNotifier  = "notifier"
	ComponentNATS      = "nats"
)

// ErrUpstreamUnavailable 本轮所有交易对都未获取到K线
var ErrUpstreamUnavailable = errors.New("所有交易对获取K线失败")

var errNoBars = errors.New("未获取到K线数据")

// Enricher 为K线计算技术指标
type Enricher interface {
	Enrich(bars []model.Bar) ([]model.Bar, error)
}

// SignalStore 保存检测记录
type SignalStore interface {
	RecordCheck(symbol string, decision model.Decision)
	SaveSignal(event model.SignalEvent)
}

// Publisher 发布信号事件
type Publisher interface {
	PublishSignal(ctx context.Context, event model.SignalEvent) error
}

// Options 检测参数
type Options struct {
	Interval      string
	Limit         int
	SymbolDelay   time.Duration
	ErrorCooldown time.Duration
}

// Dependencies 监控引擎依赖，Publisher、Health、Metrics 可为空
type Dependencies struct {
	Fetcher   collector.BarFetcher
	Enricher  Enricher
	Detector  *Detector
	Notifier  notifier.Notifier
	Store     SignalStore
	Publisher Publisher
	Health    *monitor.Monitor
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Status 监控引擎运行状态
type Status struct {
	Holding    []string  `json:"holding"`
	Watch      []string  `json:"watch"`
	Symbols    []string  `json:"symbols"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
	LastRunErr string    `json:"last_run_error,omitempty"`
	Passes     int       `json:"passes"`
}

// MonitorEngine 逐个交易对执行 获取→指标→检测→通知
type MonitorEngine struct {
	deps Dependencies
	opts Options
	log  zerolog.Logger

	mu      sync.RWMutex
	holding model.SymbolSet
	watch   model.SymbolSet
	status  Status

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewMonitorEngine 创建监控引擎
func NewMonitorEngine(deps Dependencies, opts Options, holding, watch []string) *MonitorEngine {
	if deps.Detector == nil {
		deps.Detector = NewDetector(0)
	}
	e := &MonitorEngine{
		deps:  deps,
		opts:  opts,
		log:   deps.Logger.With().Str("component", "engine").Logger(),
		sleep: sleepContext,
		now:   time.Now,
	}
	e.ReloadMembership(holding, watch)
	if deps.Health != nil {
		deps.Health.RegisterComponent(ComponentCollector)
		deps.Health.RegisterComponent(ComponentNotifier)
		if deps.Publisher != nil {
			deps.Health.RegisterComponent(ComponentNATS)
		}
	}
	return e
}

// ReloadMembership 替换持仓列表和观察列表
func (e *MonitorEngine) ReloadMembership(holding, watch []string) {
	h, w := model.NewSymbolSet(holding...), model.NewSymbolSet(watch...)

	e.mu.Lock()
	e.holding, e.watch = h, w
	e.status.Holding = h.Sorted()
	e.status.Watch = w.Sorted()
	e.status.Symbols = model.Union(h, w)
	e.mu.Unlock()

	e.log.Info().Int("holding", len(h)).Int("watch", len(w)).Msg("加载配置")
}

// Status 当前运行状态
func (e *MonitorEngine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// RunDetection 执行一轮检测
//
// 单个交易对的失败只记录日志。ctx 取消、整轮异常或全部交易对都未获取到数据时返回错误。
func (e *MonitorEngine) RunDetection(ctx context.Context) (err error) {
	start := e.now()
	runID := uuid.New().String()

	e.mu.RLock()
	holding, watch := e.holding, e.watch
	e.mu.RUnlock()
	symbols := model.Union(holding, watch)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("检测异常: %v", r)
		}
		e.finishPass(runID, start, err)
	}()

	e.log.Info().Str("run_id", runID).Int("symbols", len(symbols)).Msgf("开始检测 %d 个交易对", len(symbols))

	skipped := 0
	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.processSymbol(ctx, runID, symbol, holding, watch)
		switch {
		case err == nil:
		case errors.Is(err, errNoBars):
			skipped++
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			e.log.Error().Err(err).Str("symbol", symbol).Msgf("处理%s时出错", symbol)
		}
		if i < len(symbols)-1 {
			if err := e.sleep(ctx, e.opts.SymbolDelay); err != nil {
				return err
			}
		}
	}

	if len(symbols) > 0 && skipped == len(symbols) {
		return ErrUpstreamUnavailable
	}
	return nil
}

func (e *MonitorEngine) finishPass(runID string, start time.Time, err error) {
	elapsed := e.now().Sub(start)
	// 中断的轮次不计入失败
	if e.deps.Metrics != nil && !errors.Is(err, context.Canceled) {
		e.deps.Metrics.ObservePass(elapsed, err)
	}

	e.mu.Lock()
	e.status.LastRunID = runID
	e.status.LastRunAt = start
	e.status.LastRunErr = ""
	if err != nil {
		e.status.LastRunErr = err.Error()
	} else {
		e.status.Passes++
	}
	e.mu.Unlock()

	if err == nil {
		e.log.Info().Str("run_id", runID).Dur("elapsed", elapsed).Msg("本轮检测完成")
	}
}

// processSymbol 处理单个交易对，异常转换为错误
func (e *MonitorEngine) processSymbol(ctx context.Context, runID, symbol string, holding, watch model.SymbolSet) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("处理异常: %v", r)
		}
	}()

	log := e.log.With().Str("symbol", symbol).Logger()

	bars, err := e.deps.Fetcher.FetchBars(ctx, symbol, e.opts.Interval, e.opts.Limit)
	if err != nil || len(bars) == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.observeFetchFailure(symbol, err)
		log.Warn().Err(err).Msg("未获取到K线数据，跳过")
		return errNoBars
	}
	e.updateHealth(ComponentCollector, monitor.StatusHealthy, "")

	enriched, err := e.deps.Enricher.Enrich(bars)
	if err != nil {
		log.Warn().Err(err).Msg("计算技术指标失败")
	}
	if len(enriched) == len(bars) {
		bars = enriched
	}

	decision := e.deps.Detector.Detect(bars)
	log.Info().
		Str("signal", string(decision.Signal)).
		Int("strength", decision.Strength).
		Msgf("%s: %s (强度: %d)", symbol, decision.Signal, decision.Strength)

	if e.deps.Metrics != nil {
		e.deps.Metrics.ObserveDecision(symbol, decision.Signal)
	}
	e.deps.Store.RecordCheck(symbol, decision)

	if decision.Signal == model.SignalHold {
		return nil
	}

	event := model.NewSignalEvent(runID, symbol, decision)
	if ShouldNotify(symbol, decision.Signal, holding, watch) {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.notify(ctx, &event)
	}
	e.deps.Store.SaveSignal(event)
	e.publish(ctx, event)
	return nil
}

// notify 发送信号通知并记录结果
func (e *MonitorEngine) notify(ctx context.Context, event *model.SignalEvent) {
	title, body := notifier.FormatSignal(event.Symbol, event.Decision, e.now())
	err := e.deps.Notifier.Send(ctx, title, body)
	if e.deps.Metrics != nil {
		e.deps.Metrics.ObserveNotification(err)
	}
	if err != nil {
		event.NotifyError = err.Error()
		e.updateHealth(ComponentNotifier, monitor.StatusUnhealthy, err.Error())
		e.log.Error().Err(err).Str("symbol", event.Symbol).Msg("发送通知失败")
		return
	}
	event.Notified = true
	e.updateHealth(ComponentNotifier, monitor.StatusHealthy, "")
	e.log.Info().Str("symbol", event.Symbol).Msgf("已发送%s的%s信号通知", event.Symbol, event.Decision.Signal)
}

func (e *MonitorEngine) publish(ctx context.Context, event model.SignalEvent) {
	if e.deps.Publisher == nil {
		return
	}
	if err := e.deps.Publisher.PublishSignal(ctx, event); err != nil {
		e.updateHealth(ComponentNATS, monitor.StatusUnhealthy, err.Error())
		e.log.Warn().Err(err).Str("symbol", event.Symbol).Msg("发布信号事件失败")
		return
	}
	e.updateHealth(ComponentNATS, monitor.StatusHealthy, "")
}

func (e *MonitorEngine) observeFetchFailure(symbol string, err error) {
	if e.deps.Metrics != nil {
		e.deps.Metrics.ObserveFetchFailure(symbol)
	}
	msg := "未返回K线数据"
	if err != nil {
		msg = err.Error()
	}
	e.updateHealth(ComponentCollector, monitor.StatusDegraded, msg)
}

func (e *MonitorEngine) updateHealth(component, status, message string) {
	if e.deps.Health != nil {
		e.deps.Health.UpdateStatus(component, status, message)
	}
}

// StartMonitoring 按间隔持续检测，直到 ctx 取消
//
// 一轮检测失败后等待 ErrorCooldown 再继续。
func (e *MonitorEngine) StartMonitoring(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("检测间隔必须大于0: %s", interval)
	}
	e.log.Info().Dur("interval", interval).Msgf("开始监控，检测间隔: %d秒", int(interval.Seconds()))

	for {
		wait := interval
		if err := e.RunDetection(ctx); err != nil {
			if ctx.Err() != nil {
				e.log.Info().Msg("监控已停止")
				return nil
			}
			e.log.Error().Err(err).Msg("监控过程出错")
			wait = e.opts.ErrorCooldown
		} else {
			e.log.Info().Msgf("等待 %d 秒后进行下一次检测...", int(wait.Seconds()))
		}

		if err := e.sleep(ctx, wait); err != nil {
			e.log.Info().Msg("监控已停止")
			return nil
		}
	}
}

// sleepContext 等待 d，ctx 取消时提前返回
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
