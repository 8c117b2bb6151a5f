// Package app 根据配置组装检测服务
package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"TrendRadar/pkg/api"
	"TrendRadar/pkg/collector"
	"TrendRadar/pkg/config"
	"TrendRadar/pkg/engine"
	"TrendRadar/pkg/indicator"
	"TrendRadar/pkg/logger"
	"TrendRadar/pkg/messaging"
	"TrendRadar/pkg/metrics"
	"TrendRadar/pkg/monitor"
	"TrendRadar/pkg/notifier"
	"TrendRadar/pkg/repository"
	"TrendRadar/pkg/scheduler"
)

const (
	defaultBinanceURL   = "https://api.binance.com"
	componentBinance    = "binance"
	healthCheckInterval = time.Minute
)

var errNATSDisconnected = errors.New("NATS连接已断开")

// App 检测服务
type App struct {
	cfg        *config.Config
	configPath string
	root       zerolog.Logger
	log        zerolog.Logger

	engine    *engine.MonitorEngine
	signals   *repository.SignalRepository
	health    *monitor.Monitor
	metrics   *metrics.Metrics
	notifier  *notifier.Fallback
	nats      *messaging.NATSClient
	scheduler *scheduler.Scheduler
}

// New 创建检测服务
//
// NATS 不可用时只记录警告，信号仍会通知。
func New(cfg *config.Config, configPath string, log zerolog.Logger) *App {
	a := &App{
		cfg:        cfg,
		configPath: configPath,
		root:       log,
		log:        logger.Component(log, "app"),
		signals:    repository.NewSignalRepository(0),
		metrics:    metrics.New(),
	}

	a.health = monitor.NewMonitor(func(component, status, message string) {
		a.log.Warn().Str("target", component).Str("status", status).Msgf("告警: 组件[%s]状态变为[%s], 消息: %s", component, status, message)
	})

	a.notifier = notifier.FromConfig(notifierConfig(cfg), logger.Component(log, "notifier"))
	if len(a.notifier.Channels()) == 0 {
		a.log.Warn().Msg("未配置任何通知渠道")
	}

	deps := engine.Dependencies{
		Fetcher: collector.NewBinanceFetcher(cfg.Market.BaseURL),
		Enricher: indicator.NewCalculator(indicator.Params{
			RSIPeriod:      cfg.Indicators.RSIPeriod,
			MAShort:        cfg.Indicators.MAShort,
			MALong:         cfg.Indicators.MALong,
			VolumeMAPeriod: cfg.Indicators.VolumeMAPeriod,
		}),
		Detector: engine.NewDetector(cfg.NotificationSettings.MinSignalStrength),
		Notifier: a.notifier,
		Store:    a.signals,
		Health:   a.health,
		Metrics:  a.metrics,
		Logger:   log,
	}

	if cfg.NATS.URL != "" {
		client, err := messaging.NewNATSClient(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger.Component(log, "nats"))
		if err != nil {
			a.log.Warn().Err(err).Msg("连接NATS失败，不发布信号事件")
		} else {
			a.nats = client
			deps.Publisher = client
		}
	}

	a.engine = engine.NewMonitorEngine(deps, engine.Options{
		Interval:      cfg.Market.Interval,
		Limit:         cfg.Market.Limit,
		SymbolDelay:   cfg.Market.SymbolDelay,
		ErrorCooldown: cfg.Market.ErrorCooldown,
	}, cfg.HoldingList, cfg.WatchList)

	a.scheduler = scheduler.NewScheduler(a.signals, a.notifier, a.Reload, log)
	return a
}

func notifierConfig(cfg *config.Config) notifier.Config {
	n := cfg.Notifier
	return notifier.Config{
		WeCom: notifier.WeComConfig{
			BaseURL:    n.WeCom.BaseURL,
			CorpID:     n.WeCom.CorpID,
			CorpSecret: n.WeCom.CorpSecret,
			AgentID:    n.WeCom.AgentID,
			ToUser:     n.WeCom.ToUser,
		},
		ServerChanURL: n.ServerChan.BaseURL,
		ServerChanKey: n.ServerChan.Key,
		Email: notifier.EmailConfig{
			SMTPServer: n.Email.SMTPServer,
			SMTPPort:   n.Email.SMTPPort,
			Username:   n.Email.Username,
			Password:   n.Email.Password,
			To:         n.Email.To,
		},
	}
}

// Engine 监控引擎
func (a *App) Engine() *engine.MonitorEngine {
	return a.engine
}

// Signals 信号记录
func (a *App) Signals() *repository.SignalRepository {
	return a.signals
}

// Reload 重新读取配置文件中的持仓列表和观察列表
func (a *App) Reload() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.engine.ReloadMembership(cfg.HoldingList, cfg.WatchList)
	return nil
}

// RunOnce 执行一轮检测
func (a *App) RunOnce(ctx context.Context) error {
	return a.engine.RunDetection(ctx)
}

// Monitor 启动后台服务并持续检测，直到 ctx 取消
func (a *App) Monitor(ctx context.Context, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.scheduler.Start(a.cfg.Schedule.DailySummary, a.cfg.Schedule.ConfigReload); err != nil {
		return err
	}
	defer a.scheduler.Stop()

	a.health.StartChecking(ctx, componentBinance, pingURL(a.cfg.Market.BaseURL), healthCheckInterval)
	if a.nats != nil {
		a.health.StartFuncChecking(ctx, engine.ComponentNATS, healthCheckInterval, func(ctx context.Context) {
			a.health.CheckFunc(ctx, engine.ComponentNATS, natsCheck(a.nats))
		})
	}

	var wg sync.WaitGroup
	if a.cfg.API.Port != "" {
		server := api.NewServer(a.cfg.API.Port, a.root)
		server.SetupRoutes(api.NewHandlers(a.engine, a.signals, a.health, a.metrics.Handler()))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Start(ctx); err != nil {
				a.log.Error().Err(err).Msg("API服务器异常退出")
			}
		}()
	}

	err := a.engine.StartMonitoring(ctx, interval)
	cancel()
	wg.Wait()
	return err
}

// Close 释放连接
func (a *App) Close() error {
	if a.nats == nil {
		return nil
	}
	return a.nats.Close()
}

// natsCheck 检查NATS连接状态
func natsCheck(client interface{ IsConnected() bool }) func(context.Context) error {
	return func(context.Context) error {
		if !client.IsConnected() {
			return errNATSDisconnected
		}
		return nil
	}
}

func pingURL(baseURL string) string {
	if baseURL == "" {
		baseURL = defaultBinanceURL
	}
	return strings.TrimRight(baseURL, "/") + "/api/v3/ping"
}
