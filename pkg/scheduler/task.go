// Package scheduler 定时任务：每日总结、配置重载
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"TrendRadar/pkg/model"
	"TrendRadar/pkg/notifier"
)

// SummarySource 每日统计来源
type SummarySource interface {
	Summary() model.DailySummary
	Reset()
}

// Scheduler 任务调度器
type Scheduler struct {
	cron     *cron.Cron
	summary  SummarySource
	notifier notifier.Notifier
	reload   func() error
	log      zerolog.Logger
	timeout  time.Duration
}

// NewScheduler 创建任务调度器，reload 可为空
func NewScheduler(summary SummarySource, n notifier.Notifier, reload func() error, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger{log}))),
		summary:  summary,
		notifier: n,
		reload:   reload,
		log:      log,
		timeout:  30 * time.Second,
	}
}

// Start 注册任务并启动调度器，表达式为空的任务不注册
func (s *Scheduler) Start(dailySummaryExpr, configReloadExpr string) error {
	if dailySummaryExpr != "" {
		if _, err := s.cron.AddFunc(dailySummaryExpr, s.runDailySummary); err != nil {
			return fmt.Errorf("注册每日总结任务失败: %w", err)
		}
	}
	if configReloadExpr != "" && s.reload != nil {
		if _, err := s.cron.AddFunc(configReloadExpr, s.runConfigReload); err != nil {
			return fmt.Errorf("注册配置重载任务失败: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("调度器已启动")
	return nil
}

// Stop 停止调度器并等待运行中的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// SendDailySummary 发送每日总结并清空当日统计
func (s *Scheduler) SendDailySummary(ctx context.Context) error {
	title, body := notifier.FormatDailySummary(s.summary.Summary())
	if err := s.notifier.Send(ctx, title, body); err != nil {
		return fmt.Errorf("发送每日总结失败: %w", err)
	}
	s.summary.Reset()
	return nil
}

func (s *Scheduler) runDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.SendDailySummary(ctx); err != nil {
		s.log.Error().Err(err).Msg("每日总结任务失败")
		return
	}
	s.log.Info().Msg("已发送每日总结")
}

func (s *Scheduler) runConfigReload() {
	if err := s.reload(); err != nil {
		s.log.Error().Err(err).Msg("重新加载配置失败")
		return
	}
	s.log.Debug().Msg("配置已重新加载")
}

// cronLogger 将 cron 内部日志写入 zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
