// trendradar 币安趋势反转检测
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"TrendRadar/pkg/app"
	"TrendRadar/pkg/config"
	"TrendRadar/pkg/logger"
	"TrendRadar/pkg/messaging"
	"TrendRadar/pkg/model"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "trendradar",
		Short: "币安趋势反转检测系统",
		Long: `trendradar 定期获取币安K线，计算技术指标并检测趋势反转信号，
根据持仓列表和观察列表发送买入/卖出通知。`,
		SilenceUsage: true,
		RunE:         runInteractive,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.GetDefaultConfigPath(), "配置文件路径")

	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(tailCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup 加载配置并创建日志，.env 中的密钥会覆盖配置文件
func setup() (*config.Config, zerolog.Logger, error) {
	_ = godotenv.Load()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("加载配置失败: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, log, nil
}

// signalContext 收到 SIGINT/SIGTERM 时取消
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	choice, err := app.Prompt(os.Stdin, os.Stdout, cfg.CheckInterval())
	if errors.Is(err, app.ErrInvalidChoice) {
		return nil
	}
	if err != nil {
		return err
	}

	switch choice.Mode {
	case app.ModeOnce:
		return runOnce(cfg, log)
	default:
		return runMonitor(cfg, log, choice.Interval)
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "执行一次检测后退出",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			return runOnce(cfg, log)
		},
	}
}

func monitorCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "持续监控，直到收到中断信号",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = cfg.CheckInterval()
			}
			return runMonitor(cfg, log, interval)
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "检测间隔，默认使用配置中的 check_interval")
	return cmd
}

func tailCmd() *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "订阅NATS上的信号事件并打印",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if cfg.NATS.URL == "" {
				return errors.New("未配置NATS地址")
			}

			client, err := messaging.NewNATSClient(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger.Component(log, "nats"))
			if err != nil {
				return err
			}
			defer client.Close()

			err = client.SubscribeSignals("trendradar-tail", symbol, func(event model.SignalEvent) error {
				log.Info().
					Str("symbol", event.Symbol).
					Str("signal", string(event.Decision.Signal)).
					Int("strength", event.Decision.Strength).
					Bool("notified", event.Notified).
					Strs("reasons", event.Decision.Reasons).
					Msgf("%s: %s (强度: %d)", event.Symbol, event.Decision.Signal, event.Decision.Strength)
				return nil
			})
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "只订阅指定交易对")
	return cmd
}

func runOnce(cfg *config.Config, log zerolog.Logger) error {
	a := app.New(cfg, configPath, log)
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	if err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runMonitor(cfg *config.Config, log zerolog.Logger, interval time.Duration) error {
	a := app.New(cfg, configPath, log)
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	return a.Monitor(ctx, interval)
}
