package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Channel 带名称的通知渠道
type Channel struct {
	Name     string
	Notifier Notifier
}

// Fallback 按顺序尝试各渠道，第一个成功即返回
type Fallback struct {
	channels []Channel
	log      zerolog.Logger
}

// NewFallback 创建降级通知链
func NewFallback(log zerolog.Logger, channels ...Channel) *Fallback {
	return &Fallback{channels: channels, log: log}
}

// Config 渠道配置，未配置的渠道不会加入通知链
type Config struct {
	WeCom         WeComConfig
	ServerChanURL string
	ServerChanKey string
	Email         EmailConfig
}

// FromConfig 按 企业微信 → Server酱 → 邮件 的顺序创建通知链
func FromConfig(cfg Config, log zerolog.Logger) *Fallback {
	var channels []Channel
	if cfg.WeCom.Configured() {
		channels = append(channels, Channel{Name: "wecom", Notifier: NewWeComNotifier(cfg.WeCom)})
	}
	if cfg.ServerChanKey != "" {
		channels = append(channels, Channel{Name: "serverchan", Notifier: NewServerChanNotifier(cfg.ServerChanURL, cfg.ServerChanKey)})
	}
	if cfg.Email.Configured() {
		channels = append(channels, Channel{Name: "email", Notifier: NewEmailNotifier(cfg.Email)})
	}
	return NewFallback(log, channels...)
}

// Channels 已启用的渠道名称
func (f *Fallback) Channels() []string {
	names := make([]string, 0, len(f.channels))
	for _, ch := range f.channels {
		names = append(names, ch.Name)
	}
	return names
}

// Send 依次尝试各渠道
func (f *Fallback) Send(ctx context.Context, title, body string) error {
	if len(f.channels) == 0 {
		return ErrNoChannel
	}

	var errs []error
	for _, ch := range f.channels {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := ch.Notifier.Send(ctx, title, body)
		if err == nil {
			f.log.Info().Str("channel", ch.Name).Str("title", title).Msg("通知发送成功")
			return nil
		}
		f.log.Warn().Err(err).Str("channel", ch.Name).Msg("通知发送失败，尝试下一个渠道")
		errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
	}
	return fmt.Errorf("所有通知渠道均失败: %w", errors.Join(errs...))
}
