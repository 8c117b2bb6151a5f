// Package notifier 交易信号通知渠道：企业微信、Server酱、邮件
package notifier

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNoChannel 没有可用的通知渠道
var ErrNoChannel = errors.New("未配置任何通知渠道")

// Notifier 通知渠道
type Notifier interface {
	// Send 发送一条通知，失败时返回错误
	Send(ctx context.Context, title, body string) error
}

const defaultTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
