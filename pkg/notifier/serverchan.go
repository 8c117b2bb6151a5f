package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ServerChanNotifier Server酱推送
type ServerChanNotifier struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewServerChanNotifier 创建Server酱通知
func NewServerChanNotifier(baseURL, key string) *ServerChanNotifier {
	if baseURL == "" {
		baseURL = "https://sctapi.ftqq.com"
	}
	return &ServerChanNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  newHTTPClient(),
	}
}

type serverChanResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send 以表单方式推送 title 和 desp
func (n *ServerChanNotifier) Send(ctx context.Context, title, body string) error {
	form := url.Values{}
	form.Set("title", title)
	form.Set("desp", body)

	endpoint := fmt.Sprintf("%s/%s.send", n.baseURL, url.PathEscape(n.key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("serverchan: 创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var result serverChanResult
	if err := doJSON(n.client, req, &result); err != nil {
		return fmt.Errorf("serverchan: 发送消息失败: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("serverchan: 发送消息失败: code=%d message=%s", result.Code, result.Message)
	}
	return nil
}
