package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// WeComConfig 企业微信应用配置
type WeComConfig struct {
	BaseURL    string
	CorpID     string
	CorpSecret string
	AgentID    int64
	ToUser     string
}

// Configured 是否配置了企业微信
func (c WeComConfig) Configured() bool {
	return c.CorpID != "" && c.CorpSecret != ""
}

// tokenMargin 令牌提前失效的时间
const tokenMargin = 60 * time.Second

// WeComNotifier 企业微信应用消息
//
// access_token 在进程内缓存，过期后由下一次发送刷新。
type WeComNotifier struct {
	cfg    WeComConfig
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewWeComNotifier 创建企业微信通知
func NewWeComNotifier(cfg WeComConfig) *WeComNotifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://qyapi.weixin.qq.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ToUser == "" {
		cfg.ToUser = "@all"
	}
	return &WeComNotifier{cfg: cfg, client: newHTTPClient(), now: time.Now}
}

type tokenResponse struct {
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type wecomText struct {
	Content string `json:"content"`
}

type wecomMessage struct {
	ToUser  string    `json:"touser"`
	MsgType string    `json:"msgtype"`
	AgentID int64     `json:"agentid"`
	Text    wecomText `json:"text"`
	Safe    int       `json:"safe"`
}

type wecomResult struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Send 发送文本消息
func (n *WeComNotifier) Send(ctx context.Context, title, body string) error {
	token, err := n.accessToken(ctx)
	if err != nil {
		return err
	}

	msg := wecomMessage{
		ToUser:  n.cfg.ToUser,
		MsgType: "text",
		AgentID: n.cfg.AgentID,
		Text:    wecomText{Content: title + "\n\n" + body},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("wecom: 序列化消息失败: %w", err)
	}

	endpoint := n.cfg.BaseURL + "/cgi-bin/message/send?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("wecom: 创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result wecomResult
	if err := doJSON(n.client, req, &result); err != nil {
		return fmt.Errorf("wecom: 发送消息失败: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("wecom: 发送消息失败: errcode=%d errmsg=%s", result.ErrCode, result.ErrMsg)
	}
	return nil
}

// accessToken 返回缓存的令牌，过期时重新获取
func (n *WeComNotifier) accessToken(ctx context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.token != "" && n.now().Before(n.expiresAt) {
		return n.token, nil
	}

	query := url.Values{}
	query.Set("corpid", n.cfg.CorpID)
	query.Set("corpsecret", n.cfg.CorpSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.cfg.BaseURL+"/cgi-bin/gettoken?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("wecom: 创建请求失败: %w", err)
	}

	var resp tokenResponse
	if err := doJSON(n.client, req, &resp); err != nil {
		return "", fmt.Errorf("wecom: 获取access_token失败: %w", err)
	}
	if resp.ErrCode != 0 || resp.AccessToken == "" {
		return "", fmt.Errorf("wecom: 获取access_token失败: errcode=%d errmsg=%s", resp.ErrCode, resp.ErrMsg)
	}

	n.token = resp.AccessToken
	n.expiresAt = n.now().Add(time.Duration(resp.ExpiresIn)*time.Second - tokenMargin)
	return n.token, nil
}

// doJSON 执行请求并解析JSON响应
func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
