package notifier

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// EmailConfig SMTP邮件配置
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	To         string
}

// Configured 是否配置了邮件
func (c EmailConfig) Configured() bool {
	return c.SMTPServer != "" && c.Username != "" && c.To != ""
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier 邮件通知
type EmailNotifier struct {
	cfg      EmailConfig
	sendMail sendMailFunc
}

// NewEmailNotifier 创建邮件通知
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	return &EmailNotifier{cfg: cfg, sendMail: smtp.SendMail}
}

// Send 发送纯文本邮件，服务器支持时使用 STARTTLS
func (n *EmailNotifier) Send(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.SMTPServer, strconv.Itoa(n.cfg.SMTPPort))
	var auth smtp.Auth
	if n.cfg.Password != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPServer)
	}

	msg := buildMail(n.cfg.Username, n.cfg.To, title, body)
	if err := n.sendMail(addr, auth, n.cfg.Username, []string{n.cfg.To}, msg); err != nil {
		return fmt.Errorf("email: 发送邮件失败: %w", err)
	}
	return nil
}

func buildMail(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.BEncoding.Encode("UTF-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
