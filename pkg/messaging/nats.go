// Package messaging 基于 NATS JetStream 发布和订阅信号事件
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"TrendRadar/pkg/model"
)

// SignalStream 信号事件流名称
const SignalStream = "SIGNALS_STREAM"

type messageHandler func(data []byte) error

// NATSClient NATS JetStream客户端
type NATSClient struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	prefix    string
	log       zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	consumers map[string]jetstream.ConsumeContext
}

// NewNATSClient 连接NATS并创建信号事件流
func NewNATSClient(natsURL, prefix string, log zerolog.Logger) (*NATSClient, error) {
	if prefix == "" {
		prefix = "signals"
	}
	nc, err := nats.Connect(natsURL,
		nats.Name("trendradar"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS连接断开")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &NATSClient{
		conn:      nc,
		jetStream: js,
		prefix:    prefix,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		consumers: make(map[string]jetstream.ConsumeContext),
	}

	if err := client.setupStream(ctx); err != nil {
		log.Warn().Err(err).Msg("设置Stream失败")
	}
	return client, nil
}

// setupStream 创建或更新信号事件流
func (c *NATSClient) setupStream(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:        SignalStream,
		Subjects:    []string{c.prefix + ".*"},
		Description: "交易信号事件流",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     50000,
		MaxBytes:    50 * 1024 * 1024,
		MaxAge:      7 * 24 * time.Hour,
	}
	if _, err := c.jetStream.CreateOrUpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("创建/更新Stream %s 失败: %w", cfg.Name, err)
	}
	c.log.Info().Str("stream", cfg.Name).Msg("Stream 设置成功")
	return nil
}

// SubjectFor 交易对对应的主题
func SubjectFor(prefix, symbol string) string {
	return prefix + "." + strings.ToUpper(symbol)
}

// PublishSignal 发布信号事件到 <prefix>.<symbol>
func (c *NATSClient) PublishSignal(ctx context.Context, event model.SignalEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化信号事件失败: %w", err)
	}
	subject := SubjectFor(c.prefix, event.Symbol)
	if _, err := c.jetStream.Publish(ctx, subject, payload, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", subject, err)
	}
	c.log.Debug().Str("subject", subject).Int("bytes", len(payload)).Msg("发布信号事件")
	return nil
}

// SubscribeSignals 订阅信号事件，symbol 为空时订阅全部
func (c *NATSClient) SubscribeSignals(consumerName, symbol string, handler func(model.SignalEvent) error) error {
	filter := c.prefix + ".*"
	if symbol != "" {
		filter = SubjectFor(c.prefix, symbol)
	}
	return c.subscribe(SignalStream, consumerName, filter, func(data []byte) error {
		var event model.SignalEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("解析信号事件失败: %w", err)
		}
		return handler(event)
	})
}

// subscribe 订阅指定主题的消息
func (c *NATSClient) subscribe(streamName, consumerName, filterSubject string, handler messageHandler) error {
	consumer, err := c.jetStream.CreateOrUpdateConsumer(c.ctx, streamName, jetstream.ConsumerConfig{
		Name:          consumerName,
		Description:   fmt.Sprintf("%s 消费者", consumerName),
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return fmt.Errorf("创建消费者 %s 失败: %w", consumerName, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error().Interface("panic", r).Str("consumer", consumerName).Msg("处理消息异常")
				msg.Nak()
			}
		}()
		if err := handler(msg.Data()); err != nil {
			c.log.Warn().Err(err).Str("consumer", consumerName).Msg("处理消息失败")
			msg.Nak()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("启动消费者 %s 失败: %w", consumerName, err)
	}

	c.mu.Lock()
	c.consumers[consumerName] = cc
	c.mu.Unlock()

	c.log.Info().Str("stream", streamName).Str("consumer", consumerName).Str("filter", filterSubject).Msg("已订阅")
	return nil
}

// IsConnected 检查连接状态
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close 停止消费者并关闭连接
func (c *NATSClient) Close() error {
	c.cancel()

	c.mu.Lock()
	for name, cc := range c.consumers {
		cc.Stop()
		delete(c.consumers, name)
	}
	c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	if err := c.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		c.conn.Close()
		return fmt.Errorf("关闭NATS连接失败: %w", err)
	}
	c.log.Info().Msg("NATS连接已关闭")
	return nil
}
