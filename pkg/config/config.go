package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile 默认配置文件名
const DefaultConfigFile = "trading_config.yaml"

// Config 应用配置
type Config struct {
	HoldingList []string `yaml:"holding_list" validate:"dive,required,alphanum"`
	WatchList   []string `yaml:"watch_list" validate:"dive,required,alphanum"`

	NotificationSettings struct {
		MinSignalStrength int `yaml:"min_signal_strength" default:"4" validate:"gte=0"`
		CheckInterval     int `yaml:"check_interval" default:"300" validate:"gt=0"` // 秒
	} `yaml:"notification_settings"`

	Market struct {
		BaseURL       string        `yaml:"base_url"`
		Interval      string        `yaml:"interval" default:"1h" validate:"oneof=1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
		Limit         int           `yaml:"limit" default:"100" validate:"gte=30,lte=1000"`
		SymbolDelay   time.Duration `yaml:"symbol_delay" default:"500ms" validate:"gte=0"`
		ErrorCooldown time.Duration `yaml:"error_cooldown" default:"60s" validate:"gt=0"`
	} `yaml:"market"`

	Indicators struct {
		RSIPeriod      int `yaml:"rsi_period" default:"14" validate:"gt=1"`
		MAShort        int `yaml:"ma_short" default:"9" validate:"gt=0"`
		MALong         int `yaml:"ma_long" default:"21" validate:"gtfield=MAShort"`
		VolumeMAPeriod int `yaml:"volume_ma_period" default:"20" validate:"gt=0"`
	} `yaml:"indicators"`

	Notifier struct {
		WeCom struct {
			BaseURL    string `yaml:"base_url" default:"https://qyapi.weixin.qq.com"`
			CorpID     string `yaml:"corp_id"`
			CorpSecret string `yaml:"corp_secret"`
			AgentID    int64  `yaml:"agent_id"`
			ToUser     string `yaml:"to_user" default:"@all"`
		} `yaml:"wecom"`

		ServerChan struct {
			BaseURL string `yaml:"base_url" default:"https://sctapi.ftqq.com"`
			Key     string `yaml:"server_chan_key"`
		} `yaml:"serverchan"`

		Email struct {
			SMTPServer string `yaml:"smtp_server"`
			SMTPPort   int    `yaml:"smtp_port" default:"587"`
			Username   string `yaml:"email" validate:"omitempty,email"`
			Password   string `yaml:"password"`
			To         string `yaml:"to_email" validate:"omitempty,email"`
		} `yaml:"email"`
	} `yaml:"notifier"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix" default:"signals"`
	} `yaml:"nats"`

	API struct {
		Port string `yaml:"port"`
	} `yaml:"api"`

	Schedule struct {
		DailySummary string `yaml:"daily_summary" default:"0 0 21 * * *"`
		ConfigReload string `yaml:"config_reload" default:"0 */10 * * * *"`
	} `yaml:"schedule"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
}

var validate = validator.New()

// DefaultConfig 首次运行时写入的默认配置
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("设置默认配置失败: %v", err))
	}
	cfg.HoldingList = []string{"BTCUSDT", "ETHUSDT"}
	cfg.WatchList = []string{"BTCUSDT", "ETHUSDT", "ADAUSDT", "DOTUSDT", "LINKUSDT"}
	return cfg
}

// LoadConfig 从文件加载配置，文件不存在时先写入默认配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := WriteConfig(path, DefaultConfig()); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// 环境变量覆盖
	overrideFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Parse 解析YAML配置，未出现的字段使用默认值
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("设置默认配置失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &config, nil
}

// WriteConfig 将配置写入文件
func WriteConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

// CheckInterval 持续监控的默认检测间隔
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.NotificationSettings.CheckInterval) * time.Second
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	if env := os.Getenv("BINANCE_BASE_URL"); env != "" {
		config.Market.BaseURL = env
	}

	// 企业微信
	if env := os.Getenv("WECOM_CORP_ID"); env != "" {
		config.Notifier.WeCom.CorpID = env
	}
	if env := os.Getenv("WECOM_CORP_SECRET"); env != "" {
		config.Notifier.WeCom.CorpSecret = env
	}
	if env := os.Getenv("WECOM_AGENT_ID"); env != "" {
		if id, err := strconv.ParseInt(env, 10, 64); err == nil {
			config.Notifier.WeCom.AgentID = id
		}
	}

	if env := os.Getenv("SERVERCHAN_KEY"); env != "" {
		config.Notifier.ServerChan.Key = env
	}
	if env := os.Getenv("SMTP_PASSWORD"); env != "" {
		config.Notifier.Email.Password = env
	}

	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		config.Log.Level = env
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return DefaultConfigFile
}
