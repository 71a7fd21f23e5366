package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Auth      AuthConfig      `json:"auth"`
	Pricing   PricingConfig   `json:"pricing"`
	Kafka     KafkaConfig     `json:"kafka"`
	Consul    ConsulConfig    `json:"consul"`
	Jaeger    JaegerConfig    `json:"jaeger"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Log       LogConfig       `json:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name string `json:"name"` // 服务名称
	Host string `json:"host"` // 监听地址
	Port int    `json:"port"` // HTTP 端口
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	MaxIdle  int    `json:"max_idle"`
	MaxOpen  int    `json:"max_open"`
}

// AuthConfig JWT 鉴权配置
type AuthConfig struct {
	Enabled   bool   `json:"enabled"`
	JWTSecret string `json:"jwt_secret"`
	Issuer    string `json:"issuer"`
	Audience  string `json:"audience"`
	// 免鉴权路径（method + path），例如 "POST /api/v1/auth/login"
	PublicPaths []string `json:"public_paths"`
}

// PricingConfig 计价策略配置。税率用基点表示避免小数精度问题。
type PricingConfig struct {
	TaxRateBps       int64 `json:"tax_rate_bps"`       // 1000 = 10%
	DeliveryFeeCents int64 `json:"delivery_fee_cents"` // 500 = 5.00
}

// KafkaConfig Kafka 配置（状态流转事件，可选）
type KafkaConfig struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// ConsulConfig Consul 配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig Jaeger 配置
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // 采样率 0.0-1.0
}

// RateLimitConfig 入口限流配置
type RateLimitConfig struct {
	Enabled    bool  `json:"enabled"`
	Capacity   int64 `json:"capacity"`    // 令牌桶容量
	RefillRate int64 `json:"refill_rate"` // 每秒补充令牌数
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // 日志文件路径
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		globalConfig = &Config{}
		// 配置文件不存在时退回默认配置
		if _, err = os.Stat(configPath); os.IsNotExist(err) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			err = nil
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		if unmarshalErr := json.Unmarshal(data, globalConfig); unmarshalErr != nil {
			err = fmt.Errorf("failed to parse config file: %w", unmarshalErr)
			return
		}
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "order-service",
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "oasis_tides",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Auth: AuthConfig{
			Enabled:   true,
			JWTSecret: "dev-secret-change-me",
			Issuer:    "oasis-tides",
			Audience:  "oasis-tides",
			PublicPaths: []string{
				"POST /api/v1/auth/register",
				"POST /api/v1/auth/login",
				"GET /api/v1/menu",
				"GET /healthz",
			},
		},
		Pricing: PricingConfig{
			TaxRateBps:       1000, // 10%
			DeliveryFeeCents: 500,  // 5.00
		},
		Kafka: KafkaConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "order-status-events",
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "localhost:6831",
			Sampler:  1.0,
		},
		RateLimit: RateLimitConfig{
			Enabled:    true,
			Capacity:   200,
			RefillRate: 100,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/app.log",
		},
	}
}
