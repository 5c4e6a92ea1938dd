package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/textscore/internal/cache"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/metric/remote"
)

// Config 是 TextScore 的完整配置结构
type Config struct {
	// Server HTTP 服务配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Scoring 评测默认值
	Scoring ScoringConfig `yaml:"scoring" env:"SCORING"`

	// Remote 远程评测服务
	Remote remote.Config `yaml:"remote" env:"REMOTE"`

	// Cache 分数缓存
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Database 报告存储
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// 0 表示不单独暴露 /metrics
	MetricsPort     int           `yaml:"metrics_port" env:"METRICS_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 请求体上限（字节）
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	// 按客户端 IP 限流，RPS <= 0 表示关闭
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// X-API-Key 白名单，为空时不校验
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
}

// ScoringConfig 评测默认值
type ScoringConfig struct {
	// 请求未指定 metrics 时使用
	DefaultMetrics []string `yaml:"default_metrics" env:"DEFAULT_METRICS"`
	// 交给远程服务的指标，wer 始终在进程内计算
	RemoteMetrics []string `yaml:"remote_metrics" env:"REMOTE_METRICS"`
	// 同时调用的协作方数量，0 表示不限制
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
	// 单次请求的句对上限，0 表示不限制
	MaxPairs int `yaml:"max_pairs" env:"MAX_PAIRS"`
	// 协作方超参数默认值
	Params metric.Params `yaml:"params" env:"PARAMS"`
}

// CacheConfig 分数缓存配置
type CacheConfig struct {
	Enabled bool         `yaml:"enabled" env:"ENABLED"`
	Redis   cache.Config `yaml:"redis" env:"REDIS"`
}

// DatabaseConfig 报告存储配置
type DatabaseConfig struct {
	// 驱动类型: memory, postgres, mysql, sqlite
	Driver   string `yaml:"driver" env:"DRIVER"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名，sqlite 下为文件路径
	Name    string `yaml:"name" env:"NAME"`
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`

	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.HTTPPort {
		errs = append(errs, "metrics port must differ from HTTP port")
	}

	kinds, err := metric.ParseKinds(c.Scoring.DefaultMetrics)
	if err != nil {
		errs = append(errs, "scoring.default_metrics: "+err.Error())
	}
	if _, err := metric.ParseKinds(c.Scoring.RemoteMetrics); err != nil {
		errs = append(errs, "scoring.remote_metrics: "+err.Error())
	}
	for _, k := range kinds {
		if err := c.Scoring.Params.Validate(k); err != nil {
			errs = append(errs, "scoring.params: "+err.Error())
		}
	}
	if c.Scoring.Concurrency < 0 {
		errs = append(errs, "scoring.concurrency must be non-negative")
	}

	switch c.Database.Driver {
	case "", "memory", "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("unsupported database driver: %s", c.Database.Driver))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level: %s", c.Log.Level))
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}

// Persistent 判断报告是否落库
func (d *DatabaseConfig) Persistent() bool {
	return d.Driver != "" && d.Driver != "memory"
}
