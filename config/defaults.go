package config

import (
	"time"

	"github.com/BaSui01/textscore/internal/cache"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/metric/remote"
)

// DefaultConfig 返回一份可独立修改的默认配置：只有 wer 在进程内可用，
// 报告保存在内存中，缓存与遥测关闭。
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Scoring:   DefaultScoringConfig(),
		Remote:    remote.DefaultConfig(),
		Cache:     CacheConfig{Redis: cache.DefaultConfig()},
		Database:  DefaultDatabaseConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    2 * time.Minute,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		MaxBodyBytes:    10 << 20,
		RateLimitRPS:    50,
		RateLimitBurst:  100,
	}
}

// DefaultScoringConfig 指标顺序沿用评测脚本：rouge、chrf、bertscore、bleurt、bleu、meteor
func DefaultScoringConfig() ScoringConfig {
	remoteKinds := make([]string, 0, 6)
	for _, k := range metric.AllKinds() {
		if k != metric.KindWER {
			remoteKinds = append(remoteKinds, k.String())
		}
	}
	return ScoringConfig{
		DefaultMetrics: []string{"rouge", "chrf", "bertscore", "bleurt", "bleu", "meteor"},
		RemoteMetrics:  remoteKinds,
		Concurrency:    4,
		MaxPairs:       10_000,
		Params:         metric.DefaultParams(),
	}
}

// DefaultDatabaseConfig driver 为 memory 时其余字段不生效
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "memory",
		Host:            "localhost",
		Port:            5432,
		User:            "textscore",
		Name:            "textscore",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		OutputPaths:  []string{"stdout"},
		EnableCaller: true,
	}
}

func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "textscore",
		SampleRate:   0.1,
	}
}
