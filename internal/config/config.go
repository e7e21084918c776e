// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceConfig holds process identity and listen addresses.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// GatewayConfig holds the transcription gateway connection settings.
type GatewayConfig struct {
	URL            string
	LanguageCode   string
	TargetRate     int
	ConnectTimeout time.Duration
}

// AnalysisConfig holds the remote analysis backend settings.
type AnalysisConfig struct {
	BaseURL      string
	LiveTextPath string
	Timeout      time.Duration
}

// CaptureConfig holds microphone capture settings.
type CaptureConfig struct {
	BlockSize int
}

// SchedulerConfig holds re-analysis scheduling settings.
type SchedulerConfig struct {
	Interval  time.Duration
	MinLength int
}

// UploadConfig holds the presigned-upload issuer settings.
type UploadConfig struct {
	IssuerURL string
	Timeout   time.Duration
}

// KafkaConfig holds the audit event publisher settings.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicPartial string
	TopicFinal   string
	TopicReports string
	Principal    string
}

// ObservabilityConfig holds metrics/logging settings.
type ObservabilityConfig struct {
	MetricsPort string
	LogLevel    string
}

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	Gateway       GatewayConfig
	Analysis      AnalysisConfig
	Capture       CaptureConfig
	Scheduler     SchedulerConfig
	Upload        UploadConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// Load reads configuration from environment variables, falling back to
// defaults suitable for local development.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-trustchecker"),
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		Gateway: GatewayConfig{
			URL:            envOrDefault("GATEWAY_URL", "wss://trustcheck-streaming-gateway.onrender.com/stream"),
			LanguageCode:   envOrDefault("GATEWAY_LANGUAGE_CODE", "en-US"),
			TargetRate:     envIntOrDefault("GATEWAY_SAMPLE_RATE_HZ", 16000),
			ConnectTimeout: envDurationOrDefault("GATEWAY_CONNECT_TIMEOUT", 10*time.Second),
		},
		Analysis: AnalysisConfig{
			BaseURL:      envOrDefault("ANALYSIS_BASE_URL", "https://trustcheck-streaming-gateway.onrender.com"),
			LiveTextPath: envOrDefault("ANALYSIS_LIVE_TEXT_PATH", "/analyze-text"),
			Timeout:      envDurationOrDefault("ANALYSIS_TIMEOUT", 30*time.Second),
		},
		Capture: CaptureConfig{
			BlockSize: envIntOrDefault("CAPTURE_BLOCK_SIZE", 4096),
		},
		Scheduler: SchedulerConfig{
			Interval:  envDurationOrDefault("REANALYZE_INTERVAL", 5*time.Second),
			MinLength: envIntOrDefault("REANALYZE_MIN_LENGTH", 30),
		},
		Upload: UploadConfig{
			IssuerURL: envOrDefault("UPLOAD_URL_ISSUER", "https://q4lp4xk3q4.execute-api.us-east-1.amazonaws.com/v1/upload-url"),
			Timeout:   envDurationOrDefault("UPLOAD_TIMEOUT", 60*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:      envBoolOrDefault("KAFKA_ENABLED", false),
			Brokers:      envListOrDefault("KAFKA_BROKERS", nil),
			TopicPartial: envOrDefault("KAFKA_TOPIC_PARTIAL", "trustcheck.transcript.partial"),
			TopicFinal:   envOrDefault("KAFKA_TOPIC_FINAL", "trustcheck.transcript.final"),
			TopicReports: envOrDefault("KAFKA_TOPIC_REPORTS", "trustcheck.analysis.reports"),
			Principal:    envOrDefault("SERVICE_PRINCIPAL", "svc-trustchecker"),
		},
		Observability: ObservabilityConfig{
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBoolOrDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDurationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envListOrDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
