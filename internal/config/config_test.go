package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"SERVICE_PRINCIPAL", "HTTP_PORT",
	"GATEWAY_URL", "GATEWAY_LANGUAGE_CODE", "GATEWAY_SAMPLE_RATE_HZ", "GATEWAY_CONNECT_TIMEOUT",
	"ANALYSIS_BASE_URL", "ANALYSIS_LIVE_TEXT_PATH", "ANALYSIS_TIMEOUT",
	"CAPTURE_BLOCK_SIZE",
	"REANALYZE_INTERVAL", "REANALYZE_MIN_LENGTH",
	"UPLOAD_URL_ISSUER", "UPLOAD_TIMEOUT",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_PARTIAL", "KAFKA_TOPIC_FINAL", "KAFKA_TOPIC_REPORTS",
	"METRICS_PORT", "LOG_LEVEL",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, v := range configEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg := Load()

	if cfg.Service.Principal != "svc-trustchecker" {
		t.Errorf("expected default principal 'svc-trustchecker', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default HTTP port '8080', got %s", cfg.Service.HTTPPort)
	}

	if cfg.Gateway.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.Gateway.LanguageCode)
	}
	if cfg.Gateway.TargetRate != 16000 {
		t.Errorf("expected default target rate 16000, got %d", cfg.Gateway.TargetRate)
	}

	if cfg.Capture.BlockSize != 4096 {
		t.Errorf("expected default block size 4096, got %d", cfg.Capture.BlockSize)
	}

	if cfg.Scheduler.Interval != 5*time.Second {
		t.Errorf("expected default interval 5s, got %v", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.MinLength != 30 {
		t.Errorf("expected default min length 30, got %d", cfg.Scheduler.MinLength)
	}

	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.TopicPartial != "trustcheck.transcript.partial" {
		t.Errorf("unexpected default partial topic %s", cfg.Kafka.TopicPartial)
	}

	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearConfigEnv(t)

	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("GATEWAY_URL", "ws://localhost:7700/stream")
	os.Setenv("GATEWAY_LANGUAGE_CODE", "kk-KZ")
	os.Setenv("GATEWAY_SAMPLE_RATE_HZ", "8000")
	os.Setenv("CAPTURE_BLOCK_SIZE", "2048")
	os.Setenv("REANALYZE_INTERVAL", "10s")
	os.Setenv("REANALYZE_MIN_LENGTH", "50")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	os.Setenv("LOG_LEVEL", "debug")

	defer clearConfigEnv(t)

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Gateway.URL != "ws://localhost:7700/stream" {
		t.Errorf("unexpected gateway URL %s", cfg.Gateway.URL)
	}
	if cfg.Gateway.LanguageCode != "kk-KZ" {
		t.Errorf("expected language 'kk-KZ', got %s", cfg.Gateway.LanguageCode)
	}
	if cfg.Gateway.TargetRate != 8000 {
		t.Errorf("expected target rate 8000, got %d", cfg.Gateway.TargetRate)
	}
	if cfg.Capture.BlockSize != 2048 {
		t.Errorf("expected block size 2048, got %d", cfg.Capture.BlockSize)
	}
	if cfg.Scheduler.Interval != 10*time.Second {
		t.Errorf("expected interval 10s, got %v", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.MinLength != 50 {
		t.Errorf("expected min length 50, got %d", cfg.Scheduler.MinLength)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "broker-1:9092" || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearConfigEnv(t)

	os.Setenv("GATEWAY_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("REANALYZE_INTERVAL", "soon")
	os.Setenv("KAFKA_ENABLED", "maybe")

	defer clearConfigEnv(t)

	cfg := Load()

	if cfg.Gateway.TargetRate != 16000 {
		t.Errorf("expected fallback rate 16000, got %d", cfg.Gateway.TargetRate)
	}
	if cfg.Scheduler.Interval != 5*time.Second {
		t.Errorf("expected fallback interval 5s, got %v", cfg.Scheduler.Interval)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected fallback Kafka disabled")
	}
}
