package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database（ホストのケースストア）
	DatabaseURL string

	// Pod（購読サービスの接続先）
	Pod PodConfig

	// SBM client
	SBMTimeout    time.Duration
	SBMRateLimit  float64
	SBMStrictSSRF bool

	// Read
	EnrichMaxConcurrent int

	// Host-facing API
	HostToken        string // 空の場合はホスト認証を行わない
	RateLimitGeneral int

	// Logging
	LogLevel string

	// Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// POD_CONFIG_FILE が指定された場合、pod設定はSBM_URL/SBM_TOKENではなく
// そのJSONファイル（{"url": ..., "token": ...}）から読み込む。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	var raw map[string]any
	if path := os.Getenv("POD_CONFIG_FILE"); path != "" {
		m, err := readPodConfigFile(path)
		if err != nil {
			return nil, err
		}
		raw = m
	} else {
		sbmURL := os.Getenv("SBM_URL")
		if sbmURL == "" {
			missing = append(missing, "SBM_URL")
		}
		sbmToken := os.Getenv("SBM_TOKEN")
		if sbmToken == "" {
			missing = append(missing, "SBM_TOKEN")
		}
		raw = map[string]any{"url": sbmURL, "token": sbmToken}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	pod, err := NewPodConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.Pod = *pod

	// Optional fields with defaults
	cfg.SBMTimeout = getEnvDuration("SBM_TIMEOUT", 10*time.Second)
	cfg.SBMRateLimit = getEnvFloat("SBM_RATE_LIMIT", 20)
	cfg.SBMStrictSSRF = getEnvBool("SBM_STRICT_SSRF", false)
	cfg.EnrichMaxConcurrent = getEnvInt("ENRICH_MAX_CONCURRENT", 4)
	cfg.HostToken = os.Getenv("HOST_API_TOKEN")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.LogLevel = strings.ToLower(getEnvString("LOG_LEVEL", "info"))
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	return cfg, nil
}

// readPodConfigFile はJSON形式のpod設定ファイルを読み込む。
func readPodConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pod config file: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pod config file %s: %w", path, err)
	}
	return raw, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
