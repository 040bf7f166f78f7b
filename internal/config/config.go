// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストアドライバ
const (
	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// 補助マッチングのプロバイダ
const (
	AssistProviderOpenAI = "openai"
	AssistProviderGemini = "gemini"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 論文取得・マッチング・送信の各コンポーネントにはここから必要な値を明示的に渡す。
type Config struct {
	// Store
	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	// arXiv
	ArxivBaseURL         string
	ArxivMaxResults      int
	ArxivRequestInterval time.Duration

	// Fetch
	RelayPrefixes    []string
	FetchTimeout     time.Duration
	FetchMaxAttempts int
	FetchMaxSize     int64
	CacheTTL         time.Duration

	// Assisted matching
	AssistProvider string
	OpenAIBaseURL  string
	OpenAIModel    string
	GeminiModel    string
	AssistTimeout  time.Duration

	// Mail
	EmailJSEndpoint string
	DigestMaxPapers int
	SummaryMaxLen   int

	// Rate Limit
	RateLimitGeneral int

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む。既に設定済みの環境変数は上書きしない。
// 必須環境変数が未設定、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.StoreDriver = strings.ToLower(getEnvString("STORE_DRIVER", StoreDriverSQLite))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SQLitePath = getEnvString("SQLITE_PATH", "data/arxivnotify.db")

	var missing []string
	switch cfg.StoreDriver {
	case StoreDriverMemory, StoreDriverSQLite:
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER: %s", cfg.StoreDriver)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.AssistProvider = strings.ToLower(getEnvString("ASSIST_PROVIDER", AssistProviderOpenAI))
	if cfg.AssistProvider != AssistProviderOpenAI && cfg.AssistProvider != AssistProviderGemini {
		return nil, fmt.Errorf("unsupported ASSIST_PROVIDER: %s", cfg.AssistProvider)
	}

	// Optional fields with defaults
	cfg.ArxivBaseURL = getEnvString("ARXIV_BASE_URL", "https://export.arxiv.org/api/query")
	cfg.ArxivMaxResults = clamp(getEnvInt("ARXIV_MAX_RESULTS", 50), 30, 50)
	cfg.ArxivRequestInterval = getEnvDuration("ARXIV_REQUEST_INTERVAL", 3*time.Second)
	cfg.RelayPrefixes = getEnvList("RELAY_PREFIXES", []string{""})
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 15*time.Second)
	cfg.FetchMaxAttempts = getEnvInt("FETCH_MAX_ATTEMPTS", 3)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", time.Hour)
	cfg.OpenAIBaseURL = getEnvString("OPENAI_BASE_URL", "https://api.openai.com")
	cfg.OpenAIModel = getEnvString("OPENAI_MODEL", "gpt-3.5-turbo")
	cfg.GeminiModel = getEnvString("GEMINI_MODEL", "gemini-2.0-flash")
	cfg.AssistTimeout = getEnvDuration("ASSIST_TIMEOUT", 30*time.Second)
	cfg.EmailJSEndpoint = getEnvString("EMAILJS_ENDPOINT", "https://api.emailjs.com/api/v1.0/email/send")
	cfg.DigestMaxPapers = getEnvInt("DIGEST_MAX_PAPERS", 10)
	cfg.SummaryMaxLen = getEnvInt("SUMMARY_MAX_LEN", 300)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.FetchMaxAttempts < 1 {
		cfg.FetchMaxAttempts = 1
	}

	return cfg, nil
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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
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

// getEnvList はカンマ区切りの環境変数をスライスとして返す。
// "direct" は空プレフィックス（リレーを経由しない直接接続）として扱う。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
			continue
		case strings.EqualFold(part, "direct"):
			out = append(out, "")
		default:
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
