package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StageLocal = "local"
	StageDev   = "dev"
	StageProd  = "prod"
)

type Config struct {
	Port           string
	BackendURL     string
	DBPath         string
	Stage          string
	LogLevel       string
	Timezone       string
	IndicatorLimit int
	CacheTTL       time.Duration
	CORSOrigins    []string
	CookieSecure   bool

	OpenAIKey           string
	TelegramToken       string
	TelegramAdminChatID int64
}

// LoadDotEnv reads a local .env file if there is one. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Load reads the environment. Every setting has a default; malformed
// numbers and durations are reported rather than silently replaced.
func Load() (Config, error) {
	cfg := Config{
		Port:          envOr("PORT", "3000"),
		BackendURL:    strings.TrimRight(envOr("BACKEND_URL", "http://localhost:8000"), "/"),
		DBPath:        envOr("DB_PATH", "./data/dashboard.db"),
		Stage:         strings.ToLower(envOr("STAGE", StageLocal)),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		Timezone:      envOr("TIMEZONE", "UTC"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	var err error
	if cfg.IndicatorLimit, err = strconv.Atoi(envOr("INDICATOR_LIMIT", "5000")); err != nil || cfg.IndicatorLimit <= 0 {
		return Config{}, fmt.Errorf("config: INDICATOR_LIMIT must be a positive integer")
	}
	if cfg.CacheTTL, err = time.ParseDuration(envOr("CACHE_TTL", "60s")); err != nil {
		return Config{}, fmt.Errorf("config: CACHE_TTL: %w", err)
	}
	if cfg.CookieSecure, err = strconv.ParseBool(envOr("COOKIE_SECURE", "false")); err != nil {
		return Config{}, fmt.Errorf("config: COOKIE_SECURE: %w", err)
	}
	if v := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); v != "" {
		if cfg.TelegramAdminChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("config: TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
	}
	for _, o := range strings.Split(envOr("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	switch cfg.Stage {
	case StageLocal, StageDev, StageProd:
	default:
		return Config{}, fmt.Errorf("config: unknown STAGE %q", cfg.Stage)
	}
	return cfg, nil
}

func (c Config) Addr() string { return ":" + c.Port }

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
