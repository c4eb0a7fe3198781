// Package config reads process settings from the environment and resolves the
// library API credentials.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir        string
	BaseURL        string
	UserAgent      string
	DBDSN          string
	Addr           string
	InternalSecret string
	MapFile        string
	SkipLanguages  []string
	Concurrency    int
	JobRetries     int
	RPS            int
	MaxRetries     int
	Timeout        time.Duration
	LogLevel       string
}

// LoadEnvFiles reads .env and .env.local. Variables already set in the process
// environment win.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load builds a Config from the environment. Call LoadEnvFiles first to pick up
// dotenv files.
func Load() (Config, error) {
	cfg := Config{
		DataDir:        getEnv("DBL_DATA_DIR", "."),
		BaseURL:        getEnv("DBL_BASE_URL", "https://api.thedigitalbiblelibrary.org"),
		UserAgent:      getEnv("DBL_USER_AGENT", "dblsync"),
		DBDSN:          os.Getenv("DB_DSN"),
		Addr:           getEnv("APP_ADDR", ":8080"),
		InternalSecret: os.Getenv("INTERNAL_JOB_SECRET"),
		MapFile:        os.Getenv("DBL_MAP_FILE"),
		SkipLanguages:  getEnvList("DBL_SKIP_LANGS", []string{"en", "eng"}),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Concurrency, err = getEnvInt("DBL_CONCURRENCY", 1); err != nil {
		return Config{}, err
	}
	if cfg.JobRetries, err = getEnvInt("DBL_JOB_RETRIES", 0); err != nil {
		return Config{}, err
	}
	if cfg.MaxRetries, err = getEnvInt("DBL_MAX_RETRIES", 3); err != nil {
		return Config{}, err
	}
	if cfg.RPS, err = getEnvInt("DBL_RPS", 5); err != nil {
		return Config{}, err
	}
	if cfg.Timeout, err = getEnvDuration("DBL_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvList splits a comma separated value. Set the variable to "-" for an empty list.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "-" {
		return []string{}
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
