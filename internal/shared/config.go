package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	Backend     string // memory | file | mysql
	DataDir     string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	SeedWorkers int
	RateRPS     float64
	BcryptCost  int
	CacheTTL    time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		Backend:     env("STORAGE_BACKEND", "memory"),
		DataDir:     env("DATA_DIR", "data"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hbnb?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		SeedWorkers: atoi("SEED_WORKERS", 4),
		RateRPS:     atof("RATE_LIMIT_RPS", 0),
		BcryptCost:  atoi("BCRYPT_COST", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	switch c.Backend {
	case "memory", "file", "mysql":
	default:
		log.Warn().Str("backend", c.Backend).Msg("unknown STORAGE_BACKEND, falling back to memory")
		c.Backend = "memory"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
