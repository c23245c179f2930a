package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// ModelBasePath is the root of the model tree: one subdirectory per
	// diagram folder, each holding question sets and the reference image.
	ModelBasePath string

	CORSOrigins []string

	// CleanupMaxAgeDays bounds how long unused review state is kept.
	CleanupMaxAgeDays int
}

func FromEnv() Config {
	return Config{
		HTTPAddr:          envOr("HTTP_ADDR", ":8000"),
		DBDriver:          envOr("DB_DRIVER", "sqlite"),
		DBDSN:             envOr("DB_DSN", ""),
		ModelBasePath:     envOr("MODEL_BASE_PATH", "./model"),
		CORSOrigins:       csvOr("CORS_ORIGINS", "http://localhost:8000,http://localhost:3000"),
		CleanupMaxAgeDays: envInt("CLEANUP_MAX_AGE_DAYS", 30),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
