// FILE: env.go
// Package main – Environment helpers for the DCA bot.
//
// Small helpers to read environment variables with sane defaults, plus the
// .env loader. Venue API credentials stay venue-prefixed (KRAKEN_API_KEY,
// BINANCE_API_KEY, ...) and are consumed by the respective adapters, not
// here. The bot never requires `export $(cat .env ...)`.

package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// loadBotEnv reads ENV_FILE (default .env) without overriding variables
// already present in the process environment.
func loadBotEnv() {
	path := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		log.Infof("[ENV] %s not found, relying on process env", path)
		return
	}
	log.Infof("[ENV] loaded %s", path)
}
