package config

import (
	"errors"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseDSN string
	JWTSecret   string
	Env         string

	// WebSocket 会话相关参数。
	WSSendBuffer  int
	WSIdleSeconds int
	WSIntentRate  float64
	WSIntentBurst int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(getenv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getenvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(getenv(key, ""), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func Load() Config {
	return Config{
		Port:          getenv("APP_PORT", "8080"),
		DatabaseDSN:   getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=chatdb port=5432 sslmode=disable TimeZone=UTC"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		Env:           getenv("APP_ENV", "dev"),
		WSSendBuffer:  getenvInt("WS_SEND_BUFFER", 256),
		WSIdleSeconds: getenvInt("WS_IDLE_SECONDS", 60),
		WSIntentRate:  getenvFloat("WS_INTENT_RATE", 20),
		WSIntentBurst: getenvInt("WS_INTENT_BURST", 40),
	}
}

// Validate 检查配置在目标环境下是否可用，prod 禁止使用默认密钥。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("config: empty port")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("config: empty database dsn")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == "dev-secret-change-me" {
		return errors.New("config: default jwt secret outside dev")
	}
	return nil
}
