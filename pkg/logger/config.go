package logger

import (
	"log/slog"
	"os"
	"strings"
)

type Backend string

const (
	BackendStd Backend = "std" // text в dev, JSON в stage/prod
	BackendZap Backend = "zap" // JSON через zap
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

type Config struct {
	Service    string
	Version    string
	InstanceID string // пусто — hostname + случайный суффикс

	Level     slog.Level
	Env       Env
	Backend   Backend // пусто — std в dev, zap иначе
	Debug     bool    // при Level == info опускает уровень до debug
	AddSource bool

	// Sampling zap: 0 — без семплирования
	SampleInitial    int
	SampleThereafter int
}

// DetectEnv берёт среду из APP_ENV.
func DetectEnv() Env {
	return ParseEnv(os.Getenv("APP_ENV"))
}

func ParseEnv(raw string) Env {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return EnvProd
	case "stage", "staging", "preprod":
		return EnvStage
	default:
		return EnvDev
	}
}

// ParseLevel: пустая или неизвестная строка -> info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c Config) level() slog.Level {
	if c.Debug && c.Level == slog.LevelInfo {
		return slog.LevelDebug
	}
	return c.Level
}
