package logger

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Общие ключи, чтобы по логам можно было собрать историю одной комнаты.
const (
	KeyRoom = "room"
	KeyJob  = "job"
	KeyErr  = "err"
)

func Room(code string) slog.Attr { return slog.String(KeyRoom, code) }

func Job(name string) slog.Attr { return slog.String(KeyJob, name) }

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyErr, "")
	}
	return slog.String(KeyErr, err.Error())
}

func instanceID(v string) string {
	if v != "" {
		return v
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + "-" + uuid.NewString()[:8]
}

func serviceAttrs(cfg Config) []slog.Attr {
	return []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", cfg.InstanceID),
	}
}
