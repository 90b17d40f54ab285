package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

func GetLogger() *slog.Logger {
	once.Do(func() {
		level := parseLevel(os.Getenv("POSADMIN_LOG_LEVEL"))

		stdoutHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})

		multiHandler := NewMultiHandler(stdoutHandler, GetOutputBuffer())
		maskingHandler := NewMaskingHandler(multiHandler, GetSecretRegistry())

		logger = slog.New(maskingHandler)
	})

	return logger
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
