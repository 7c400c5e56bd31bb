package utils

// logger.go - настройка структурированного логирования (zap)
//
// Уровни: debug, info, warn, error
// Форматы: json (production), console (development)

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger создает и настраивает zap logger
//
// Параметры:
//   - level: debug | info | warn | error
//   - format: json | console
//
// Logger внедряется в сервисы через конструкторы (без глобального
// состояния), отдельные компоненты получают именованные дочерние
// логгеры через logger.Named().
func InitLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info", "":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level: %q", level)
	}

	var cfg zap.Config
	switch strings.ToLower(format) {
	case "json", "":
		cfg = zap.NewProductionConfig()
	case "console", "text":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format: %q", format)
	}

	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// NopLogger возвращает logger-заглушку для тестов
func NopLogger() *zap.Logger {
	return zap.NewNop()
}
