// 指示: miu200521358
// Package logging はzapを用いた共通ロガーを提供する。
package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ILogger はフォーマット指定のログ出力契約を表す。
type ILogger interface {
	Debug(format string, params ...any)
	Info(format string, params ...any)
	Warn(format string, params ...any)
	Error(format string, params ...any)
}

// zapLogger はzapのSugaredLoggerでILoggerを実装する。
type zapLogger struct {
	sugar *zap.SugaredLogger
}

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   ILogger
)

// NewZapLogger はzapロガーからILoggerを生成する。
func NewZapLogger(logger *zap.Logger) ILogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{sugar: logger.Sugar()}
}

// NewLogger はレベル名を指定してコンソール出力ロガーを生成する。
func NewLogger(level string) (ILogger, error) {
	parsed, err := zapcore.ParseLevel(strings.TrimSpace(strings.ToLower(level)))
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(logger), nil
}

// DefaultLogger はプロセス共通のロガーを返す。未設定時はINFOレベルで生成する。
func DefaultLogger() ILogger {
	defaultLoggerMu.RLock()
	logger := defaultLogger
	defaultLoggerMu.RUnlock()
	if logger != nil {
		return logger
	}

	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if defaultLogger == nil {
		created, err := NewLogger("info")
		if err != nil {
			created = NewZapLogger(zap.NewNop())
		}
		defaultLogger = created
	}
	return defaultLogger
}

// SetDefaultLogger はプロセス共通のロガーを差し替える。
func SetDefaultLogger(logger ILogger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// NewNopLogger は何も出力しないロガーを返す。
func NewNopLogger() ILogger {
	return NewZapLogger(zap.NewNop())
}

// Debug はDEBUGログを出力する。
func (l *zapLogger) Debug(format string, params ...any) {
	l.sugar.Debugf(format, params...)
}

// Info はINFOログを出力する。
func (l *zapLogger) Info(format string, params ...any) {
	l.sugar.Infof(format, params...)
}

// Warn はWARNログを出力する。
func (l *zapLogger) Warn(format string, params ...any) {
	l.sugar.Warnf(format, params...)
}

// Error はERRORログを出力する。
func (l *zapLogger) Error(format string, params ...any) {
	l.sugar.Errorf(format, params...)
}
