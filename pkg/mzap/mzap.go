// Package mzap implements mlog.Logger on top of go.uber.org/zap,
// mirroring the teacher's common/mzap backend for common/mlog.
package mzap

import (
	"github.com/ArunaStorage/aruna-sub004/pkg/mlog"
	"go.uber.org/zap"
)

// Logger wraps a *zap.SugaredLogger to satisfy mlog.Logger.
type Logger struct {
	s *zap.SugaredLogger
}

var _ mlog.Logger = (*Logger)(nil)

// New builds a production zap logger wrapped as an mlog.Logger.
func New() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{s: z.Sugar()}, nil
}

// NewDevelopment builds a development zap logger (console-friendly,
// colorized level, with caller line), for use in cmd/ binaries outside
// production deployment.
func NewDevelopment() (*Logger, error) {
	z, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &Logger{s: z.Sugar()}, nil
}

func (l *Logger) Info(args ...any)             { l.s.Info(args...) }
func (l *Logger) Infof(format string, a ...any) { l.s.Infof(format, a...) }
func (l *Logger) Error(args ...any)             { l.s.Error(args...) }
func (l *Logger) Errorf(format string, a ...any) { l.s.Errorf(format, a...) }
func (l *Logger) Warn(args ...any)              { l.s.Warn(args...) }
func (l *Logger) Warnf(format string, a ...any) { l.s.Warnf(format, a...) }
func (l *Logger) Debug(args ...any)             { l.s.Debug(args...) }
func (l *Logger) Debugf(format string, a ...any) { l.s.Debugf(format, a...) }

func (l *Logger) WithFields(kv ...any) mlog.Logger {
	return &Logger{s: l.s.With(kv...)}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.s.Sync()
}
