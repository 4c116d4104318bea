package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"vod-packager/pkg/config"
)

// Logger 封装logrus，统一日志输出
type Logger struct {
	entry *logrus.Logger
	file  *os.File
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// NewLogger 根据配置创建日志器
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()

	level := logrus.InfoLevel
	if cfg != nil {
		if parsed, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level)); err == nil {
			level = parsed
		}
	}
	l.SetLevel(level)

	if cfg != nil && strings.EqualFold(cfg.Log.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger := &Logger{entry: l}
	logger.setOutput(cfg)
	return logger
}

func (l *Logger) setOutput(cfg *config.Config) {
	if cfg == nil || cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		l.entry.SetOutput(os.Stdout)
		return
	}
	if cfg.Log.Output == "stderr" {
		l.entry.SetOutput(os.Stderr)
		return
	}
	f, err := os.OpenFile(cfg.Log.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.entry.SetOutput(os.Stdout)
		l.entry.Warnf("open log file failed, fallback to stdout path=%s error=%v", cfg.Log.Output, err)
		return
	}
	l.file = f
	l.entry.SetOutput(io.MultiWriter(os.Stdout, f))
}

// Close 关闭日志文件
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Debug(msg)
}
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Info(msg)
}
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Warn(msg)
}
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Error(msg)
}
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Fatal(msg)
}

func (l *Logger) withFields(fields []map[string]interface{}) *logrus.Entry {
	entry := logrus.NewEntry(l.entry)
	for _, f := range fields {
		entry = entry.WithFields(logrus.Fields(f))
	}
	return entry
}

// SetGlobalLogger 设置全局日志器
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

func getGlobal() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewLogger(nil)
	}
	return globalLogger
}

// 包级入口，业务代码统一通过这些函数打日志

func Debugf(format string, args ...interface{}) { getGlobal().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { getGlobal().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { getGlobal().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { getGlobal().Errorf(format, args...) }

func Debug(msg string, fields ...map[string]interface{}) { getGlobal().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { getGlobal().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { getGlobal().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { getGlobal().Error(msg, fields...) }
func Fatal(msg string, fields ...map[string]interface{}) { getGlobal().Fatal(msg, fields...) }
