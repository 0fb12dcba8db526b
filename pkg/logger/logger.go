package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log   *zap.SugaredLogger
	level = zap.NewAtomicLevel()
	once  sync.Once
)

// Init 初始化日志
func Init(env string) {
	var config zap.Config

	switch env {
	case "production":
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "test":
		config = zap.NewDevelopmentConfig()
		config.OutputPaths = []string{"stderr"}
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	default:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	level.SetLevel(config.Level.Level())
	config.Level = level

	built, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}

	log = built.Sugar()
}

// SetLevel 动态调整日志级别, 例如 "debug"
func SetLevel(l string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(l)); err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

// GetLogger 获取日志实例
func GetLogger() *zap.SugaredLogger {
	once.Do(func() {
		if log == nil {
			Init(os.Getenv("APP_ENV"))
		}
	})
	return log
}

// Named 按组件名派生子日志
func Named(component string) *zap.SugaredLogger {
	return GetLogger().Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar().Named(component)
}

// Info 信息日志
func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

// Infof 格式化信息日志
func Infof(template string, args ...interface{}) {
	GetLogger().Infof(template, args...)
}

// Errorf 格式化错误日志
func Errorf(template string, args ...interface{}) {
	GetLogger().Errorf(template, args...)
}

// Warnf 格式化警告日志
func Warnf(template string, args ...interface{}) {
	GetLogger().Warnf(template, args...)
}

// Debugf 格式化调试日志
func Debugf(template string, args ...interface{}) {
	GetLogger().Debugf(template, args...)
}

// Fatalf 格式化致命错误日志
func Fatalf(template string, args ...interface{}) {
	GetLogger().Fatalf(template, args...)
}

// WithFields 带字段的日志
func WithFields(fields map[string]interface{}) *zap.SugaredLogger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return GetLogger().Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar().With(args...)
}

// Sync 同步日志
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
