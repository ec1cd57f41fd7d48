package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger 是对 zap.SugaredLogger 的轻量封装，统一训练/召回/派发各环节的
// 结构化日志输出。不做采样、不做脱敏，核心引擎里只记录 ID 和统计量。
type Logger struct {
	sugar *zap.SugaredLogger
}

// New 按运行环境创建 Logger。
//   - "prod" / "production"：JSON 输出，Info 级
//   - 其他：console 输出，Debug 级（开发/测试）
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zapLogger.Sugar()}, nil
}

// Nop 返回一个丢弃所有输出的 Logger，用于测试和默认值。
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// With 派生携带固定字段的子 Logger。
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}
