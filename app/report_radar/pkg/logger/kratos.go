package logger

import (
	"fmt"
	"sort"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sirupsen/logrus"
)

// KratosLogger 将 kratos 日志写入 logrus，使服务与引擎共用同一输出
type KratosLogger struct {
	base *logrus.Logger
}

var _ log.Logger = (*KratosLogger)(nil)

// NewKratosLogger 基于当前全局 Log 创建 kratos 日志适配器
func NewKratosLogger() *KratosLogger {
	return &KratosLogger{base: Log}
}

// Log 实现 kratos log.Logger 接口
func (l *KratosLogger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}

	fields := make(logrus.Fields, len(keyvals)/2)
	var msg string
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields[key] = keyvals[i+1]
	}

	entry := l.base.WithFields(fields)
	switch level {
	case log.LevelDebug:
		entry.Debug(msg)
	case log.LevelWarn:
		entry.Warn(msg)
	case log.LevelError:
		entry.Error(msg)
	case log.LevelFatal:
		// Entry.Log 不会退出进程，由 kratos 调用方决定
		entry.Log(logrus.FatalLevel, msg)
	default:
		entry.Info(msg)
	}
	return nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
