package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/lumberjack.v2"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
)

// Log 全局日志实例，未初始化时输出到标准输出
var Log = newLogger(logrus.InfoLevel, os.Stdout)

// CustomFormatter 自定义日志格式
type CustomFormatter struct{}

// Format 实现 logrus.Formatter 接口
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	// 获取文件名和行号
	var fileLine string
	if entry.HasCaller() {
		fileName := filepath.Base(entry.Caller.File)
		fileLine = fmt.Sprintf("%s:%d", fileName, entry.Caller.Line)
	}

	// 对齐级别长度，例如 INFO, WARN, ERRO
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	timeStr := entry.Time.Format("2006-01-02 15:04:05")

	var sb strings.Builder
	// [TIME] [LEVEL] [FILE:LINE] MSG key=value...
	fmt.Fprintf(&sb, "[%s] [%s] [%s] %s", timeStr, level, fileLine, entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Data[k])
	}
	sb.WriteByte('\n')

	return []byte(sb.String()), nil
}

// InitLogger 初始化日志，文件输出按大小滚动
func InitLogger(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel // 默认级别
	}

	writers := []io.Writer{os.Stdout}
	if cfg.File != "" {
		logDir := filepath.Dir(cfg.File)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 50),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 14),
			LocalTime:  true,
		})
	}

	Log = newLogger(level, io.MultiWriter(writers...))
	return nil
}

func newLogger(level logrus.Level, out io.Writer) *logrus.Logger {
	l := logrus.New()
	// 开启 ReportCaller 以获取文件名和行号
	l.SetReportCaller(true)
	l.SetFormatter(&CustomFormatter{})
	l.SetLevel(level)
	l.SetOutput(out)
	return l
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
