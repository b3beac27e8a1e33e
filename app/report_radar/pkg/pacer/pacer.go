// Package pacer 控制连续上游请求之间的停顿。
package pacer

import (
	"context"
	"time"
)

// DefaultPause 同级章节之间的默认停顿
const DefaultPause = 500 * time.Millisecond

// Pacer 在两次请求之间调用 Wait
type Pacer interface {
	Wait(ctx context.Context) error
}

// Fixed 固定时长停顿
type Fixed struct {
	Pause time.Duration
}

// NewFixed 创建固定停顿策略，d <= 0 时使用 DefaultPause
func NewFixed(d time.Duration) Fixed {
	if d <= 0 {
		d = DefaultPause
	}
	return Fixed{Pause: d}
}

// Wait 停顿 Pause，ctx 结束时提前返回
func (f Fixed) Wait(ctx context.Context) error {
	t := time.NewTimer(f.Pause)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Noop 不停顿，用于测试
type Noop struct{}

// Wait 立即返回
func (Noop) Wait(context.Context) error { return nil }
