// Package llm 封装对外部文本生成服务（chat completions）的调用。
package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
)

const (
	DefaultBaseURL     = "https://api.siliconflow.cn"
	DefaultModel       = "Qwen/Qwen2.5-7B-Instruct"
	DefaultSystem      = "你是产业研究员，回答要简洁、结构化。"
	DefaultMaxTokens   = 1800
	DefaultTimeout     = 45 * time.Second
	DefaultTemperature = 0.35

	completionsPath = "/v1/chat/completions"
)

// Request 一次文本生成请求，零值字段使用默认值
type Request struct {
	Prompt    string
	System    string
	MaxTokens int
	Timeout   time.Duration
}

func (r Request) withDefaults(timeout time.Duration) Request {
	if r.System == "" {
		r.System = DefaultSystem
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Timeout <= 0 {
		r.Timeout = timeout
	}
	return r
}

// Generator 文本生成接口。不做重试，错误类型见 errors.go
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// NewLimiter 按每分钟请求数创建限流器，rpm <= 0 时不限流
func NewLimiter(c config.ConcurrencyConfig) *rate.Limiter {
	if c.RPM <= 0 {
		return nil
	}
	burst := c.QPS
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(c.RPM)/60.0), burst)
}

// New 根据配置创建 Generator，provider 为空时使用 HTTP 客户端
func New(ctx context.Context, cfg config.LLMConfig, limiter *rate.Limiter) (Generator, error) {
	switch cfg.Provider {
	case "", "http":
		return NewClient(cfg, WithLimiter(limiter)), nil
	case "eino":
		return NewEinoClient(ctx, cfg, limiter)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

func timeoutFromConfig(cfg config.LLMConfig) time.Duration {
	if cfg.Timeout > 0 {
		return time.Duration(cfg.Timeout) * time.Second
	}
	return DefaultTimeout
}

func waitLimiter(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return &TimeoutError{Cause: err}
	}
	return nil
}
