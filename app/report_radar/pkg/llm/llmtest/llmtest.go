// Package llmtest 提供测试用的可编排 llm.Generator。
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/llm"
)

// Reply 一次预设的返回
type Reply struct {
	Content string
	Err     error
}

// Generator 按调用顺序返回预设结果并记录请求
type Generator struct {
	mu      sync.Mutex
	handler func(call int, req llm.Request) (string, error)
	calls   []llm.Request
}

var _ llm.Generator = (*Generator)(nil)

// New 使用自定义处理函数，call 从 0 开始
func New(handler func(call int, req llm.Request) (string, error)) *Generator {
	return &Generator{handler: handler}
}

// Replies 依次返回给定结果，超出部分返回错误
func Replies(replies ...Reply) *Generator {
	return New(func(call int, _ llm.Request) (string, error) {
		if call >= len(replies) {
			return "", fmt.Errorf("llmtest: unexpected call #%d", call+1)
		}
		return replies[call].Content, replies[call].Err
	})
}

// Failing 每次都返回 err
func Failing(err error) *Generator {
	return New(func(int, llm.Request) (string, error) { return "", err })
}

// Generate 实现 llm.Generator
func (g *Generator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	call := len(g.calls)
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	return g.handler(call, req)
}

// Calls 返回已记录的请求副本
func (g *Generator) Calls() []llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.Request(nil), g.calls...)
}
