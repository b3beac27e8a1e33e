// Package engine 管理报告的创建、大纲、正文生成与对话。
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/llm"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/outline"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/pacer"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/search"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/search/factory"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/section"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/source"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/storage"
)

// Store 报告与对话记录的持久化接口，由 storage.Storage 实现
type Store interface {
	CreateReport(ctx context.Context, r *model.Report) (int64, error)
	GetReport(ctx context.Context, id, userID int64) (*model.Report, error)
	ListReports(ctx context.Context, userID int64) ([]*model.Report, error)
	UpdateReport(ctx context.Context, id, userID int64, u storage.ReportUpdate) (bool, error)
	DeleteReport(ctx context.Context, id, userID int64) (bool, error)
	AppendMessage(ctx context.Context, m *model.ConversationMessage) (int64, error)
	ListMessages(ctx context.Context, reportID int64) ([]model.ConversationMessage, error)
	RecentMessages(ctx context.Context, reportID int64, limit int) ([]model.ConversationMessage, error)
}

var _ Store = (*storage.Storage)(nil)

// Engine 核心处理引擎
type Engine struct {
	store    Store
	gen      llm.Generator
	outliner *outline.Synthesizer
	sections *section.Generator
	searcher search.Searcher
	resolver *source.Resolver
	now      func() time.Time
}

// Option 引擎可选配置
type Option func(*engineOptions)

type engineOptions struct {
	pacer    pacer.Pacer
	searcher search.Searcher
	resolver *source.Resolver
	now      func() time.Time
}

// WithPacer 设置同级章节之间的停顿策略
func WithPacer(p pacer.Pacer) Option {
	return func(o *engineOptions) { o.pacer = p }
}

// WithSearcher 开启参考资料检索
func WithSearcher(s search.Searcher) Option {
	return func(o *engineOptions) { o.searcher = s }
}

// WithResolver 为只有 URL 的数据来源补全名称
func WithResolver(r *source.Resolver) Option {
	return func(o *engineOptions) { o.resolver = r }
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(o *engineOptions) { o.now = now }
}

// New 使用给定的生成器与存储创建引擎
func New(gen llm.Generator, store Store, opts ...Option) *Engine {
	o := engineOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		store:    store,
		gen:      gen,
		outliner: outline.NewSynthesizer(gen),
		sections: section.NewGenerator(gen, o.pacer),
		searcher: o.searcher,
		resolver: o.resolver,
		now:      o.now,
	}
}

// NewEngine 按配置创建引擎实例
func NewEngine(ctx context.Context, cfg *config.Config, store Store) (*Engine, error) {
	gen, err := llm.New(ctx, cfg.LLM, llm.NewLimiter(cfg.Concurrency))
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	searcher, err := factory.NewSearcher(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("搜索客户端初始化失败: %w", err)
	}

	opts := []Option{
		WithPacer(pacer.NewFixed(time.Duration(cfg.Generation.SectionPauseMS) * time.Millisecond)),
		WithResolver(source.NewResolver()),
	}
	if searcher != nil {
		opts = append(opts, WithSearcher(searcher))
	}
	return New(gen, store, opts...), nil
}
