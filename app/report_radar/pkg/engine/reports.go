package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/outline"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/search"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/storage"
)

const discoverLimit = 5

// CreateInput 创建报告的输入
type CreateInput struct {
	Title       string
	Industry    string
	Scenario    string
	Objective   string
	DataSources []model.DataSource
}

// CreateResult 创建报告的结果，大纲保证非空
type CreateResult struct {
	ReportID int64 `json:"reportId"`
	outline.Result
}

// ReportDetail 报告详情及其对话记录
type ReportDetail struct {
	*model.Report
	Conversations []model.ConversationMessage `json:"conversations"`
}

func requireTitleAndIndustry(title, industry string) error {
	if title == "" || industry == "" {
		return fmt.Errorf("%w: 标题与行业为必填项", model.ErrInvalidArgument)
	}
	return nil
}

// CreateReport 创建报告并生成大纲。大纲生成失败时使用兜底模板，不返回错误
func (e *Engine) CreateReport(ctx context.Context, userID int64, in CreateInput) (*CreateResult, error) {
	title, industry := strings.TrimSpace(in.Title), strings.TrimSpace(in.Industry)
	if err := requireTitleAndIndustry(title, industry); err != nil {
		return nil, err
	}

	sources := in.DataSources
	if e.resolver != nil {
		sources = e.resolver.Resolve(ctx, sources)
	}
	report := &model.Report{
		UserID:      userID,
		Title:       title,
		Industry:    industry,
		Scenario:    strings.TrimSpace(in.Scenario),
		Objective:   strings.TrimSpace(in.Objective),
		DataSources: sources,
		Status:      model.StatusDrafting,
	}
	if len(report.DataSources) == 0 {
		report.DataSources = e.discover(ctx, report.Brief())
	}

	id, err := e.store.CreateReport(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("创建报告失败: %w", err)
	}
	logger.Log.Infof("报告已创建 [%d] %s，开始生成大纲", id, title)

	result := e.outliner.Synthesize(ctx, report.Brief())
	status := model.StatusDraft
	if _, err := e.store.UpdateReport(ctx, id, userID, storage.ReportUpdate{
		Outline:    &result.Outline,
		Highlights: &result.Highlights,
		Metrics:    &result.Metrics,
		Status:     &status,
	}); err != nil {
		return nil, fmt.Errorf("保存大纲失败: %w", err)
	}
	return &CreateResult{ReportID: id, Result: result}, nil
}

// discover 检索与报告相关的网页作为数据来源，失败时返回空列表
func (e *Engine) discover(ctx context.Context, brief model.Brief) []model.DataSource {
	if e.searcher == nil {
		return nil
	}
	resp, err := e.searcher.Search(ctx, &search.Request{
		Query:      search.BriefQuery(brief),
		Topic:      "news",
		MaxResults: discoverLimit,
	})
	if err != nil {
		logger.Log.Warnf("检索参考资料失败 [%s]: %v", brief.Title, err)
		return nil
	}
	sources := search.ToDataSources(resp.Results, discoverLimit, e.now())
	logger.Log.Infof("检索到 %d 条参考资料 [%s]", len(sources), brief.Title)
	return sources
}

// GetReport 读取报告详情。管理员可读取任意报告
func (e *Engine) GetReport(ctx context.Context, viewer model.Viewer, id int64) (*ReportDetail, error) {
	owner := viewer.UserID
	if viewer.IsAdmin() {
		owner = 0
	}
	r, err := e.store.GetReport(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	ensureReport(r)

	msgs, err := e.store.ListMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("读取对话记录失败: %w", err)
	}
	return &ReportDetail{Report: r, Conversations: msgs}, nil
}

// ListReports 列出用户的报告，最近更新的在前
func (e *Engine) ListReports(ctx context.Context, userID int64) ([]*model.Report, error) {
	reports, err := e.store.ListReports(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		ensureReport(r)
	}
	return reports, nil
}

func ensureReport(r *model.Report) {
	res := outline.EnsureNotEmpty(outline.Result{
		Outline:    model.NormalizeOutline(r.Outline),
		Highlights: r.Highlights,
		Metrics:    r.Metrics,
	})
	r.Outline, r.Highlights, r.Metrics = res.Outline, res.Highlights, res.Metrics
}

// SaveOutline 保存用户编辑后的大纲与亮点
func (e *Engine) SaveOutline(ctx context.Context, userID, id int64, nodes []model.OutlineNode, highlights []string) (outline.Result, error) {
	normalized := model.NormalizeOutline(nodes)
	cleaned := cleanHighlights(highlights)
	ok, err := e.store.UpdateReport(ctx, id, userID, storage.ReportUpdate{
		Outline:    &normalized,
		Highlights: &cleaned,
		Touch:      true,
	})
	if err != nil {
		return outline.Result{}, fmt.Errorf("保存大纲失败: %w", err)
	}
	if !ok {
		return outline.Result{}, model.ErrNotFound
	}
	return outline.EnsureNotEmpty(outline.Result{Outline: normalized, Highlights: cleaned}), nil
}

func cleanHighlights(highlights []string) []string {
	out := make([]string, 0, len(highlights))
	for _, h := range highlights {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// PolishOutline 润色大纲，不保存。nodes 为空时润色已保存的大纲
func (e *Engine) PolishOutline(ctx context.Context, userID, id int64, nodes []model.OutlineNode) (outline.Result, error) {
	r, err := e.store.GetReport(ctx, id, userID)
	if err != nil {
		return outline.Result{}, err
	}
	current := model.NormalizeOutline(nodes)
	if len(current) == 0 {
		current = r.Outline
	}
	return e.outliner.Polish(ctx, r.Brief(), current)
}

// UpdateContent 保存用户编辑后的正文
func (e *Engine) UpdateContent(ctx context.Context, userID, id int64, content string) error {
	ok, err := e.store.UpdateReport(ctx, id, userID, storage.ReportUpdate{Content: &content, Touch: true})
	if err != nil {
		return fmt.Errorf("更新报告内容失败: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

// InfoInput 报告基本信息
type InfoInput struct {
	Title    string
	Industry string
	Scenario string
}

// UpdateInfo 更新报告标题、行业与场景，场景为空时清空
func (e *Engine) UpdateInfo(ctx context.Context, userID, id int64, in InfoInput) error {
	title, industry := strings.TrimSpace(in.Title), strings.TrimSpace(in.Industry)
	if err := requireTitleAndIndustry(title, industry); err != nil {
		return err
	}
	scenario := strings.TrimSpace(in.Scenario)
	ok, err := e.store.UpdateReport(ctx, id, userID, storage.ReportUpdate{
		Title:    &title,
		Industry: &industry,
		Scenario: &scenario,
		Touch:    true,
	})
	if err != nil {
		return fmt.Errorf("更新报告信息失败: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	return nil
}

// DeleteReport 删除报告及其对话记录
func (e *Engine) DeleteReport(ctx context.Context, userID, id int64) error {
	ok, err := e.store.DeleteReport(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("删除报告失败: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	logger.Log.Infof("报告已删除 [%d]", id)
	return nil
}
