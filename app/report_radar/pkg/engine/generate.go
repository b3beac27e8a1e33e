package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/outline"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/storage"
)

// GenerateResult 正文生成结果
type GenerateResult struct {
	Content string         `json:"content"`
	Metrics map[string]any `json:"metrics"`
}

// GenerateReport 按已保存的大纲生成报告正文。
// 生成过程不受调用方取消影响；任一章节失败时状态置为 failed，已有正文保持不变。
func (e *Engine) GenerateReport(ctx context.Context, userID, id int64) (*GenerateResult, error) {
	r, err := e.store.GetReport(ctx, id, userID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			e.markFailed(context.WithoutCancel(ctx), id, userID)
		}
		return nil, err
	}

	runID := uuid.NewString()
	ctx = context.WithoutCancel(ctx)
	log := logger.Log.WithField("run_id", runID).WithField("report_id", id)

	nodes := outline.EnsureNotEmpty(outline.Result{
		Outline:    model.NormalizeOutline(r.Outline),
		Highlights: r.Highlights,
		Metrics:    r.Metrics,
	}).Outline

	if err := e.setStatus(ctx, id, model.StatusGenerating); err != nil {
		log.Errorf("更新报告状态失败: %v", err)
		e.markFailed(ctx, id, userID)
		return nil, err
	}
	log.Infof("开始生成报告正文 [%s]，共 %d 个顶层章节，%d 个章节", r.Title, len(nodes), model.CountSections(nodes))
	start := time.Now()

	res, err := e.sections.Generate(ctx, r.Brief(), nodes)
	if err != nil {
		log.Errorf("生成报告正文失败: %v", err)
		if serr := e.setStatus(ctx, id, model.StatusFailed); serr != nil {
			log.Errorf("更新报告状态失败: %v", serr)
		}
		return nil, err
	}

	status := model.StatusCompleted
	if _, err := e.store.UpdateReport(ctx, id, 0, storage.ReportUpdate{
		Content: &res.Content,
		Metrics: &res.Metrics,
		Status:  &status,
		Touch:   true,
	}); err != nil {
		log.Errorf("保存报告正文失败: %v", err)
		if serr := e.setStatus(ctx, id, model.StatusFailed); serr != nil {
			log.Errorf("更新报告状态失败: %v", serr)
		}
		return nil, fmt.Errorf("保存报告正文失败: %w", err)
	}

	log.Infof("报告正文生成完成，%d 个章节，耗时 %s", len(res.Sections), time.Since(start).Round(time.Millisecond))
	return &GenerateResult{Content: res.Content, Metrics: res.Metrics}, nil
}

func (e *Engine) setStatus(ctx context.Context, id int64, status model.Status) error {
	if _, err := e.store.UpdateReport(ctx, id, 0, storage.ReportUpdate{Status: &status}); err != nil {
		return fmt.Errorf("更新报告状态为 %s 失败: %w", status, err)
	}
	return nil
}

// markFailed 尽力把报告置为 failed，只更新 userID 名下的报告
func (e *Engine) markFailed(ctx context.Context, id, userID int64) {
	status := model.StatusFailed
	if _, err := e.store.UpdateReport(ctx, id, userID, storage.ReportUpdate{Status: &status}); err != nil {
		logger.Log.Errorf("更新报告 [%d] 状态为 failed 失败: %v", id, err)
	}
}
