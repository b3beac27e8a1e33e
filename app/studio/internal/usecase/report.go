package usecase

import (
	"context"
	"strconv"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/engine"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/llm"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/outline"
)

// ReportEngine 报告引擎接口，由 engine.Engine 实现
type ReportEngine interface {
	CreateReport(ctx context.Context, userID int64, in engine.CreateInput) (*engine.CreateResult, error)
	GetReport(ctx context.Context, viewer model.Viewer, id int64) (*engine.ReportDetail, error)
	ListReports(ctx context.Context, userID int64) ([]*model.Report, error)
	SaveOutline(ctx context.Context, userID, id int64, nodes []model.OutlineNode, highlights []string) (outline.Result, error)
	PolishOutline(ctx context.Context, userID, id int64, nodes []model.OutlineNode) (outline.Result, error)
	GenerateReport(ctx context.Context, userID, id int64) (*engine.GenerateResult, error)
	UpdateContent(ctx context.Context, userID, id int64, content string) error
	UpdateInfo(ctx context.Context, userID, id int64, in engine.InfoInput) error
	DeleteReport(ctx context.Context, userID, id int64) error
	Chat(ctx context.Context, userID, id int64, message string) (*engine.ChatResult, error)
}

var _ ReportEngine = (*engine.Engine)(nil)

// ReportUseCase 报告业务逻辑，负责把引擎错误转换为对外错误码
type ReportUseCase struct {
	eng ReportEngine
	log *log.Helper
}

// NewReportUseCase 创建报告业务逻辑实例
func NewReportUseCase(eng ReportEngine, logger log.Logger) *ReportUseCase {
	return &ReportUseCase{eng: eng, log: log.NewHelper(logger)}
}

// Create 创建报告并生成大纲
func (uc *ReportUseCase) Create(ctx context.Context, userID int64, in engine.CreateInput) (*engine.CreateResult, error) {
	res, err := uc.eng.CreateReport(ctx, userID, in)
	return res, uc.wrap(err, "创建报告失败")
}

// Get 读取报告详情
func (uc *ReportUseCase) Get(ctx context.Context, viewer model.Viewer, id int64) (*engine.ReportDetail, error) {
	res, err := uc.eng.GetReport(ctx, viewer, id)
	return res, uc.wrap(err, "获取报告详情失败")
}

// List 列出当前用户的报告
func (uc *ReportUseCase) List(ctx context.Context, userID int64) ([]*model.Report, error) {
	res, err := uc.eng.ListReports(ctx, userID)
	return res, uc.wrap(err, "获取报告列表失败")
}

// SaveOutline 保存大纲
func (uc *ReportUseCase) SaveOutline(ctx context.Context, userID, id int64, nodes []model.OutlineNode, highlights []string) (outline.Result, error) {
	res, err := uc.eng.SaveOutline(ctx, userID, id, nodes, highlights)
	return res, uc.wrap(err, "保存大纲失败")
}

// PolishOutline 润色大纲
func (uc *ReportUseCase) PolishOutline(ctx context.Context, userID, id int64, nodes []model.OutlineNode) (outline.Result, error) {
	res, err := uc.eng.PolishOutline(ctx, userID, id, nodes)
	return res, uc.wrap(err, "润色大纲失败")
}

// Generate 生成报告正文
func (uc *ReportUseCase) Generate(ctx context.Context, userID, id int64) (*engine.GenerateResult, error) {
	res, err := uc.eng.GenerateReport(ctx, userID, id)
	return res, uc.wrap(err, "生成报告失败")
}

// UpdateContent 更新正文
func (uc *ReportUseCase) UpdateContent(ctx context.Context, userID, id int64, content string) error {
	return uc.wrap(uc.eng.UpdateContent(ctx, userID, id, content), "更新报告内容失败")
}

// UpdateInfo 更新基本信息
func (uc *ReportUseCase) UpdateInfo(ctx context.Context, userID, id int64, in engine.InfoInput) error {
	return uc.wrap(uc.eng.UpdateInfo(ctx, userID, id, in), "更新报告信息失败")
}

// Delete 删除报告
func (uc *ReportUseCase) Delete(ctx context.Context, userID, id int64) error {
	return uc.wrap(uc.eng.DeleteReport(ctx, userID, id), "删除报告失败")
}

// Chat 报告问答
func (uc *ReportUseCase) Chat(ctx context.Context, userID, id int64, message string) (*engine.ChatResult, error) {
	res, err := uc.eng.Chat(ctx, userID, id, message)
	return res, uc.wrap(err, "AI 对话失败")
}

func (uc *ReportUseCase) wrap(err error, fallback string) error {
	if err == nil {
		return nil
	}
	mapped := toServiceError(err, fallback)
	if mapped.Code >= 500 {
		uc.log.Errorf("%s: %v", fallback, err)
	}
	return mapped
}

// toServiceError 按错误类型映射为带错误码的 kratos 错误
func toServiceError(err error, fallback string) *errors.Error {
	var (
		cfgErr   *llm.ConfigurationError
		upErr    *llm.UpstreamError
		toErr    *llm.TimeoutError
		emptyErr *llm.EmptyResponseError
	)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return errors.NotFound("REPORT_NOT_FOUND", "报告不存在")
	case errors.Is(err, model.ErrInvalidArgument):
		return errors.BadRequest("INVALID_ARGUMENT", err.Error())
	case errors.As(err, &cfgErr):
		return errors.InternalServer("LLM_NOT_CONFIGURED", "AI 服务配置错误，请检查 API Key 配置").WithCause(err)
	case errors.As(err, &upErr):
		return errors.InternalServer("LLM_UPSTREAM_ERROR", upErr.Error()).
			WithMetadata(map[string]string{"upstream_status": strconv.Itoa(upErr.StatusCode)}).
			WithCause(err)
	case errors.As(err, &toErr):
		return errors.GatewayTimeout("LLM_TIMEOUT", "AI 服务连接超时，请稍后重试").WithCause(err)
	case errors.As(err, &emptyErr):
		return errors.InternalServer("LLM_EMPTY_RESPONSE", "AI 服务未返回有效内容").WithCause(err)
	}
	if se := errors.FromError(err); se != nil && se.Code != errors.UnknownCode {
		return se
	}
	return errors.InternalServer("INTERNAL", fallback).WithCause(err)
}
