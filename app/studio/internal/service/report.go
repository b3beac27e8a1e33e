package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/engine"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/studio/internal/auth"
	"github.com/iWorld-y/report_radar/app/studio/internal/usecase"
)

type CreateReportRequest struct {
	Title       string             `json:"title"`
	Industry    string             `json:"industry"`
	Scenario    string             `json:"scenario"`
	Objective   string             `json:"objective"`
	DataSources []model.DataSource `json:"dataSources"`
}

type CreateReportReply struct {
	Message    string              `json:"message"`
	ReportID   int64               `json:"reportId"`
	Outline    []model.OutlineNode `json:"outline"`
	Highlights []string            `json:"highlights"`
	Metrics    map[string]any      `json:"metrics"`
}

type ListReportsRequest struct{}

type ListReportsReply struct {
	Reports []*model.Report `json:"reports"`
}

// ReportRequest 只携带路径中报告 id 的请求
type ReportRequest struct {
	ID int64 `json:"id"`
}

type SaveOutlineRequest struct {
	ID         int64               `json:"id"`
	Outline    []model.OutlineNode `json:"outline"`
	Highlights []string            `json:"highlights"`
}

type PolishOutlineRequest struct {
	ID      int64               `json:"id"`
	Outline []model.OutlineNode `json:"outline"`
}

type OutlineReply struct {
	Success    bool                `json:"success"`
	Outline    []model.OutlineNode `json:"outline"`
	Highlights []string            `json:"highlights"`
}

type GenerateReportReply struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Content string         `json:"content"`
	Metrics map[string]any `json:"metrics"`
}

type UpdateContentRequest struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

type UpdateInfoRequest struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Industry string `json:"industry"`
	Scenario string `json:"scenario"`
}

type MessageReply struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message"`
}

type ChatRequest struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type ChatReply struct {
	Success       bool   `json:"success"`
	MessageID     int64  `json:"messageId"`
	Reply         string `json:"reply"`
	UserMessageID int64  `json:"userMessageId"`
}

// ReportService 报告 HTTP 接口实现
type ReportService struct {
	uc  *usecase.ReportUseCase
	log *log.Helper
}

func NewReportService(uc *usecase.ReportUseCase, logger log.Logger) *ReportService {
	return &ReportService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

func viewer(ctx context.Context) (model.Viewer, error) {
	v, ok := auth.ViewerFromContext(ctx)
	if !ok {
		return model.Viewer{}, errors.Unauthorized("UNAUTHORIZED", "未登录或登录已过期")
	}
	return v, nil
}

func (s *ReportService) CreateReport(ctx context.Context, req *CreateReportRequest) (*CreateReportReply, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.uc.Create(ctx, v.UserID, engine.CreateInput{
		Title:       req.Title,
		Industry:    req.Industry,
		Scenario:    req.Scenario,
		Objective:   req.Objective,
		DataSources: req.DataSources,
	})
	if err != nil {
		return nil, err
	}
	return &CreateReportReply{
		Message:    "报告创建成功，已生成初步大纲",
		ReportID:   res.ReportID,
		Outline:    res.Outline,
		Highlights: res.Highlights,
		Metrics:    res.Metrics,
	}, nil
}

func (s *ReportService) ListReports(ctx context.Context, _ *ListReportsRequest) (*ListReportsReply, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := s.uc.List(ctx, v.UserID)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []*model.Report{}
	}
	return &ListReportsReply{Reports: reports}, nil
}

func (s *ReportService) GetReport(ctx context.Context, req *ReportRequest) (*engine.ReportDetail, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	return s.uc.Get(ctx, v, req.ID)
}

func (s *ReportService) SaveOutline(ctx context.Context, req *SaveOutlineRequest) (*OutlineReply, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.uc.SaveOutline(ctx, v.UserID, req.ID, req.Outline, req.Highlights)
	if err != nil {
		return nil, err
	}
	return &OutlineReply{Success: true, Outline: res.Outline, Highlights: res.Highlights}, nil
}

func (s *ReportService) PolishOutline(ctx context.Context, req *PolishOutlineRequest) (*OutlineReply, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.uc.PolishOutline(ctx, v.UserID, req.ID, req.Outline)
	if err != nil {
		return nil, err
	}
	return &OutlineReply{Success: true, Outline: res.Outline, Highlights: res.Highlights}, nil
}

func (s *ReportService) GenerateReport(ctx context.Context, req *ReportRequest) (*GenerateReportReply, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.uc.Generate(ctx, v.UserID, req.ID)
	if err != nil {
		return nil, err
	}
	return &GenerateReportReply{
		Success: true,
		Message: "报告生成完成",
		Content: res.Content,
		Metrics: res.Metrics,
	}, nil
}

func (s *ReportService) UpdateContent(ctx context.Context, req *UpdateContentRequest) (*MessageReply, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.uc.UpdateContent(ctx, v.UserID, req.ID, req.Content); err != nil {
		return nil, err
	}
	return &MessageReply{Success: true, Message: "报告内容已更新"}, nil
}

func (s *ReportService) UpdateInfo(ctx context.Context, req *UpdateInfoRequest) (*MessageReply, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	err = s.uc.UpdateInfo(ctx, v.UserID, req.ID, engine.InfoInput{
		Title:    req.Title,
		Industry: req.Industry,
		Scenario: req.Scenario,
	})
	if err != nil {
		return nil, err
	}
	return &MessageReply{Message: "报告信息更新成功"}, nil
}

func (s *ReportService) DeleteReport(ctx context.Context, req *ReportRequest) (*MessageReply, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.uc.Delete(ctx, v.UserID, req.ID); err != nil {
		return nil, err
	}
	s.log.Infof("user %d deleted report %d", v.UserID, req.ID)
	return &MessageReply{Message: "报告删除成功"}, nil
}

func (s *ReportService) Chat(ctx context.Context, req *ChatRequest) (*ChatReply, error) {
	v, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.uc.Chat(ctx, v.UserID, req.ID, req.Message)
	if err != nil {
		return nil, err
	}
	return &ChatReply{
		Success:       true,
		MessageID:     res.MessageID,
		Reply:         res.Reply,
		UserMessageID: res.UserMessageID,
	}, nil
}
