package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/engine"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/llm"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/outline"
)

// mockReportEngine 模拟报告引擎，所有方法返回 err
type mockReportEngine struct {
	err    error
	viewer model.Viewer
}

func (m *mockReportEngine) CreateReport(ctx context.Context, userID int64, in engine.CreateInput) (*engine.CreateResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &engine.CreateResult{ReportID: 1, Result: outline.Fallback()}, nil
}

func (m *mockReportEngine) GetReport(ctx context.Context, viewer model.Viewer, id int64) (*engine.ReportDetail, error) {
	m.viewer = viewer
	if m.err != nil {
		return nil, m.err
	}
	return &engine.ReportDetail{Report: &model.Report{ID: id}}, nil
}

func (m *mockReportEngine) ListReports(ctx context.Context, userID int64) ([]*model.Report, error) {
	return []*model.Report{{ID: 1, Title: "Test Report"}}, m.err
}

func (m *mockReportEngine) SaveOutline(ctx context.Context, userID, id int64, nodes []model.OutlineNode, highlights []string) (outline.Result, error) {
	return outline.Result{}, m.err
}

func (m *mockReportEngine) PolishOutline(ctx context.Context, userID, id int64, nodes []model.OutlineNode) (outline.Result, error) {
	return outline.Result{}, m.err
}

func (m *mockReportEngine) GenerateReport(ctx context.Context, userID, id int64) (*engine.GenerateResult, error) {
	return &engine.GenerateResult{}, m.err
}

func (m *mockReportEngine) UpdateContent(ctx context.Context, userID, id int64, content string) error {
	return m.err
}

func (m *mockReportEngine) UpdateInfo(ctx context.Context, userID, id int64, in engine.InfoInput) error {
	return m.err
}

func (m *mockReportEngine) DeleteReport(ctx context.Context, userID, id int64) error {
	return m.err
}

func (m *mockReportEngine) Chat(ctx context.Context, userID, id int64, message string) (*engine.ChatResult, error) {
	return &engine.ChatResult{}, m.err
}

func TestReportUseCase_List(t *testing.T) {
	uc := NewReportUseCase(&mockReportEngine{}, log.DefaultLogger)

	reports, err := uc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "Test Report", reports[0].Title)
}

func TestReportUseCase_GetPassesViewer(t *testing.T) {
	eng := &mockReportEngine{}
	uc := NewReportUseCase(eng, log.DefaultLogger)

	viewer := model.Viewer{UserID: 3, Role: model.RoleAdmin}
	res, err := uc.Get(context.Background(), viewer, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.ID)
	assert.Equal(t, viewer, eng.viewer)
}

func TestReportUseCase_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		reason string
	}{
		{"not found", model.ErrNotFound, 404, "REPORT_NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("query: %w", model.ErrNotFound), 404, "REPORT_NOT_FOUND"},
		{"invalid", fmt.Errorf("%w: 标题与行业为必填项", model.ErrInvalidArgument), 400, "INVALID_ARGUMENT"},
		{"not configured", &llm.ConfigurationError{Reason: "missing api key"}, 500, "LLM_NOT_CONFIGURED"},
		{"upstream", fmt.Errorf("生成章节 [市场] 失败: %w", &llm.UpstreamError{StatusCode: 429, Body: "busy"}), 500, "LLM_UPSTREAM_ERROR"},
		{"timeout", &llm.TimeoutError{Cause: context.DeadlineExceeded}, 504, "LLM_TIMEOUT"},
		{"empty", &llm.EmptyResponseError{Reason: "no choices"}, 500, "LLM_EMPTY_RESPONSE"},
		{"other", stderrors.New("disk full"), 500, "INTERNAL"},
		{"kratos", errors.Forbidden("NO", "no"), 403, "NO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewReportUseCase(&mockReportEngine{err: tt.err}, log.DefaultLogger)

			_, err := uc.Generate(context.Background(), 1, 2)
			se := errors.FromError(err)
			require.NotNil(t, se)
			assert.Equal(t, tt.code, int(se.Code))
			assert.Equal(t, tt.reason, se.Reason)
		})
	}
}

func TestReportUseCase_UpstreamMetadata(t *testing.T) {
	uc := NewReportUseCase(&mockReportEngine{err: &llm.UpstreamError{StatusCode: 503, Body: "down"}}, log.DefaultLogger)

	_, err := uc.Chat(context.Background(), 1, 2, "hi")
	se := errors.FromError(err)
	assert.Equal(t, "503", se.Metadata["upstream_status"])
	assert.Contains(t, se.Message, "AI 服务调用失败: 503")
}

func TestReportUseCase_FallbackMessage(t *testing.T) {
	uc := NewReportUseCase(&mockReportEngine{err: stderrors.New("boom")}, log.DefaultLogger)

	err := uc.Delete(context.Background(), 1, 2)
	assert.Equal(t, "删除报告失败", errors.FromError(err).Message)
	assert.NoError(t, NewReportUseCase(&mockReportEngine{}, log.DefaultLogger).Delete(context.Background(), 1, 2))
}
