package outline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/llm"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/llm/llmtest"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
)

var chipBrief = model.Brief{Title: "AI芯片", Industry: "semiconductors"}

func TestSynthesize_FallbackOnEveryErrorKind(t *testing.T) {
	errs := []error{
		&llm.ConfigurationError{Reason: "no key"},
		&llm.UpstreamError{StatusCode: 500, Body: "boom"},
		&llm.TimeoutError{Cause: context.DeadlineExceeded},
		&llm.EmptyResponseError{Reason: "blank"},
	}
	for _, err := range errs {
		t.Run(err.Error(), func(t *testing.T) {
			got := NewSynthesizer(llmtest.Failing(err)).Synthesize(context.Background(), chipBrief)
			assert.Equal(t, Fallback(), got)
			assert.NotEmpty(t, got.Outline)
			assert.NotEmpty(t, got.Highlights)
			assert.NotEmpty(t, got.Metrics)
		})
	}
}

func TestSynthesize_EinoWithoutKeyFallsBack(t *testing.T) {
	gen, err := llm.NewEinoClient(context.Background(), config.LLMConfig{Provider: "eino"}, nil)
	require.NoError(t, err)

	got := NewSynthesizer(gen).Synthesize(context.Background(), chipBrief)
	assert.Equal(t, Fallback(), got)
}

func TestSynthesize_FallbackVerbatim(t *testing.T) {
	got := NewSynthesizer(llmtest.Failing(errors.New("down"))).Synthesize(context.Background(), chipBrief)

	require.Len(t, got.Outline, 5)
	titles := make([]string, 0, 5)
	for _, n := range got.Outline {
		titles = append(titles, n.Title)
		assert.Len(t, n.Bullets, 3)
	}
	assert.Equal(t, []string{"行业概览", "技术与供给", "需求与场景", "竞争与壁垒", "风险与展望"}, titles)
	assert.Equal(t, []string{"示例亮点：技术驱动供给升级", "示例亮点：需求侧结构性机会"}, got.Highlights)
	assert.Equal(t, map[string]any{"timeline": "1 天", "difficulty": "中", "confidence": "0.72"}, got.Metrics)
}

func TestSynthesize_UnparseableResponse(t *testing.T) {
	gen := llmtest.Replies(llmtest.Reply{Content: "抱歉，我不能输出 JSON"})
	got := NewSynthesizer(gen).Synthesize(context.Background(), chipBrief)
	assert.Equal(t, Fallback(), got)
}

func TestSynthesize_FieldLevelRepair(t *testing.T) {
	reply := "```json\n{\"outline\": [{\"title\": \"市场\", \"bullets\": [\"规模\"]}, {\"bullets\": [\"无标题\"]}]}\n```"
	gen := llmtest.Replies(llmtest.Reply{Content: reply})

	got := NewSynthesizer(gen).Synthesize(context.Background(), chipBrief)

	require.Len(t, got.Outline, 2)
	assert.Equal(t, "市场", got.Outline[0].Title)
	assert.Equal(t, model.UntitledSection, got.Outline[1].Title)
	assert.NotNil(t, got.Outline[0].Children)
	assert.Equal(t, fallbackHighlights(), got.Highlights)
	assert.Equal(t, fallbackMetrics(), got.Metrics)
}

func TestSynthesize_KeepsValidResponse(t *testing.T) {
	reply := `{"outline":[{"title":"A","bullets":["a1","a2","a3"]}],"highlights":["h1"],"metrics":{"timeline":"1-2周","difficulty":"高","confidence":0.8}}`
	gen := llmtest.Replies(llmtest.Reply{Content: reply})

	got := NewSynthesizer(gen).Synthesize(context.Background(), chipBrief)

	assert.Equal(t, []string{"h1"}, got.Highlights)
	assert.Equal(t, "高", got.Metrics["difficulty"])
	assert.Equal(t, 0.8, got.Metrics["confidence"])

	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, systemPrompt, calls[0].System)
	assert.Equal(t, 1200, calls[0].MaxTokens)
	assert.Contains(t, calls[0].Prompt, `为"AI芯片"生成产业研究报告的大纲`)
	assert.Contains(t, calls[0].Prompt, "- 行业: semiconductors")
	assert.Contains(t, calls[0].Prompt, "- 场景/用途: 未指定")
	assert.Contains(t, calls[0].Prompt, "- 数据来源: 未指定")
}

func TestSynthesize_PromptIncludesSources(t *testing.T) {
	gen := llmtest.Failing(errors.New("x"))
	brief := chipBrief
	brief.Scenario = "投资"
	brief.DataSources = []string{"年报.pdf", "访谈.docx"}

	NewSynthesizer(gen).Synthesize(context.Background(), brief)

	prompt := gen.Calls()[0].Prompt
	assert.Contains(t, prompt, "- 场景/用途: 投资")
	assert.Contains(t, prompt, "- 数据来源: 年报.pdf, 访谈.docx")
}

func TestFallback_FreshCopy(t *testing.T) {
	a := Fallback()
	a.Outline[0].Title = "changed"
	a.Metrics["timeline"] = "changed"
	assert.Equal(t, "行业概览", Fallback().Outline[0].Title)
	assert.Equal(t, "1 天", Fallback().Metrics["timeline"])
}

func TestEnsureNotEmpty(t *testing.T) {
	got := EnsureNotEmpty(Result{})
	assert.Equal(t, Fallback(), got)

	kept := EnsureNotEmpty(Result{
		Outline:    []model.OutlineNode{{Title: "X", Bullets: []string{}, Children: []model.OutlineNode{}}},
		Highlights: []string{"h"},
		Metrics:    map[string]any{"risk_level": "低"},
	})
	assert.Equal(t, "X", kept.Outline[0].Title)
	assert.Equal(t, []string{"h"}, kept.Highlights)
	assert.Equal(t, map[string]any{"risk_level": "低"}, kept.Metrics)
}

func TestPolish(t *testing.T) {
	current := []model.OutlineNode{
		{Title: "现状", Bullets: []string{"规模", "增速"}, Children: []model.OutlineNode{{Title: "细分", Bullets: []string{"GPU"}}}},
		{Title: "", Bullets: []string{"孤立要点"}},
	}
	gen := llmtest.Replies(llmtest.Reply{Content: `{"outline":[{"title":"精炼","bullets":["a","b","c"]}],"highlights":["h1","h2","h3"]}`})

	got, err := NewSynthesizer(gen).Polish(context.Background(), chipBrief, current)
	require.NoError(t, err)
	assert.Equal(t, "精炼", got.Outline[0].Title)
	assert.Equal(t, []string{"h1", "h2", "h3"}, got.Highlights)

	prompt := gen.Calls()[0].Prompt
	assert.Contains(t, prompt, "1. 现状：规模；增速")
	assert.Contains(t, prompt, "  1.1. 细分：GPU")
	assert.Contains(t, prompt, "2. 未命名章节：孤立要点")
	assert.Contains(t, prompt, "- 报告标题: AI芯片")
}

func TestPolish_UnparseableFallsBack(t *testing.T) {
	gen := llmtest.Replies(llmtest.Reply{Content: "not json"})
	got, err := NewSynthesizer(gen).Polish(context.Background(), chipBrief, nil)
	require.NoError(t, err)
	assert.Equal(t, Fallback(), got)
}

func TestPolish_UpstreamErrorPropagates(t *testing.T) {
	upstream := &llm.UpstreamError{StatusCode: 502, Body: "bad gateway"}
	_, err := NewSynthesizer(llmtest.Failing(upstream)).Polish(context.Background(), chipBrief, nil)

	var upErr *llm.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, 502, upErr.StatusCode)
}
