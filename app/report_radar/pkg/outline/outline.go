// Package outline 生成、润色并修复报告大纲。
package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/extract"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/llm"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
)

const (
	systemPrompt = "你是一个专业的产业研究员。请严格按照要求输出 JSON 格式，不要添加任何解释性文字。"
	maxTokens    = 1200
	unspecified  = "未指定"
)

// Result 大纲生成结果
type Result struct {
	Outline    []model.OutlineNode `json:"outline"`
	Highlights []string            `json:"highlights"`
	Metrics    map[string]any      `json:"metrics"`
}

// Synthesizer 大纲合成器
type Synthesizer struct {
	gen llm.Generator
}

// NewSynthesizer 创建大纲合成器
func NewSynthesizer(gen llm.Generator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

// Synthesize 根据报告简介生成大纲。任何调用或解析失败都退回兜底大纲，不返回错误
func (s *Synthesizer) Synthesize(ctx context.Context, brief model.Brief) Result {
	content, err := s.gen.Generate(ctx, llm.Request{
		Prompt:    buildOutlinePrompt(brief),
		System:    systemPrompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		logger.Log.Warnf("生成大纲调用 LLM 失败，使用兜底模板 [%s]: %v", brief.Title, err)
		return Fallback()
	}

	obj, ok := extract.JSONObject(content)
	if !ok {
		logger.Log.Warnf("无法从 LLM 响应中提取 JSON，使用兜底模板 [%s]", brief.Title)
		return Fallback()
	}

	result := EnsureNotEmpty(fromObject(obj))
	logger.Log.Infof("大纲生成完成 [%s]: %d 个章节, %d 条亮点", brief.Title, len(result.Outline), len(result.Highlights))
	return result
}

// Polish 润色已有大纲。上游调用失败时返回错误，解析失败时按字段补全
func (s *Synthesizer) Polish(ctx context.Context, brief model.Brief, current []model.OutlineNode) (Result, error) {
	content, err := s.gen.Generate(ctx, llm.Request{
		Prompt:    buildPolishPrompt(brief, model.NormalizeOutline(current)),
		System:    systemPrompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("润色大纲失败: %w", err)
	}

	var result Result
	if obj, ok := extract.JSONObject(content); ok {
		result = fromObject(obj)
	} else {
		logger.Log.Warnf("润色结果无法解析为 JSON [%s]", brief.Title)
	}
	return EnsureNotEmpty(result), nil
}

func fromObject(obj map[string]json.RawMessage) Result {
	return Result{
		Outline:    model.DecodeOutline(obj["outline"]),
		Highlights: model.DecodeStrings(obj["highlights"]),
		Metrics:    model.DecodeMetrics(obj["metrics"]),
	}
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return unspecified
	}
	return s
}

func joinSources(sources []string) string {
	if len(sources) == 0 {
		return unspecified
	}
	return strings.Join(sources, ", ")
}

func buildOutlinePrompt(b model.Brief) string {
	return strings.TrimSpace(fmt.Sprintf(`
为"%s"生成产业研究报告的大纲和任务拆解。

要求：
1. 输出必须是有效的 JSON 格式
2. JSON 结构：{"outline": [{"title": "章节标题", "bullets": ["要点1", "要点2", "要点3"]}], "highlights": ["亮点1", "亮点2"], "metrics": {"timeline": "时间", "difficulty": "难度", "confidence": "置信度"}}
3. outline 数组包含 5-7 个章节，每个章节有 3-5 个要点
4. highlights 数组包含 3-5 条亮点
5. metrics 对象包含 timeline（如"1-2周"）、difficulty（如"中"）、confidence（如"0.75"）

报告信息：
- 行业: %s
- 场景/用途: %s
- 目标: %s
- 数据来源: %s

请直接输出 JSON，不要包含其他说明文字。
`, b.Title, b.Industry, orUnspecified(b.Scenario), orUnspecified(b.Objective), joinSources(b.DataSources)))
}

func buildPolishPrompt(b model.Brief, current []model.OutlineNode) string {
	return strings.TrimSpace(fmt.Sprintf(`
请优化下面的大纲，使其更精炼可执行，保持5-7个章节，每节3-5个要点。

要求：
1. 输出必须是有效的 JSON 格式
2. JSON 结构：{"outline": [{"title": "章节标题", "bullets": ["要点1", "要点2"]}], "highlights": ["亮点1", "亮点2"]}
3. outline 数组包含 5-7 个章节，每个章节有 3-5 个要点
4. highlights 数组包含 3-5 条摘要亮点

报告信息：
- 报告标题: %s
- 行业: %s
- 场景: %s
- 目标: %s

当前大纲:
%s

请直接输出 JSON，不要包含其他说明文字。
`, b.Title, b.Industry, orUnspecified(b.Scenario), orUnspecified(b.Objective), printable(current, "")))
}

// printable 将大纲渲染为 "1. 标题：要点1；要点2"，子节点缩进并带上级编号
func printable(nodes []model.OutlineNode, prefix string) string {
	var sb strings.Builder
	indent := strings.Repeat("  ", strings.Count(prefix, "."))
	for i, n := range nodes {
		num := fmt.Sprintf("%s%d", prefix, i+1)
		fmt.Fprintf(&sb, "%s%s. %s：%s\n", indent, num, n.Title, strings.Join(n.Bullets, "；"))
		sb.WriteString(printable(n.Children, num+"."))
	}
	if prefix == "" {
		return strings.TrimRight(sb.String(), "\n")
	}
	return sb.String()
}
