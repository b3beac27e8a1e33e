// Package section 按大纲逐章生成报告正文。
package section

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/extract"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/llm"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/pacer"
)

const (
	maxTokens     = 2000
	summaryRunes  = 100
	contextWindow = 2
	unspecified   = "未指定"
	riskLevel     = "中"
)

// Section 已生成的章节，摘要仅用于后续章节的提示词上下文
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// Result 正文生成结果
type Result struct {
	Content  string
	Sections []Section
	Metrics  map[string]any
}

// Generator 章节内容生成器，同级章节严格串行
type Generator struct {
	gen   llm.Generator
	pacer pacer.Pacer
}

// NewGenerator 创建生成器，p 为 nil 时在同级章节之间停顿 500ms
func NewGenerator(gen llm.Generator, p pacer.Pacer) *Generator {
	if p == nil {
		p = pacer.NewFixed(pacer.DefaultPause)
	}
	return &Generator{gen: gen, pacer: p}
}

// DefaultSkeleton 大纲为空时使用的默认章节结构
func DefaultSkeleton() []model.OutlineNode {
	return []model.OutlineNode{
		node("执行摘要", "报告概述", "核心发现", "关键数据"),
		node("行业现状", "市场概况", "发展趋势", "主要参与者"),
		node("市场机会", "增长驱动因素", "潜在市场", "投资机会"),
		node("挑战与风险", "技术挑战", "市场风险", "政策风险"),
		node("结论建议", "核心结论", "行动建议", "未来展望"),
	}
}

func node(title string, bullets ...string) model.OutlineNode {
	return model.OutlineNode{Title: title, Bullets: bullets, Children: []model.OutlineNode{}}
}

// Generate 生成整篇报告正文。任一章节失败立即返回错误，不做模板替代
func (g *Generator) Generate(ctx context.Context, brief model.Brief, outline []model.OutlineNode) (*Result, error) {
	nodes := model.NormalizeOutline(outline)
	skeleton := len(nodes) == 0
	if skeleton {
		nodes = DefaultSkeleton()
	}

	logger.Log.Infof("开始生成报告内容 [%s]，共 %d 个章节", brief.Title, len(nodes))
	content, sections, err := g.expand(ctx, brief, nodes, 1, nil)
	if err != nil {
		return nil, err
	}
	logger.Log.Infof("报告内容生成完成 [%s]，总长度: %d 字符", brief.Title, utf8.RuneCountInString(content))

	evidence := []string{}
	if !skeleton {
		evidence = append(evidence, fmt.Sprintf("共生成 %d 个章节", len(sections)))
	}
	return &Result{
		Content:  content,
		Sections: sections,
		Metrics: map[string]any{
			"summary_length": utf8.RuneCountInString(content),
			"risk_level":     riskLevel,
			"evidence_used":  evidence,
		},
	}, nil
}

// expand 依次生成 nodes，子章节递归生成并追加在父章节之后。
// previous 为之前已完成章节，用于提示词上下文。
func (g *Generator) expand(ctx context.Context, brief model.Brief, nodes []model.OutlineNode, level int, previous []Section) (string, []Section, error) {
	sections := make([]Section, 0, len(nodes))
	for i, n := range nodes {
		title := strings.TrimSpace(n.Title)
		if title == "" {
			title = fmt.Sprintf("章节%d", i+1)
		}
		logger.Log.Infof("正在生成章节 %d/%d (第 %d 级): %s", i+1, len(nodes), level, title)

		known := append(append([]Section(nil), previous...), sections...)
		text, err := g.generateOne(ctx, brief, title, n, level, known)
		if err != nil {
			return "", nil, fmt.Errorf("生成章节 [%s] 失败: %w", title, err)
		}

		if len(n.Children) > 0 {
			childContent, _, err := g.expand(ctx, brief, n.Children, level+1, known)
			if err != nil {
				return "", nil, err
			}
			text = text + "\n\n" + childContent
		}

		sections = append(sections, Section{Title: title, Content: text, Summary: summarize(text)})

		if i < len(nodes)-1 {
			if err := g.pacer.Wait(ctx); err != nil {
				return "", nil, err
			}
		}
	}

	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.Content
	}
	return strings.Join(parts, "\n\n"), sections, nil
}

func (g *Generator) generateOne(ctx context.Context, brief model.Brief, title string, n model.OutlineNode, level int, previous []Section) (string, error) {
	content, err := g.gen.Generate(ctx, llm.Request{
		Prompt:    buildPrompt(brief, title, n, level, previous),
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	cleaned := extract.CleanProse(content)
	if !strings.Contains(cleaned, "## "+title) && !strings.Contains(cleaned, "# "+title) {
		cleaned = "## " + title + "\n\n" + cleaned
	}
	return cleaned, nil
}

func summarize(text string) string {
	runes := []rune(text)
	if len(runes) > summaryRunes {
		runes = runes[:summaryRunes]
	}
	return string(runes) + "..."
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return unspecified
	}
	return s
}

func buildPrompt(b model.Brief, title string, n model.OutlineNode, level int, previous []Section) string {
	var extra strings.Builder
	if len(n.Bullets) > 0 {
		extra.WriteString("\n要点：")
		for i, bullet := range n.Bullets {
			fmt.Fprintf(&extra, "\n%d. %s", i+1, bullet)
		}
	}
	if len(n.Children) > 0 {
		extra.WriteString("\n子章节：")
		for i, c := range n.Children {
			fmt.Fprintf(&extra, "\n  %d. %s", i+1, c.Title)
		}
	}
	if len(previous) > 0 {
		recent := previous
		if len(recent) > contextWindow {
			recent = recent[len(recent)-contextWindow:]
		}
		extra.WriteString("\n\n已生成的章节摘要（供参考，保持风格一致）：")
		for _, s := range recent {
			summary := s.Summary
			if summary == "" {
				summary = "已生成"
			}
			fmt.Fprintf(&extra, "\n- %s: %s", s.Title, summary)
		}
	}

	sources := unspecified
	if len(b.DataSources) > 0 {
		sources = strings.Join(b.DataSources, ", ")
	}

	return strings.TrimSpace(fmt.Sprintf(`
你正在为产业研究报告《%s》生成第 %d 级章节内容。

报告信息：
- 行业: %s
- 场景: %s
- 目标: %s
- 数据来源: %s

当前章节：%s%s

要求：
1. 使用 Markdown 格式
2. 章节标题使用 ## %s
3. 内容要详细、专业，包含具体数据和案例
4. 每个要点至少展开为 2-3 段内容
5. 如果有子章节，为每个子章节生成独立的 ## 标题和内容
6. 总字数控制在 800-1200 字
7. 不要输出 JSON 或其他格式标记，只输出 Markdown 内容

请生成该章节的完整内容：
`, b.Title, level, b.Industry, orUnspecified(b.Scenario), orUnspecified(b.Objective), sources, title, extra.String(), title))
}
