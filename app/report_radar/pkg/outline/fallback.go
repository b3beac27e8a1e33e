package outline

import (
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
)

// Fallback 返回固定的兜底大纲，每次调用返回新的副本
func Fallback() Result {
	return Result{
		Outline:    fallbackOutline(),
		Highlights: fallbackHighlights(),
		Metrics:    fallbackMetrics(),
	}
}

func fallbackOutline() []model.OutlineNode {
	return []model.OutlineNode{
		section("行业概览", "市场规模与增速", "典型玩家", "政策与监管"),
		section("技术与供给", "核心技术演进", "供应链与算力", "关键瓶颈"),
		section("需求与场景", "主要客户与痛点", "落地案例", "增量空间"),
		section("竞争与壁垒", "竞争格局", "差异化要素", "进入壁垒"),
		section("风险与展望", "政策/安全风险", "商业可持续性", "未来12-24个月展望"),
	}
}

func fallbackHighlights() []string {
	return []string{"示例亮点：技术驱动供给升级", "示例亮点：需求侧结构性机会"}
}

func fallbackMetrics() map[string]any {
	return map[string]any{"timeline": "1 天", "difficulty": "中", "confidence": "0.72"}
}

func section(title string, bullets ...string) model.OutlineNode {
	return model.OutlineNode{Title: title, Bullets: bullets, Children: []model.OutlineNode{}}
}

// EnsureNotEmpty 逐字段补全：大纲、亮点、指标中为空的字段替换为兜底内容，其余保留
func EnsureNotEmpty(r Result) Result {
	if len(r.Outline) == 0 {
		r.Outline = fallbackOutline()
	}
	if len(r.Highlights) == 0 {
		r.Highlights = fallbackHighlights()
	}
	if len(r.Metrics) == 0 {
		r.Metrics = fallbackMetrics()
	}
	return r
}
