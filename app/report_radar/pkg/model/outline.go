package model

import (
	"encoding/json"
	"strings"
)

// UntitledSection 缺少标题时使用的占位标题
const UntitledSection = "未命名章节"

// OutlineNode 大纲节点，子节点可无限嵌套
type OutlineNode struct {
	Title    string        `json:"title"`
	Bullets  []string      `json:"bullets"`
	Children []OutlineNode `json:"children"`
}

// NormalizeOutline 将大纲统一为嵌套形态。
// 无标题的节点使用占位标题，标题、要点、子节点全部缺失的节点被丢弃，
// Bullets 与 Children 总是非 nil。对已规范化的大纲再次调用结果不变。
func NormalizeOutline(nodes []OutlineNode) []OutlineNode {
	out := make([]OutlineNode, 0, len(nodes))
	for _, n := range nodes {
		title := strings.TrimSpace(n.Title)
		bullets := normalizeBullets(n.Bullets)
		children := NormalizeOutline(n.Children)
		if title == "" && len(bullets) == 0 && len(children) == 0 {
			continue
		}
		if title == "" {
			title = UntitledSection
		}
		out = append(out, OutlineNode{Title: title, Bullets: bullets, Children: children})
	}
	return out
}

func normalizeBullets(bullets []string) []string {
	out := make([]string, 0, len(bullets))
	for _, b := range bullets {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// DecodeOutline 宽松解析 JSON 形式的大纲并规范化。
// 非数组、非对象元素及错误类型字段都按缺失处理，不返回错误。
func DecodeOutline(raw []byte) []OutlineNode {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []OutlineNode{}
	}
	return NormalizeOutline(decodeNodes(items))
}

func decodeNodes(items []json.RawMessage) []OutlineNode {
	nodes := make([]OutlineNode, 0, len(items))
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			continue
		}
		n := OutlineNode{
			Title:   decodeString(fields["title"]),
			Bullets: DecodeStrings(fields["bullets"]),
		}
		var children []json.RawMessage
		if err := json.Unmarshal(fields["children"], &children); err == nil {
			n.Children = decodeNodes(children)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// CountSections 统计大纲节点总数（含子节点）
func CountSections(nodes []OutlineNode) int {
	total := 0
	for _, n := range nodes {
		total += 1 + CountSections(n.Children)
	}
	return total
}
