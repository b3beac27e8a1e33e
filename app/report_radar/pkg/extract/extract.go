// Package extract 从模型输出中恢复 JSON 对象或清理 Markdown 正文。
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedObject = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	greedyObject = regexp.MustCompile(`(?s)\{.*\}`)

	leadingFence  = regexp.MustCompile("(?i)^```(?:json|markdown)?\\s*\\n?")
	bareFence     = regexp.MustCompile("^```\\s*\\n?")
	trailingFence = regexp.MustCompile("\\n?```\\s*$")
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// JSONObject 依次尝试：整段解析、代码块内解析、最长花括号片段解析。
// 只接受 JSON 对象，全部失败时返回 false。
func JSONObject(text string) (map[string]json.RawMessage, bool) {
	for _, candidate := range candidates(text) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

func candidates(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	out := []string{trimmed}
	if m := fencedObject.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	if m := greedyObject.FindString(text); m != "" {
		out = append(out, m)
	}
	return out
}

// CleanProse 去除首尾的代码块标记，并把三个以上连续换行压缩为一个空行
func CleanProse(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = leadingFence.ReplaceAllString(cleaned, "")
	cleaned = bareFence.ReplaceAllString(cleaned, "")
	cleaned = trailingFence.ReplaceAllString(cleaned, "")
	cleaned = blankRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
