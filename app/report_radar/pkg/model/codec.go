package model

import (
	"encoding/json"
	"strings"
)

// 报告中的 JSON 字段以不透明文本持久化，读取时宽松解析，解析失败按空值处理。

// EncodeJSON 序列化为 JSON 文本，nil 切片写为空数组
func EncodeJSON(v any) string {
	switch t := v.(type) {
	case []OutlineNode:
		if t == nil {
			return "[]"
		}
	case []string:
		if t == nil {
			return "[]"
		}
	case []DataSource:
		if t == nil {
			return "[]"
		}
	case map[string]any:
		if t == nil {
			return "{}"
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// DecodeStrings 解析字符串数组，非字符串元素转为其 JSON 文本
func DecodeStrings(raw []byte) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			s = string(item)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DecodeMetrics 解析指标对象
func DecodeMetrics(raw []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// DecodeDataSources 解析数据来源，兼容纯字符串数组
func DecodeDataSources(raw []byte) []DataSource {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []DataSource{}
	}
	out := make([]DataSource, 0, len(items))
	for _, item := range items {
		if name := decodeString(item); name != "" {
			out = append(out, DataSource{Name: name})
			continue
		}
		var ds DataSource
		if err := json.Unmarshal(item, &ds); err == nil && (ds.Name != "" || ds.URL != "") {
			out = append(out, ds)
		}
	}
	return out
}

func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
