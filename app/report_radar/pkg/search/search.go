// Package search 定义参考资料检索的通用接口。
package search

import (
	"context"
	"strings"
	"time"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
)

// Searcher 定义通用的搜索接口
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
}

// Request 通用搜索请求
type Request struct {
	Query      string
	Topic      string // "news" or "general"
	MaxResults int
	StartDate  string // Format: YYYY-MM-DD
	EndDate    string // Format: YYYY-MM-DD
}

// Response 通用搜索响应
type Response struct {
	Results []Result
}

// Result 单条搜索结果
type Result struct {
	Title         string
	URL           string
	Content       string
	Score         float64
	PublishedDate string
}

// SourceTypeWeb 检索得到的数据来源类型
const SourceTypeWeb = "web"

// BriefQuery 根据报告标题与行业拼出检索词
func BriefQuery(b model.Brief) string {
	return strings.TrimSpace(strings.TrimSpace(b.Title) + " " + strings.TrimSpace(b.Industry))
}

// ToDataSources 把检索结果转换为数据来源，跳过没有 URL 的结果，最多保留 limit 条
func ToDataSources(results []Result, limit int, now time.Time) []model.DataSource {
	sources := make([]model.DataSource, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if limit > 0 && len(sources) >= limit {
			break
		}
		u := strings.TrimSpace(r.URL)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		sources = append(sources, model.DataSource{
			Name:       strings.TrimSpace(r.Title),
			Type:       SourceTypeWeb,
			URL:        u,
			UploadedAt: now.UTC().Format(time.RFC3339),
		})
	}
	return sources
}
