// Package searxng 通过自建 SearXNG 实例检索报告参考资料。
package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/search"
)

const (
	maxErrorBody   = 4096
	defaultTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; report-radar/1.0)"
)

// Client 面向报告资料检索的 SearXNG 客户端
type Client struct {
	endpoint string
	client   *http.Client
}

var _ search.Searcher = (*Client)(nil)

// NewClient 创建客户端，timeout 单位为秒，<= 0 时为 30 秒
func NewClient(baseURL string, timeout int) *Client {
	t := time.Duration(timeout) * time.Second
	if t <= 0 {
		t = defaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/search",
		client:   &http.Client{Timeout: t},
	}
}

type response struct {
	Results []result `json:"results"`
}

type result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate *string `json:"publishedDate"`
	Score         float64 `json:"score"`
}

// Search 按主题检索。news 主题先查新闻分类，无结果时退回综合分类；
// 中文检索词限定中文结果，结果在本地去重并截断到 MaxResults
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	params := queryParams(req)
	results, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && req.Topic == "news" {
		logger.Log.Infof("SearXNG 新闻分类无结果，改用综合分类检索: %s", req.Query)
		params.Set("categories", "general")
		params.Del("time_range")
		if results, err = c.query(ctx, params); err != nil {
			return nil, err
		}
	}
	return &search.Response{Results: collect(results, req.MaxResults)}, nil
}

func queryParams(req *search.Request) url.Values {
	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("format", "json")
	q.Set("categories", "general")
	if req.Topic == "news" {
		q.Set("categories", "news")
		q.Set("time_range", "year")
	}
	if hasHan(req.Query) {
		q.Set("language", "zh-CN")
	}
	return q
}

func (c *Client) query(ctx context.Context, params url.Values) ([]result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	// 部分实例会拦截默认 UA
	httpReq.Header.Set("User-Agent", userAgent)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, fmt.Errorf("searxng api error (status %d): %s", res.StatusCode, string(body))
	}

	var resp response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	return resp.Results, nil
}

// collect 丢弃非 http(s) 链接和重复链接，发布时间只保留日期
func collect(in []result, limit int) []search.Result {
	out := make([]search.Result, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, r := range in {
		if limit > 0 && len(out) >= limit {
			break
		}
		link := strings.TrimSpace(r.URL)
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			continue
		}
		if seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, search.Result{
			Title:         strings.TrimSpace(r.Title),
			URL:           link,
			Content:       strings.TrimSpace(r.Content),
			Score:         r.Score,
			PublishedDate: publishedDay(r.PublishedDate),
		})
	}
	return out
}

func publishedDay(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(time.DateOnly)
	}
	if len(v) >= 10 {
		if t, err := time.Parse(time.DateOnly, v[:10]); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return ""
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
