// Package source 补全报告数据来源的描述信息。
package source

import (
	"context"
	"fmt"
	"net/http"
	nurl "net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
)

const fetchTimeout = 30 * time.Second

// TitleFetcher 获取网页标题
type TitleFetcher func(ctx context.Context, url string) (string, error)

// Resolver 为只有 URL 的数据来源补全名称
type Resolver struct {
	fetch TitleFetcher
}

// NewResolver 创建使用 readability 抓取网页标题的 Resolver
func NewResolver() *Resolver {
	return &Resolver{fetch: ReadabilityTitle(&http.Client{Timeout: fetchTimeout})}
}

// NewResolverWithFetcher 使用自定义的标题获取方式
func NewResolverWithFetcher(fetch TitleFetcher) *Resolver {
	return &Resolver{fetch: fetch}
}

// ReadabilityTitle 用 client 抓取页面并由 readability 解析标题，请求随 ctx 取消
func ReadabilityTitle(client *http.Client) TitleFetcher {
	return func(ctx context.Context, pageURL string) (string, error) {
		parsed, err := nurl.ParseRequestURI(pageURL)
		if err != nil {
			return "", fmt.Errorf("failed to parse URL: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to fetch the page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return "", fmt.Errorf("failed to fetch the page: status %d", resp.StatusCode)
		}
		if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
			return "", fmt.Errorf("URL is not a HTML document")
		}
		article, err := readability.FromReader(resp.Body, parsed)
		if err != nil {
			return "", err
		}
		return article.Title, nil
	}
}

// Resolve 返回补全后的数据来源副本。抓取失败时保留 URL 作为名称，不返回错误
func (r *Resolver) Resolve(ctx context.Context, sources []model.DataSource) []model.DataSource {
	out := make([]model.DataSource, 0, len(sources))
	for _, ds := range sources {
		ds.Name = strings.TrimSpace(ds.Name)
		ds.URL = strings.TrimSpace(ds.URL)
		if ds.Name == "" && ds.URL == "" {
			continue
		}
		if ds.Name == "" {
			ds.Name = ds.URL
			if ctx.Err() == nil {
				title, err := r.fetch(ctx, ds.URL)
				switch {
				case err != nil:
					logger.Log.Warnf("获取数据来源标题失败 [%s]: %v", ds.URL, err)
				case strings.TrimSpace(title) != "":
					ds.Name = strings.TrimSpace(title)
				}
			}
		}
		out = append(out, ds)
	}
	return out
}
