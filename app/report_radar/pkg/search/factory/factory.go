package factory

import (
	"fmt"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/search"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/searxng"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/tavily"
)

// NewSearcher 根据配置创建搜索实例。未配置任何搜索服务时返回 nil，表示关闭参考资料检索
func NewSearcher(cfg config.SearchConfig) (search.Searcher, error) {
	provider := cfg.Provider
	if provider == "" {
		if cfg.Tavily.APIKey == "" {
			return nil, nil
		}
		provider = "tavily"
	}

	switch provider {
	case "tavily":
		if cfg.Tavily.APIKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		return tavily.NewClient(cfg.Tavily.APIKey), nil

	case "searxng":
		if cfg.SearXNG.BaseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		return searxng.NewClient(cfg.SearXNG.BaseURL, cfg.SearXNG.Timeout), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}
}
