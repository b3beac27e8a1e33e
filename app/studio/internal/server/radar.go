package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/engine"
	"github.com/iWorld-y/report_radar/app/studio/internal/conf"
	"github.com/iWorld-y/report_radar/app/studio/internal/data"
)

// RadarConfig 将服务配置转换为引擎配置，nil 节点取零值
func RadarConfig(c *conf.Radar) *config.Config {
	cfg := &config.Config{}
	if c == nil {
		config.ApplyEnv(cfg)
		return cfg
	}
	if l := c.Llm; l != nil {
		cfg.LLM = config.LLMConfig{
			Provider: l.Provider,
			BaseURL:  l.BaseUrl,
			APIKey:   l.ApiKey,
			Model:    l.Model,
			Timeout:  int(l.Timeout),
		}
	}
	if s := c.Search; s != nil {
		cfg.Search.Provider = s.Provider
		if s.Tavily != nil {
			cfg.Search.Tavily.APIKey = s.Tavily.ApiKey
		}
		if s.Searxng != nil {
			cfg.Search.SearXNG = config.SearXNGConfig{BaseURL: s.Searxng.BaseUrl, Timeout: int(s.Searxng.Timeout)}
		}
	}
	if l := c.Log; l != nil {
		cfg.Log = config.LogConfig{
			Level:      l.Level,
			File:       l.File,
			MaxSizeMB:  int(l.MaxSizeMb),
			MaxBackups: int(l.MaxBackups),
			MaxAgeDays: int(l.MaxAgeDays),
		}
	}
	if cc := c.Concurrency; cc != nil {
		cfg.Concurrency = config.ConcurrencyConfig{QPS: int(cc.Qps), RPM: int(cc.Rpm)}
	}
	if g := c.Generation; g != nil {
		cfg.Generation.SectionPauseMS = int(g.SectionPauseMs)
	}
	config.ApplyEnv(cfg)
	return cfg
}

// NewReportEngine 初始化报告引擎
func NewReportEngine(c *conf.Radar, d *data.Data, logger log.Logger) (*engine.Engine, error) {
	eng, err := engine.NewEngine(context.Background(), RadarConfig(c), d.Store)
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init report engine: %v", err)
		return nil, err
	}
	return eng, nil
}
