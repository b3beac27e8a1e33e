package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
	Generation  GenerationConfig  `yaml:"generation"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	// Provider 取值 http 或 eino，默认 http
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	// Timeout 单次调用超时（秒），默认 45
	Timeout int `yaml:"timeout"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	// Driver 取值 postgres 或 sqlite
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// SearchConfig 搜索相关配置
type SearchConfig struct {
	Provider string        `yaml:"provider"`
	Tavily   TavilyConfig  `yaml:"tavily"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ConcurrencyConfig 并发控制配置，RPM 为 0 时不限流
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// GenerationConfig 正文生成配置
type GenerationConfig struct {
	// SectionPauseMS 同级章节之间的停顿（毫秒），默认 500
	SectionPauseMS int `yaml:"section_pause_ms"`
}

// DSNString 返回数据库连接串，优先使用 DSN
func (c DBConfig) DSNString() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == "sqlite" || c.Driver == "sqlite3" {
		return c.Name
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	ApplyEnv(&cfg)
	return &cfg, nil
}

// ApplyEnv 使用环境变量覆盖配置项
func ApplyEnv(cfg *Config) {
	envOverride(&cfg.LLM.APIKey, "SILICONFLOW_API_KEY")
	envOverride(&cfg.LLM.BaseURL, "SILICONFLOW_BASE_URL")
	envOverride(&cfg.LLM.Model, "SILICONFLOW_MODEL")
	envOverride(&cfg.LLM.Provider, "REPORT_RADAR_LLM_PROVIDER")
	envOverride(&cfg.DB.Driver, "DATABASE_DRIVER")
	envOverride(&cfg.DB.DSN, "DATABASE_DSN")
	envOverride(&cfg.Search.Tavily.APIKey, "TAVILY_API_KEY")
	envOverride(&cfg.Log.Level, "LOG_LEVEL")
	if v := strings.TrimSpace(os.Getenv("LLM_RPM")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency.RPM = n
		}
	}
}

func envOverride(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
