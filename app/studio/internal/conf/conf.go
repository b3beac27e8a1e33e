package conf

// Bootstrap 服务配置根节点
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Auth   *Auth   `json:"auth"`
	Radar  *Radar  `json:"radar"`
}

type Auth struct {
	JwtKey string `json:"jwt_key"`
}

type Server struct {
	Http *HTTP `json:"http"`
}

type HTTP struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

type Data struct {
	Database *Database `json:"database"`
}

// Database driver 取值 postgres 或 sqlite
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

// Radar 报告引擎配置
type Radar struct {
	Llm         *LLM         `json:"llm"`
	Search      *Search      `json:"search"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
	Generation  *Generation  `json:"generation"`
}

type LLM struct {
	Provider string `json:"provider"`
	BaseUrl  string `json:"base_url"`
	ApiKey   string `json:"api_key"`
	Model    string `json:"model"`
	Timeout  int32  `json:"timeout"`
}

type Search struct {
	Provider string   `json:"provider"`
	Tavily   *Tavily  `json:"tavily"`
	Searxng  *SearXNG `json:"searxng"`
}

type Tavily struct {
	ApiKey string `json:"api_key"`
}

type SearXNG struct {
	BaseUrl string `json:"base_url"`
	Timeout int32  `json:"timeout"`
}

type Log struct {
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSizeMb  int32  `json:"max_size_mb"`
	MaxBackups int32  `json:"max_backups"`
	MaxAgeDays int32  `json:"max_age_days"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

type Generation struct {
	SectionPauseMs int32 `json:"section_pause_ms"`
}
