package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/meguminnnnnnnnn/go-openai"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
)

// EinoClient 基于 eino ChatModel 的 Generator，错误按与 Client 相同的类型归类
type EinoClient struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
	limiter   *rate.Limiter
	cfgErr    *ConfigurationError
}

var _ Generator = (*EinoClient)(nil)

// NewEinoClient 使用 eino-ext openai 组件创建客户端。
// 未配置 API Key 时仍返回客户端，每次调用直接返回 ConfigurationError
func NewEinoClient(ctx context.Context, cfg config.LLMConfig, limiter *rate.Limiter) (*EinoClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return &EinoClient{
			timeout: timeoutFromConfig(cfg),
			limiter: limiter,
			cfgErr:  &ConfigurationError{Reason: "未配置 SILICONFLOW_API_KEY，请在环境变量中设置 API Key"},
		}, nil
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
		Timeout: timeoutFromConfig(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return NewEinoClientWithModel(chatModel, timeoutFromConfig(cfg), limiter), nil
}

// NewEinoClientWithModel 包装已有的 ChatModel
func NewEinoClientWithModel(cm model.BaseChatModel, timeout time.Duration, limiter *rate.Limiter) *EinoClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &EinoClient{chatModel: cm, timeout: timeout, limiter: limiter}
}

// Generate 实现 Generator 接口
func (c *EinoClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.cfgErr != nil {
		return "", c.cfgErr
	}
	req = req.withDefaults(c.timeout)
	if err := waitLimiter(ctx, c.limiter); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	messages := []*schema.Message{
		{Role: schema.System, Content: req.System},
		{Role: schema.User, Content: req.Prompt},
	}
	resp, err := c.chatModel.Generate(ctx, messages,
		model.WithMaxTokens(req.MaxTokens),
		model.WithTemperature(float32(DefaultTemperature)),
	)
	if err != nil {
		err = classifyEinoError(ctx, err)
		logger.Log.Errorf("LLM 调用失败 prompt_len=%d: %v", len([]rune(req.Prompt)), err)
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", &EmptyResponseError{Reason: "content is blank"}
	}
	return resp.Content, nil
}

func classifyEinoError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Cause: err}
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 300 {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 300 {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body)}
	}
	return &TimeoutError{Cause: err}
}
