package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
)

const maxErrorBody = 4096

// Client 直接调用 OpenAI 兼容的 chat completions 接口
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Generator = (*Client)(nil)

// Option 客户端可选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter 每次调用前等待限流器
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient 创建客户端，未配置的地址与模型使用默认值
func NewClient(cfg config.LLMConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		timeout:    timeoutFromConfig(cfg),
		httpClient: &http.Client{},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate 发送一次补全请求并返回文本
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", &ConfigurationError{Reason: "未配置 SILICONFLOW_API_KEY，请在环境变量中设置 API Key"}
	}
	req = req.withDefaults(c.timeout)

	if err := waitLimiter(ctx, c.limiter); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	start := time.Now()
	content, err := c.do(ctx, req)
	if err != nil {
		logger.Log.Errorf("LLM 调用失败 model=%s prompt_len=%d cost=%s: %v", c.model, len([]rune(req.Prompt)), time.Since(start), err)
		return "", err
	}
	logger.Log.Debugf("LLM 调用成功 model=%s prompt_len=%d reply_len=%d cost=%s", c.model, len([]rune(req.Prompt)), len([]rune(content)), time.Since(start))
	return content, nil
}

func (c *Client) do(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature:    DefaultTemperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: responseFormat{Type: "text"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TimeoutError{Cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return "", &UpstreamError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &TimeoutError{Cause: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &EmptyResponseError{Reason: fmt.Sprintf("响应无法解析: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &EmptyResponseError{Reason: "empty choices"}
	}
	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &EmptyResponseError{Reason: "content is blank"}
	}
	return content, nil
}
