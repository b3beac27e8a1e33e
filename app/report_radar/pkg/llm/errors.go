package llm

import (
	"fmt"
)

// ConfigurationError 缺少凭证等配置问题，在任何网络请求之前返回
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "AI 服务未配置: " + e.Reason
}

// UpstreamError 上游返回非 2xx 状态
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI 服务调用失败: %d - %s", e.StatusCode, e.Body)
}

// TimeoutError 超时或网络不可达
type TimeoutError struct {
	Cause error
}

func (e *TimeoutError) Error() string {
	if e.Cause == nil {
		return "AI 服务连接超时，请检查网络连接或稍后重试"
	}
	return fmt.Sprintf("AI 服务连接超时，请检查网络连接或稍后重试: %v", e.Cause)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// EmptyResponseError 调用成功但没有可用文本
type EmptyResponseError struct {
	Reason string
}

func (e *EmptyResponseError) Error() string {
	return "AI 服务返回空内容: " + e.Reason
}
