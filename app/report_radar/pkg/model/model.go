package model

import (
	"time"
)

// Status 报告状态
type Status string

const (
	StatusDraft      Status = "draft"
	StatusDrafting   Status = "drafting"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid 判断状态是否为已知取值
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusDrafting, StatusGenerating, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Role 对话消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// RoleAdmin 管理员角色，可查看任意报告
const RoleAdmin = "admin"

// DataSource 报告的数据来源描述
type DataSource struct {
	Name       string `json:"name"`
	Size       int64  `json:"size,omitempty"`
	Type       string `json:"type,omitempty"`
	URL        string `json:"url,omitempty"`
	UploadedAt string `json:"uploadedAt,omitempty"`
}

// Brief 报告需求简介，大纲和正文生成的输入
type Brief struct {
	Title       string
	Industry    string
	Scenario    string
	Objective   string
	DataSources []string
}

// Report 产业研究报告
type Report struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Title       string         `json:"title"`
	Industry    string         `json:"industry"`
	Scenario    string         `json:"scenario,omitempty"`
	Objective   string         `json:"objective,omitempty"`
	DataSources []DataSource   `json:"data_sources"`
	Outline     []OutlineNode  `json:"outline"`
	Highlights  []string       `json:"highlights"`
	Metrics     map[string]any `json:"metrics"`
	Status      Status         `json:"status"`
	Content     *string        `json:"content"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Brief 返回报告的生成输入
func (r *Report) Brief() Brief {
	return Brief{
		Title:       r.Title,
		Industry:    r.Industry,
		Scenario:    r.Scenario,
		Objective:   r.Objective,
		DataSources: SourceNames(r.DataSources),
	}
}

// SourceNames 提取数据来源名称，名称为空时退回 URL
func SourceNames(sources []DataSource) []string {
	names := make([]string, 0, len(sources))
	for _, ds := range sources {
		switch {
		case ds.Name != "":
			names = append(names, ds.Name)
		case ds.URL != "":
			names = append(names, ds.URL)
		}
	}
	return names
}

// ConversationMessage 报告对话记录，只追加不修改
type ConversationMessage struct {
	ID        int64     `json:"id"`
	ReportID  int64     `json:"report_id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Viewer 发起请求的用户身份
type Viewer struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin 是否为管理员
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}
