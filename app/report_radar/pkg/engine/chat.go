package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/extract"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/llm"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
)

const (
	historyWindow   = 8
	contextRunes    = 1000
	chatMaxTokens   = 800
	chatTimeout     = 30 * time.Second
	selectionMarker = "针对以下内容："
)

// ChatResult 一轮对话的结果
type ChatResult struct {
	MessageID     int64  `json:"messageId"`
	Reply         string `json:"reply"`
	UserMessageID int64  `json:"userMessageId"`
}

// Chat 围绕报告进行一轮问答。用户消息先落库，上游失败时不写入助手回复
func (e *Engine) Chat(ctx context.Context, userID, id int64, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: 问题不能为空", model.ErrInvalidArgument)
	}

	r, err := e.store.GetReport(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	uid := userID
	userMsg := &model.ConversationMessage{ReportID: id, UserID: &uid, Role: model.RoleUser, Message: message}
	if _, err := e.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("保存用户消息失败: %w", err)
	}

	history, err := e.store.RecentMessages(ctx, id, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("读取对话记录失败: %w", err)
	}

	reply, err := e.gen.Generate(ctx, llm.Request{
		Prompt:    buildChatPrompt(r, history, message),
		MaxTokens: chatMaxTokens,
		Timeout:   chatTimeout,
	})
	if err != nil {
		logger.Log.Errorf("报告对话调用 LLM 失败 [%d]: %v", id, err)
		return nil, err
	}
	reply = extract.CleanProse(reply)

	assistantMsg := &model.ConversationMessage{ReportID: id, UserID: &uid, Role: model.RoleAssistant, Message: reply}
	if _, err := e.store.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("保存助手回复失败: %w", err)
	}

	return &ChatResult{
		MessageID:     assistantMsg.ID,
		Reply:         reply,
		UserMessageID: userMsg.ID,
	}, nil
}

// isSelection 判断用户是否针对报告中选中的文本提问
func isSelection(message string) bool {
	return strings.Contains(message, selectionMarker) || strings.Contains(message, `"`)
}

func buildChatPrompt(r *model.Report, history []model.ConversationMessage, message string) string {
	excerpt := "正文暂无"
	if r.Content != nil && strings.TrimSpace(*r.Content) != "" {
		runes := []rune(*r.Content)
		if len(runes) > contextRunes {
			runes = runes[:contextRunes]
		}
		excerpt = string(runes)
	}

	lines := make([]string, 0, len(history))
	for _, m := range history {
		speaker := "用户"
		if m.Role == model.RoleAssistant {
			speaker = "助手"
		}
		lines = append(lines, speaker+": "+m.Message)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "你正在协助完成产业报告《%s》。\n\n报告上下文：\n%s\n\n最近对话：\n%s\n\n用户最新问题：%s",
		r.Title, excerpt, strings.Join(lines, "\n"), message)
	if isSelection(message) {
		b.WriteString("\n\n重要：用户选中了报告中的特定文本，请直接返回优化后的内容，可以直接替换原文本。保持格式和风格一致。")
	} else {
		b.WriteString("\n\n请用中文简洁回答，给出3-5条要点，必要时列出可追加的数据需求。")
	}
	return b.String()
}
