// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"legal-smart-go/internal/config"
	"legal-smart-go/internal/model"
	"legal-smart-go/internal/repository"
	"legal-smart-go/pkg/llm"
	"legal-smart-go/pkg/log"

	"github.com/gorilla/websocket"
)

// 系统提示词的内置默认片段。配置中的 chat.prompt 可以覆盖它们。
const (
	defaultPromptPreamble  = "คุณคือผู้ช่วย AI กฎหมาย\nข้อมูลอ้างอิง:"
	defaultPromptDirective = "คำสั่ง: ตอบคำถามโดยอ้างอิงข้อมูลด้านบนเท่านั้น หากไม่มีให้ตอบว่าไม่ทราบ"
	defaultNoResultText    = "ไม่พบข้อมูลในฐานข้อมูล"

	defaultUpstreamTimeout = 30 * time.Second
)

// ChatService 定义了问答操作的接口。
type ChatService interface {
	// Answer 执行一次完整的单轮问答：检索 → 组装提示词 → 生成答案。
	Answer(ctx context.Context, query model.ChatQuery) (*model.ChatResult, error)
	// StreamAnswer 在 WebSocket 连接上执行多轮流式问答，历史保存在 Redis。
	StreamAnswer(ctx context.Context, conversationID, question string, ws *websocket.Conn) error
}

type chatService struct {
	retrieval        RetrievalService
	llmClient        llm.Client
	conversationRepo repository.ConversationRepository
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(retrieval RetrievalService, llmClient llm.Client, conversationRepo repository.ConversationRepository) ChatService {
	return &chatService{
		retrieval:        retrieval,
		llmClient:        llmClient,
		conversationRepo: conversationRepo,
	}
}

// Answer 协调单轮问答的三步外部调用。三步严格串行，任何一步失败立即中止。
func (s *chatService) Answer(ctx context.Context, query model.ChatQuery) (*model.ChatResult, error) {
	log.Infof("[ChatService] 收到问答请求, message_len: %d, has_image: %t", len(query.Message), query.Image != "")

	// 1. 检索：仅在有问句时执行；无问句时上下文为空字符串（不是哨兵文本）
	contextText := ""
	if query.Message != "" {
		retrievalCtx, cancel := context.WithTimeout(ctx, upstreamTimeout())
		snippets, err := s.retrieval.Retrieve(retrievalCtx, query.Message)
		cancel()
		if err != nil {
			return nil, err
		}
		contextText = buildContextBlock(snippets)
	}

	// 2. 组装提示词
	systemPrompt := buildSystemPrompt(contextText)
	messages := []llm.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserContent(query)},
	}

	// 3. 调用聊天补全
	completionCtx, cancel := context.WithTimeout(ctx, upstreamTimeout())
	defer cancel()
	answer, err := s.llmClient.Complete(completionCtx, messages)
	if err != nil {
		return nil, err
	}

	log.Infof("[ChatService] 问答完成, answer_len: %d, context_len: %d", len(answer), len(contextText))
	return &model.ChatResult{Answer: answer, Context: contextText}, nil
}

// StreamAnswer 协调多轮流式问答并将 LLM 响应写回 WebSocket。
func (s *chatService) StreamAnswer(ctx context.Context, conversationID, question string, ws *websocket.Conn) error {
	// 1. 检索上下文
	contextText := ""
	if question != "" {
		retrievalCtx, cancel := context.WithTimeout(ctx, upstreamTimeout())
		snippets, err := s.retrieval.Retrieve(retrievalCtx, question)
		cancel()
		if err != nil {
			return err
		}
		contextText = buildContextBlock(snippets)
	}

	// 2. 构建 system 消息与历史
	systemPrompt := buildSystemPrompt(contextText)
	history, err := s.conversationRepo.GetConversationHistory(ctx, conversationID)
	if err != nil {
		log.Errorf("Failed to load conversation history: %v", err)
		history = []model.ChatMessage{}
	}
	messages := composeMessages(systemPrompt, history, question)

	// 拦截 websocket writer 以捕获完整答案，并包装为 JSON 分块
	answerBuilder := &strings.Builder{}
	interceptor := &wsWriterInterceptor{conn: ws, writer: answerBuilder}

	// 3. 调用 LLM 客户端以流式传输响应
	if err := s.llmClient.StreamChatMessages(ctx, messages, interceptor); err != nil {
		return err
	}

	// 4. 发送完成通知，并将对话保存到 Redis
	sendCompletion(ws)
	fullAnswer := answerBuilder.String()
	if len(fullAnswer) > 0 {
		// 使用后台上下文，因为即使原始请求被取消，我们也希望保存成功生成的答案
		if err := s.saveConversation(context.Background(), conversationID, question, fullAnswer); err != nil {
			// 只记录错误，不返回给客户端，因为流式响应已经成功
			log.Errorf("Failed to save conversation history: %v", err)
		}
	}

	return nil
}

// buildContextBlock 将检索结果格式化为参考上下文。
// 每条格式为 "- หัวข้อ: <topic>\n  เนื้อหา: <content>"，条目之间以空行分隔；
// 零命中时返回哨兵文本。
func buildContextBlock(snippets []model.KnowledgeSnippet) string {
	if len(snippets) == 0 {
		noRes := config.Conf.Chat.Prompt.NoResultText
		if noRes == "" {
			noRes = defaultNoResultText
		}
		return noRes
	}

	lines := make([]string, 0, len(snippets))
	for _, sn := range snippets {
		lines = append(lines, "- หัวข้อ: "+sn.Topic+"\n  เนื้อหา: "+sn.Content)
	}
	return strings.Join(lines, "\n\n")
}

// buildSystemPrompt 组装系统提示词：角色前言 + 参考上下文 + 约束指令。
// 上下文是唯一的替换点，原样内联。
func buildSystemPrompt(contextText string) string {
	preamble := config.Conf.Chat.Prompt.Preamble
	if preamble == "" {
		preamble = defaultPromptPreamble
	}
	directive := config.Conf.Chat.Prompt.Directive
	if directive == "" {
		directive = defaultPromptDirective
	}

	var sys strings.Builder
	sys.WriteString(preamble)
	sys.WriteString("\n")
	sys.WriteString(contextText)
	sys.WriteString("\n\n")
	sys.WriteString(directive)
	return sys.String()
}

// buildUserContent 按顺序组装用户消息的内容段：先文本后图片。
// 两者都缺省时提交空列表（与原有宽松行为保持一致）。
func buildUserContent(query model.ChatQuery) []llm.ContentPart {
	parts := make([]llm.ContentPart, 0, 2)
	if query.Message != "" {
		parts = append(parts, llm.TextPart(query.Message))
	}
	if query.Image != "" {
		parts = append(parts, llm.ImagePart(query.Image))
	}
	return parts
}

func composeMessages(systemPrompt string, history []model.ChatMessage, question string) []llm.ChatMessage {
	msgs := make([]llm.ChatMessage, 0, len(history)+2)
	msgs = append(msgs, llm.ChatMessage{Role: "system", Content: systemPrompt})
	for _, m := range history {
		msgs = append(msgs, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.ChatMessage{Role: "user", Content: question})
	return msgs
}

// saveConversation 把一轮问答追加到 Redis 中的对话历史。
func (s *chatService) saveConversation(ctx context.Context, conversationID, question, answer string) error {
	history, err := s.conversationRepo.GetConversationHistory(ctx, conversationID)
	if err != nil {
		return err
	}

	now := time.Now()
	history = append(history,
		model.ChatMessage{Role: "user", Content: question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now},
	)

	return s.conversationRepo.UpdateConversationHistory(ctx, conversationID, history)
}

func upstreamTimeout() time.Duration {
	if secs := config.Conf.Chat.UpstreamTimeoutSeconds; secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultUpstreamTimeout
}

// wsWriterInterceptor 是对 websocket.Conn 的封装，用于捕获写入的消息。
type wsWriterInterceptor struct {
	conn   *websocket.Conn
	writer *strings.Builder
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *wsWriterInterceptor) WriteMessage(messageType int, data []byte) error {
	w.writer.Write(data)
	// 将原始分块包装成 {"chunk":"..."}
	payload := map[string]string{"chunk": string(data)}
	b, _ := json.Marshal(payload)
	return w.conn.WriteMessage(messageType, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(ws *websocket.Conn) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"timestamp": time.Now().UnixMilli(),
	}
	b, _ := json.Marshal(notif)
	_ = ws.WriteMessage(websocket.TextMessage, b)
}
