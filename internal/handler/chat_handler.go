// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"legal-smart-go/internal/model"
	"legal-smart-go/internal/service"
	"legal-smart-go/pkg/log"
	"legal-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理问答请求（同步 HTTP 与 WebSocket 流式两种形式）。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// Ask 处理 POST /chat：单轮问答。
// 请求体格式不合法时直接返回 400，不触发任何上游调用；
// message 与 image 均可缺省，缺省时按宽松行为继续。
func (h *ChatHandler) Ask(c *gin.Context) {
	var query model.ChatQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		log.Warnf("[ChatHandler] 请求体解析失败: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.chatService.Answer(c.Request.Context(), query)
	if err != nil {
		// 任何一步上游调用失败都收敛到这里：一条日志，一个通用错误响应
		log.Errorf("[ChatHandler] 问答流程失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stream 处理 GET /chat/stream：WebSocket 多轮流式问答。
// 每个文本帧是一个问题；conversation 查询参数可指定会话，缺省时新建。
func (h *ChatHandler) Stream(c *gin.Context) {
	conversationID := c.Query("conversation")
	if conversationID == "" {
		conversationID = token.GenerateRandomString(16)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立, conversation: %s", conversationID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		err = h.chatService.StreamAnswer(c.Request.Context(), conversationID, string(message), conn)
		if err != nil {
			log.Errorf("处理流式响应失败: %v", err)
			writeStreamError(conn)
			break
		}
	}
}

func writeStreamError(conn *websocket.Conn) {
	_ = conn.WriteJSON(map[string]string{"error": "AI 服务暂时不可用，请稍后重试"})
}
