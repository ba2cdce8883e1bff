package handler

import (
	"net/http"

	"legal-smart-go/internal/repository"
	"legal-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 提供流式问答历史的管理员查询接口。
type ConversationHandler struct {
	conversationRepo repository.ConversationRepository
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
func NewConversationHandler(conversationRepo repository.ConversationRepository) *ConversationHandler {
	return &ConversationHandler{conversationRepo: conversationRepo}
}

// Get 返回指定对话的历史记录；不带 conversationId 时返回全部对话 ID。
func (h *ConversationHandler) Get(c *gin.Context) {
	conversationID := c.Query("conversationId")

	if conversationID == "" {
		ids, err := h.conversationRepo.ListConversationIDs(c.Request.Context())
		if err != nil {
			log.Errorf("[ConversationHandler] 查询对话列表失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询对话列表失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": gin.H{"conversationIds": ids}})
		return
	}

	history, err := h.conversationRepo.GetConversationHistory(c.Request.Context(), conversationID)
	if err != nil {
		log.Errorf("[ConversationHandler] 查询对话历史失败, id: %s, error: %v", conversationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询对话历史失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": gin.H{
		"conversationId": conversationID,
		"messages":       history,
	}})
}
