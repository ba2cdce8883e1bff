package handler

import (
	"net/http"
	"strconv"

	"legal-smart-go/internal/service"
	"legal-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// KnowledgeHandler 结构体定义了知识库管理相关的处理器。
type KnowledgeHandler struct {
	knowledgeService service.KnowledgeService
}

// NewKnowledgeHandler 创建一个新的 KnowledgeHandler 实例。
func NewKnowledgeHandler(knowledgeService service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledgeService: knowledgeService,
	}
}

// createKnowledgeRequest 是新建知识条目的请求体。
type createKnowledgeRequest struct {
	Topic   string `json:"topic" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Create 处理新建知识条目的请求。
func (h *KnowledgeHandler) Create(c *gin.Context) {
	var req createKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic 和 content 为必填字段"})
		return
	}

	entry, err := h.knowledgeService.Create(c.Request.Context(), req.Topic, req.Content)
	if err != nil {
		log.Errorf("[KnowledgeHandler] 创建知识条目失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建知识条目失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": entry})
}

// List 处理分页查询知识条目的请求。
func (h *KnowledgeHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 {
		size = 20
	}

	entries, total, err := h.knowledgeService.List(page, size)
	if err != nil {
		log.Errorf("[KnowledgeHandler] 查询知识条目失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询知识条目失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": gin.H{
		"list":  entries,
		"total": total,
		"page":  page,
		"size":  size,
	}})
}

// Delete 处理删除知识条目的请求。
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的条目 ID"})
		return
	}

	if err := h.knowledgeService.Delete(c.Request.Context(), uint(id)); err != nil {
		log.Errorf("[KnowledgeHandler] 删除知识条目失败, id: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除知识条目失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success"})
}

// Reindex 处理全量重建向量索引的请求。
func (h *KnowledgeHandler) Reindex(c *gin.Context) {
	count, err := h.knowledgeService.Reindex(c.Request.Context())
	if err != nil {
		log.Errorf("[KnowledgeHandler] 重建索引失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "重建索引失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": gin.H{"enqueued": count}})
}
