package handler

import (
	"net/http"

	"legal-smart-go/internal/config"
	"legal-smart-go/pkg/hash"
	"legal-smart-go/pkg/log"
	"legal-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责管理接口的登录。
type AuthHandler struct {
	jwtManager *token.JWTManager
}

// NewAuthHandler 创建一个新的 AuthHandler。
func NewAuthHandler(jwtManager *token.JWTManager) *AuthHandler {
	return &AuthHandler{jwtManager: jwtManager}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验配置中的管理员凭证并签发 access token。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username 和 password 为必填字段"})
		return
	}

	adminCfg := config.Conf.Admin
	if req.Username != adminCfg.Username || !hash.CheckPassword(req.Password, adminCfg.PasswordHash) {
		log.Warnf("[AuthHandler] 管理员登录失败, username: %s", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码错误"})
		return
	}

	accessToken, err := h.jwtManager.GenerateToken(req.Username, "ADMIN")
	if err != nil {
		log.Errorf("[AuthHandler] 签发 token 失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "签发 token 失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": gin.H{"accessToken": accessToken}})
}
