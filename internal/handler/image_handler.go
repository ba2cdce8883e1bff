package handler

import (
	"net/http"
	"path/filepath"
	"time"

	"legal-smart-go/internal/config"
	"legal-smart-go/pkg/log"
	"legal-smart-go/pkg/storage"
	"legal-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
)

// ImageHandler 负责证据图片的上传。
// 返回的预签名 URL 可直接作为 /chat 请求的 image 字段使用。
type ImageHandler struct {
	minioCfg config.MinIOConfig
}

// NewImageHandler 创建一个新的 ImageHandler 实例。
func NewImageHandler(minioCfg config.MinIOConfig) *ImageHandler {
	return &ImageHandler{minioCfg: minioCfg}
}

// Upload 处理 multipart 图片上传，存入 MinIO 并返回预签名访问 URL。
func (h *ImageHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 file 字段"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("[ImageHandler] 打开上传文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName := "images/" + token.GenerateRandomString(16) + filepath.Ext(fileHeader.Filename)

	_, err = storage.MinioClient.PutObject(
		c.Request.Context(),
		h.minioCfg.BucketName,
		objectName,
		file,
		fileHeader.Size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		log.Errorf("[ImageHandler] 上传图片到 MinIO 失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "上传图片失败"})
		return
	}

	url, err := storage.GetPresignedURL(h.minioCfg.BucketName, objectName, 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成访问链接失败"})
		return
	}

	log.Infof("[ImageHandler] 图片上传成功, object: %s", objectName)
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": gin.H{"url": url}})
}
