// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legal-smart-go/internal/config"
	"legal-smart-go/internal/handler"
	"legal-smart-go/internal/middleware"
	"legal-smart-go/internal/model"
	"legal-smart-go/internal/pipeline"
	"legal-smart-go/internal/repository"
	"legal-smart-go/internal/service"
	"legal-smart-go/pkg/database"
	"legal-smart-go/pkg/embedding"
	"legal-smart-go/pkg/es"
	"legal-smart-go/pkg/kafka"
	"legal-smart-go/pkg/llm"
	"legal-smart-go/pkg/log"
	"legal-smart-go/pkg/storage"
	"legal-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 凭证缺失属于启动期致命错误，不进入接受请求的状态
	if cfg.Embedding.APIKey == "" {
		log.Fatalf("缺少 embedding.api_key 配置")
	}
	if cfg.LLM.APIKey == "" {
		log.Fatalf("缺少 llm.api_key 配置")
	}

	// 3. 初始化数据库、Redis、MinIO、Elasticsearch 与 Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.KnowledgeEntry{}); err != nil {
		log.Fatalf("knowledge_entries 表迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
		log.Fatalf("es 初始化失败 %s", err)
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	knowledgeRepo := repository.NewKnowledgeRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.Admin.JWT.Secret, cfg.Admin.JWT.AccessTokenExpireHours)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	retrievalService := service.NewRetrievalService(embeddingClient, es.ESClient, cfg.Elasticsearch.IndexName)
	chatService := service.NewChatService(retrievalService, llmClient, conversationRepo)
	knowledgeService := service.NewKnowledgeService(knowledgeRepo, kafka.ProduceVectorTask)

	// 6. 初始化向量化管道 (Processor)
	processor := pipeline.NewProcessor(
		embeddingClient,
		knowledgeRepo,
		cfg.Elasticsearch,
		cfg.Embedding,
	)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	chatHandler := handler.NewChatHandler(chatService)
	// 问答入口不设认证层（由前置网关负责）
	r.POST("/chat", chatHandler.Ask)
	r.GET("/chat/stream", chatHandler.Stream)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/images", handler.NewImageHandler(cfg.MinIO).Upload)

		admin := apiV1.Group("/admin")
		admin.POST("/login", handler.NewAuthHandler(jwtManager).Login)

		// 知识库管理路由，需要管理员认证
		authed := admin.Group("/")
		authed.Use(middleware.AdminAuthMiddleware(jwtManager))
		{
			knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService)
			authed.POST("/knowledge", knowledgeHandler.Create)
			authed.GET("/knowledge", knowledgeHandler.List)
			authed.DELETE("/knowledge/:id", knowledgeHandler.Delete)
			authed.POST("/knowledge/reindex", knowledgeHandler.Reindex)

			authed.GET("/conversations", handler.NewConversationHandler(conversationRepo).Get)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
