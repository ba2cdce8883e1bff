// Package pipeline 定义了知识条目向量化的核心流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"legal-smart-go/internal/config"
	"legal-smart-go/internal/model"
	"legal-smart-go/internal/repository"
	"legal-smart-go/pkg/embedding"
	"legal-smart-go/pkg/es"
	"legal-smart-go/pkg/log"
	"legal-smart-go/pkg/tasks"

	"gorm.io/gorm"
)

// Processor 封装了向量化处理的所有依赖和逻辑。
type Processor struct {
	embeddingClient embedding.Client
	knowledgeRepo   repository.KnowledgeRepository
	esCfg           config.ElasticsearchConfig
	embeddingCfg    config.EmbeddingConfig
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	embeddingClient embedding.Client,
	knowledgeRepo repository.KnowledgeRepository,
	esCfg config.ElasticsearchConfig,
	embeddingCfg config.EmbeddingConfig,
) *Processor {
	return &Processor{
		embeddingClient: embeddingClient,
		knowledgeRepo:   knowledgeRepo,
		esCfg:           esCfg,
		embeddingCfg:    embeddingCfg,
	}
}

// Process 处理一个向量化任务：从数据库读取条目，向量化，索引到 ES。
func (p *Processor) Process(ctx context.Context, task tasks.KnowledgeVectorTask) error {
	log.Infof("[Processor] 开始处理向量化任务, EntryID: %d", task.EntryID)

	// 1. 以数据库中的当前内容为准（任务里的快照可能已过期）
	entry, err := p.knowledgeRepo.FindByID(task.EntryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 条目已被删除，任务作废
			log.Warnf("[Processor] 知识条目 %d 不存在, 跳过向量化", task.EntryID)
			return nil
		}
		return fmt.Errorf("读取知识条目失败: %w", err)
	}

	// 2. 向量化：topic 与 content 合并为一段文本
	text := entry.Topic + "\n" + entry.Content
	vector, err := p.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		log.Errorf("[Processor] 条目 %d 向量化失败, Error: %v", entry.ID, err)
		return fmt.Errorf("条目 %d 向量化失败: %w", entry.ID, err)
	}

	// 3. 索引到 Elasticsearch
	esDoc := model.KnowledgeEsDoc{
		DocID:        strconv.FormatUint(uint64(entry.ID), 10),
		Topic:        entry.Topic,
		Content:      entry.Content,
		Vector:       vector,
		ModelVersion: p.embeddingCfg.Model,
	}
	if err := es.IndexKnowledge(ctx, p.esCfg.IndexName, esDoc); err != nil {
		log.Errorf("[Processor] 索引条目 %d 到 Elasticsearch 失败, Error: %v", entry.ID, err)
		return fmt.Errorf("索引条目 %d 到 Elasticsearch 失败: %w", entry.ID, err)
	}

	log.Infof("[Processor] 向量化任务处理成功, EntryID: %d, 向量维度: %d", entry.ID, len(vector))
	return nil
}
