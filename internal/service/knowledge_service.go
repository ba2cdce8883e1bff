// Package service 提供了知识库管理的业务逻辑。
package service

import (
	"context"
	"fmt"
	"strconv"

	"legal-smart-go/internal/config"
	"legal-smart-go/internal/model"
	"legal-smart-go/internal/repository"
	"legal-smart-go/pkg/es"
	"legal-smart-go/pkg/log"
	"legal-smart-go/pkg/tasks"
)

// KnowledgeService 接口定义了知识条目的管理操作。
// 写路径：先落 MySQL（事实来源），再投递 Kafka 向量化任务，由 pipeline 异步写入 ES。
type KnowledgeService interface {
	Create(ctx context.Context, topic, content string) (*model.KnowledgeEntry, error)
	List(page, size int) ([]model.KnowledgeEntry, int64, error)
	Delete(ctx context.Context, id uint) error
	Reindex(ctx context.Context) (int, error)
}

type knowledgeService struct {
	repo    repository.KnowledgeRepository
	produce func(tasks.KnowledgeVectorTask) error
}

// NewKnowledgeService 创建一个新的 KnowledgeService 实例。
// produce 通常是 kafka.ProduceVectorTask。
func NewKnowledgeService(repo repository.KnowledgeRepository, produce func(tasks.KnowledgeVectorTask) error) KnowledgeService {
	return &knowledgeService{
		repo:    repo,
		produce: produce,
	}
}

// Create 新建一条知识条目并触发向量化。
func (s *knowledgeService) Create(ctx context.Context, topic, content string) (*model.KnowledgeEntry, error) {
	entry := &model.KnowledgeEntry{
		Topic:   topic,
		Content: content,
	}
	if err := s.repo.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to create knowledge entry: %w", err)
	}

	task := tasks.KnowledgeVectorTask{
		EntryID: entry.ID,
		Topic:   entry.Topic,
		Content: entry.Content,
	}
	if err := s.produce(task); err != nil {
		// 条目已落库，向量化任务可通过 reindex 补投，不回滚
		log.Errorf("[KnowledgeService] 投递向量化任务失败, EntryID: %d, Error: %v", entry.ID, err)
		return entry, fmt.Errorf("entry saved but failed to enqueue vectorization: %w", err)
	}

	log.Infof("[KnowledgeService] 知识条目已创建并触发向量化, EntryID: %d", entry.ID)
	return entry, nil
}

// List 分页返回知识条目。
func (s *knowledgeService) List(page, size int) ([]model.KnowledgeEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return s.repo.FindWithPagination((page-1)*size, size)
}

// Delete 删除一条知识条目及其在 ES 中的向量副本。
func (s *knowledgeService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete knowledge entry: %w", err)
	}
	if err := es.DeleteKnowledge(ctx, config.Conf.Elasticsearch.IndexName, strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("entry deleted but failed to remove vector: %w", err)
	}
	log.Infof("[KnowledgeService] 知识条目已删除, EntryID: %d", id)
	return nil
}

// Reindex 把所有知识条目重新投递向量化任务，返回投递数量。
func (s *knowledgeService) Reindex(ctx context.Context) (int, error) {
	entries, err := s.repo.FindAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load knowledge entries: %w", err)
	}

	count := 0
	for _, entry := range entries {
		task := tasks.KnowledgeVectorTask{
			EntryID: entry.ID,
			Topic:   entry.Topic,
			Content: entry.Content,
		}
		if err := s.produce(task); err != nil {
			return count, fmt.Errorf("failed to enqueue entry %d: %w", entry.ID, err)
		}
		count++
	}

	log.Infof("[KnowledgeService] 重建索引任务已全部投递, 共 %d 条", count)
	return count, nil
}
