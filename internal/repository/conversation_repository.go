// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"legal-smart-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ConversationRepository 定义了对话历史记录的操作接口。
// 历史记录只服务于流式问答连接，同步的 /chat 请求不读写它。
type ConversationRepository interface {
	GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
	UpdateConversationHistory(ctx context.Context, conversationID string, messages []model.ChatMessage) error
	ListConversationIDs(ctx context.Context) ([]string, error)
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

// GetConversationHistory 从 Redis 获取对话历史记录。
func (r *redisConversationRepository) GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	key := fmt.Sprintf("conversation:%s", conversationID)
	jsonData, err := r.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil // No history yet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	err = json.Unmarshal([]byte(jsonData), &messages)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// UpdateConversationHistory 在 Redis 中更新对话历史记录。
func (r *redisConversationRepository) UpdateConversationHistory(ctx context.Context, conversationID string, messages []model.ChatMessage) error {
	key := fmt.Sprintf("conversation:%s", conversationID)
	// 保留最近 20 条
	if len(messages) > 20 {
		messages = messages[len(messages)-20:]
	}
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	err = r.redisClient.Set(ctx, key, jsonData, 7*24*time.Hour).Err()
	if err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}

// ListConversationIDs 扫描 conversation:* 键，返回所有对话 ID。
func (r *redisConversationRepository) ListConversationIDs(ctx context.Context) ([]string, error) {
	keys, err := r.redisClient.Keys(ctx, "conversation:*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation keys: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, "conversation:"))
	}
	return ids, nil
}
