// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// KnowledgeEntry 对应于数据库中的 knowledge_entries 表。
// MySQL 是法律知识条目的事实来源，Elasticsearch 中只保存其向量副本。
type KnowledgeEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic     string    `gorm:"type:varchar(255);not null" json:"topic"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (KnowledgeEntry) TableName() string {
	return "knowledge_entries"
}

// KnowledgeEsDoc 定义了存储在 Elasticsearch 中的知识向量文档结构。
type KnowledgeEsDoc struct {
	DocID        string    `json:"doc_id"` // 对应 knowledge_entries 主键
	Topic        string    `json:"topic"`
	Content      string    `json:"content"`
	Vector       []float32 `json:"vector"` // topic+content 的向量表示
	ModelVersion string    `json:"model_version"`
}

// KnowledgeSnippet 是检索返回给问答链路的最小字段集。
// topic/content 缺失时为空字符串，不视为错误。
type KnowledgeSnippet struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}
