// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// KnowledgeVectorTask represents a vectorization job for one knowledge entry.
type KnowledgeVectorTask struct {
	EntryID uint   `json:"entry_id"`
	Topic   string `json:"topic"`
	Content string `json:"content"`
}
