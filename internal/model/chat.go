// Package model 包含了应用的数据模型定义。
package model

import "time"

// ChatQuery 是 POST /chat 的请求体。message 与 image 均可缺省。
type ChatQuery struct {
	Message string `json:"message"`
	Image   string `json:"image"`
}

// ChatResult 是 POST /chat 的成功响应：生成的答案与本次使用的参考上下文。
type ChatResult struct {
	Answer  string `json:"answer"`
	Context string `json:"context"`
}

// ChatMessage 代表存储在 Redis 中的单条对话消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
