// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"legal-smart-go/internal/config"
	"legal-smart-go/pkg/upstream"

	"github.com/gorilla/websocket"
)

const serviceName = "chat-completion"

// MessageWriter defines an interface for writing WebSocket messages.
// This allows both a standard websocket.Conn and our interceptor to be used.
type MessageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Client defines the interface for an LLM client.
type Client interface {
	// Complete 以同步方式调用聊天接口，返回第一个 choice 的文本内容。
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
	// StreamChatMessages 调用聊天接口并将流式分块写入 writer。
	StreamChatMessages(ctx context.Context, messages []ChatMessage, writer MessageWriter) error
}

type openAIClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client based on the provider in the config.
func NewClient(cfg config.LLMConfig) Client {
	return &openAIClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// ChatMessage 表示一条角色消息。
// system 消息的 Content 是字符串；user 消息可以是多段内容（文本 + 图片）。
type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart 是多段用户内容中的一段。
type ContentPart struct {
	Type     string    `json:"type"` // "text" 或 "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 是图片内容的引用，支持 URL 或 base64 data URI。
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart 构造一段文本内容。
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart 构造一段图片内容。
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Complete calls the chat completions API synchronously and returns the first
// choice's message content verbatim.
func (c *openAIClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	reqBody := c.newRequest(messages, false)

	resp, err := c.send(ctx, reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", upstream.Wrapf(serviceName, upstream.ClassifyStatus(resp.StatusCode),
			"chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", upstream.Wrapf(serviceName, upstream.KindMalformed, "failed to decode chat response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", upstream.Wrapf(serviceName, upstream.KindMalformed, "chat api returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

// StreamChatMessages calls the chat completions API and streams the response
// chunks to the given writer.
func (c *openAIClient) StreamChatMessages(ctx context.Context, messages []ChatMessage, writer MessageWriter) error {
	reqBody := c.newRequest(messages, true)

	resp, err := c.send(ctx, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return upstream.Wrapf(serviceName, upstream.ClassifyStatus(resp.StatusCode),
			"chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read from stream: %w", err)
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimPrefix(line, "data: ")
			if strings.TrimSpace(data) == "[DONE]" {
				break
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}

			if len(chunk.Choices) > 0 {
				content := chunk.Choices[0].Delta.Content
				if err := writer.WriteMessage(websocket.TextMessage, []byte(content)); err != nil {
					return fmt.Errorf("failed to write message to websocket: %w", err)
				}
			}
		}
	}
	return nil
}

// newRequest 组装请求体，从全局配置注入生成参数（若非零值）。
func (c *openAIClient) newRequest(messages []ChatMessage, stream bool) chatRequest {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   stream,
	}
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		reqBody.Temperature = &t
	}
	if c.cfg.Generation.TopP != 0 {
		p := c.cfg.Generation.TopP
		reqBody.TopP = &p
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m := c.cfg.Generation.MaxTokens
		reqBody.MaxTokens = &m
	}
	return reqBody
}

func (c *openAIClient) send(ctx context.Context, reqBody chatRequest) (*http.Response, error) {
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if reqBody.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, upstream.Wrapf(serviceName, upstream.KindNetwork, "failed to call chat api: %w", err)
	}
	return resp, nil
}
