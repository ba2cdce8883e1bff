// Package service 提供了检索相关的业务逻辑。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"legal-smart-go/internal/model"
	"legal-smart-go/pkg/embedding"
	"legal-smart-go/pkg/log"
	"legal-smart-go/pkg/upstream"

	"github.com/elastic/go-elasticsearch/v8"
)

// RetrievalTopK 是每次检索返回的最大条目数。
// 结果按余弦相似度降序排列，顺序决定了呈现给模型的上下文顺序，不允许重排。
const RetrievalTopK = 3

// RetrievalService 接口定义了知识检索操作。
type RetrievalService interface {
	Retrieve(ctx context.Context, query string) ([]model.KnowledgeSnippet, error)
}

type retrievalService struct {
	embeddingClient embedding.Client
	esClient        *elasticsearch.Client
	indexName       string
}

// NewRetrievalService 创建一个新的 RetrievalService 实例。
func NewRetrievalService(embeddingClient embedding.Client, esClient *elasticsearch.Client, indexName string) RetrievalService {
	return &retrievalService{
		embeddingClient: embeddingClient,
		esClient:        esClient,
		indexName:       indexName,
	}
}

// Retrieve 执行向量检索：先向量化问句，再对知识索引做 kNN 查询。
func (s *retrievalService) Retrieve(ctx context.Context, query string) ([]model.KnowledgeSnippet, error) {
	log.Infof("[RetrievalService] 开始检索, query_len: %d, topK: %d", len(query), RetrievalTopK)

	// 1. 向量化查询
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[RetrievalService] 向量化查询失败: %v", err)
		return nil, err
	}
	log.Infof("[RetrievalService] 向量化查询成功, 向量维度: %d", len(queryVector))

	// 2. 构建 kNN 查询
	var buf bytes.Buffer
	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   queryVector,
			"k":              RetrievalTopK,
			"num_candidates": RetrievalTopK * 10,
		},
		"size": RetrievalTopK,
	}
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		log.Errorf("[RetrievalService] 序列化 Elasticsearch 查询失败: %v", err)
		return nil, upstream.Wrapf("vector-store", upstream.KindMalformed, "failed to encode es query: %w", err)
	}

	// 3. 执行搜索
	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.indexName),
		s.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		log.Errorf("[RetrievalService] 向 Elasticsearch 发送搜索请求失败: %v", err)
		return nil, upstream.Wrapf("vector-store", upstream.KindNetwork, "elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[RetrievalService] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, upstream.Wrapf("vector-store", upstream.ClassifyStatus(res.StatusCode),
			"elasticsearch returned an error: %s", res.Status())
	}

	// 4. 解析结果
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, upstream.Wrapf("vector-store", upstream.KindNetwork, "failed to read es response: %w", err)
	}
	snippets, err := parseSnippets(body)
	if err != nil {
		log.Errorf("[RetrievalService] 解析 Elasticsearch 响应失败: %v", err)
		return nil, err
	}

	log.Infof("[RetrievalService] 检索完成, 命中 %d 条", len(snippets))
	return snippets, nil
}

// parseSnippets 从 ES 响应中按命中顺序提取 topic/content。
// 字段缺失或类型不符时渲染为空字符串，不视为错误。
func parseSnippets(body []byte) ([]model.KnowledgeSnippet, error) {
	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &esResponse); err != nil {
		return nil, upstream.Wrapf("vector-store", upstream.KindMalformed, "failed to decode es response: %w", err)
	}

	snippets := make([]model.KnowledgeSnippet, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		snippets = append(snippets, model.KnowledgeSnippet{
			Topic:   stringField(hit.Source, "topic"),
			Content: stringField(hit.Source, "content"),
		})
	}
	return snippets, nil
}

func stringField(source map[string]interface{}, key string) string {
	if source == nil {
		return ""
	}
	if v, ok := source[key].(string); ok {
		return v
	}
	return ""
}
