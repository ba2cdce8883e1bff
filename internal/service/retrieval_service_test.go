package service

import (
	"errors"
	"testing"

	"legal-smart-go/pkg/upstream"
)

func TestParseSnippetsPreservesHitOrder(t *testing.T) {
	body := []byte(`{
		"hits": {
			"hits": [
				{"_source": {"topic": "มาตรา 5", "content": "เนื้อหา 5"}},
				{"_source": {"topic": "มาตรา 9", "content": "เนื้อหา 9"}},
				{"_source": {"topic": "มาตรา 1", "content": "เนื้อหา 1"}}
			]
		}
	}`)

	snippets, err := parseSnippets(body)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(snippets) != 3 {
		t.Fatalf("expected 3 snippets, got %d", len(snippets))
	}
	// 命中顺序即相似度排序，必须原样保留
	if snippets[0].Topic != "มาตรา 5" || snippets[1].Topic != "มาตรา 9" || snippets[2].Topic != "มาตรา 1" {
		t.Errorf("hit order was not preserved: %+v", snippets)
	}
}

func TestParseSnippetsMissingFields(t *testing.T) {
	body := []byte(`{
		"hits": {
			"hits": [
				{"_source": {"content": "ไม่มีหัวข้อ"}},
				{"_source": {"topic": 42, "content": "หัวข้อผิดชนิด"}},
				{"_source": {}}
			]
		}
	}`)

	snippets, err := parseSnippets(body)
	if err != nil {
		t.Fatalf("missing fields must not fail the parse: %v", err)
	}
	if snippets[0].Topic != "" || snippets[0].Content != "ไม่มีหัวข้อ" {
		t.Errorf("missing topic should render as empty: %+v", snippets[0])
	}
	if snippets[1].Topic != "" {
		t.Errorf("wrong-typed topic should render as empty: %+v", snippets[1])
	}
	if snippets[2].Topic != "" || snippets[2].Content != "" {
		t.Errorf("empty source should render empty fields: %+v", snippets[2])
	}
}

func TestParseSnippetsEmptyResult(t *testing.T) {
	snippets, err := parseSnippets([]byte(`{"hits": {"hits": []}}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(snippets) != 0 {
		t.Errorf("expected empty (not absent) result, got %+v", snippets)
	}
}

func TestParseSnippetsMalformedBody(t *testing.T) {
	_, err := parseSnippets([]byte(`not json`))
	if err == nil {
		t.Fatal("expected an error")
	}
	var upErr *upstream.Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected an upstream.Error, got %T", err)
	}
	if upErr.Kind != upstream.KindMalformed {
		t.Errorf("expected malformed kind, got %s", upErr.Kind)
	}
}
