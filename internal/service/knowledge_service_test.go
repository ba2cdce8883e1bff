package service

import (
	"context"
	"errors"
	"testing"

	"legal-smart-go/internal/model"
	"legal-smart-go/pkg/tasks"
)

// mockKnowledgeRepo implements repository.KnowledgeRepository for testing.
type mockKnowledgeRepo struct {
	entries    []model.KnowledgeEntry
	createErr  error
	lastOffset int
	lastLimit  int
}

func (m *mockKnowledgeRepo) Create(entry *model.KnowledgeEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = uint(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockKnowledgeRepo) FindByID(id uint) (*model.KnowledgeEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *mockKnowledgeRepo) FindAll() ([]model.KnowledgeEntry, error) {
	return m.entries, nil
}

func (m *mockKnowledgeRepo) FindWithPagination(offset, limit int) ([]model.KnowledgeEntry, int64, error) {
	m.lastOffset = offset
	m.lastLimit = limit
	return m.entries, int64(len(m.entries)), nil
}

func (m *mockKnowledgeRepo) Delete(id uint) error { return nil }

func TestKnowledgeCreateEnqueuesVectorTask(t *testing.T) {
	repo := &mockKnowledgeRepo{}
	var produced []tasks.KnowledgeVectorTask
	svc := NewKnowledgeService(repo, func(task tasks.KnowledgeVectorTask) error {
		produced = append(produced, task)
		return nil
	})

	entry, err := svc.Create(context.Background(), "อัตราโทษ", "ปรับไม่เกินหนึ่งหมื่นบาท")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if entry.ID == 0 {
		t.Error("entry should be persisted before enqueueing")
	}
	if len(produced) != 1 {
		t.Fatalf("expected 1 task, got %d", len(produced))
	}
	if produced[0].EntryID != entry.ID || produced[0].Topic != "อัตราโทษ" {
		t.Errorf("unexpected task: %+v", produced[0])
	}
}

func TestKnowledgeCreateEnqueueFailureKeepsEntry(t *testing.T) {
	repo := &mockKnowledgeRepo{}
	svc := NewKnowledgeService(repo, func(task tasks.KnowledgeVectorTask) error {
		return errors.New("kafka unavailable")
	})

	entry, err := svc.Create(context.Background(), "หัวข้อ", "เนื้อหา")
	if err == nil {
		t.Fatal("expected an error when enqueue fails")
	}
	if entry == nil || entry.ID == 0 {
		t.Error("the persisted entry should still be returned for reindexing later")
	}
}

func TestKnowledgeListNormalizesPagination(t *testing.T) {
	repo := &mockKnowledgeRepo{}
	svc := NewKnowledgeService(repo, func(tasks.KnowledgeVectorTask) error { return nil })

	if _, _, err := svc.List(0, -5); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.lastOffset != 0 || repo.lastLimit != 20 {
		t.Errorf("expected defaults offset=0 limit=20, got offset=%d limit=%d", repo.lastOffset, repo.lastLimit)
	}

	if _, _, err := svc.List(3, 10); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.lastOffset != 20 || repo.lastLimit != 10 {
		t.Errorf("expected offset=20 limit=10, got offset=%d limit=%d", repo.lastOffset, repo.lastLimit)
	}
}

func TestKnowledgeReindexEnqueuesAllEntries(t *testing.T) {
	repo := &mockKnowledgeRepo{entries: []model.KnowledgeEntry{
		{ID: 1, Topic: "ก", Content: "หนึ่ง"},
		{ID: 2, Topic: "ข", Content: "สอง"},
	}}
	var produced []tasks.KnowledgeVectorTask
	svc := NewKnowledgeService(repo, func(task tasks.KnowledgeVectorTask) error {
		produced = append(produced, task)
		return nil
	})

	count, err := svc.Reindex(context.Background())
	if err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	if count != 2 || len(produced) != 2 {
		t.Errorf("expected 2 tasks enqueued, got count=%d produced=%d", count, len(produced))
	}
}
