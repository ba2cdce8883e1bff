// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"legal-smart-go/internal/model"

	"gorm.io/gorm"
)

// KnowledgeRepository 接口定义了知识条目数据的持久化操作。
type KnowledgeRepository interface {
	Create(entry *model.KnowledgeEntry) error
	FindByID(id uint) (*model.KnowledgeEntry, error)
	FindAll() ([]model.KnowledgeEntry, error)
	FindWithPagination(offset, limit int) ([]model.KnowledgeEntry, int64, error)
	Delete(id uint) error
}

// knowledgeRepository 是 KnowledgeRepository 接口的 GORM 实现。
type knowledgeRepository struct {
	db *gorm.DB
}

// NewKnowledgeRepository 创建一个新的 KnowledgeRepository 实例。
func NewKnowledgeRepository(db *gorm.DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

// Create 在数据库中创建一条新的知识条目。
func (r *knowledgeRepository) Create(entry *model.KnowledgeEntry) error {
	return r.db.Create(entry).Error
}

// FindByID 根据主键查找一条知识条目。
func (r *knowledgeRepository) FindByID(id uint) (*model.KnowledgeEntry, error) {
	var entry model.KnowledgeEntry
	err := r.db.First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindAll 从数据库中检索所有知识条目。
func (r *knowledgeRepository) FindAll() ([]model.KnowledgeEntry, error) {
	var entries []model.KnowledgeEntry
	err := r.db.Find(&entries).Error
	return entries, err
}

// FindWithPagination 从数据库中分页检索知识条目。
// 它返回条目列表、总记录数和可能发生的错误。
func (r *knowledgeRepository) FindWithPagination(offset, limit int) ([]model.KnowledgeEntry, int64, error) {
	var entries []model.KnowledgeEntry
	var total int64

	db := r.db.Model(&model.KnowledgeEntry{})

	err := db.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = db.Order("id DESC").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Delete 根据主键删除一条知识条目。
func (r *knowledgeRepository) Delete(id uint) error {
	return r.db.Delete(&model.KnowledgeEntry{}, id).Error
}
