package repository

import (
	"errors"

	"github.com/cashback-next/internal/models"

	"gorm.io/gorm"
)

// AuditEntryRepository 审计日志数据访问接口
type AuditEntryRepository interface {
	Create(entry *models.AuditEntry) error
	GetByID(id uint) (*models.AuditEntry, error)
	Delete(id uint) error
	CountBySubject(subjectKey string) (int64, error)
	ListBySubject(subjectKey string) ([]models.AuditEntry, error)
	ListOldestBySubject(subjectKey string, limit int) ([]models.AuditEntry, error)
	DeleteByIDs(ids []uint) error
	LockSubject(subjectKey string) error
	List(filter AuditEntryListFilter) ([]models.AuditEntry, int64, error)
	Transaction(fn func(repo AuditEntryRepository) error) error
}

// GormAuditEntryRepository GORM 实现
type GormAuditEntryRepository struct {
	db *gorm.DB
}

// NewAuditEntryRepository 创建审计日志仓库
func NewAuditEntryRepository(db *gorm.DB) *GormAuditEntryRepository {
	return &GormAuditEntryRepository{db: db}
}

// Transaction 在事务内执行
func (r *GormAuditEntryRepository) Transaction(fn func(repo AuditEntryRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormAuditEntryRepository{db: tx})
	})
}

// Create 写入审计日志
func (r *GormAuditEntryRepository) Create(entry *models.AuditEntry) error {
	if entry == nil {
		return nil
	}
	return r.db.Create(entry).Error
}

// GetByID 根据ID获取审计日志
func (r *GormAuditEntryRepository) GetByID(id uint) (*models.AuditEntry, error) {
	var entry models.AuditEntry
	if err := r.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Delete 删除单条审计日志
func (r *GormAuditEntryRepository) Delete(id uint) error {
	return r.db.Delete(&models.AuditEntry{}, id).Error
}

// LockSubject 在当前事务内串行化同一主体的写入
// postgres 使用事务级 advisory lock；sqlite 写事务本身串行，无需处理。
func (r *GormAuditEntryRepository) LockSubject(subjectKey string) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", subjectKey).Error
}

// CountBySubject 统计主体的审计日志条数
func (r *GormAuditEntryRepository) CountBySubject(subjectKey string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.AuditEntry{}).Where("subject_key = ?", subjectKey).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListBySubject 按时间倒序获取主体的审计日志
func (r *GormAuditEntryRepository) ListBySubject(subjectKey string) ([]models.AuditEntry, error) {
	entries := make([]models.AuditEntry, 0)
	if err := r.db.Where("subject_key = ?", subjectKey).
		Order("timestamp desc").
		Order("id desc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListOldestBySubject 获取主体最早的若干条审计日志
func (r *GormAuditEntryRepository) ListOldestBySubject(subjectKey string, limit int) ([]models.AuditEntry, error) {
	entries := make([]models.AuditEntry, 0)
	if limit <= 0 {
		return entries, nil
	}
	if err := r.db.Where("subject_key = ?", subjectKey).
		Order("timestamp asc").
		Order("id asc").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteByIDs 批量删除审计日志
func (r *GormAuditEntryRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&models.AuditEntry{}).Error
}

// List 管理端分页查询审计日志
func (r *GormAuditEntryRepository) List(filter AuditEntryListFilter) ([]models.AuditEntry, int64, error) {
	query := r.db.Model(&models.AuditEntry{})
	if filter.SubjectKey != "" {
		query = query.Where("subject_key = ?", filter.SubjectKey)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	entries := make([]models.AuditEntry, 0)
	if err := query.Order("timestamp desc").Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
