package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cashback-next/internal/constants"
	"github.com/cashback-next/internal/logger"
	"github.com/cashback-next/internal/models"
	"github.com/cashback-next/internal/repository"
)

// AuditTrailService 审计日志服务（每个主体保留最近 N 条）
type AuditTrailService struct {
	repo     repository.AuditEntryRepository
	capacity int
	now      func() time.Time
}

// NewAuditTrailService 创建审计日志服务，capacity <= 0 时使用默认容量
func NewAuditTrailService(repo repository.AuditEntryRepository, capacity int) *AuditTrailService {
	if capacity <= 0 {
		capacity = constants.AuditDefaultCapacity
	}
	return &AuditTrailService{repo: repo, capacity: capacity, now: utcNow}
}

// PromoSubjectKey 促销码的审计主体
func PromoSubjectKey(promo *models.PromoCode) string {
	if promo == nil {
		return ""
	}
	return "promo_code:" + strconv.FormatUint(uint64(promo.ID), 10)
}

// UserSubjectKey 用户的审计主体（邮箱）
func UserSubjectKey(user *models.UserAccount) string {
	if user == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(user.Email))
}

// Record 写入一条审计日志并按容量淘汰最旧条目
// 写入失败只记录日志，不影响调用方的主流程。
func (s *AuditTrailService) Record(subjectKey, action string, changes models.ChangeSet) {
	if err := s.record(subjectKey, action, changes); err != nil {
		logger.Warnw("audit_record_failed",
			"subject_key", subjectKey,
			"action", action,
			"error", err,
		)
	}
}

func (s *AuditTrailService) record(subjectKey, action string, changes models.ChangeSet) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("%w: repository unavailable", ErrAuditWrite)
	}
	subjectKey = strings.TrimSpace(subjectKey)
	if subjectKey == "" {
		return fmt.Errorf("%w: empty subject", ErrAuditWrite)
	}
	switch action {
	case constants.AuditActionCreate, constants.AuditActionUpdate, constants.AuditActionDelete:
	default:
		return fmt.Errorf("%w: unsupported action %q", ErrAuditWrite, action)
	}
	if len(changes) == 0 {
		changes = nil
	}

	entry := &models.AuditEntry{
		SubjectKey: subjectKey,
		Action:     action,
		Timestamp:  s.now(),
		ChangeSet:  changes,
	}
	err := s.repo.Transaction(func(repo repository.AuditEntryRepository) error {
		// 同一主体并发写入时计数与淘汰必须串行，否则可能同时删除同一条最旧记录
		if err := repo.LockSubject(subjectKey); err != nil {
			return err
		}
		if err := repo.Create(entry); err != nil {
			return err
		}
		count, err := repo.CountBySubject(subjectKey)
		if err != nil {
			return err
		}
		overflow := int(count) - s.capacity
		if overflow <= 0 {
			return nil
		}
		oldest, err := repo.ListOldestBySubject(subjectKey, overflow)
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(oldest))
		for _, item := range oldest {
			ids = append(ids, item.ID)
		}
		return repo.DeleteByIDs(ids)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWrite, err)
	}
	return nil
}

// EntriesFor 获取主体的审计日志（新到旧）
func (s *AuditTrailService) EntriesFor(subjectKey string) ([]models.AuditEntry, error) {
	subjectKey = strings.TrimSpace(subjectKey)
	if subjectKey == "" {
		return []models.AuditEntry{}, nil
	}
	return s.repo.ListBySubject(subjectKey)
}

// List 管理端分页查询
func (s *AuditTrailService) List(filter repository.AuditEntryListFilter) ([]models.AuditEntry, int64, error) {
	filter.SubjectKey = strings.TrimSpace(filter.SubjectKey)
	filter.Action = strings.TrimSpace(filter.Action)
	return s.repo.List(filter)
}

// DeleteEntry 删除单条审计日志
func (s *AuditTrailService) DeleteEntry(id uint) error {
	entry, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrAuditEntryNotFound
	}
	return s.repo.Delete(id)
}
