package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditEntry 审计日志条目
// 说明：每个主体（促销码或用户邮箱）仅保留最近 N 条，写入后不再修改。
type AuditEntry struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	SubjectKey string    `gorm:"type:varchar(255);index:idx_audit_subject_time,priority:1;not null" json:"subject_key"`
	Action     string    `gorm:"type:varchar(20);not null" json:"action"`
	Timestamp  time.Time `gorm:"index:idx_audit_subject_time,priority:2;not null" json:"timestamp"`
	ChangeSet  ChangeSet `gorm:"type:text" json:"change_set,omitempty"`
}

// TableName 指定表名
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// BeforeCreate 时间统一按 UTC 存储，淘汰顺序依赖时间比较
func (e *AuditEntry) BeforeCreate(tx *gorm.DB) error {
	e.Timestamp = e.Timestamp.UTC()
	return nil
}
