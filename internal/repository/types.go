package repository

import "time"

// PromoCodeListFilter 查询促销码列表的过滤条件
type PromoCodeListFilter struct {
	Page          int
	PageSize      int
	Code          string
	OnlyValidAt   *time.Time // 仅返回在该时刻仍未过期的促销码
	ExpiredBefore *time.Time // 仅返回在该时刻之前已过期的促销码
}

// UserAccountListFilter 查询用户账户列表的过滤条件
type UserAccountListFilter struct {
	Page       int
	PageSize   int
	Keyword    string
	ActiveCode string
}

// AuditEntryListFilter 查询审计日志列表的过滤条件
type AuditEntryListFilter struct {
	Page       int
	PageSize   int
	SubjectKey string
	Action     string
}
