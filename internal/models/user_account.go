package models

import "time"

// UserAccount 用户返利账户（仅包含引擎关心的字段）
type UserAccount struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`          // 邮箱（审计主体）
	ActiveCode     *string   `gorm:"type:varchar(64);index" json:"active_code"`                    // 当前生效的促销码
	Balance        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`         // 可用余额
	PendingCredits Money     `gorm:"type:decimal(20,2);not null;default:0" json:"pending_credits"` // 待确认返利
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (UserAccount) TableName() string {
	return "user_accounts"
}

// ActiveCodeValue 返回当前促销码，未持有时返回 nil
func (u *UserAccount) ActiveCodeValue() interface{} {
	if u == nil || u.ActiveCode == nil {
		return nil
	}
	return *u.ActiveCode
}
