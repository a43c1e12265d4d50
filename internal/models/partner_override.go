package models

import "time"

// PartnerOverride 合作方返利例外策略（固定用户返利比例）
type PartnerOverride struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	PartnerID         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"partner_id"`
	FixedUserCashback Percent   `gorm:"type:decimal(10,4);not null;default:0" json:"fixed_user_cashback"`
	Note              string    `gorm:"type:varchar(255);not null;default:''" json:"note"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (PartnerOverride) TableName() string {
	return "partner_overrides"
}
