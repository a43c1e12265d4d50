package models

import (
	"time"

	"gorm.io/gorm"
)

// PromoCode 促销码（兑换后提升用户返利比例）
type PromoCode struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                          // 主键
	Code            string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`             // 促销码（区分大小写）
	PercentageBoost Percent   `gorm:"type:decimal(10,4);not null;default:0" json:"percentage_boost"` // 返利加成（百分点）
	ExpirationDate  time.Time `gorm:"index;not null" json:"expiration_date"`                         // 失效时间
	MaxUses         int       `gorm:"not null;default:0" json:"max_uses"`                            // 最大兑换次数
	UsesCount       int       `gorm:"not null;default:0" json:"uses_count"`                          // 已兑换次数
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time `gorm:"index" json:"updated_at"`                                       // 更新时间
}

// TableName 指定表名
func (PromoCode) TableName() string {
	return "promo_codes"
}

// BeforeSave 时间统一按 UTC 存储
func (p *PromoCode) BeforeSave(tx *gorm.DB) error {
	p.ExpirationDate = p.ExpirationDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return nil
}

// IsExpiredAt 判断在给定时刻是否已过期（now >= expiration_date）
func (p *PromoCode) IsExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpirationDate)
}

// IsExhausted 判断兑换次数是否已用尽
func (p *PromoCode) IsExhausted() bool {
	return p.UsesCount >= p.MaxUses
}
