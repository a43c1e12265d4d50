package repository

import (
	"errors"

	"github.com/cashback-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartnerOverrideRepository 合作方例外策略数据访问接口
type PartnerOverrideRepository interface {
	List() ([]models.PartnerOverride, error)
	GetByPartnerID(partnerID string) (*models.PartnerOverride, error)
	Upsert(item *models.PartnerOverride) error
	DeleteByPartnerID(partnerID string) (bool, error)
}

// GormPartnerOverrideRepository GORM 实现
type GormPartnerOverrideRepository struct {
	db *gorm.DB
}

// NewPartnerOverrideRepository 创建例外策略仓库
func NewPartnerOverrideRepository(db *gorm.DB) *GormPartnerOverrideRepository {
	return &GormPartnerOverrideRepository{db: db}
}

// List 获取全部例外策略
func (r *GormPartnerOverrideRepository) List() ([]models.PartnerOverride, error) {
	items := make([]models.PartnerOverride, 0)
	if err := r.db.Order("partner_id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByPartnerID 根据合作方ID获取例外策略
func (r *GormPartnerOverrideRepository) GetByPartnerID(partnerID string) (*models.PartnerOverride, error) {
	var item models.PartnerOverride
	if err := r.db.Where("partner_id = ?", partnerID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Upsert 按合作方ID写入或覆盖例外策略
func (r *GormPartnerOverrideRepository) Upsert(item *models.PartnerOverride) error {
	if item == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fixed_user_cashback", "note", "updated_at"}),
	}).Create(item).Error
}

// DeleteByPartnerID 删除例外策略，返回是否存在
func (r *GormPartnerOverrideRepository) DeleteByPartnerID(partnerID string) (bool, error) {
	result := r.db.Where("partner_id = ?", partnerID).Delete(&models.PartnerOverride{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
