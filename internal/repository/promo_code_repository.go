package repository

import (
	"errors"
	"time"

	"github.com/cashback-next/internal/models"

	"gorm.io/gorm"
)

// PromoCodeRepository 促销码数据访问接口
type PromoCodeRepository interface {
	GetByID(id uint) (*models.PromoCode, error)
	GetByCode(code string) (*models.PromoCode, error)
	Create(code *models.PromoCode) error
	Update(code *models.PromoCode) (bool, error)
	Delete(id uint) error
	List(filter PromoCodeListFilter) ([]models.PromoCode, int64, error)
	ListExpiredBefore(now time.Time) ([]models.PromoCode, error)
	IncrementUsesIfRedeemable(id uint, now time.Time) (bool, error)
	WithTx(tx *gorm.DB) *GormPromoCodeRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormPromoCodeRepository GORM 实现
type GormPromoCodeRepository struct {
	db *gorm.DB
}

// NewPromoCodeRepository 创建促销码仓库
func NewPromoCodeRepository(db *gorm.DB) *GormPromoCodeRepository {
	return &GormPromoCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromoCodeRepository) WithTx(tx *gorm.DB) *GormPromoCodeRepository {
	if tx == nil {
		return r
	}
	return &GormPromoCodeRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPromoCodeRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 根据ID获取促销码
func (r *GormPromoCodeRepository) GetByID(id uint) (*models.PromoCode, error) {
	var code models.PromoCode
	if err := r.db.First(&code, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// GetByCode 根据促销码获取（区分大小写）
func (r *GormPromoCodeRepository) GetByCode(code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.db.Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

// Create 创建促销码
func (r *GormPromoCodeRepository) Create(code *models.PromoCode) error {
	return r.db.Create(code).Error
}

// Update 更新促销码运营字段，不覆盖 uses_count
// 说明：max_uses 低于当前 uses_count 时不更新，返回 false。
func (r *GormPromoCodeRepository) Update(code *models.PromoCode) (bool, error) {
	if code == nil {
		return false, nil
	}
	result := r.db.Model(&models.PromoCode{}).
		Where("id = ?", code.ID).
		Where("uses_count <= ?", code.MaxUses).
		Updates(map[string]interface{}{
			"code":             code.Code,
			"percentage_boost": code.PercentageBoost,
			"expiration_date":  code.ExpirationDate.UTC(),
			"max_uses":         code.MaxUses,
			"updated_at":       code.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete 删除促销码
func (r *GormPromoCodeRepository) Delete(id uint) error {
	return r.db.Delete(&models.PromoCode{}, id).Error
}

// List 获取促销码列表
func (r *GormPromoCodeRepository) List(filter PromoCodeListFilter) ([]models.PromoCode, int64, error) {
	query := r.db.Model(&models.PromoCode{})
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.OnlyValidAt != nil {
		query = query.Where("expiration_date > ?", filter.OnlyValidAt.UTC())
	}
	if filter.ExpiredBefore != nil {
		query = query.Where("expiration_date < ?", filter.ExpiredBefore.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	codes := make([]models.PromoCode, 0)
	if err := query.Order("id desc").Find(&codes).Error; err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// ListExpiredBefore 获取在 now 之前已过期的促销码
// 说明：时间统一按 UTC 写入与比较，sqlite 以文本存储时间，混用时区会导致比较错误。
func (r *GormPromoCodeRepository) ListExpiredBefore(now time.Time) ([]models.PromoCode, error) {
	codes := make([]models.PromoCode, 0)
	if err := r.db.Where("expiration_date < ?", now.UTC()).Order("id asc").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// IncrementUsesIfRedeemable 条件自增兑换次数
// 说明：仅当 uses_count < max_uses 且未过期时更新，返回是否命中；并发兑换由数据库保证不超过上限。
func (r *GormPromoCodeRepository) IncrementUsesIfRedeemable(id uint, now time.Time) (bool, error) {
	result := r.db.Model(&models.PromoCode{}).
		Where("id = ?", id).
		Where("uses_count < max_uses").
		Where("expiration_date > ?", now.UTC()).
		Updates(map[string]interface{}{
			"uses_count": gorm.Expr("uses_count + ?", 1),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
