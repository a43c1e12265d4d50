package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/cashback-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserAccountRepository 用户账户数据访问接口
type UserAccountRepository interface {
	GetByID(id uint) (*models.UserAccount, error)
	GetByIDForUpdate(id uint) (*models.UserAccount, error)
	GetByEmail(email string) (*models.UserAccount, error)
	Create(user *models.UserAccount) error
	List(filter UserAccountListFilter) ([]models.UserAccount, int64, error)
	SetActiveCodeIfEmpty(id uint, code string, now time.Time) (bool, error)
	ClearActiveCode(id uint, now time.Time) error
	AdjustBalances(id uint, balanceDelta, pendingDelta decimal.Decimal, now time.Time) (bool, error)
	WithTx(tx *gorm.DB) *GormUserAccountRepository
}

// GormUserAccountRepository GORM 实现
type GormUserAccountRepository struct {
	db *gorm.DB
}

// NewUserAccountRepository 创建用户账户仓库
func NewUserAccountRepository(db *gorm.DB) *GormUserAccountRepository {
	return &GormUserAccountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserAccountRepository) WithTx(tx *gorm.DB) *GormUserAccountRepository {
	if tx == nil {
		return r
	}
	return &GormUserAccountRepository{db: tx}
}

// GetByID 根据ID获取用户账户
func (r *GormUserAccountRepository) GetByID(id uint) (*models.UserAccount, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.UserAccount
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate 加锁获取用户账户（sqlite 下锁子句被忽略）
func (r *GormUserAccountRepository) GetByIDForUpdate(id uint) (*models.UserAccount, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.UserAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户账户
func (r *GormUserAccountRepository) GetByEmail(email string) (*models.UserAccount, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, nil
	}
	var user models.UserAccount
	if err := r.db.Where("email = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户账户
func (r *GormUserAccountRepository) Create(user *models.UserAccount) error {
	return r.db.Create(user).Error
}

// List 获取用户账户列表
func (r *GormUserAccountRepository) List(filter UserAccountListFilter) ([]models.UserAccount, int64, error) {
	query := r.db.Model(&models.UserAccount{})
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		query = query.Where("email LIKE ?", "%"+strings.ToLower(keyword)+"%")
	}
	if filter.ActiveCode != "" {
		query = query.Where("active_code = ?", filter.ActiveCode)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	users := make([]models.UserAccount, 0)
	if err := query.Order("id desc").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SetActiveCodeIfEmpty 仅在用户未持有促销码时写入，返回是否命中
func (r *GormUserAccountRepository) SetActiveCodeIfEmpty(id uint, code string, now time.Time) (bool, error) {
	result := r.db.Model(&models.UserAccount{}).
		Where("id = ?", id).
		Where("active_code IS NULL").
		Updates(map[string]interface{}{
			"active_code": code,
			"updated_at":  now.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClearActiveCode 清除用户当前促销码
func (r *GormUserAccountRepository) ClearActiveCode(id uint, now time.Time) error {
	return r.db.Model(&models.UserAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active_code": gorm.Expr("NULL"),
			"updated_at":  now.UTC(),
		}).Error
}

// AdjustBalances 原子调整余额与待确认返利，任一结果为负时不更新
func (r *GormUserAccountRepository) AdjustBalances(id uint, balanceDelta, pendingDelta decimal.Decimal, now time.Time) (bool, error) {
	balanceDelta = balanceDelta.Round(2)
	pendingDelta = pendingDelta.Round(2)
	result := r.db.Model(&models.UserAccount{}).
		Where("id = ?", id).
		Where("balance + ? >= 0", balanceDelta).
		Where("pending_credits + ? >= 0", pendingDelta).
		Updates(map[string]interface{}{
			"balance":         gorm.Expr("balance + ?", balanceDelta),
			"pending_credits": gorm.Expr("pending_credits + ?", pendingDelta),
			"updated_at":      now.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
