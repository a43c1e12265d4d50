package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/cashback-next/internal/constants"
	"github.com/cashback-next/internal/logger"
	"github.com/cashback-next/internal/models"
	"github.com/cashback-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const promoCodeMaxLength = 64

// PromoLedgerService 促销码账本服务（校验、兑换、过期清理与运营管理）
type PromoLedgerService struct {
	promoRepo repository.PromoCodeRepository
	userRepo  repository.UserAccountRepository
	audit     *AuditTrailService
	now       func() time.Time
}

// NewPromoLedgerService 创建促销码账本服务
func NewPromoLedgerService(promoRepo repository.PromoCodeRepository, userRepo repository.UserAccountRepository, audit *AuditTrailService) *PromoLedgerService {
	return &PromoLedgerService{
		promoRepo: promoRepo,
		userRepo:  userRepo,
		audit:     audit,
		now:       utcNow,
	}
}

// utcNow 服务时钟统一使用 UTC
func utcNow() time.Time {
	return time.Now().UTC()
}

// CreatePromoInput 创建促销码输入
type CreatePromoInput struct {
	Code            string
	PercentageBoost decimal.Decimal
	ExpirationDate  time.Time
	MaxUses         int
}

// UpdatePromoInput 更新促销码输入
type UpdatePromoInput struct {
	Code            string
	PercentageBoost decimal.Decimal
	ExpirationDate  time.Time
	MaxUses         int
}

// ApplyResult 兑换结果
type ApplyResult struct {
	Promo *models.PromoCode
	User  *models.UserAccount
}

// RedemptionState 根据当前时刻推导促销码状态
func RedemptionState(promo *models.PromoCode, now time.Time) string {
	switch {
	case promo == nil:
		return constants.PromoStateUnknown
	case promo.IsExpiredAt(now):
		return constants.PromoStateExpired
	case promo.IsExhausted():
		return constants.PromoStateExhausted
	default:
		return constants.PromoStateRedeemable
	}
}

// Validate 查询促销码当前状态
func (s *PromoLedgerService) Validate(code string) (string, *models.PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return constants.PromoStateUnknown, nil, nil
	}
	promo, err := s.promoRepo.GetByCode(code)
	if err != nil {
		return "", nil, err
	}
	return RedemptionState(promo, s.now()), promo, nil
}

// Apply 用户兑换促销码
// 兑换次数自增与用户写入在同一事务内以条件更新完成，任一未命中则整体回滚。
func (s *PromoLedgerService) Apply(code string, userID uint) (*ApplyResult, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > promoCodeMaxLength || userID == 0 {
		return nil, ErrPromoInvalid
	}

	now := s.now().UTC()
	var (
		before *models.PromoCode
		after  *models.PromoCode
		holder *models.UserAccount
		user   *models.UserAccount
	)
	err := s.promoRepo.Transaction(func(tx *gorm.DB) error {
		promoRepo := s.promoRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)

		current, err := userRepo.GetByIDForUpdate(userID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrUserNotFound
		}
		if current.ActiveCode != nil {
			return ErrPromoConflict
		}

		promo, err := promoRepo.GetByCode(code)
		if err != nil {
			return err
		}
		if err := redemptionError(RedemptionState(promo, now)); err != nil {
			return err
		}

		ok, err := promoRepo.IncrementUsesIfRedeemable(promo.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			latest, err := promoRepo.GetByID(promo.ID)
			if err != nil {
				return err
			}
			if err := redemptionError(RedemptionState(latest, now)); err != nil {
				return err
			}
			return ErrPromoLimitReached
		}

		ok, err = userRepo.SetActiveCodeIfEmpty(current.ID, promo.Code, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPromoConflict
		}

		updatedPromo, err := promoRepo.GetByID(promo.ID)
		if err != nil {
			return err
		}
		updatedUser, err := userRepo.GetByID(current.ID)
		if err != nil {
			return err
		}
		before = promo
		after = updatedPromo
		holder = current
		user = updatedUser
		return nil
	})
	if err != nil {
		return nil, err
	}

	changes := models.ChangeSet{}
	changes.Set(constants.AuditFieldUsesCount, before.UsesCount, after.UsesCount)
	changes.Set(constants.AuditFieldActiveCode, holder.ActiveCodeValue(), user.ActiveCodeValue())
	s.audit.Record(PromoSubjectKey(after), constants.AuditActionUpdate, changes)

	logger.Infow("promo_code_applied",
		"promo_code_id", after.ID,
		"user_id", userID,
		"uses_count", after.UsesCount,
		"max_uses", after.MaxUses,
	)
	return &ApplyResult{Promo: after, User: user}, nil
}

func redemptionError(state string) error {
	switch state {
	case constants.PromoStateUnknown:
		return ErrPromoNotFound
	case constants.PromoStateExpired:
		return ErrPromoExpired
	case constants.PromoStateExhausted:
		return ErrPromoLimitReached
	default:
		return nil
	}
}

// SweepExpired 删除所有 expiration_date < now 的促销码，返回已删除列表
// 说明：持有该码的用户 active_code 不做处理，加成随促销码删除失效。
func (s *PromoLedgerService) SweepExpired() ([]models.PromoCode, error) {
	now := s.now()
	expired, err := s.promoRepo.ListExpiredBefore(now)
	if err != nil {
		return nil, err
	}

	deleted := make([]models.PromoCode, 0, len(expired))
	for i := range expired {
		promo := expired[i]
		if err := s.promoRepo.Delete(promo.ID); err != nil {
			logger.Warnw("promo_sweep_delete_failed",
				"promo_code_id", promo.ID,
				"error", err,
			)
			continue
		}
		s.audit.Record(PromoSubjectKey(&promo), constants.AuditActionDelete, promoDeletedChanges(&promo))
		deleted = append(deleted, promo)
	}
	if len(deleted) > 0 {
		logger.Infow("promo_sweep_completed", "deleted", len(deleted), "expired", len(expired))
	}
	return deleted, nil
}

// Get 根据ID获取促销码
func (s *PromoLedgerService) Get(id uint) (*models.PromoCode, error) {
	promo, err := s.promoRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrPromoNotFound
	}
	return promo, nil
}

// List 分页查询促销码
func (s *PromoLedgerService) List(filter repository.PromoCodeListFilter) ([]models.PromoCode, int64, error) {
	filter.Code = strings.TrimSpace(filter.Code)
	return s.promoRepo.List(filter)
}

// Create 创建促销码
func (s *PromoLedgerService) Create(input CreatePromoInput) (*models.PromoCode, error) {
	code, err := normalizePromoInput(input.Code, input.PercentageBoost, input.ExpirationDate, input.MaxUses)
	if err != nil {
		return nil, err
	}
	exist, err := s.promoRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrPromoExists
	}

	now := s.now()
	promo := &models.PromoCode{
		Code:            code,
		PercentageBoost: models.NewPercent(input.PercentageBoost),
		ExpirationDate:  input.ExpirationDate.UTC(),
		MaxUses:         input.MaxUses,
		UsesCount:       0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.promoRepo.Create(promo); err != nil {
		return nil, err
	}

	changes := models.ChangeSet{}
	changes.Set(constants.AuditFieldCode, nil, promo.Code)
	changes.Set(constants.AuditFieldPercentageBoost, nil, promo.PercentageBoost.String())
	changes.Set(constants.AuditFieldMaxUses, nil, promo.MaxUses)
	changes.Set(constants.AuditFieldExpirationDate, nil, promo.ExpirationDate.UTC().Format(time.RFC3339))
	s.audit.Record(PromoSubjectKey(promo), constants.AuditActionCreate, changes)
	return promo, nil
}

// Update 更新促销码（不修改已兑换次数）
func (s *PromoLedgerService) Update(id uint, input UpdatePromoInput) (*models.PromoCode, error) {
	code, err := normalizePromoInput(input.Code, input.PercentageBoost, input.ExpirationDate, input.MaxUses)
	if err != nil {
		return nil, err
	}
	promo, err := s.promoRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrPromoNotFound
	}
	if code != promo.Code {
		exist, err := s.promoRepo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		if exist != nil && exist.ID != promo.ID {
			return nil, ErrPromoExists
		}
	}

	before := *promo
	promo.Code = code
	promo.PercentageBoost = models.NewPercent(input.PercentageBoost)
	promo.ExpirationDate = input.ExpirationDate.UTC()
	promo.MaxUses = input.MaxUses
	promo.UpdatedAt = s.now()

	ok, err := s.promoRepo.Update(promo)
	if err != nil {
		return nil, err
	}
	if !ok {
		// max_uses 不能低于已兑换次数
		return nil, fmt.Errorf("%w: max_uses below uses_count", ErrPromoInvalid)
	}
	updated, err := s.promoRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPromoNotFound
	}

	changes := models.ChangeSet{}
	changes.Set(constants.AuditFieldCode, before.Code, updated.Code)
	changes.Set(constants.AuditFieldPercentageBoost, before.PercentageBoost.String(), updated.PercentageBoost.String())
	changes.Set(constants.AuditFieldMaxUses, before.MaxUses, updated.MaxUses)
	changes.Set(constants.AuditFieldExpirationDate,
		before.ExpirationDate.UTC().Format(time.RFC3339),
		updated.ExpirationDate.UTC().Format(time.RFC3339),
	)
	s.audit.Record(PromoSubjectKey(updated), constants.AuditActionUpdate, changes)
	return updated, nil
}

// Delete 删除促销码
func (s *PromoLedgerService) Delete(id uint) error {
	promo, err := s.promoRepo.GetByID(id)
	if err != nil {
		return err
	}
	if promo == nil {
		return ErrPromoNotFound
	}
	if err := s.promoRepo.Delete(id); err != nil {
		return err
	}
	s.audit.Record(PromoSubjectKey(promo), constants.AuditActionDelete, promoDeletedChanges(promo))
	return nil
}

func promoDeletedChanges(promo *models.PromoCode) models.ChangeSet {
	changes := models.ChangeSet{}
	changes.Set(constants.AuditFieldCode, promo.Code, nil)
	changes.Set(constants.AuditFieldUsesCount, promo.UsesCount, nil)
	changes.Set(constants.AuditFieldMaxUses, promo.MaxUses, nil)
	changes.Set(constants.AuditFieldExpirationDate, promo.ExpirationDate.UTC().Format(time.RFC3339), nil)
	return changes
}

func normalizePromoInput(rawCode string, boost decimal.Decimal, expiration time.Time, maxUses int) (string, error) {
	code := strings.TrimSpace(rawCode)
	if code == "" || len(code) > promoCodeMaxLength {
		return "", fmt.Errorf("%w: code is required", ErrPromoInvalid)
	}
	if boost.LessThan(decimal.Zero) || boost.GreaterThan(decimal.NewFromInt(constants.CashbackPercentMax)) {
		return "", fmt.Errorf("%w: percentage_boost out of range", ErrPromoInvalid)
	}
	if expiration.IsZero() {
		return "", fmt.Errorf("%w: expiration_date is required", ErrPromoInvalid)
	}
	if maxUses < 0 {
		return "", fmt.Errorf("%w: max_uses must not be negative", ErrPromoInvalid)
	}
	return code, nil
}
