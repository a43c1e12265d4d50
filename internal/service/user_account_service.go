package service

import (
	"strings"
	"time"

	"github.com/cashback-next/internal/constants"
	"github.com/cashback-next/internal/logger"
	"github.com/cashback-next/internal/models"
	"github.com/cashback-next/internal/repository"

	"github.com/shopspring/decimal"
)

// UserAccountService 用户返利账户服务
type UserAccountService struct {
	repo  repository.UserAccountRepository
	audit *AuditTrailService
	now   func() time.Time
}

// NewUserAccountService 创建用户返利账户服务
func NewUserAccountService(repo repository.UserAccountRepository, audit *AuditTrailService) *UserAccountService {
	return &UserAccountService{repo: repo, audit: audit, now: utcNow}
}

// AdjustBalanceInput 管理员调整余额输入
type AdjustBalanceInput struct {
	BalanceDelta decimal.Decimal
	PendingDelta decimal.Decimal
}

// Get 获取用户账户
func (s *UserAccountService) Get(userID uint) (*models.UserAccount, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetByEmail 根据邮箱获取用户账户
func (s *UserAccountService) GetByEmail(email string) (*models.UserAccount, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Ensure 按邮箱获取账户，不存在时创建
func (s *UserAccountService) Ensure(email string) (*models.UserAccount, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || !strings.Contains(normalized, "@") {
		return nil, ErrUserInvalid
	}
	user, err := s.repo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	now := s.now()
	user = &models.UserAccount{
		Email:     normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	changes := models.ChangeSet{}
	changes.Set(constants.AuditFieldBalance, nil, user.Balance.String())
	changes.Set(constants.AuditFieldPendingCredits, nil, user.PendingCredits.String())
	s.audit.Record(UserSubjectKey(user), constants.AuditActionCreate, changes)
	return user, nil
}

// List 分页查询用户账户
func (s *UserAccountService) List(filter repository.UserAccountListFilter) ([]models.UserAccount, int64, error) {
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	filter.ActiveCode = strings.TrimSpace(filter.ActiveCode)
	return s.repo.List(filter)
}

// ClearActiveCode 清除用户当前促销码（管理员操作）
func (s *UserAccountService) ClearActiveCode(userID uint) (*models.UserAccount, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if user.ActiveCode == nil {
		return user, nil
	}
	previous := user.ActiveCodeValue()
	if err := s.repo.ClearActiveCode(user.ID, s.now()); err != nil {
		return nil, err
	}
	user.ActiveCode = nil

	changes := models.ChangeSet{}
	changes.Set(constants.AuditFieldActiveCode, previous, user.ActiveCodeValue())
	s.audit.Record(UserSubjectKey(user), constants.AuditActionUpdate, changes)
	logger.Infow("user_active_code_cleared", "user_id", user.ID, "code", previous)
	return user, nil
}

// AdjustBalance 调整余额与待确认返利，结果不得为负
func (s *UserAccountService) AdjustBalance(userID uint, input AdjustBalanceInput) (*models.UserAccount, error) {
	if input.BalanceDelta.IsZero() && input.PendingDelta.IsZero() {
		return nil, ErrUserInvalid
	}
	before, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.AdjustBalances(before.ID, input.BalanceDelta, input.PendingDelta, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBalanceInsufficient
	}
	after, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	changes := models.ChangeSet{}
	changes.Set(constants.AuditFieldBalance, before.Balance.String(), after.Balance.String())
	changes.Set(constants.AuditFieldPendingCredits, before.PendingCredits.String(), after.PendingCredits.String())
	s.audit.Record(UserSubjectKey(after), constants.AuditActionUpdate, changes)
	return after, nil
}
