package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cashback-next/internal/affiliate"
	"github.com/cashback-next/internal/cache"
	"github.com/cashback-next/internal/commission"
	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/constants"
	"github.com/cashback-next/internal/logger"
	"github.com/cashback-next/internal/models"
	"github.com/cashback-next/internal/repository"

	"github.com/shopspring/decimal"
)

const defaultPartnerCacheTTL = 10 * time.Minute

// PartnerSource 合作方数据来源（推广联盟接口）
type PartnerSource interface {
	ListPartners(ctx context.Context) ([]affiliate.Partner, error)
	GetPartner(ctx context.Context, partnerID string) (*affiliate.Partner, error)
	CommissionStats(ctx context.Context, partnerID string, from, to time.Time) ([]affiliate.CommissionStat, error)
	DeepLink(ctx context.Context, partnerID, subID string) (string, error)
}

// PartnerQuote 合作方返利报价
type PartnerQuote struct {
	Partner affiliate.Partner `json:"partner"`
	commission.Quote
	ActiveCode        string          `json:"active_code,omitempty"`
	PromoBoost        decimal.Decimal `json:"promo_boost"`
	EffectiveCashback decimal.Decimal `json:"effective_cashback"`
}

// UpsertOverrideInput 合作方例外策略输入
type UpsertOverrideInput struct {
	PartnerID         string
	FixedUserCashback decimal.Decimal
	Note              string
}

// CashbackService 返利报价服务
type CashbackService struct {
	source       PartnerSource
	overrideRepo repository.PartnerOverrideRepository
	promoRepo    repository.PromoCodeRepository
	userRepo     repository.UserAccountRepository
	defaults     commission.OverrideTable
	cacheTTL     time.Duration
	now          func() time.Time

	mu       sync.RWMutex
	splitter *commission.Splitter
}

// NewCashbackService 创建返利报价服务
func NewCashbackService(
	source PartnerSource,
	overrideRepo repository.PartnerOverrideRepository,
	promoRepo repository.PromoCodeRepository,
	userRepo repository.UserAccountRepository,
	cfg config.CommissionConfig,
) *CashbackService {
	defaults := make(commission.OverrideTable, len(cfg.Overrides))
	for partnerID, fixed := range cfg.Overrides {
		defaults[partnerID] = commission.Override{FixedUserCashback: decimal.NewFromFloat(fixed)}
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultPartnerCacheTTL
	}
	s := &CashbackService{
		source:       source,
		overrideRepo: overrideRepo,
		promoRepo:    promoRepo,
		userRepo:     userRepo,
		defaults:     defaults,
		cacheTTL:     ttl,
		now:          utcNow,
		splitter:     commission.NewSplitter(decimal.NewFromFloat(cfg.UserSharePercent), defaults),
	}
	if err := s.ReloadOverrides(); err != nil {
		logger.Warnw("cashback_reload_overrides_failed", "error", err)
	}
	return s
}

// ReloadOverrides 从数据库重新加载例外策略；数据库不可用时保留配置默认值
func (s *CashbackService) ReloadOverrides() error {
	if s.overrideRepo == nil {
		return nil
	}
	rows, err := s.overrideRepo.List()
	if err != nil {
		return err
	}
	table := make(commission.OverrideTable, len(rows))
	for _, row := range rows {
		table[row.PartnerID] = commission.Override{FixedUserCashback: row.FixedUserCashback.Decimal}
	}
	s.mu.Lock()
	s.splitter = s.splitter.WithOverrides(table)
	s.mu.Unlock()
	return nil
}

func (s *CashbackService) currentSplitter() *commission.Splitter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.splitter
}

// QuotePartner 计算合作方默认返利报价
func (s *CashbackService) QuotePartner(ctx context.Context, partnerID string) (*PartnerQuote, error) {
	partner, err := s.partner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	return s.quote(partner), nil
}

// QuoteForUser 计算用户视角的返利报价（叠加有效促销码加成）
// 说明：促销码已删除或已过期时加成失效，不修改用户记录。
func (s *CashbackService) QuoteForUser(ctx context.Context, partnerID string, userID uint) (*PartnerQuote, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	quote, err := s.QuotePartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if user.ActiveCode == nil {
		return quote, nil
	}
	promo, err := s.promoRepo.GetByCode(*user.ActiveCode)
	if err != nil {
		return nil, err
	}
	if promo == nil || promo.IsExpiredAt(s.now()) {
		return quote, nil
	}
	quote.ActiveCode = promo.Code
	quote.PromoBoost = promo.PercentageBoost.Decimal
	quote.EffectiveCashback = commission.Clamp(quote.UserCashback.Add(quote.PromoBoost))
	return quote, nil
}

// ListQuotes 获取全部合作方报价
func (s *CashbackService) ListQuotes(ctx context.Context) ([]PartnerQuote, error) {
	partners, err := s.partners(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]PartnerQuote, 0, len(partners))
	for i := range partners {
		result = append(result, *s.quote(&partners[i]))
	}
	return result, nil
}

// RefreshPartners 拉取合作方列表并写入缓存，返回合作方数量
func (s *CashbackService) RefreshPartners(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, ErrNetwork
	}
	partners, err := s.source.ListPartners(ctx)
	if err != nil {
		return 0, mapAffiliateError(err)
	}
	if err := cache.SetJSON(ctx, constants.CacheKeyPartnerList, partners, s.cacheTTL); err != nil {
		logger.Warnw("cashback_cache_set_failed", "key", constants.CacheKeyPartnerList, "error", err)
	}
	for i := range partners {
		key := partnerSnapshotKey(partners[i].ID)
		if err := cache.SetJSON(ctx, key, partners[i], s.cacheTTL); err != nil {
			logger.Warnw("cashback_cache_set_failed", "key", key, "error", err)
		}
	}
	logger.Infow("cashback_partners_refreshed", "count", len(partners))
	return len(partners), nil
}

// PartnerLink 生成合作方跟踪链接
func (s *CashbackService) PartnerLink(ctx context.Context, partnerID, subID string) (string, error) {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return "", ErrPartnerNotFound
	}
	if s.source == nil {
		return "", ErrNetwork
	}
	link, err := s.source.DeepLink(ctx, partnerID, subID)
	if err != nil {
		return "", mapAffiliateError(err)
	}
	return link, nil
}

// CommissionStats 查询合作方佣金统计
func (s *CashbackService) CommissionStats(ctx context.Context, partnerID string, from, to time.Time) ([]affiliate.CommissionStat, error) {
	if s.source == nil {
		return nil, ErrNetwork
	}
	stats, err := s.source.CommissionStats(ctx, strings.TrimSpace(partnerID), from, to)
	if err != nil {
		return nil, mapAffiliateError(err)
	}
	return stats, nil
}

// ListOverrides 列出例外策略
func (s *CashbackService) ListOverrides() ([]models.PartnerOverride, error) {
	return s.overrideRepo.List()
}

// UpsertOverride 新增或更新例外策略
func (s *CashbackService) UpsertOverride(input UpsertOverrideInput) (*models.PartnerOverride, error) {
	partnerID := strings.TrimSpace(input.PartnerID)
	if partnerID == "" {
		return nil, ErrOverrideInvalid
	}
	if input.FixedUserCashback.LessThan(decimal.NewFromInt(constants.CashbackPercentMin)) ||
		input.FixedUserCashback.GreaterThan(decimal.NewFromInt(constants.CashbackPercentMax)) {
		return nil, ErrOverrideInvalid
	}
	now := s.now()
	item := &models.PartnerOverride{
		PartnerID:         partnerID,
		FixedUserCashback: models.NewPercent(input.FixedUserCashback),
		Note:              strings.TrimSpace(input.Note),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.overrideRepo.Upsert(item); err != nil {
		return nil, err
	}
	if err := s.ReloadOverrides(); err != nil {
		return nil, err
	}
	saved, err := s.overrideRepo.GetByPartnerID(partnerID)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return item, nil
	}
	return saved, nil
}

// DeleteOverride 删除例外策略
func (s *CashbackService) DeleteOverride(partnerID string) error {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return ErrOverrideInvalid
	}
	deleted, err := s.overrideRepo.DeleteByPartnerID(partnerID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrOverrideNotFound
	}
	return s.ReloadOverrides()
}

func (s *CashbackService) quote(partner *affiliate.Partner) *PartnerQuote {
	average := commission.ParseAverage(partner.Commission)
	q := s.currentSplitter().Split(average, partner.ID)
	return &PartnerQuote{
		Partner:           *partner,
		Quote:             q,
		PromoBoost:        decimal.Zero,
		EffectiveCashback: q.UserCashback,
	}
}

func (s *CashbackService) partner(ctx context.Context, partnerID string) (*affiliate.Partner, error) {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return nil, ErrPartnerNotFound
	}
	key := partnerSnapshotKey(partnerID)
	var cached affiliate.Partner
	hit, err := cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.Warnw("cashback_cache_get_failed", "key", key, "error", err)
	}
	if hit {
		return &cached, nil
	}

	if s.source == nil {
		return nil, ErrNetwork
	}
	partner, err := s.source.GetPartner(ctx, partnerID)
	if err != nil {
		return nil, mapAffiliateError(err)
	}
	if partner == nil {
		return nil, ErrPartnerNotFound
	}
	if err := cache.SetJSON(ctx, key, partner, s.cacheTTL); err != nil {
		logger.Warnw("cashback_cache_set_failed", "key", key, "error", err)
	}
	return partner, nil
}

func (s *CashbackService) partners(ctx context.Context) ([]affiliate.Partner, error) {
	var cached []affiliate.Partner
	hit, err := cache.GetJSON(ctx, constants.CacheKeyPartnerList, &cached)
	if err != nil {
		logger.Warnw("cashback_cache_get_failed", "key", constants.CacheKeyPartnerList, "error", err)
	}
	if hit {
		return cached, nil
	}
	if s.source == nil {
		return nil, ErrNetwork
	}
	partners, err := s.source.ListPartners(ctx)
	if err != nil {
		return nil, mapAffiliateError(err)
	}
	sort.SliceStable(partners, func(i, j int) bool { return partners[i].ID < partners[j].ID })
	if err := cache.SetJSON(ctx, constants.CacheKeyPartnerList, partners, s.cacheTTL); err != nil {
		logger.Warnw("cashback_cache_set_failed", "key", constants.CacheKeyPartnerList, "error", err)
	}
	return partners, nil
}

func partnerSnapshotKey(partnerID string) string {
	return constants.CacheKeyPartnerSnapshot + ":" + strings.TrimSpace(partnerID)
}

func mapAffiliateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, affiliate.ErrNotFound):
		return ErrPartnerNotFound
	default:
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}
