package commission

import (
	"strings"

	"github.com/cashback-next/internal/constants"

	"github.com/shopspring/decimal"
)

var (
	percentMin = decimal.NewFromInt(constants.CashbackPercentMin)
	percentMax = decimal.NewFromInt(constants.CashbackPercentMax)
)

// Override 合作方例外策略：固定用户返利，平台收益不计算
type Override struct {
	FixedUserCashback decimal.Decimal
}

// OverrideTable 合作方ID -> 例外策略
type OverrideTable map[string]Override

// Quote 返利报价
// 说明：命中例外策略时 PlatformEarnings 无效（Valid=false），与历史行为保持一致。
type Quote struct {
	PartnerID        string              `json:"partner_id"`
	Average          decimal.Decimal     `json:"average"`
	UserCashback     decimal.Decimal     `json:"user_cashback"`
	PlatformEarnings decimal.NullDecimal `json:"platform_earnings"`
	Overridden       bool                `json:"overridden"`
}

// Splitter 返利分成计算器（纯函数，无副作用）
type Splitter struct {
	userShare decimal.Decimal
	overrides OverrideTable
}

// NewSplitter 创建分成计算器，userSharePercent 为用户分成百分比（默认 50）
func NewSplitter(userSharePercent decimal.Decimal, overrides OverrideTable) *Splitter {
	share := Clamp(userSharePercent)
	if userSharePercent.IsZero() {
		share = decimal.NewFromInt(constants.DefaultUserSharePercent)
	}
	return &Splitter{
		userShare: share.Div(decimal.NewFromInt(100)),
		overrides: normalizeOverrides(overrides),
	}
}

// WithOverrides 返回替换例外策略后的计算器副本
func (s *Splitter) WithOverrides(overrides OverrideTable) *Splitter {
	return &Splitter{
		userShare: s.userShare,
		overrides: normalizeOverrides(overrides),
	}
}

// Overrides 返回例外策略副本
func (s *Splitter) Overrides() OverrideTable {
	result := make(OverrideTable, len(s.overrides))
	for k, v := range s.overrides {
		result[k] = v
	}
	return result
}

// Split 将平均佣金拆分为用户返利与平台收益
func (s *Splitter) Split(average decimal.Decimal, partnerID string) Quote {
	clamped := Clamp(average)
	key := strings.TrimSpace(partnerID)
	if override, ok := s.overrides[key]; ok {
		return Quote{
			PartnerID:    key,
			Average:      clamped,
			UserCashback: Clamp(override.FixedUserCashback),
			Overridden:   true,
		}
	}

	user := clamped.Mul(s.userShare)
	return Quote{
		PartnerID:        key,
		Average:          clamped,
		UserCashback:     user,
		PlatformEarnings: decimal.NewNullDecimal(clamped.Sub(user)),
	}
}

// Clamp 将百分比限制在 [0, 100]
func Clamp(value decimal.Decimal) decimal.Decimal {
	if value.LessThan(percentMin) {
		return percentMin
	}
	if value.GreaterThan(percentMax) {
		return percentMax
	}
	return value
}

func normalizeOverrides(overrides OverrideTable) OverrideTable {
	result := make(OverrideTable, len(overrides))
	for partnerID, override := range overrides {
		key := strings.TrimSpace(partnerID)
		if key == "" {
			continue
		}
		result[key] = override
	}
	return result
}
