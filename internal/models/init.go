package models

import (
	"sort"
	"strings"

	"github.com/cashback-next/internal/logger"
)

// InitDefaultOverrides 在例外策略表为空时写入配置中的默认例外
func InitDefaultOverrides(defaults map[string]float64) error {
	if len(defaults) == 0 {
		return nil
	}
	var count int64
	if err := DB.Model(&PartnerOverride{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	partnerIDs := make([]string, 0, len(defaults))
	for partnerID := range defaults {
		partnerIDs = append(partnerIDs, partnerID)
	}
	sort.Strings(partnerIDs)

	for _, partnerID := range partnerIDs {
		trimmed := strings.TrimSpace(partnerID)
		if trimmed == "" {
			continue
		}
		item := PartnerOverride{
			PartnerID:         trimmed,
			FixedUserCashback: NewPercentFromFloat(defaults[partnerID]),
			Note:              "seeded from config",
		}
		if err := DB.Create(&item).Error; err != nil {
			return err
		}
		logger.Infow("partner_override_seeded", "partner_id", trimmed, "fixed_user_cashback", item.FixedUserCashback.String())
	}
	return nil
}
