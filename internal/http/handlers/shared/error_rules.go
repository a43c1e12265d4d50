package shared

import (
	"github.com/cashback-next/internal/http/response"
	"github.com/cashback-next/internal/service"
)

// PromoErrorRules 促销码相关错误映射
var PromoErrorRules = []MappedError{
	{Target: service.ErrPromoInvalid, Code: response.CodeBadRequest, Key: "error.promo_invalid"},
	{Target: service.ErrPromoNotFound, Code: response.CodeNotFound, Key: "error.promo_not_found"},
	{Target: service.ErrPromoExpired, Code: response.CodeGone, Key: "error.promo_expired"},
	{Target: service.ErrPromoLimitReached, Code: response.CodeConflict, Key: "error.promo_limit_reached"},
	{Target: service.ErrPromoConflict, Code: response.CodeConflict, Key: "error.promo_conflict"},
	{Target: service.ErrPromoExists, Code: response.CodeConflict, Key: "error.promo_exists"},
}

// UserErrorRules 用户账户相关错误映射
var UserErrorRules = []MappedError{
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound, Key: "error.user_not_found"},
	{Target: service.ErrUserInvalid, Code: response.CodeBadRequest, Key: "error.user_invalid"},
	{Target: service.ErrBalanceInsufficient, Code: response.CodeBadRequest, Key: "error.balance_insufficient"},
}

// PartnerErrorRules 合作方相关错误映射
var PartnerErrorRules = []MappedError{
	{Target: service.ErrPartnerNotFound, Code: response.CodeNotFound, Key: "error.partner_not_found"},
	{Target: service.ErrNetwork, Code: response.CodeServiceUnavailable, Key: "error.partner_unavailable"},
	{Target: service.ErrOverrideInvalid, Code: response.CodeBadRequest, Key: "error.override_invalid"},
	{Target: service.ErrOverrideNotFound, Code: response.CodeNotFound, Key: "error.override_not_found"},
}

// ConcatErrorRules 合并多组错误映射
func ConcatErrorRules(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
