package service

import "errors"

var (
	ErrPromoInvalid        = errors.New("promo code invalid")
	ErrPromoNotFound       = errors.New("promo code not found")
	ErrPromoExpired        = errors.New("promo code expired")
	ErrPromoLimitReached   = errors.New("promo code usage limit reached")
	ErrPromoConflict       = errors.New("user already holds an active promo code")
	ErrPromoExists         = errors.New("promo code already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInvalid         = errors.New("user account invalid")
	ErrBalanceInsufficient = errors.New("balance insufficient")
	ErrPartnerNotFound     = errors.New("partner not found")
	ErrNetwork             = errors.New("affiliate network unavailable")
	ErrAuditWrite          = errors.New("audit write failed")
	ErrAuditEntryNotFound  = errors.New("audit entry not found")
	ErrOverrideInvalid     = errors.New("partner override invalid")
	ErrOverrideNotFound    = errors.New("partner override not found")
)
