package shared

import "fmt"

// messages 消息键 -> 默认文案，客户端可按 msg_key 自行本地化
var messages = map[string]string{
	"error.bad_request":            "invalid request",
	"error.unauthorized":           "unauthorized",
	"error.forbidden":              "forbidden",
	"error.not_found":              "resource not found",
	"error.internal":               "internal error",
	"error.jwt_secret_missing":     "authentication is not configured",
	"error.auth_header_missing":    "missing authorization header",
	"error.auth_header_invalid":    "invalid authorization header",
	"error.token_invalid":          "invalid or expired token",
	"error.user_id_invalid":        "invalid user id",
	"error.user_id_type_invalid":   "invalid user id type",
	"error.admin_id_invalid":       "invalid admin id",
	"error.admin_id_type_invalid":  "invalid admin id type",
	"error.rate_limited":           "too many requests, retry in %d seconds",
	"error.rate_limit_unavailable": "rate limiter unavailable",
	"error.promo_invalid":          "promo code is invalid",
	"error.promo_not_found":        "promo code not found",
	"error.promo_expired":          "promo code has expired",
	"error.promo_limit_reached":    "promo code usage limit reached",
	"error.promo_conflict":         "an active promo code is already applied",
	"error.promo_exists":           "promo code already exists",
	"error.promo_fetch_failed":     "failed to load promo codes",
	"error.promo_apply_failed":     "failed to apply promo code",
	"error.promo_save_failed":      "failed to save promo code",
	"error.promo_delete_failed":    "failed to delete promo code",
	"error.promo_sweep_failed":     "failed to sweep expired promo codes",
	"error.user_not_found":         "user not found",
	"error.user_invalid":           "user account request is invalid",
	"error.user_fetch_failed":      "failed to load user account",
	"error.user_update_failed":     "failed to update user account",
	"error.balance_insufficient":   "balance is insufficient",
	"error.partner_not_found":      "partner not found",
	"error.partner_unavailable":    "affiliate network unavailable",
	"error.quote_failed":           "failed to compute cashback quote",
	"error.override_invalid":       "partner override is invalid",
	"error.override_not_found":     "partner override not found",
	"error.override_save_failed":   "failed to save partner override",
	"error.audit_entry_not_found":  "audit entry not found",
	"error.audit_fetch_failed":     "failed to load audit entries",
	"error.audit_delete_failed":    "failed to delete audit entry",
	"error.queue_enqueue_failed":   "failed to enqueue task",
	"error.authz_role_invalid":     "role name is invalid",
	"error.authz_policy_invalid":   "policy is invalid",
	"error.authz_fetch_failed":     "failed to load permissions",
	"error.authz_update_failed":    "failed to update permissions",
}

// Message 返回消息键对应的文案，未知键原样返回
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}

// Messagef 格式化消息
func Messagef(key string, args ...interface{}) string {
	return fmt.Sprintf(Message(key), args...)
}
