package constants

// 促销码状态常量（按调用时刻推导，不持久化）
const (
	PromoStateUnknown    = "unknown"
	PromoStateExpired    = "expired"
	PromoStateExhausted  = "exhausted"
	PromoStateRedeemable = "redeemable"
)

// 审计动作常量
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

// 审计字段名常量
const (
	AuditFieldUsesCount       = "uses_count"
	AuditFieldActiveCode      = "active_code"
	AuditFieldPercentageBoost = "percentage_boost"
	AuditFieldMaxUses         = "max_uses"
	AuditFieldExpirationDate  = "expiration_date"
	AuditFieldCode            = "code"
	AuditFieldBalance         = "balance"
	AuditFieldPendingCredits  = "pending_credits"
)

// 审计日志默认容量（每个主体）
const AuditDefaultCapacity = 10

// 返利分成默认值
const (
	DefaultUserSharePercent     = 50
	DefaultOverridePartnerID    = "35"
	DefaultOverrideUserCashback = 10
	CashbackPercentMin          = 0
	CashbackPercentMax          = 100
)

// 推广联盟签名编码
const (
	SignatureEncodingHex    = "hex"
	SignatureEncodingBase64 = "base64"
)

// 推广联盟请求头默认值
const (
	AffiliateHeaderDate             = "Date"
	AffiliateHeaderClientIDDefault  = "X-Client-Id"
	AffiliateHeaderSignatureDefault = "X-Auth-Signature"
)

// 队列与任务常量
const (
	QueueDefault          = "default"
	TaskPromoSweepExpired = "promo:sweep_expired"
	TaskPartnerRefresh    = "partner:refresh"
)

// 缓存 key 前缀
const (
	CacheKeyPartnerSnapshot = "partner:snapshot"
	CacheKeyPartnerList     = "partner:list"
)
