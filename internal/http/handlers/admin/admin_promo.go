package admin

import (
	"time"

	handlershared "github.com/cashback-next/internal/http/handlers/shared"
	"github.com/cashback-next/internal/http/response"
	"github.com/cashback-next/internal/queue"
	"github.com/cashback-next/internal/repository"
	"github.com/cashback-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SavePromoCodeRequest 创建/更新促销码请求
type SavePromoCodeRequest struct {
	Code            string  `json:"code" binding:"required"`
	PercentageBoost float64 `json:"percentage_boost"`
	ExpirationDate  string  `json:"expiration_date" binding:"required"`
	MaxUses         int     `json:"max_uses"`
}

// CreatePromoCode 创建促销码
func (h *Handler) CreatePromoCode(c *gin.Context) {
	var req SavePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	expiration, err := time.Parse(time.RFC3339, req.ExpirationDate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	promo, err := h.PromoLedgerService.Create(service.CreatePromoInput{
		Code:            req.Code,
		PercentageBoost: decimal.NewFromFloat(req.PercentageBoost),
		ExpirationDate:  expiration,
		MaxUses:         req.MaxUses,
	})
	if err != nil {
		respondWithMappedError(c, err, handlershared.PromoErrorRules, response.CodeInternal, "error.promo_save_failed")
		return
	}
	response.Success(c, promo)
}

// UpdatePromoCode 更新促销码
func (h *Handler) UpdatePromoCode(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SavePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	expiration, err := time.Parse(time.RFC3339, req.ExpirationDate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	promo, err := h.PromoLedgerService.Update(id, service.UpdatePromoInput{
		Code:            req.Code,
		PercentageBoost: decimal.NewFromFloat(req.PercentageBoost),
		ExpirationDate:  expiration,
		MaxUses:         req.MaxUses,
	})
	if err != nil {
		respondWithMappedError(c, err, handlershared.PromoErrorRules, response.CodeInternal, "error.promo_save_failed")
		return
	}
	response.Success(c, promo)
}

// DeletePromoCode 删除促销码
func (h *Handler) DeletePromoCode(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.PromoLedgerService.Delete(id); err != nil {
		respondWithMappedError(c, err, handlershared.PromoErrorRules, response.CodeInternal, "error.promo_delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetPromoCode 获取促销码详情
func (h *Handler) GetPromoCode(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	promo, err := h.PromoLedgerService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, handlershared.PromoErrorRules, response.CodeInternal, "error.promo_fetch_failed")
		return
	}
	response.Success(c, promo)
}

// GetPromoCodeAudit 获取促销码审计日志
func (h *Handler) GetPromoCodeAudit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	promo, err := h.PromoLedgerService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, handlershared.PromoErrorRules, response.CodeInternal, "error.promo_fetch_failed")
		return
	}
	entries, err := h.AuditTrailService.EntriesFor(service.PromoSubjectKey(promo))
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_fetch_failed", err)
		return
	}
	response.Success(c, entries)
}

// ListPromoCodes 获取促销码列表
func (h *Handler) ListPromoCodes(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.PromoCodeListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     c.Query("code"),
	}
	validAt, err := parseTimeNullable(c.Query("valid_at"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	filter.OnlyValidAt = validAt
	expiredBefore, err := parseTimeNullable(c.Query("expired_before"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	filter.ExpiredBefore = expiredBefore

	codes, total, err := h.PromoLedgerService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.promo_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, codes, response.NewPagination(page, pageSize, total))
}

// SweepExpiredPromoCodes 清理已过期促销码
// 队列可用时异步执行（async=true），否则同步执行并返回删除结果。
func (h *Handler) SweepExpiredPromoCodes(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	if c.Query("async") == "true" && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueuePromoSweep(queue.PromoSweepPayload{Source: "admin"}); err != nil {
			respondError(c, response.CodeInternal, "error.queue_enqueue_failed", err)
			return
		}
		response.Success(c, gin.H{"queued": true})
		return
	}

	deleted, err := h.PromoLedgerService.SweepExpired()
	if err != nil {
		respondError(c, response.CodeInternal, "error.promo_sweep_failed", err)
		return
	}
	requestLog(c).Infow("admin_promo_sweep", "admin_id", adminID, "deleted", len(deleted))
	response.Success(c, gin.H{
		"queued":  false,
		"deleted": deleted,
	})
}
