package admin

import (
	"time"

	handlershared "github.com/cashback-next/internal/http/handlers/shared"
	"github.com/cashback-next/internal/http/response"
	"github.com/cashback-next/internal/queue"
	"github.com/cashback-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UpsertPartnerOverrideRequest 合作方例外策略请求
type UpsertPartnerOverrideRequest struct {
	FixedUserCashback float64 `json:"fixed_user_cashback"`
	Note              string  `json:"note"`
}

// ListPartnerOverrides 获取例外策略列表
func (h *Handler) ListPartnerOverrides(c *gin.Context) {
	items, err := h.CashbackService.ListOverrides()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, items)
}

// UpsertPartnerOverride 新增或更新例外策略
func (h *Handler) UpsertPartnerOverride(c *gin.Context) {
	var req UpsertPartnerOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	item, err := h.CashbackService.UpsertOverride(service.UpsertOverrideInput{
		PartnerID:         c.Param("partner_id"),
		FixedUserCashback: decimal.NewFromFloat(req.FixedUserCashback),
		Note:              req.Note,
	})
	if err != nil {
		respondWithMappedError(c, err, handlershared.PartnerErrorRules, response.CodeInternal, "error.override_save_failed")
		return
	}
	response.Success(c, item)
}

// DeletePartnerOverride 删除例外策略
func (h *Handler) DeletePartnerOverride(c *gin.Context) {
	if err := h.CashbackService.DeleteOverride(c.Param("partner_id")); err != nil {
		respondWithMappedError(c, err, handlershared.PartnerErrorRules, response.CodeInternal, "error.override_save_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetPartnerQuote 获取合作方默认报价（不含用户加成）
func (h *Handler) GetPartnerQuote(c *gin.Context) {
	quote, err := h.CashbackService.QuotePartner(c.Request.Context(), c.Param("partner_id"))
	if err != nil {
		respondWithMappedError(c, err, handlershared.PartnerErrorRules, response.CodeInternal, "error.quote_failed")
		return
	}
	response.Success(c, quote)
}

// GetPartnerCommissionStats 获取合作方佣金统计
func (h *Handler) GetPartnerCommissionStats(c *gin.Context) {
	from, err := parseTimeNullable(c.Query("from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	to, err := parseTimeNullable(c.Query("to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var fromAt, toAt time.Time
	if from != nil {
		fromAt = *from
	}
	if to != nil {
		toAt = *to
	}
	stats, err := h.CashbackService.CommissionStats(c.Request.Context(), c.Param("partner_id"), fromAt, toAt)
	if err != nil {
		respondWithMappedError(c, err, handlershared.PartnerErrorRules, response.CodeInternal, "error.quote_failed")
		return
	}
	response.Success(c, stats)
}

// RefreshPartners 刷新合作方缓存
func (h *Handler) RefreshPartners(c *gin.Context) {
	if h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueuePartnerRefresh(queue.PartnerRefreshPayload{Reason: "admin"}, 0); err != nil {
			respondError(c, response.CodeInternal, "error.queue_enqueue_failed", err)
			return
		}
		response.Success(c, gin.H{"queued": true})
		return
	}
	count, err := h.CashbackService.RefreshPartners(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, handlershared.PartnerErrorRules, response.CodeInternal, "error.partner_unavailable")
		return
	}
	response.Success(c, gin.H{"queued": false, "count": count})
}
