package public

import (
	"github.com/cashback-next/internal/constants"
	handlershared "github.com/cashback-next/internal/http/handlers/shared"
	"github.com/cashback-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ApplyPromoRequest 兑换促销码请求
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

var applyPromoErrorRules = handlershared.ConcatErrorRules(
	handlershared.PromoErrorRules,
	handlershared.UserErrorRules,
)

// ApplyPromoCode 兑换促销码
func (h *Handler) ApplyPromoCode(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.PromoLedgerService.Apply(req.Code, userID)
	if err != nil {
		requestLog(c).Infow("promo_apply_rejected",
			"user_id", userID,
			"user_email", c.GetString(handlershared.ContextKeyUserEmail),
			"reason", err.Error(),
		)
		respondWithMappedError(c, err, applyPromoErrorRules, response.CodeInternal, "error.promo_apply_failed")
		return
	}

	response.Success(c, gin.H{
		"code":             result.Promo.Code,
		"percentage_boost": result.Promo.PercentageBoost,
		"expiration_date":  result.Promo.ExpirationDate,
		"uses_remaining":   result.Promo.MaxUses - result.Promo.UsesCount,
		"active_code":      result.User.ActiveCode,
	})
}

// GetPromoCodeState 查询促销码状态
func (h *Handler) GetPromoCodeState(c *gin.Context) {
	state, promo, err := h.PromoLedgerService.Validate(c.Param("code"))
	if err != nil {
		respondError(c, response.CodeInternal, "error.promo_fetch_failed", err)
		return
	}
	data := gin.H{
		"state":      state,
		"redeemable": state == constants.PromoStateRedeemable,
	}
	if promo != nil {
		data["code"] = promo.Code
		data["percentage_boost"] = promo.PercentageBoost
		data["expiration_date"] = promo.ExpirationDate
	}
	response.Success(c, data)
}
