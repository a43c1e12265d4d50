package public

import (
	"strconv"

	handlershared "github.com/cashback-next/internal/http/handlers/shared"
	"github.com/cashback-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

var quoteErrorRules = handlershared.ConcatErrorRules(
	handlershared.PartnerErrorRules,
	handlershared.UserErrorRules,
)

// ListPartnerQuotes 获取合作方返利报价列表
func (h *Handler) ListPartnerQuotes(c *gin.Context) {
	quotes, err := h.CashbackService.ListQuotes(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, quoteErrorRules, response.CodeInternal, "error.quote_failed")
		return
	}
	response.Success(c, quotes)
}

// GetPartnerQuote 获取当前用户在某合作方的返利报价
func (h *Handler) GetPartnerQuote(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	quote, err := h.CashbackService.QuoteForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondWithMappedError(c, err, quoteErrorRules, response.CodeInternal, "error.quote_failed")
		return
	}
	response.Success(c, quote)
}

// GetPartnerLink 生成带用户标识的跟踪链接
func (h *Handler) GetPartnerLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	link, err := h.CashbackService.PartnerLink(c.Request.Context(), c.Param("id"), strconv.FormatUint(uint64(userID), 10))
	if err != nil {
		respondWithMappedError(c, err, quoteErrorRules, response.CodeInternal, "error.quote_failed")
		return
	}
	response.Success(c, gin.H{"link": link})
}
