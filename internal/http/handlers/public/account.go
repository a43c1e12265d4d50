package public

import (
	handlershared "github.com/cashback-next/internal/http/handlers/shared"
	"github.com/cashback-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetMyAccount 获取当前用户返利账户
func (h *Handler) GetMyAccount(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	account, err := h.UserAccountService.Get(userID)
	if err != nil {
		handlershared.RespondMappedError(c, err, handlershared.UserErrorRules, response.CodeInternal, "error.user_fetch_failed")
		return
	}

	data := gin.H{
		"id":              account.ID,
		"email":           account.Email,
		"active_code":     account.ActiveCode,
		"balance":         account.Balance,
		"pending_credits": account.PendingCredits,
	}
	if account.ActiveCode != nil {
		state, _, err := h.PromoLedgerService.Validate(*account.ActiveCode)
		if err != nil {
			requestLog(c).Warnw("account_active_code_state_failed", "user_id", userID, "error", err)
		} else {
			data["active_code_state"] = state
		}
	}
	response.Success(c, data)
}
