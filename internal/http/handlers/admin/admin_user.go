package admin

import (
	"strings"

	handlershared "github.com/cashback-next/internal/http/handlers/shared"
	"github.com/cashback-next/internal/http/response"
	"github.com/cashback-next/internal/repository"
	"github.com/cashback-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateUserAccountRequest 创建用户账户请求
type CreateUserAccountRequest struct {
	Email string `json:"email" binding:"required"`
}

// AdjustBalanceRequest 调整余额请求
type AdjustBalanceRequest struct {
	BalanceDelta string `json:"balance_delta"`
	PendingDelta string `json:"pending_delta"`
}

// ListUserAccounts 获取用户账户列表
func (h *Handler) ListUserAccounts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	users, total, err := h.UserAccountService.List(repository.UserAccountListFilter{
		Page:       page,
		PageSize:   pageSize,
		Keyword:    c.Query("keyword"),
		ActiveCode: c.Query("active_code"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}

// CreateUserAccount 按邮箱创建用户账户（已存在时直接返回）
func (h *Handler) CreateUserAccount(c *gin.Context) {
	var req CreateUserAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAccountService.Ensure(req.Email)
	if err != nil {
		respondWithMappedError(c, err, handlershared.UserErrorRules, response.CodeInternal, "error.user_update_failed")
		return
	}
	response.Success(c, user)
}

// GetUserAccount 获取用户账户详情
func (h *Handler) GetUserAccount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserAccountService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, handlershared.UserErrorRules, response.CodeInternal, "error.user_fetch_failed")
		return
	}
	response.Success(c, user)
}

// GetUserAccountAudit 获取用户审计日志
func (h *Handler) GetUserAccountAudit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserAccountService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, handlershared.UserErrorRules, response.CodeInternal, "error.user_fetch_failed")
		return
	}
	entries, err := h.AuditTrailService.EntriesFor(service.UserSubjectKey(user))
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_fetch_failed", err)
		return
	}
	response.Success(c, entries)
}

// ClearUserActiveCode 清除用户当前促销码
func (h *Handler) ClearUserActiveCode(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserAccountService.ClearActiveCode(id)
	if err != nil {
		respondWithMappedError(c, err, handlershared.UserErrorRules, response.CodeInternal, "error.user_update_failed")
		return
	}
	requestLog(c).Infow("admin_user_active_code_cleared", "admin_id", adminID, "user_id", id)
	response.Success(c, user)
}

// AdjustUserBalance 调整用户余额
func (h *Handler) AdjustUserBalance(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	balanceDelta, err := parseDecimalOrZero(req.BalanceDelta)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	pendingDelta, err := parseDecimalOrZero(req.PendingDelta)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, err := h.UserAccountService.AdjustBalance(id, service.AdjustBalanceInput{
		BalanceDelta: balanceDelta,
		PendingDelta: pendingDelta,
	})
	if err != nil {
		respondWithMappedError(c, err, handlershared.UserErrorRules, response.CodeInternal, "error.user_update_failed")
		return
	}
	requestLog(c).Infow("admin_user_balance_adjusted",
		"admin_id", adminID,
		"user_id", id,
		"balance_delta", balanceDelta.String(),
		"pending_delta", pendingDelta.String(),
	)
	response.Success(c, user)
}

func parseDecimalOrZero(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
