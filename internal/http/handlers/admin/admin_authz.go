package admin

import (
	"errors"
	"strings"

	"github.com/cashback-next/internal/authz"
	handlershared "github.com/cashback-next/internal/http/handlers/shared"
	"github.com/cashback-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type authzSetAdminRolesPayload struct {
	Roles []string `json:"roles"`
}

var authzErrorRules = []handlershared.MappedError{
	{Target: authz.ErrInvalidRole, Code: response.CodeBadRequest, Key: "error.authz_role_invalid"},
	{Target: authz.ErrInvalidPolicy, Code: response.CodeBadRequest, Key: "error.authz_policy_invalid"},
}

// GetAuthzMe 获取当前管理员权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.AdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
		return
	}
	policies := make([]authz.Policy, 0)
	for _, role := range roles {
		items, err := h.AuthzService.RolePolicies(role)
		if err != nil {
			respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
			return
		}
		policies = append(policies, items...)
	}
	response.Success(c, gin.H{
		"admin_id": adminID,
		"is_super": h.AuthzService.IsSuperAdmin(adminID),
		"roles":    roles,
		"policies": policies,
	})
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 获取角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.RolePolicies(c.Param("role"))
	if err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeInternal, "error.authz_fetch_failed")
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeInternal, "error.authz_update_failed")
		return
	}
	requestLog(c).Infow("admin_authz_policy_granted", "role", req.Role, "object", req.Object, "action", req.Action)
	response.Success(c, gin.H{"granted": true})
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeInternal, "error.authz_update_failed")
		return
	}
	requestLog(c).Infow("admin_authz_policy_revoked", "role", req.Role, "object", req.Object, "action", req.Action)
	response.Success(c, gin.H{"revoked": true})
}

// GetAuthzAdminRoles 获取管理员角色
func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.AdminRoles(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"admin_id": id,
		"is_super": h.AuthzService.IsSuperAdmin(id),
		"roles":    roles,
	})
}

// SetAuthzAdminRoles 覆盖设置管理员角色
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	operatorID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req authzSetAdminRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.SetAdminRoles(id, req.Roles); err != nil {
		if errors.Is(err, authz.ErrInvalidRole) {
			respondError(c, response.CodeBadRequest, "error.authz_role_invalid", err)
			return
		}
		respondError(c, response.CodeInternal, "error.authz_update_failed", err)
		return
	}
	requestLog(c).Infow("admin_authz_roles_set",
		"operator_id", operatorID,
		"admin_id", id,
		"roles", strings.Join(req.Roles, ","),
	)
	response.Success(c, gin.H{"admin_id": id, "roles": req.Roles})
}
