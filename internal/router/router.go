package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cashback-next/internal/authz"
	"github.com/cashback-next/internal/cache"
	"github.com/cashback-next/internal/config"
	adminhandlers "github.com/cashback-next/internal/http/handlers/admin"
	publichandlers "github.com/cashback-next/internal/http/handlers/public"
	"github.com/cashback-next/internal/http/response"
	"github.com/cashback-next/internal/logger"
	"github.com/cashback-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cb"
	}
	applyRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:promo_apply", redisPrefix),
		WindowSeconds: cfg.Promo.ApplyRateLimit.WindowSeconds,
		MaxRequests:   cfg.Promo.ApplyRateLimit.MaxAttempts,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/partners", publicHandler.ListPartnerQuotes)
			public.GET("/promo-codes/:code", publicHandler.GetPromoCodeState)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey))
		{
			user.GET("/me", publicHandler.GetMyAccount)
			user.POST("/promo-codes/apply", RateLimitMiddleware(cache.Client(), applyRule, KeyByUserID), publicHandler.ApplyPromoCode)
			user.GET("/partners/:id/quote", publicHandler.GetPartnerQuote)
			user.GET("/partners/:id/link", publicHandler.GetPartnerLink)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey), AdminRBACMiddleware(c.AuthzService))
		{
			// 促销码管理
			admin.GET("/promo-codes", adminHandler.ListPromoCodes)
			admin.POST("/promo-codes", adminHandler.CreatePromoCode)
			admin.POST("/promo-codes/sweep", adminHandler.SweepExpiredPromoCodes)
			admin.GET("/promo-codes/:id", adminHandler.GetPromoCode)
			admin.PUT("/promo-codes/:id", adminHandler.UpdatePromoCode)
			admin.DELETE("/promo-codes/:id", adminHandler.DeletePromoCode)
			admin.GET("/promo-codes/:id/audit", adminHandler.GetPromoCodeAudit)

			// 用户账户管理
			admin.GET("/users", adminHandler.ListUserAccounts)
			admin.POST("/users", adminHandler.CreateUserAccount)
			admin.GET("/users/:id", adminHandler.GetUserAccount)
			admin.GET("/users/:id/audit", adminHandler.GetUserAccountAudit)
			admin.POST("/users/:id/clear-active-code", adminHandler.ClearUserActiveCode)
			admin.POST("/users/:id/adjust-balance", adminHandler.AdjustUserBalance)

			// 合作方与分成策略
			admin.POST("/partners/refresh", adminHandler.RefreshPartners)
			admin.GET("/partners/:partner_id/quote", adminHandler.GetPartnerQuote)
			admin.GET("/partners/:partner_id/stats", adminHandler.GetPartnerCommissionStats)
			admin.GET("/partner-overrides", adminHandler.ListPartnerOverrides)
			admin.PUT("/partner-overrides/:partner_id", adminHandler.UpsertPartnerOverride)
			admin.DELETE("/partner-overrides/:partner_id", adminHandler.DeletePartnerOverride)

			// 审计日志
			admin.GET("/audit-entries", adminHandler.ListAuditEntries)
			admin.DELETE("/audit-entries/:id", adminHandler.DeleteAuditEntry)

			// 权限管理
			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
			admin.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			admin.GET("/authz/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))
	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})
	return items
}

// deriveAdminPermissionModule 取 /admin 之后的第一段作为模块名
func deriveAdminPermissionModule(object string) string {
	segments := strings.Split(strings.TrimPrefix(object, "/"), "/")
	if len(segments) < 2 || segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
