package provider

import (
	"github.com/cashback-next/internal/affiliate"
	"github.com/cashback-next/internal/authz"
	"github.com/cashback-next/internal/cache"
	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/logger"
	"github.com/cashback-next/internal/models"
	"github.com/cashback-next/internal/queue"
	"github.com/cashback-next/internal/repository"
	"github.com/cashback-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config          *config.Config
	QueueClient     *queue.Client
	AffiliateClient *affiliate.Client

	// Repositories
	PromoCodeRepo       repository.PromoCodeRepository
	UserAccountRepo     repository.UserAccountRepository
	AuditEntryRepo      repository.AuditEntryRepository
	PartnerOverrideRepo repository.PartnerOverrideRepository

	// Services
	AuthzService       *authz.Service
	AuditTrailService  *service.AuditTrailService
	PromoLedgerService *service.PromoLedgerService
	UserAccountService *service.UserAccountService
	CashbackService    *service.CashbackService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:          cfg,
		QueueClient:     queueClient,
		AffiliateClient: affiliate.NewClient(affiliate.ConfigFromApp(cfg.Affiliate), nil),
	}
	if !c.AffiliateClient.Configured() {
		logger.Warnw("provider_affiliate_not_configured", "base_url", cfg.Affiliate.BaseURL)
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.PromoCodeRepo = repository.NewPromoCodeRepository(db)
	c.UserAccountRepo = repository.NewUserAccountRepository(db)
	c.AuditEntryRepo = repository.NewAuditEntryRepository(db)
	c.PartnerOverrideRepo = repository.NewPartnerOverrideRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB, c.Config.Authz.SuperAdminIDs)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
	} else {
		if err := authzService.BootstrapBuiltinRoles(); err != nil {
			logger.Warnw("provider_bootstrap_authz_roles_failed", "error", err)
		}
		c.AuthzService = authzService
	}
	c.AuditTrailService = service.NewAuditTrailService(c.AuditEntryRepo, c.Config.Audit.Capacity)
	c.PromoLedgerService = service.NewPromoLedgerService(c.PromoCodeRepo, c.UserAccountRepo, c.AuditTrailService)
	c.UserAccountService = service.NewUserAccountService(c.UserAccountRepo, c.AuditTrailService)
	c.CashbackService = service.NewCashbackService(
		c.AffiliateClient,
		c.PartnerOverrideRepo,
		c.PromoCodeRepo,
		c.UserAccountRepo,
		c.Config.Commission,
	)
}

// Close 释放外部连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	return cache.Close()
}
