package app

import (
	"errors"
	"fmt"

	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/provider"
	"github.com/cashback-next/internal/router"
	"github.com/cashback-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("unsupported mode %q", mode)
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	background, err := buildBackgroundServices(cfg, mode, container)
	if err != nil {
		_ = container.Close()
		return nil, err
	}
	services = append(services, background...)

	if len(services) == 0 {
		_ = container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...).OnShutdown(container.Close), nil
}

// buildBackgroundServices 构建后台服务
// all 模式下队列未启用时仍在进程内周期清理过期促销码。
func buildBackgroundServices(cfg *config.Config, mode string, container *provider.Container) ([]Service, error) {
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, &cfg.Promo, consumer)
		if err != nil {
			return nil, err
		}
		return []Service{workerService}, nil
	}
	if mode == ModeAll {
		if container == nil || container.PromoLedgerService == nil {
			return nil, errors.New("promo ledger service not initialized")
		}
		sweep, err := worker.NewSweepScheduler(&cfg.Promo, container.PromoLedgerService)
		if err != nil {
			return nil, err
		}
		return []Service{sweep}, nil
	}
	return nil, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
