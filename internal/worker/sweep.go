package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cashback-next/internal/cache"
	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/logger"
	"github.com/cashback-next/internal/models"
)

const (
	defaultSweepInterval = 10 * time.Minute
	sweepLockKey         = "promo:sweep"
)

// PromoSweeper 过期促销码清理
type PromoSweeper interface {
	SweepExpired() ([]models.PromoCode, error)
}

// SweepScheduler 周期清理过期促销码，不依赖异步队列
type SweepScheduler struct {
	name     string
	sweeper  PromoSweeper
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSweepScheduler 创建周期清理服务
func NewSweepScheduler(promoCfg *config.PromoConfig, sweeper PromoSweeper) (*SweepScheduler, error) {
	if sweeper == nil {
		return nil, errors.New("promo sweeper is nil")
	}
	return &SweepScheduler{
		name:     "promo-sweep",
		sweeper:  sweeper,
		interval: resolveSweepInterval(promoCfg),
	}, nil
}

func resolveSweepInterval(cfg *config.PromoConfig) time.Duration {
	if cfg == nil || cfg.SweepIntervalSeconds <= 0 {
		return defaultSweepInterval
	}
	return time.Duration(cfg.SweepIntervalSeconds) * time.Second
}

// Name 服务名称
func (s *SweepScheduler) Name() string {
	if s == nil || s.name == "" {
		return "promo-sweep"
	}
	return s.name
}

// Start 立即清理一次，之后按间隔执行，直到 ctx 结束或 Stop
func (s *SweepScheduler) Start(ctx context.Context) error {
	if s == nil || s.sweeper == nil {
		return errors.New("promo sweep not initialized")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	s.runOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop 停止服务
func (s *SweepScheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *SweepScheduler) runOnce(ctx context.Context) {
	// 多实例部署时仅一个实例执行
	locked, err := cache.TryLock(ctx, sweepLockKey, s.interval/2)
	if err != nil {
		logger.Warnw("worker_promo_sweep_lock_failed", "error", err)
		return
	}
	if !locked {
		return
	}
	deleted, err := s.sweeper.SweepExpired()
	if err != nil {
		logger.Warnw("worker_promo_sweep_failed", "source", "schedule", "error", err)
		return
	}
	if len(deleted) > 0 {
		logger.Infow("worker_promo_sweep_done", "source", "schedule", "deleted", len(deleted))
	}
}
