package worker

import (
	"context"
	"errors"

	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	sweep    *SweepScheduler
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, promoCfg *config.PromoConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	svc := &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}
	if consumer.Container != nil && consumer.PromoLedgerService != nil {
		sweep, err := NewSweepScheduler(promoCfg, consumer.PromoLedgerService)
		if err != nil {
			return nil, err
		}
		svc.sweep = sweep
	}
	return svc, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.sweep != nil {
		go func() { _ = s.sweep.Start(ctx) }()
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	if s.sweep != nil {
		_ = s.sweep.Stop(ctx)
	}
	s.server.Shutdown()
	return nil
}
