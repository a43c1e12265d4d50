package worker

import (
	"context"
	"encoding/json"

	"github.com/cashback-next/internal/logger"
	"github.com/cashback-next/internal/provider"
	"github.com/cashback-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPromoSweepExpired, c.handlePromoSweep)
	mux.HandleFunc(queue.TaskPartnerRefresh, c.handlePartnerRefresh)
}

func (c *Consumer) handlePromoSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || c.PromoLedgerService == nil || task == nil {
		logger.Debugw("worker_promo_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PromoSweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// 载荷损坏时重试无意义
			logger.Warnw("worker_promo_sweep_unmarshal_failed", "error", err)
			return nil
		}
	}
	deleted, err := c.PromoLedgerService.SweepExpired()
	if err != nil {
		logger.Warnw("worker_promo_sweep_failed", "source", payload.Source, "error", err)
		return err
	}
	logger.Infow("worker_promo_sweep_done", "source", payload.Source, "deleted", len(deleted))
	return nil
}

func (c *Consumer) handlePartnerRefresh(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || c.CashbackService == nil || task == nil {
		logger.Debugw("worker_partner_refresh_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PartnerRefreshPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warnw("worker_partner_refresh_unmarshal_failed", "error", err)
			return nil
		}
	}
	count, err := c.CashbackService.RefreshPartners(ctx)
	if err != nil {
		logger.Warnw("worker_partner_refresh_failed", "reason", payload.Reason, "error", err)
		return err
	}
	logger.Debugw("worker_partner_refresh_done", "reason", payload.Reason, "count", count)
	return nil
}
