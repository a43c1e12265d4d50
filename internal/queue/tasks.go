package queue

import (
	"encoding/json"

	"github.com/cashback-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPromoSweepExpired 促销码过期清理任务
	TaskPromoSweepExpired = constants.TaskPromoSweepExpired
	// TaskPartnerRefresh 合作方缓存刷新任务
	TaskPartnerRefresh = constants.TaskPartnerRefresh
)

// PromoSweepPayload 过期清理任务载荷
type PromoSweepPayload struct {
	Source string `json:"source"` // schedule / admin
}

// PartnerRefreshPayload 合作方刷新任务载荷
type PartnerRefreshPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewPromoSweepTask 创建过期清理任务
func NewPromoSweepTask(payload PromoSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPromoSweepExpired, body), nil
}

// NewPartnerRefreshTask 创建合作方刷新任务
func NewPartnerRefreshTask(payload PartnerRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPartnerRefresh, body), nil
}
