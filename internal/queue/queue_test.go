package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cashback-next/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueuePromoSweep(PromoSweepPayload{Source: "admin"}); err != nil {
		t.Fatalf("enqueue on disabled client should be noop: %v", err)
	}
	if err := client.EnqueuePartnerRefresh(PartnerRefreshPayload{}, time.Second); err != nil {
		t.Fatalf("enqueue on disabled client should be noop: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestNewPromoSweepTask(t *testing.T) {
	task, err := NewPromoSweepTask(PromoSweepPayload{Source: "schedule"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskPromoSweepExpired {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload PromoSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.Source != "schedule" {
		t.Fatalf("unexpected payload: %+v %v", payload, err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380})
	if opt.Addr != "redis:6380" {
		t.Fatalf("unexpected addr: %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
