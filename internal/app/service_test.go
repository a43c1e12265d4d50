package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/provider"
	"github.com/cashback-next/internal/service"
)

type stubService struct {
	name     string
	startErr error
	block    bool
	stopped  atomic.Bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *stubService) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	failing := &stubService{name: "failing", startErr: errors.New("boom")}
	blocking := &stubService{name: "blocking", block: true}
	var cleaned []string

	runner := NewRunner(failing, blocking).
		OnShutdown(func() error { cleaned = append(cleaned, "first"); return nil }).
		OnShutdown(func() error { cleaned = append(cleaned, "second"); return nil })

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected start error, got %v", err)
	}
	if !failing.stopped.Load() || !blocking.stopped.Load() {
		t.Fatalf("all services should be stopped")
	}
	if len(cleaned) != 2 || cleaned[0] != "second" || cleaned[1] != "first" {
		t.Fatalf("cleanups should run in reverse order, got %v", cleaned)
	}
}

func TestRunnerCanceledContextIsNotAnError(t *testing.T) {
	blocking := &stubService{name: "blocking", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(blocking).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("canceled run should return nil, got %v", err)
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if ValidMode("cron") {
		t.Fatalf("cron should not be a valid mode")
	}
}

func TestBackgroundServicesWithoutQueue(t *testing.T) {
	cfg := &config.Config{}
	container := &provider.Container{
		Config:             cfg,
		PromoLedgerService: service.NewPromoLedgerService(nil, nil, nil),
	}

	services, err := buildBackgroundServices(cfg, ModeAll, container)
	if err != nil {
		t.Fatalf("build background services failed: %v", err)
	}
	if len(services) != 1 || services[0].Name() != "promo-sweep" {
		t.Fatalf("all mode without queue should run the sweep scheduler, got %d services", len(services))
	}

	services, err = buildBackgroundServices(cfg, ModeAPI, container)
	if err != nil || len(services) != 0 {
		t.Fatalf("api mode should not run background services, got %d %v", len(services), err)
	}

	if _, err := buildBackgroundServices(cfg, ModeWorker, container); err == nil {
		t.Fatalf("worker mode requires the queue")
	}
}
