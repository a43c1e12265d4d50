package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/models"
	"github.com/cashback-next/internal/provider"
	"github.com/cashback-next/internal/queue"
	"github.com/cashback-next/internal/repository"
	"github.com/cashback-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PromoCode{}, &models.UserAccount{}, &models.AuditEntry{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	promoRepo := repository.NewPromoCodeRepository(db)
	userRepo := repository.NewUserAccountRepository(db)
	audit := service.NewAuditTrailService(repository.NewAuditEntryRepository(db), 0)
	container := &provider.Container{
		Config:             &config.Config{},
		PromoLedgerService: service.NewPromoLedgerService(promoRepo, userRepo, audit),
	}
	return NewConsumer(container), db
}

func TestHandlePromoSweepDeletesExpired(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	now := time.Now()
	if err := db.Create(&models.PromoCode{Code: "OLD", ExpirationDate: now.Add(-time.Hour), MaxUses: 1}).Error; err != nil {
		t.Fatalf("create promo failed: %v", err)
	}
	if err := db.Create(&models.PromoCode{Code: "LIVE", ExpirationDate: now.Add(time.Hour), MaxUses: 1}).Error; err != nil {
		t.Fatalf("create promo failed: %v", err)
	}

	task, err := queue.NewPromoSweepTask(queue.PromoSweepPayload{Source: "admin"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handlePromoSweep(context.Background(), task); err != nil {
		t.Fatalf("handle sweep failed: %v", err)
	}

	var remaining []models.PromoCode
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("list promos failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Code != "LIVE" {
		t.Fatalf("unexpected remaining codes: %+v", remaining)
	}
}

func TestHandlersSkipBadPayload(t *testing.T) {
	consumer, _ := setupWorkerTest(t)
	bad := asynq.NewTask(queue.TaskPromoSweepExpired, []byte("{"))
	if err := consumer.handlePromoSweep(context.Background(), bad); err != nil {
		t.Fatalf("bad payload should not be retried: %v", err)
	}
	refresh := asynq.NewTask(queue.TaskPartnerRefresh, nil)
	if err := consumer.handlePartnerRefresh(context.Background(), refresh); err != nil {
		t.Fatalf("refresh without cashback service should be skipped: %v", err)
	}
}

func TestResolveSweepInterval(t *testing.T) {
	if got := resolveSweepInterval(nil); got != defaultSweepInterval {
		t.Fatalf("unexpected default interval: %v", got)
	}
	if got := resolveSweepInterval(&config.PromoConfig{SweepIntervalSeconds: 30}); got != 30*time.Second {
		t.Fatalf("unexpected interval: %v", got)
	}
}

type countingSweeper struct {
	calls chan struct{}
}

func (c *countingSweeper) SweepExpired() ([]models.PromoCode, error) {
	c.calls <- struct{}{}
	return nil, nil
}

func TestSweepSchedulerRunsImmediatelyAndStops(t *testing.T) {
	sweeper := &countingSweeper{calls: make(chan struct{}, 4)}
	sched, err := NewSweepScheduler(&config.PromoConfig{SweepIntervalSeconds: 3600}, sweeper)
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	select {
	case <-sweeper.calls:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler should sweep on start")
	}
	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start should return nil after stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop")
	}

	if _, err := NewSweepScheduler(nil, nil); err == nil {
		t.Fatalf("expected error for nil sweeper")
	}
}
