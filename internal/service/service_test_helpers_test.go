package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cashback-next/internal/affiliate"
	"github.com/cashback-next/internal/models"
	"github.com/cashback-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db        *gorm.DB
	now       time.Time
	promoRepo *repository.GormPromoCodeRepository
	userRepo  *repository.GormUserAccountRepository
	auditRepo *repository.GormAuditEntryRepository
	audit     *AuditTrailService
	ledger    *PromoLedgerService
	users     *UserAccountService
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.PromoCode{},
		&models.UserAccount{},
		&models.AuditEntry{},
		&models.PartnerOverride{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	db := openServiceTestDB(t)
	env := &serviceTestEnv{
		db:        db,
		now:       time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		promoRepo: repository.NewPromoCodeRepository(db),
		userRepo:  repository.NewUserAccountRepository(db),
		auditRepo: repository.NewAuditEntryRepository(db),
	}
	clock := func() time.Time { return env.now }

	env.audit = NewAuditTrailService(env.auditRepo, 0)
	env.audit.now = clock
	env.ledger = NewPromoLedgerService(env.promoRepo, env.userRepo, env.audit)
	env.ledger.now = clock
	env.users = NewUserAccountService(env.userRepo, env.audit)
	env.users.now = clock
	return env
}

func createServiceTestPromo(t *testing.T, env *serviceTestEnv, code string, boost int64, maxUses, usesCount int, expiresAt time.Time) *models.PromoCode {
	t.Helper()
	promo := &models.PromoCode{
		Code:            code,
		PercentageBoost: models.NewPercent(decimal.NewFromInt(boost)),
		ExpirationDate:  expiresAt,
		MaxUses:         maxUses,
		UsesCount:       usesCount,
	}
	if err := env.db.Create(promo).Error; err != nil {
		t.Fatalf("create promo failed: %v", err)
	}
	return promo
}

func createServiceTestUser(t *testing.T, env *serviceTestEnv, email string, activeCode *string) *models.UserAccount {
	t.Helper()
	user := &models.UserAccount{Email: email, ActiveCode: activeCode}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func reloadServiceTestPromo(t *testing.T, env *serviceTestEnv, id uint) *models.PromoCode {
	t.Helper()
	var promo models.PromoCode
	if err := env.db.First(&promo, id).Error; err != nil {
		t.Fatalf("reload promo failed: %v", err)
	}
	return &promo
}

func reloadServiceTestUser(t *testing.T, env *serviceTestEnv, id uint) *models.UserAccount {
	t.Helper()
	var user models.UserAccount
	if err := env.db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	return &user
}

type fakePartnerSource struct {
	partners map[string]affiliate.Partner
	calls    int
	err      error
}

func (f *fakePartnerSource) ListPartners(ctx context.Context) ([]affiliate.Partner, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := make([]affiliate.Partner, 0, len(f.partners))
	for _, p := range f.partners {
		result = append(result, p)
	}
	return result, nil
}

func (f *fakePartnerSource) GetPartner(ctx context.Context, partnerID string) (*affiliate.Partner, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.partners[partnerID]
	if !ok {
		return nil, affiliate.ErrNotFound
	}
	return &p, nil
}

func (f *fakePartnerSource) CommissionStats(ctx context.Context, partnerID string, from, to time.Time) ([]affiliate.CommissionStat, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []affiliate.CommissionStat{{PartnerID: partnerID, Orders: 1}}, nil
}

func (f *fakePartnerSource) DeepLink(ctx context.Context, partnerID, subID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if _, ok := f.partners[partnerID]; !ok {
		return "", affiliate.ErrNotFound
	}
	return "https://go.example.com/" + partnerID + "?sub=" + subID, nil
}
