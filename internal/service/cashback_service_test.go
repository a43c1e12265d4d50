package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cashback-next/internal/affiliate"
	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/models"
	"github.com/cashback-next/internal/repository"

	"github.com/shopspring/decimal"
)

func setupCashbackServiceTest(t *testing.T) (*CashbackService, *serviceTestEnv, *fakePartnerSource) {
	t.Helper()
	env := setupServiceTest(t)
	if err := env.db.Create(&models.PartnerOverride{
		PartnerID:         "35",
		FixedUserCashback: models.NewPercentFromFloat(10),
	}).Error; err != nil {
		t.Fatalf("seed override failed: %v", err)
	}
	source := &fakePartnerSource{partners: map[string]affiliate.Partner{
		"7":  {ID: "7", Name: "Books", Commission: "4%-8%"},
		"35": {ID: "35", Name: "Shop", Commission: "20%"},
		"99": {ID: "99", Name: "Broken", Commission: "garbage"},
	}}
	svc := NewCashbackService(
		source,
		repository.NewPartnerOverrideRepository(env.db),
		env.promoRepo,
		env.userRepo,
		config.CommissionConfig{UserSharePercent: 50, Overrides: map[string]float64{"35": 10}},
	)
	svc.now = func() time.Time { return env.now }
	return svc, env, source
}

func TestQuotePartnerDefaultSplit(t *testing.T) {
	svc, _, _ := setupCashbackServiceTest(t)
	quote, err := svc.QuotePartner(context.Background(), "7")
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !quote.Average.Equal(decimal.NewFromInt(6)) || !quote.UserCashback.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected quote: avg=%s user=%s", quote.Average, quote.UserCashback)
	}
	if !quote.PlatformEarnings.Valid || !quote.PlatformEarnings.Decimal.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected platform earnings: %+v", quote.PlatformEarnings)
	}

	broken, err := svc.QuotePartner(context.Background(), "99")
	if err != nil {
		t.Fatalf("quote broken partner failed: %v", err)
	}
	if !broken.Average.IsZero() || !broken.UserCashback.IsZero() {
		t.Fatalf("malformed commission should degrade to zero")
	}
}

func TestQuotePartnerOverride(t *testing.T) {
	svc, _, _ := setupCashbackServiceTest(t)
	quote, err := svc.QuotePartner(context.Background(), "35")
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !quote.Overridden || !quote.UserCashback.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("override not applied: %+v", quote.Quote)
	}
	if quote.PlatformEarnings.Valid {
		t.Fatalf("override quote should leave platform earnings unset")
	}

	if err := svc.DeleteOverride("35"); err != nil {
		t.Fatalf("delete override failed: %v", err)
	}
	quote, _ = svc.QuotePartner(context.Background(), "35")
	if quote.Overridden || !quote.UserCashback.Equal(decimal.NewFromInt(10)) {
		// 20% 默认五五分也是 10，但不再标记为例外
		t.Fatalf("unexpected quote after delete: %+v", quote.Quote)
	}
	if err := svc.DeleteOverride("35"); !errors.Is(err, ErrOverrideNotFound) {
		t.Fatalf("expected override not found, got %v", err)
	}

	if _, err := svc.UpsertOverride(UpsertOverrideInput{PartnerID: "7", FixedUserCashback: decimal.NewFromInt(5)}); err != nil {
		t.Fatalf("upsert override failed: %v", err)
	}
	quote, _ = svc.QuotePartner(context.Background(), "7")
	if !quote.Overridden || !quote.UserCashback.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("new override not applied: %+v", quote.Quote)
	}
	if _, err := svc.UpsertOverride(UpsertOverrideInput{PartnerID: "7", FixedUserCashback: decimal.NewFromInt(101)}); !errors.Is(err, ErrOverrideInvalid) {
		t.Fatalf("expected invalid override, got %v", err)
	}
}

func TestQuoteForUserAddsBoostWhileCodeLive(t *testing.T) {
	svc, env, _ := setupCashbackServiceTest(t)
	promo := createServiceTestPromo(t, env, "BOOST5", 5, 10, 0, env.now.Add(time.Hour))
	user := createServiceTestUser(t, env, "boost@example.com", nil)
	if _, err := env.ledger.Apply("BOOST5", user.ID); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	quote, err := svc.QuoteForUser(context.Background(), "7", user.ID)
	if err != nil {
		t.Fatalf("quote for user failed: %v", err)
	}
	if quote.ActiveCode != "BOOST5" || !quote.EffectiveCashback.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("boost not applied: %+v", quote)
	}
	if !quote.UserCashback.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("base split should be unchanged")
	}

	if err := env.ledger.Delete(promo.ID); err != nil {
		t.Fatalf("delete promo failed: %v", err)
	}
	quote, err = svc.QuoteForUser(context.Background(), "7", user.ID)
	if err != nil {
		t.Fatalf("quote after delete failed: %v", err)
	}
	if quote.ActiveCode != "" || !quote.EffectiveCashback.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("boost should lapse after code deletion: %+v", quote)
	}
}

func TestCashbackServiceErrors(t *testing.T) {
	svc, _, source := setupCashbackServiceTest(t)
	if _, err := svc.QuotePartner(context.Background(), "404"); !errors.Is(err, ErrPartnerNotFound) {
		t.Fatalf("expected partner not found, got %v", err)
	}
	if _, err := svc.QuoteForUser(context.Background(), "7", 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}

	source.err = affiliate.ErrRequestFailed
	if _, err := svc.RefreshPartners(context.Background()); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if _, err := svc.PartnerLink(context.Background(), "7", "u1"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestListQuotesAndLinks(t *testing.T) {
	svc, _, _ := setupCashbackServiceTest(t)
	quotes, err := svc.ListQuotes(context.Background())
	if err != nil {
		t.Fatalf("list quotes failed: %v", err)
	}
	if len(quotes) != 3 || quotes[0].Partner.ID != "35" {
		t.Fatalf("unexpected quotes: %+v", quotes)
	}
	count, err := svc.RefreshPartners(context.Background())
	if err != nil || count != 3 {
		t.Fatalf("refresh failed: %d %v", count, err)
	}
	link, err := svc.PartnerLink(context.Background(), "7", "u1")
	if err != nil || link != "https://go.example.com/7?sub=u1" {
		t.Fatalf("unexpected link: %s %v", link, err)
	}
	stats, err := svc.CommissionStats(context.Background(), "7", time.Time{}, time.Time{})
	if err != nil || len(stats) != 1 {
		t.Fatalf("unexpected stats: %+v %v", stats, err)
	}
}
