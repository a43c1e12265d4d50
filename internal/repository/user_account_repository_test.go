package repository

import (
	"testing"
	"time"

	"github.com/cashback-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestSetActiveCodeIfEmpty(t *testing.T) {
	repo := NewUserAccountRepository(openRepositoryTestDB(t))
	user := &models.UserAccount{Email: "holder@example.com"}
	if err := repo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	now := time.Now()

	ok, err := repo.SetActiveCodeIfEmpty(user.ID, "SAVE10", now)
	if err != nil || !ok {
		t.Fatalf("first set should succeed, ok=%v err=%v", ok, err)
	}
	ok, err = repo.SetActiveCodeIfEmpty(user.ID, "OTHER", now)
	if err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	if ok {
		t.Fatalf("second set must not overwrite an active code")
	}

	stored, err := repo.GetByID(user.ID)
	if err != nil || stored == nil || stored.ActiveCode == nil || *stored.ActiveCode != "SAVE10" {
		t.Fatalf("unexpected stored user: %+v err=%v", stored, err)
	}

	if err := repo.ClearActiveCode(user.ID, now); err != nil {
		t.Fatalf("clear active code failed: %v", err)
	}
	stored, _ = repo.GetByID(user.ID)
	if stored.ActiveCode != nil {
		t.Fatalf("active code should be cleared, got %v", *stored.ActiveCode)
	}
}

func TestAdjustBalancesRejectsNegative(t *testing.T) {
	repo := NewUserAccountRepository(openRepositoryTestDB(t))
	user := &models.UserAccount{
		Email:   "balance@example.com",
		Balance: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
	}
	if err := repo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	ok, err := repo.AdjustBalances(user.ID, decimal.NewFromInt(-10), decimal.Zero, time.Now())
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if ok {
		t.Fatalf("adjust should be rejected when balance would go negative")
	}

	ok, err = repo.AdjustBalances(user.ID, decimal.NewFromInt(-2), decimal.NewFromInt(3), time.Now())
	if err != nil || !ok {
		t.Fatalf("adjust should succeed, ok=%v err=%v", ok, err)
	}
	stored, _ := repo.GetByID(user.ID)
	if !stored.Balance.Decimal.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("balance want 3 got %s", stored.Balance.String())
	}
	if !stored.PendingCredits.Decimal.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("pending want 3 got %s", stored.PendingCredits.String())
	}
}
