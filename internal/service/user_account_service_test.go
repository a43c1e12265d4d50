package service

import (
	"errors"
	"testing"

	"github.com/cashback-next/internal/constants"

	"github.com/shopspring/decimal"
)

func TestClearActiveCodeAudited(t *testing.T) {
	env := setupServiceTest(t)
	code := "SAVE10"
	user := createServiceTestUser(t, env, "holder@example.com", &code)

	cleared, err := env.users.ClearActiveCode(user.ID)
	if err != nil {
		t.Fatalf("clear active code failed: %v", err)
	}
	if cleared.ActiveCode != nil {
		t.Fatalf("active code should be nil")
	}
	if got := reloadServiceTestUser(t, env, user.ID); got.ActiveCode != nil {
		t.Fatalf("active code should be cleared in storage")
	}

	entries, _ := env.audit.EntriesFor("holder@example.com")
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	change := entries[0].ChangeSet[constants.AuditFieldActiveCode]
	if change.From != "SAVE10" || change.To != nil {
		t.Fatalf("unexpected change: %+v", change)
	}

	// 再次清除无变更，不写审计
	if _, err := env.users.ClearActiveCode(user.ID); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
	entries, _ = env.audit.EntriesFor("holder@example.com")
	if len(entries) != 1 {
		t.Fatalf("noop clear should not be audited")
	}
}

func TestAdjustBalance(t *testing.T) {
	env := setupServiceTest(t)
	user := createServiceTestUser(t, env, "wallet@example.com", nil)

	after, err := env.users.AdjustBalance(user.ID, AdjustBalanceInput{
		BalanceDelta: decimal.RequireFromString("12.50"),
		PendingDelta: decimal.RequireFromString("3"),
	})
	if err != nil {
		t.Fatalf("adjust balance failed: %v", err)
	}
	if after.Balance.String() != "12.50" || after.PendingCredits.String() != "3.00" {
		t.Fatalf("unexpected balances: %s %s", after.Balance.String(), after.PendingCredits.String())
	}

	if _, err := env.users.AdjustBalance(user.ID, AdjustBalanceInput{BalanceDelta: decimal.NewFromInt(-20)}); !errors.Is(err, ErrBalanceInsufficient) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if _, err := env.users.AdjustBalance(user.ID, AdjustBalanceInput{}); !errors.Is(err, ErrUserInvalid) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := env.users.AdjustBalance(9999, AdjustBalanceInput{BalanceDelta: decimal.NewFromInt(1)}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}

	entries, _ := env.audit.EntriesFor("wallet@example.com")
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
}

func TestEnsureCreatesOnce(t *testing.T) {
	env := setupServiceTest(t)
	first, err := env.users.Ensure(" New@Example.com ")
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	second, err := env.users.Ensure("new@example.com")
	if err != nil {
		t.Fatalf("ensure again failed: %v", err)
	}
	if first.ID != second.ID || first.Email != "new@example.com" {
		t.Fatalf("ensure should be idempotent: %+v %+v", first, second)
	}
	if _, err := env.users.Ensure("not-an-email"); !errors.Is(err, ErrUserInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if _, err := env.users.GetByEmail("NEW@example.com"); err != nil {
		t.Fatalf("lookup by email should be case-insensitive: %v", err)
	}
}
