package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T, supers ...uint) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db, supers)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestAuthorizeWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("ops", "/admin/promo-codes/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{"ops"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	allow, err := svc.Authorize(2, "/api/v1/admin/promo-codes/42", "get")
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.Authorize(2, "/api/v1/admin/promo-codes/42", "DELETE")
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false for DELETE")
	}

	allow, _ = svc.Authorize(3, "/api/v1/admin/promo-codes/42", "GET")
	if allow {
		t.Fatalf("admin without roles must be denied")
	}
}

func TestSuperAdminBypassesPolicies(t *testing.T) {
	svc := setupAuthzServiceTest(t, 1)
	allow, err := svc.Authorize(1, "/api/v1/admin/partner-overrides/35", "DELETE")
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if !allow {
		t.Fatalf("super admin should be allowed")
	}
	if svc.IsSuperAdmin(2) {
		t.Fatalf("admin 2 is not configured as super")
	}
}

func TestSetAdminRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(5, []string{"auditor", "promo_manager"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}
	if err := svc.SetAdminRoles(5, []string{"commission_manager"}); err != nil {
		t.Fatalf("override admin roles failed: %v", err)
	}
	roles, err := svc.AdminRoles(5)
	if err != nil {
		t.Fatalf("admin roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "commission_manager" {
		t.Fatalf("roles want [commission_manager] got %v", roles)
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap should be idempotent: %v", err)
	}
	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if strings.Join(roles, ",") != "account_manager,auditor,commission_manager,promo_manager" {
		t.Fatalf("unexpected builtin roles: %v", roles)
	}

	if err := svc.SetAdminRoles(9, []string{"auditor"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}
	cases := []struct {
		path   string
		method string
		want   bool
	}{
		{path: "/api/v1/admin/audit-entries", method: "GET", want: true},
		{path: "/api/v1/admin/users/3/audit", method: "GET", want: true},
		{path: "/api/v1/admin/promo-codes", method: "POST", want: false},
		{path: "/api/v1/admin/audit-entries/4", method: "DELETE", want: false},
	}
	for _, tc := range cases {
		got, err := svc.Authorize(9, tc.path, tc.method)
		if err != nil {
			t.Fatalf("authorize %s %s failed: %v", tc.method, tc.path, err)
		}
		if got != tc.want {
			t.Fatalf("authorize %s %s want %v got %v", tc.method, tc.path, tc.want, got)
		}
	}
}

func TestRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("ops", "/admin/users", "GET"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := svc.RevokeRolePolicy("ops", "/admin/users", "GET"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	policies, err := svc.RolePolicies("ops")
	if err != nil {
		t.Fatalf("role policies failed: %v", err)
	}
	if len(policies) != 0 {
		t.Fatalf("policies should be empty after revoke, got %+v", policies)
	}
}

func TestInvalidRoleAndPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy(" ", "/admin/users", "GET"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("blank role want ErrInvalidRole got %v", err)
	}
	if err := svc.GrantRolePolicy("ops", "/admin/users", " "); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("blank action want ErrInvalidPolicy got %v", err)
	}
	if err := svc.SetAdminRoles(4, []string{"admin:1"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("subject-like role want ErrInvalidRole got %v", err)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/api/v1":                   "/",
		"/api/v1/admin/users":       "/admin/users",
		"admin/promo-codes":         "/admin/promo-codes",
		"/admin/partner-overrides/": "/admin/partner-overrides/",
	}
	for input, want := range cases {
		if got := NormalizeObject(input); got != want {
			t.Fatalf("NormalizeObject(%q) want %q got %q", input, want, got)
		}
	}
}
