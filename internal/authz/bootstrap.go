package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Policies []Policy
}

// BuiltinRoleSeeds 预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role: "promo_manager",
			Policies: []Policy{
				{Object: "/admin/promo-codes", Action: "*"},
				{Object: "/admin/promo-codes/*", Action: "*"},
				{Object: "/admin/users", Action: "GET"},
				{Object: "/admin/users/*", Action: "GET"},
			},
		},
		{
			Role: "account_manager",
			Policies: []Policy{
				{Object: "/admin/users", Action: "*"},
				{Object: "/admin/users/*", Action: "*"},
				{Object: "/admin/audit-entries", Action: "GET"},
			},
		},
		{
			Role: "commission_manager",
			Policies: []Policy{
				{Object: "/admin/partners/*", Action: "*"},
				{Object: "/admin/partner-overrides", Action: "*"},
				{Object: "/admin/partner-overrides/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色策略（已存在的策略跳过）
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	for _, seed := range BuiltinRoleSeeds() {
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(seed.Role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("seed role %s failed: %w", seed.Role, err)
			}
		}
	}
	return nil
}
