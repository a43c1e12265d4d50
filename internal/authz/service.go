package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	adminSubjectFmt = "admin:%d"
	rolePrefix      = "role:"
)

const adminRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	// ErrUnavailable 授权服务未初始化
	ErrUnavailable = errors.New("authz service unavailable")
	// ErrInvalidRole 角色名称非法
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidPolicy 策略非法
	ErrInvalidPolicy = errors.New("invalid policy")
)

// Policy 角色对某个管理端路由的授权
type Policy struct {
	Role   string `json:"role"`
	Object string `json:"object"`
	Action string `json:"action"`
}

// Service 管理端 RBAC 授权服务
// 角色绑定与策略均持久化在 casbin_rule 表中。
type Service struct {
	enforcer *casbin.SyncedEnforcer
	supers   map[uint]struct{}
}

// NewService 创建授权服务
func NewService(db *gorm.DB, superAdminIDs []uint) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(adminRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	supers := make(map[uint]struct{}, len(superAdminIDs))
	for _, id := range superAdminIDs {
		if id > 0 {
			supers[id] = struct{}{}
		}
	}
	return &Service{enforcer: enforcer, supers: supers}, nil
}

// IsSuperAdmin 判断管理员是否为超级管理员
func (s *Service) IsSuperAdmin(adminID uint) bool {
	if s == nil {
		return false
	}
	_, ok := s.supers[adminID]
	return ok
}

// Authorize 判断管理员能否以 method 访问 path
func (s *Service) Authorize(adminID uint, path, method string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, ErrUnavailable
	}
	if adminID == 0 {
		return false, nil
	}
	if s.IsSuperAdmin(adminID) {
		return true, nil
	}
	return s.enforcer.Enforce(SubjectForAdmin(adminID), NormalizeObject(path), NormalizeAction(method))
}

// ListRoles 列出所有已定义策略的角色
func (s *Service) ListRoles() ([]string, error) {
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}
	subjects, err := s.enforcer.GetAllSubjects()
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	roles := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if strings.HasPrefix(subject, rolePrefix) {
			roles = append(roles, strings.TrimPrefix(subject, rolePrefix))
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// RolePolicies 查询角色策略
func (s *Service) RolePolicies(role string) ([]Policy, error) {
	subject, err := roleSubject(role)
	if err != nil {
		return nil, err
	}
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	return convertPolicies(rules), nil
}

// GrantRolePolicy 为角色授予策略，角色不存在时隐式创建
func (s *Service) GrantRolePolicy(role, object, action string) error {
	subject, obj, act, err := normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	if _, err := s.enforcer.AddPolicy(subject, obj, act); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色策略
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	subject, obj, act, err := normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	if _, err := s.enforcer.RemovePolicy(subject, obj, act); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// SetAdminRoles 覆盖设置管理员角色
func (s *Service) SetAdminRoles(adminID uint, roles []string) error {
	if adminID == 0 {
		return fmt.Errorf("admin id is required")
	}
	subjects := make([]string, 0, len(roles))
	for _, role := range roles {
		subject, err := roleSubject(role)
		if err != nil {
			return err
		}
		subjects = append(subjects, subject)
	}
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}

	admin := SubjectForAdmin(adminID)
	if _, err := s.enforcer.RemoveFilteredGroupingPolicy(0, admin); err != nil {
		return fmt.Errorf("clear admin roles failed: %w", err)
	}
	for _, subject := range subjects {
		if _, err := s.enforcer.AddGroupingPolicy(admin, subject); err != nil {
			return fmt.Errorf("assign admin role failed: %w", err)
		}
	}
	return nil
}

// AdminRoles 查询管理员角色
func (s *Service) AdminRoles(adminID uint) ([]string, error) {
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}
	subjects, err := s.enforcer.GetRolesForUser(SubjectForAdmin(adminID))
	if err != nil {
		return nil, fmt.Errorf("get admin roles failed: %w", err)
	}
	roles := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		roles = append(roles, strings.TrimPrefix(subject, rolePrefix))
	}
	sort.Strings(roles)
	return roles, nil
}

func convertPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Role:   strings.TrimPrefix(rule[0], rolePrefix),
			Object: rule[1],
			Action: rule[2],
		})
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Object == policies[j].Object {
			return policies[i].Action < policies[j].Action
		}
		return policies[i].Object < policies[j].Object
	})
	return policies
}

func normalizePolicy(role, object, action string) (string, string, string, error) {
	subject, err := roleSubject(role)
	if err != nil {
		return "", "", "", err
	}
	act := NormalizeAction(action)
	if act == "" || strings.TrimSpace(object) == "" {
		return "", "", "", ErrInvalidPolicy
	}
	return subject, NormalizeObject(object), act, nil
}

func roleSubject(role string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(role))
	normalized = strings.TrimPrefix(normalized, rolePrefix)
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if normalized == "" || strings.Contains(normalized, ":") {
		return "", ErrInvalidRole
	}
	return rolePrefix + normalized, nil
}

// SubjectForAdmin 生成管理员主体标识
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf(adminSubjectFmt, adminID)
}

// NormalizeObject 统一授权资源路径（去掉 /api/v1 前缀）
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
