package authz

import (
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
	apiV1Prefix       = "/api/v1"
	casbinTableName   = "casbin_rule"
	accountSubjectFmt = "account:%d"
	rolePrefix        = "role:"
	roleAnchor        = "role:__anchor__"
)

const defaultRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service Casbin 授权服务
// 角色即策略主体：账号通过 g 规则挂到 role:* 主体上
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}

	m, err := model.NewModelFromString(defaultRBACModel)
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

	return &Service{enforcer: enforcer}, nil
}

// Enforcer 返回底层 enforcer
func (s *Service) Enforcer() *casbin.SyncedEnforcer {
	if s == nil {
		return nil
	}
	return s.enforcer
}

// Enforce 执行授权判断
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), NormalizeObject(obj), NormalizeAction(act))
}

// EnforceRole 按账号角色判定授权
func (s *Service) EnforceRole(role, obj, act string) (bool, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return false, err
	}
	return s.Enforce(normalized, obj, act)
}

// EnforceAccount 按账号主体判定授权（含直连策略）
func (s *Service) EnforceAccount(accountID uint, obj, act string) (bool, error) {
	return s.Enforce(SubjectForAccount(accountID), obj, act)
}

// ReloadPolicy 重新加载策略
func (s *Service) ReloadPolicy() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.LoadPolicy()
}

// EnsureRole 确保角色存在
func (s *Service) EnsureRole(role string) (string, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if s == nil || s.enforcer == nil {
		return "", fmt.Errorf("authz service unavailable")
	}
	if normalized == roleAnchor {
		return "", fmt.Errorf("reserved role is not allowed")
	}

	exists, err := s.enforcer.HasNamedGroupingPolicy("g", normalized, roleAnchor)
	if err != nil {
		return "", fmt.Errorf("check role failed: %w", err)
	}
	if exists {
		return normalized, nil
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", normalized, roleAnchor); err != nil {
		return "", fmt.Errorf("create role failed: %w", err)
	}
	return normalized, nil
}

// ListRoles 列出角色
func (s *Service) ListRoles() ([]string, error) {
	if s == nil || s.enforcer == nil {
		return nil, fmt.Errorf("authz service unavailable")
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	roleSet := make(map[string]struct{})
	for _, rule := range rules {
		for _, field := range rule {
			if strings.HasPrefix(field, rolePrefix) && field != roleAnchor {
				roleSet[field] = struct{}{}
			}
		}
	}
	roles := make([]string, 0, len(roleSet))
	for role := range roleSet {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles, nil
}

// GrantRolePolicy 为角色授予策略
func (s *Service) GrantRolePolicy(role, object, action string) error {
	normalizedRole, err := s.EnsureRole(role)
	if err != nil {
		return err
	}
	normalizedAction := NormalizeAction(action)
	if normalizedAction == "" {
		return fmt.Errorf("action is required")
	}
	if _, err := s.enforcer.AddPolicy(normalizedRole, NormalizeObject(object), normalizedAction); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色策略
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	normalizedRole, err := NormalizeRole(role)
	if err != nil {
		return err
	}
	normalizedAction := NormalizeAction(action)
	if normalizedAction == "" {
		return fmt.Errorf("action is required")
	}
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	if _, err := s.enforcer.RemovePolicy(normalizedRole, NormalizeObject(object), normalizedAction); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// GetRolePolicies 查询角色策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	normalizedRole, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if s == nil || s.enforcer == nil {
		return nil, fmt.Errorf("authz service unavailable")
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, normalizedRole)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	return convertPolicies(rules), nil
}

// SetAccountRoles 覆盖设置账号角色
func (s *Service) SetAccountRoles(accountID uint, roles []string) error {
	if accountID == 0 {
		return fmt.Errorf("account id is required")
	}
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	subject := SubjectForAccount(accountID)

	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear account roles failed: %w", err)
	}
	for _, role := range roles {
		normalizedRole, err := s.EnsureRole(role)
		if err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, normalizedRole); err != nil {
			return fmt.Errorf("assign account role failed: %w", err)
		}
	}
	return nil
}

// GetAccountRoles 查询账号角色
func (s *Service) GetAccountRoles(accountID uint) ([]string, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("account id is required")
	}
	if s == nil || s.enforcer == nil {
		return nil, fmt.Errorf("authz service unavailable")
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForAccount(accountID))
	if err != nil {
		return nil, fmt.Errorf("get account roles failed: %w", err)
	}
	filtered := make([]string, 0, len(roles))
	for _, role := range roles {
		if !strings.HasPrefix(role, rolePrefix) || role == roleAnchor {
			continue
		}
		filtered = append(filtered, role)
	}
	sort.Strings(filtered)
	return filtered, nil
}

func convertPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	return policies
}

// SubjectForAccount 生成账号主体标识
func SubjectForAccount(accountID uint) string {
	return fmt.Sprintf(accountSubjectFmt, accountID)
}

// NormalizeRole 统一角色名称
func NormalizeRole(role string) (string, error) {
	normalized := strings.TrimSpace(role)
	if normalized == "" {
		return "", fmt.Errorf("role is required")
	}
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if !strings.HasPrefix(normalized, rolePrefix) {
		normalized = rolePrefix + normalized
	}
	if len(normalized) <= len(rolePrefix) {
		return "", fmt.Errorf("role is required")
	}
	return normalized, nil
}

// NormalizeObject 统一授权资源路径
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
