package authz

import (
	"fmt"

	"github.com/edupass/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
// 三个闭集角色与账号表的 role 字段一一对应；
// administrator 额外获得管理端全量权限
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleStudent,
			Policies: []Policy{
				{Object: "/account/profile", Action: "GET"},
				{Object: "/account/password", Action: "PUT"},
			},
		},
		{
			Role:     constants.RoleTutor,
			Inherits: []string{constants.RoleStudent},
		},
		{
			Role:     constants.RoleAdministrator,
			Inherits: []string{constants.RoleTutor},
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
