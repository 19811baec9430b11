package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceAccountWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("staff", "/admin/accounts/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetAccountRoles(1, []string{"staff"}); err != nil {
		t.Fatalf("set account roles failed: %v", err)
	}

	allow, err := svc.EnforceAccount(1, "/api/v1/admin/accounts/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceAccount(1, "/api/v1/admin/accounts/42", "DELETE")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}
}

func TestSetAccountRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("tutor", "/account/profile", "GET"); err != nil {
		t.Fatalf("grant tutor policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("administrator", "/admin/accounts", "GET"); err != nil {
		t.Fatalf("grant administrator policy failed: %v", err)
	}

	if err := svc.SetAccountRoles(2, []string{"tutor"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetAccountRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:tutor" {
		t.Fatalf("roles want [role:tutor], got=%v", roles)
	}

	if err := svc.SetAccountRoles(2, []string{"administrator"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err = svc.GetAccountRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:administrator" {
		t.Fatalf("roles want [role:administrator], got=%v", roles)
	}

	allow, err := svc.EnforceAccount(2, "/account/profile", "GET")
	if err != nil {
		t.Fatalf("enforce old role failed: %v", err)
	}
	if allow {
		t.Fatalf("expected old role permission removed")
	}

	allow, err = svc.EnforceAccount(2, "/admin/accounts", "GET")
	if err != nil {
		t.Fatalf("enforce new role failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected new role permission granted")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/accounts/:id", want: "/admin/accounts/:id"},
		{in: "/admin/accounts/:id", want: "/admin/accounts/:id"},
		{in: "admin/accounts", want: "/admin/accounts"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:administrator": true,
		"role:tutor":         true,
		"role:student":       true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	// administrator 继承 tutor → student 的账号自助权限
	allow, err := svc.EnforceRole("administrator", "/account/profile", "GET")
	if err != nil {
		t.Fatalf("enforce inherited failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected inherited account permission")
	}

	allow, err = svc.EnforceRole("administrator", "/admin/accounts", "DELETE")
	if err != nil {
		t.Fatalf("enforce admin wildcard failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected admin wildcard permission")
	}

	// student 不能访问管理端
	allow, err = svc.EnforceRole("student", "/admin/accounts", "GET")
	if err != nil {
		t.Fatalf("enforce student deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected student denied on admin routes")
	}
}
