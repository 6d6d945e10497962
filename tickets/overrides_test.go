package tickets

import (
	"errors"
	"testing"

	"ticket-bot/storage"
)

func TestGrantAndRevoke(t *testing.T) {
	var c storage.TicketConfig

	if err := Grant(&c, TargetRole, PermManage, "r1"); err != nil {
		t.Fatal(err)
	}
	if err := Grant(&c, TargetRole, PermManage, "r1"); !errors.Is(err, ErrOverrideExists) {
		t.Errorf("duplicate grant: err = %v, want ErrOverrideExists", err)
	}
	if err := Grant(&c, TargetUser, PermView, "u1"); err != nil {
		t.Fatal(err)
	}
	if len(c.ManagerRoles) != 1 || len(c.ViewerUsers) != 1 {
		t.Errorf("config = %+v", c)
	}

	// Revoking clears both levels for the target's kind.
	Grant(&c, TargetUser, PermManage, "u1")
	if err := Revoke(&c, TargetUser, "u1"); err != nil {
		t.Fatal(err)
	}
	if len(c.ViewerUsers) != 0 || len(c.ManagerUsers) != 0 {
		t.Errorf("u1 still present: %+v", c)
	}
	if err := Revoke(&c, TargetUser, "u1"); !errors.Is(err, ErrNoOverride) {
		t.Errorf("revoke absent: err = %v, want ErrNoOverride", err)
	}

	// A role and a user can share an ID without colliding.
	if len(c.ManagerRoles) != 1 {
		t.Errorf("role override lost: %+v", c)
	}
}

func TestRevokeIsKindScoped(t *testing.T) {
	var c storage.TicketConfig
	Grant(&c, TargetRole, PermView, "123")
	Grant(&c, TargetUser, PermView, "123")

	if err := Revoke(&c, TargetRole, "123"); err != nil {
		t.Fatal(err)
	}
	if len(c.ViewerRoles) != 0 {
		t.Error("role override survived revoke")
	}
	if len(c.ViewerUsers) != 1 {
		t.Error("user override removed by role revoke")
	}
}

func TestParsePermission(t *testing.T) {
	if p, err := ParsePermission("view"); err != nil || p != PermView {
		t.Errorf("view = %v, %v", p, err)
	}
	if p, err := ParsePermission("manage"); err != nil || p != PermManage {
		t.Errorf("manage = %v, %v", p, err)
	}
	if _, err := ParsePermission("admin"); err == nil {
		t.Error("unknown permission accepted")
	}
}
