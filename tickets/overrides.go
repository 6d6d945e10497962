package tickets

import (
	"errors"
	"fmt"

	"ticket-bot/storage"
)

// TargetKind says whether an override targets a user or a role.
type TargetKind int

const (
	TargetUser TargetKind = iota
	TargetRole
)

// Permission is the level an override grants.
type Permission int

const (
	PermView Permission = iota
	PermManage
)

var (
	ErrOverrideExists = errors.New("override already set")
	ErrNoOverride     = errors.New("no override was set for that user or role")
)

func ParsePermission(s string) (Permission, error) {
	switch s {
	case "view":
		return PermView, nil
	case "manage":
		return PermManage, nil
	}
	return 0, fmt.Errorf("unknown permission %q", s)
}

func (p Permission) String() string {
	if p == PermManage {
		return "manager"
	}
	return "viewer"
}

// bucket picks the override list on c addressed by kind and permission.
func bucket(c *storage.TicketConfig, kind TargetKind, perm Permission) *[]string {
	switch {
	case kind == TargetRole && perm == PermView:
		return &c.ViewerRoles
	case kind == TargetRole && perm == PermManage:
		return &c.ManagerRoles
	case kind == TargetUser && perm == PermView:
		return &c.ViewerUsers
	default:
		return &c.ManagerUsers
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Grant adds an override to c. Granting an ID a level it already holds
// fails; holding the other level at the same time is allowed, matching how
// overrides are listed per level.
func Grant(c *storage.TicketConfig, kind TargetKind, perm Permission, id string) error {
	list := bucket(c, kind, perm)
	if contains(*list, id) {
		return ErrOverrideExists
	}
	*list = append(*list, id)
	return nil
}

// Revoke removes every override the ID holds for its kind, both viewer and
// manager.
func Revoke(c *storage.TicketConfig, kind TargetKind, id string) error {
	viewers := bucket(c, kind, PermView)
	managers := bucket(c, kind, PermManage)
	if !contains(*viewers, id) && !contains(*managers, id) {
		return ErrNoOverride
	}
	*viewers = remove(*viewers, id)
	*managers = remove(*managers, id)
	return nil
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
