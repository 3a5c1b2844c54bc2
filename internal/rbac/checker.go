package rbac

import (
	"context"
	"strings"
)

// Checker answers "may role do perm" against a role -> grants table. A grant
// is an exact permission, a "resource:*" prefix, or "*".
type Checker struct {
	exact    map[string]map[string]struct{}
	prefixes map[string][]string
	all      map[string]bool
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	c := &Checker{
		exact:    map[string]map[string]struct{}{},
		prefixes: map[string][]string{},
		all:      map[string]bool{},
	}
	for role, grants := range rp {
		c.exact[role] = map[string]struct{}{}
		for _, g := range grants {
			switch {
			case g == "*":
				c.all[role] = true
			case strings.HasSuffix(g, "*"):
				c.prefixes[role] = append(c.prefixes[role], strings.TrimSuffix(g, "*"))
			default:
				c.exact[role][g] = struct{}{}
			}
		}
	}
	return c
}

func (c *Checker) Has(role, perm string) bool {
	if c.all[role] {
		return true
	}
	if _, ok := c.exact[role][perm]; ok {
		return true
	}
	for _, p := range c.prefixes[role] {
		if strings.HasPrefix(perm, p) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext returns "" when no role was attached.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
