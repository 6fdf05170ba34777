package permission

import "strings"

// RoleSet is a bitmask with one bit per [Role].
type RoleSet uint64

// NewRoleSet returns the set containing roles. Invalid roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s.Set(r)
	}
	return s
}

// ParseRoleSet builds a set from wire names. The first unknown name aborts parsing.
func ParseRoleSet(names []string) (RoleSet, error) {
	var s RoleSet
	for _, name := range names {
		r, err := ParseRole(name)
		if err != nil {
			return 0, err
		}
		s.Set(r)
	}
	return s, nil
}

func (s RoleSet) Has(r Role) bool {
	if !r.Valid() {
		return false
	}
	return s&(1<<r) != 0
}

func (s *RoleSet) Set(r Role) {
	if !r.Valid() {
		return
	}
	*s |= 1 << r
}

func (s *RoleSet) Clear(r Role) {
	if !r.Valid() {
		return
	}
	*s &^= 1 << r
}

// Empty reports whether no role is in the set.
func (s RoleSet) Empty() bool {
	return s == 0
}

func (s RoleSet) Raw() uint64 {
	return uint64(s)
}

// Roles lists the members in declaration order.
func (s RoleSet) Roles() []Role {
	var out []Role
	for _, r := range AllRoles() {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Names lists the wire names of the members in declaration order.
func (s RoleSet) Names() []string {
	roles := s.Roles()
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.String())
	}
	return out
}

func (s RoleSet) String() string {
	if s.Empty() {
		return "any"
	}
	return strings.Join(s.Names(), ",")
}
