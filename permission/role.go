package permission

import (
	"errors"
	"strings"
)

// ErrUnknownRole is returned by [ParseRole] for names outside the fixed role set.
var ErrUnknownRole = errors.New("unknown role")

// Role identifies who the signed-in identity is. The zero value is [Anonymous].
type Role uint8

const (
	// Anonymous is the role of a browser context without a token.
	Anonymous Role = iota
	// Applicant is a job seeker.
	Applicant
	// Company is an employer posting jobs.
	Company
	// Admin operates the board.
	Admin

	roleCount
)

var roleNames = [roleCount]string{
	Anonymous: "anonymous",
	Applicant: "applicant",
	Company:   "company",
	Admin:     "admin",
}

// String returns the wire name of the role as used by the REST API.
func (r Role) String() string {
	if r >= roleCount {
		return "unknown"
	}
	return roleNames[r]
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r < roleCount
}

// ParseRole maps a wire name to a Role. Matching ignores case and surrounding space.
// The empty string parses as [Anonymous].
func ParseRole(name string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Anonymous, nil
	}
	for i, n := range roleNames {
		if n == name {
			return Role(i), nil
		}
	}
	return Anonymous, ErrUnknownRole
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrUnknownRole
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// AllRoles returns every role in declaration order.
func AllRoles() []Role {
	out := make([]Role, 0, roleCount)
	for r := Role(0); r < roleCount; r++ {
		out = append(out, r)
	}
	return out
}
