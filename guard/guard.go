package guard

import (
	"github.com/MrEthical07/goBoard/permission"
	"github.com/MrEthical07/goBoard/session"
)

// Policy is the access requirement of one route. The zero value is public.
type Policy struct {
	RequireAuth  bool
	AllowedRoles permission.RoleSet
}

// Public returns a policy that admits everyone.
func Public() Policy { return Policy{} }

// Authenticated admits any signed-in role.
func Authenticated() Policy { return Policy{RequireAuth: true} }

// Roles admits only the listed roles. Anonymous visitors fall under the role check and
// are sent home rather than to the auth page.
func Roles(roles ...permission.Role) Policy {
	return Policy{AllowedRoles: permission.NewRoleSet(roles...)}
}

// IsPublic reports whether the policy imposes nothing.
func (p Policy) IsPublic() bool {
	return !p.RequireAuth && p.AllowedRoles.Empty()
}

func (p Policy) String() string {
	switch {
	case p.IsPublic():
		return "public"
	case p.AllowedRoles.Empty():
		return "requireAuth"
	case p.RequireAuth:
		return "requireAuth roles:" + p.AllowedRoles.String()
	default:
		return "roles:" + p.AllowedRoles.String()
	}
}

// State is the outcome of a guard evaluation.
type State uint8

const (
	// Checking means the session has not been initialized yet.
	Checking State = iota
	Granted
	DeniedAnonymous
	DeniedWrongRole
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Granted:
		return "granted"
	case DeniedAnonymous:
		return "denied-anonymous"
	case DeniedWrongRole:
		return "denied-wrong-role"
	default:
		return "unknown"
	}
}

// Denied reports whether s ends in a redirect.
func (s State) Denied() bool {
	return s == DeniedAnonymous || s == DeniedWrongRole
}

// Decide evaluates p against sess. ready is false until the session store has been
// initialized.
func Decide(p Policy, sess session.Session, ready bool) State {
	if !ready {
		return Checking
	}
	if p.RequireAuth && sess.IsAnonymous() {
		return DeniedAnonymous
	}
	if !p.AllowedRoles.Empty() && !p.AllowedRoles.Has(sess.Role) {
		return DeniedWrongRole
	}
	return Granted
}

// Paths are the redirect destinations of denied states.
type Paths struct {
	Auth string
	Home string
}

// DefaultPaths returns {Auth: "/auth", Home: "/"}.
func DefaultPaths() Paths {
	return Paths{Auth: "/auth", Home: "/"}
}

// Redirect returns where a denied state sends the user, or "" when s does not redirect.
func (p Paths) Redirect(s State) string {
	switch s {
	case DeniedAnonymous:
		return p.Auth
	case DeniedWrongRole:
		return p.Home
	default:
		return ""
	}
}

// Source is the read side of a session store.
type Source interface {
	Current() session.Session
	Ready() bool
	Subscribe(fn func(session.Session)) (unsubscribe func())
}

// Evaluate is Decide over a live source.
func Evaluate(p Policy, src Source) State {
	return Decide(p, src.Current(), src.Ready())
}
