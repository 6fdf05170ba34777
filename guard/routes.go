package guard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrEthical07/goBoard/permission"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidRoute is returned when a route pattern is empty or not absolute.
	ErrInvalidRoute = errors.New("guard: invalid route pattern")
	// ErrDuplicateRoute is returned when two entries share a pattern.
	ErrDuplicateRoute = errors.New("guard: duplicate route pattern")
)

// Route binds a path pattern to a policy. Segments starting with ':' match any single
// non-empty segment.
type Route struct {
	Pattern string
	Policy  Policy

	segments []string
}

// Match reports whether path matches the route and returns the named parameters.
func (r Route) Match(path string) (map[string]string, bool) {
	parts := splitPath(path)
	if len(parts) != len(r.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range r.segments {
		if strings.HasPrefix(seg, ":") {
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, 1)
			}
			params[seg[1:]] = parts[i]
			continue
		}
		if seg != parts[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// RouteTable is an ordered list of guarded routes plus the redirect destinations.
type RouteTable struct {
	Paths  Paths
	routes []Route
}

// NewRouteTable validates and compiles routes.
func NewRouteTable(paths Paths, routes ...Route) (*RouteTable, error) {
	if paths.Auth == "" || paths.Home == "" {
		return nil, fmt.Errorf("%w: redirect paths must be set", ErrInvalidRoute)
	}
	t := &RouteTable{Paths: paths}
	seen := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if r.Pattern == "" || r.Pattern[0] != '/' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRoute, r.Pattern)
		}
		norm := "/" + strings.Join(splitPath(r.Pattern), "/")
		if _, dup := seen[norm]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRoute, r.Pattern)
		}
		seen[norm] = struct{}{}
		r.segments = splitPath(r.Pattern)
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// Lookup returns the first route matching path. Static routes are declared before
// parameterized ones in the default table, so declaration order is match order.
func (t *RouteTable) Lookup(path string) (Route, map[string]string, bool) {
	for _, r := range t.routes {
		if params, ok := r.Match(path); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// Policy returns the policy for pattern, as declared.
func (t *RouteTable) Policy(pattern string) (Policy, bool) {
	for _, r := range t.routes {
		if r.Pattern == pattern {
			return r.Policy, true
		}
	}
	return Policy{}, false
}

// Routes returns a copy of the declared routes.
func (t *RouteTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// DefaultRouteTable returns the job board's route policies.
func DefaultRouteTable() *RouteTable {
	t, err := NewRouteTable(DefaultPaths(),
		Route{Pattern: "/", Policy: Public()},
		Route{Pattern: "/auth", Policy: Public()},
		Route{Pattern: "/jobs/:id", Policy: Public()},
		Route{Pattern: "/reset-password/:token", Policy: Public()},
		Route{Pattern: "/applicants", Policy: Authenticated()},
		Route{Pattern: "/applicants/:id", Policy: Authenticated()},
		Route{Pattern: "/applicant-dashboard", Policy: Roles(permission.Applicant)},
		Route{Pattern: "/post-job", Policy: Roles(permission.Company)},
		Route{Pattern: "/company-dashboard", Policy: Roles(permission.Company)},
		Route{Pattern: "/edit-job/:id", Policy: Roles(permission.Company)},
		Route{Pattern: "/admin-dashboard", Policy: Roles(permission.Admin)},
	)
	if err != nil {
		panic(err)
	}
	return t
}

type yamlRouteTable struct {
	AuthPath string      `yaml:"auth_path"`
	HomePath string      `yaml:"home_path"`
	Routes   []yamlRoute `yaml:"routes"`
}

type yamlRoute struct {
	Path        string   `yaml:"path"`
	RequireAuth bool     `yaml:"require_auth,omitempty"`
	Roles       []string `yaml:"roles,omitempty"`
}

// DecodeRouteTable reads a YAML route table. Missing redirect paths default to
// DefaultPaths.
func DecodeRouteTable(r io.Reader) (*RouteTable, error) {
	var doc yamlRouteTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("guard: decode route table: %w", err)
	}

	paths := DefaultPaths()
	if doc.AuthPath != "" {
		paths.Auth = doc.AuthPath
	}
	if doc.HomePath != "" {
		paths.Home = doc.HomePath
	}

	routes := make([]Route, 0, len(doc.Routes))
	for _, yr := range doc.Routes {
		roles, err := permission.ParseRoleSet(yr.Roles)
		if err != nil {
			return nil, fmt.Errorf("guard: route %q: %w", yr.Path, err)
		}
		routes = append(routes, Route{
			Pattern: yr.Path,
			Policy:  Policy{RequireAuth: yr.RequireAuth, AllowedRoles: roles},
		})
	}
	return NewRouteTable(paths, routes...)
}

// LoadRouteTable reads a YAML route table from disk.
func LoadRouteTable(path string) (*RouteTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("guard: open route table: %w", err)
	}
	defer f.Close()
	return DecodeRouteTable(f)
}

// MarshalYAML renders the table in the format DecodeRouteTable reads.
func (t *RouteTable) MarshalYAML() (interface{}, error) {
	doc := yamlRouteTable{AuthPath: t.Paths.Auth, HomePath: t.Paths.Home}
	for _, r := range t.routes {
		doc.Routes = append(doc.Routes, yamlRoute{
			Path:        r.Pattern,
			RequireAuth: r.Policy.RequireAuth,
			Roles:       r.Policy.AllowedRoles.Names(),
		})
	}
	return doc, nil
}
