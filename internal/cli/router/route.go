// Package router maps locations to pages and decides, from session state,
// whether a page may render, must wait, or must redirect.
package router

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Well-known locations.
const (
	HomePath     = "/"
	LoginPath    = "/login"
	RegisterPath = "/register"
)

// Location is a path plus query, the unit of navigation.
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation normalizes raw ("posts/3", "/posts/3/?x=1") into a Location.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{Path: HomePath}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	if u.Scheme != "" || u.Host != "" {
		return Location{}, fmt.Errorf("invalid location %q: must be a path", raw)
	}

	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	loc := Location{Path: path.Clean(p)}
	if q := u.Query(); len(q) > 0 {
		loc.Query = q
	}
	return loc, nil
}

// MustLocation is ParseLocation for constant input.
func MustLocation(raw string) Location {
	loc, err := ParseLocation(raw)
	if err != nil {
		panic(err)
	}
	return loc
}

func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// Equal compares path and query.
func (l Location) Equal(o Location) bool {
	return l.String() == o.String()
}

// Access is the requirement a route puts on the session.
type Access int

const (
	// Public routes always render.
	Public Access = iota
	// GuestOnly routes (login, register) send authenticated users onward.
	GuestOnly
	// Authenticated routes need any logged-in user.
	Authenticated
	// Admin routes need the admin role.
	Admin
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case GuestOnly:
		return "guest"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// Params holds the values captured by ":name" pattern segments.
type Params map[string]string

// Route binds a pattern such as "/posts/:id" to a page name and access level.
type Route struct {
	Name    string
	Pattern string
	Access  Access
}

func (r Route) segments() []string {
	return splitPath(r.Pattern)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func (r Route) match(p string) (Params, bool) {
	pattern := r.segments()
	parts := splitPath(p)
	if len(pattern) != len(parts) {
		return nil, false
	}

	params := Params{}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			params[seg[1:]] = parts[i]
			continue
		}
		if seg != parts[i] {
			return nil, false
		}
	}
	return params, true
}

// Table is an ordered route list; the first match wins.
type Table struct {
	routes []Route
}

// NewTable creates a table from routes.
func NewTable(routes ...Route) *Table {
	return &Table{routes: routes}
}

// Routes returns the registered routes in match order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Match finds the route for a path.
func (t *Table) Match(p string) (Route, Params, bool) {
	for _, r := range t.routes {
		if params, ok := r.match(p); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// Page names of the application's route table.
const (
	PageHome       = "home"
	PagePost       = "post"
	PageLogin      = "login"
	PageRegister   = "register"
	PageNewPost    = "new-post"
	PageEditPost   = "edit-post"
	PageLikePost   = "like-post"
	PageProfile    = "profile"
	PageAdminUsers = "admin-users"
)

// DefaultTable is the application's route table. Static segments are listed
// before parameterized ones so "/posts/new" is not read as a post ID.
func DefaultTable() *Table {
	return NewTable(
		Route{Name: PageHome, Pattern: HomePath, Access: Public},
		Route{Name: PageLogin, Pattern: LoginPath, Access: GuestOnly},
		Route{Name: PageRegister, Pattern: RegisterPath, Access: GuestOnly},
		Route{Name: PageNewPost, Pattern: "/posts/new", Access: Authenticated},
		Route{Name: PagePost, Pattern: "/posts/:id", Access: Public},
		Route{Name: PageEditPost, Pattern: "/posts/:id/edit", Access: Authenticated},
		Route{Name: PageLikePost, Pattern: "/posts/:id/like", Access: Authenticated},
		Route{Name: PageProfile, Pattern: "/profile", Access: Authenticated},
		Route{Name: PageAdminUsers, Pattern: "/admin/users", Access: Admin},
	)
}
