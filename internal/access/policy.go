// Package access holds the role access policy: which dashboard routes and which
// API actions each role may reach. The table below is the single source of truth
// for both the SPA navigation and the HTTP authorization middleware.
package access

import "strings"

// Role is an authenticated user's role.
type Role string

const (
	Admin     Role = "admin"
	Principal Role = "principal"
	Cashier   Role = "cashier"
)

// Roles lists every known role.
var Roles = []Role{Admin, Principal, Cashier}

// ParseRole returns the role named by s, or false for an unknown role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := policy[r]
	return r, ok
}

// Action is an API capability.
type Action string

const (
	DashboardRead      Action = "dashboard:read"
	UserManage         Action = "user:manage"
	StudentRead        Action = "student:read"
	StudentWrite       Action = "student:write"
	AcademicManage     Action = "academic:manage"
	FeeStructureManage Action = "fee-structure:manage"
	ReportRead         Action = "report:read"
	AuditRead          Action = "audit:read"
	FeeCollect         Action = "fee:collect"
	SessionManage      Action = "session:manage"
	ReceiptReprint     Action = "receipt:reprint"
)

// LoginRoute is where an unauthenticated identity is sent.
const LoginRoute = "/login"

// Route is one navigable dashboard entry.
type Route struct {
	Path     string `json:"path"`
	View     string `json:"view"`
	Title    string `json:"title"`
	ReadOnly bool   `json:"read_only"`
}

// Capabilities is what a role may reach.
type Capabilities struct {
	Role         Role
	DefaultRoute string
	Routes       []Route
	Actions      []Action
}

// Can reports whether the capability set includes action.
func (c Capabilities) Can(action Action) bool {
	for _, a := range c.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Allows reports whether path is one of the role's routes.
func (c Capabilities) Allows(path string) bool {
	_, ok := c.route(path)
	return ok
}

func (c Capabilities) route(path string) (Route, bool) {
	p := normalize(path)
	for _, r := range c.Routes {
		if r.Path == p {
			return r, true
		}
	}
	return Route{}, false
}

// ── Policy table ──────────────────────────────────────────────────────────────

var policy = map[Role]Capabilities{
	Admin: {
		Role:         Admin,
		DefaultRoute: "/",
		Routes: []Route{
			{Path: "/", View: "AdminDashboard", Title: "Dashboard"},
			{Path: "/users", View: "UserManagement", Title: "User Management"},
			{Path: "/students", View: "StudentManagement", Title: "Students"},
			{Path: "/academic", View: "AcademicManagement", Title: "Academic"},
			{Path: "/fee-structure", View: "FeeStructure", Title: "Fee Structure"},
			{Path: "/reports", View: "FinancialReports", Title: "Reports"},
			{Path: "/audit-logs", View: "AuditLogs", Title: "Audit Logs"},
		},
		Actions: []Action{
			DashboardRead, UserManage, StudentRead, StudentWrite,
			AcademicManage, FeeStructureManage, ReportRead, AuditRead,
		},
	},
	Principal: {
		Role:         Principal,
		DefaultRoute: "/",
		Routes: []Route{
			{Path: "/", View: "PrincipalDashboard", Title: "Dashboard", ReadOnly: true},
			{Path: "/view-students", View: "StudentManagement", Title: "Students", ReadOnly: true},
			{Path: "/view-reports", View: "FinancialReports", Title: "Reports", ReadOnly: true},
			{Path: "/view-audit", View: "AuditLogs", Title: "Audit Logs", ReadOnly: true},
		},
		Actions: []Action{DashboardRead, StudentRead, ReportRead, AuditRead},
	},
	Cashier: {
		Role:         Cashier,
		DefaultRoute: "/",
		Routes: []Route{
			{Path: "/", View: "FeeCollection", Title: "Fee Collection"},
			{Path: "/fee-collection", View: "FeeCollection", Title: "Fee Collection"},
			{Path: "/daily-session", View: "DailySession", Title: "Daily Session"},
			{Path: "/reprint-receipt", View: "ReprintReceipt", Title: "Reprint Receipt"},
		},
		Actions: []Action{FeeCollect, SessionManage, ReceiptReprint},
	},
}

// CapabilitiesFor returns the capability set of role. An unknown or empty
// role gets the empty set and the login route as its default.
func CapabilitiesFor(role Role) Capabilities {
	c, ok := policy[role]
	if !ok {
		return Capabilities{Role: role, DefaultRoute: LoginRoute}
	}
	// Callers must not be able to mutate the shared table.
	c.Routes = append([]Route(nil), c.Routes...)
	c.Actions = append([]Action(nil), c.Actions...)
	return c
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Outcome is the kind of a route resolution.
type Outcome string

const (
	Render   Outcome = "render"
	NotFound Outcome = "not_found"
	Redirect Outcome = "redirect"
)

// Resolution is the answer to "what does role see at path".
type Resolution struct {
	Outcome  Outcome `json:"outcome"`
	View     string  `json:"view,omitempty"`
	Location string  `json:"location,omitempty"`
}

// Resolve maps (role, path) to a rendered view, a not-found fallback, or a
// redirect to the login boundary when there is no authenticated role.
// It never resolves to a view that belongs to another role's table.
func Resolve(role Role, path string) Resolution {
	caps, ok := policy[role]
	if !ok {
		return Resolution{Outcome: Redirect, Location: LoginRoute}
	}
	if r, ok := caps.route(path); ok {
		return Resolution{Outcome: Render, View: r.View}
	}
	return Resolution{Outcome: NotFound, View: "NotFound"}
}

func normalize(path string) string {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
