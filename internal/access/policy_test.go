package access_test

import (
	"testing"

	"feedesk/internal/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_CashierCannotReachAdminRoute(t *testing.T) {
	res := access.Resolve(access.Cashier, "/users")

	assert.Equal(t, access.NotFound, res.Outcome)
	assert.NotEqual(t, "UserManagement", res.View)
}

func TestResolve_RendersOwnRoutes(t *testing.T) {
	cases := []struct {
		role access.Role
		path string
		view string
	}{
		{access.Admin, "/", "AdminDashboard"},
		{access.Admin, "/audit-logs", "AuditLogs"},
		{access.Principal, "/", "PrincipalDashboard"},
		{access.Principal, "/view-students", "StudentManagement"},
		{access.Cashier, "/", "FeeCollection"},
		{access.Cashier, "/daily-session/", "DailySession"},
		{access.Cashier, "/reprint-receipt?no=RCP/2024/000001", "ReprintReceipt"},
	}
	for _, tc := range cases {
		t.Run(string(tc.role)+tc.path, func(t *testing.T) {
			res := access.Resolve(tc.role, tc.path)
			assert.Equal(t, access.Render, res.Outcome)
			assert.Equal(t, tc.view, res.View)
		})
	}
}

func TestResolve_UnauthenticatedRedirectsToLogin(t *testing.T) {
	for _, role := range []access.Role{"", "guest", "ADMIN "} {
		res := access.Resolve(role, "/")
		assert.Equal(t, access.Redirect, res.Outcome)
		assert.Equal(t, access.LoginRoute, res.Location)
	}
}

func TestCapabilitiesFor_UnknownRoleIsEmpty(t *testing.T) {
	caps := access.CapabilitiesFor("")

	assert.Empty(t, caps.Routes)
	assert.Empty(t, caps.Actions)
	assert.Equal(t, access.LoginRoute, caps.DefaultRoute)
	assert.False(t, caps.Allows("/"))
}

func TestCapabilitiesFor_PrincipalIsSubsetOfAdmin(t *testing.T) {
	admin := access.CapabilitiesFor(access.Admin)
	principal := access.CapabilitiesFor(access.Principal)

	require.NotEmpty(t, principal.Actions)
	for _, a := range principal.Actions {
		assert.True(t, admin.Can(a), "admin should hold %s", a)
	}
	for _, r := range principal.Routes {
		assert.True(t, r.ReadOnly, "principal route %s should be read-only", r.Path)
	}
}

func TestCapabilitiesFor_CashierDisjointFromOthers(t *testing.T) {
	cashier := access.CapabilitiesFor(access.Cashier)
	for _, other := range []access.Role{access.Admin, access.Principal} {
		caps := access.CapabilitiesFor(other)
		for _, a := range cashier.Actions {
			assert.False(t, caps.Can(a), "%s should not hold %s", other, a)
		}
	}
}

func TestCapabilitiesFor_ReturnsCopy(t *testing.T) {
	caps := access.CapabilitiesFor(access.Cashier)
	caps.Actions[0] = access.UserManage
	caps.Routes[0].View = "UserManagement"

	fresh := access.CapabilitiesFor(access.Cashier)
	assert.False(t, fresh.Can(access.UserManage))
	assert.Equal(t, "FeeCollection", fresh.Routes[0].View)
}

func TestParseRole(t *testing.T) {
	r, ok := access.ParseRole(" Cashier ")
	assert.True(t, ok)
	assert.Equal(t, access.Cashier, r)

	_, ok = access.ParseRole("supervisor")
	assert.False(t, ok)
}
