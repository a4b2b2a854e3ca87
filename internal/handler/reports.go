package handler

import (
	"net/http"

	"feedesk/internal/access"
	"feedesk/internal/dto"
	"feedesk/internal/middleware"
	"feedesk/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct {
	reports service.ReportService
	audit   service.AuditService
}

func NewReportsHandler(reports service.ReportService, audit service.AuditService) *ReportsHandler {
	return &ReportsHandler{reports: reports, audit: audit}
}

// Dashboard godoc
// @Summary Headline figures for the admin and principal dashboards
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DashboardResponse
// @Router /v1/dashboard [get]
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	resp, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ModeWise godoc
// @Summary Collections per payment mode
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD, default first of month"
// @Param to query string false "YYYY-MM-DD, default today"
// @Success 200 {object} dto.ModeWiseReport
// @Router /v1/reports/mode-wise [get]
func (h *ReportsHandler) ModeWise(c *gin.Context) {
	var r dto.ReportRange
	if !bindQuery(c, &r) {
		return
	}
	resp, err := h.reports.ModeWise(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Daily godoc
// @Summary Collections per session date
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} dto.DailyReport
// @Router /v1/reports/daily [get]
func (h *ReportsHandler) Daily(c *gin.Context) {
	var r dto.ReportRange
	if !bindQuery(c, &r) {
		return
	}
	resp, err := h.reports.Daily(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AuditLogs godoc
// @Summary Audit trail of user actions, newest first
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param action query string false "Action, e.g. receipt.create"
// @Param username query string false "Username"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} dto.AuditPage
// @Router /v1/audit-logs [get]
func (h *ReportsHandler) AuditLogs(c *gin.Context) {
	var f dto.AuditFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.audit.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Navigation ────────────────────────────────────────────────────────────────

// Capabilities godoc
// @Summary Routes and actions available to the caller's role
// @Tags navigation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CapabilitiesResponse
// @Router /v1/me/capabilities [get]
func Capabilities(c *gin.Context) {
	caps := access.CapabilitiesFor(roleOf(c))
	actions := make([]string, len(caps.Actions))
	for i, a := range caps.Actions {
		actions[i] = string(a)
	}
	c.JSON(http.StatusOK, dto.CapabilitiesResponse{
		Role:         string(caps.Role),
		DefaultRoute: caps.DefaultRoute,
		Routes:       caps.Routes,
		Actions:      actions,
	})
}

// Resolve godoc
// @Summary Resolve a dashboard path for the caller's role
// @Description Returns render, not_found, or redirect to /login.
// @Tags navigation
// @Produce json
// @Security BearerAuth
// @Param path query string true "Dashboard path"
// @Success 200 {object} dto.ResolveResponse
// @Router /v1/me/resolve [get]
func Resolve(c *gin.Context) {
	path := c.Query("path")
	c.JSON(http.StatusOK, dto.ResolveResponse{
		Path:       path,
		Resolution: access.Resolve(roleOf(c), path),
	})
}

func roleOf(c *gin.Context) access.Role {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return ""
	}
	role, _ := access.ParseRole(claims.Role)
	return role
}
