package handler

import (
	"net/http"

	"feedesk/internal/apierror"
	"feedesk/internal/dto"
	"feedesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AcademicHandler struct{ svc service.AcademicService }

func NewAcademicHandler(svc service.AcademicService) *AcademicHandler {
	return &AcademicHandler{svc: svc}
}

// ListCourses godoc
// @Summary List courses
// @Tags academic
// @Produce json
// @Security BearerAuth
// @Param all query bool false "Include deactivated courses"
// @Success 200 {array} dto.CourseResponse
// @Router /v1/academic/courses [get]
func (h *AcademicHandler) ListCourses(c *gin.Context) {
	resp, err := h.svc.ListCourses(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateCourse godoc
// @Summary Register a course
// @Tags academic
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateCourseRequest true "Course"
// @Success 201 {object} dto.CourseResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/academic/courses [post]
func (h *AcademicHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateCourse(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AcademicHandler) UpdateCourse(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateCourse(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AcademicHandler) DeactivateCourse(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateCourse(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSections godoc
// @Summary List sections, optionally of one course
// @Tags academic
// @Produce json
// @Security BearerAuth
// @Param course_id query string false "Course ID"
// @Success 200 {array} dto.SectionResponse
// @Router /v1/academic/sections [get]
func (h *AcademicHandler) ListSections(c *gin.Context) {
	courseID := uuid.Nil
	if v := c.Query("course_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "course_id must be a UUID"))
			return
		}
		courseID = id
	}
	resp, err := h.svc.ListSections(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AcademicHandler) CreateSection(c *gin.Context) {
	var req dto.CreateSectionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateSection(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AcademicHandler) DeleteSection(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSection(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Fee structure ─────────────────────────────────────────────────────────────

type FeeStructureHandler struct{ svc service.FeeStructureService }

func NewFeeStructureHandler(svc service.FeeStructureService) *FeeStructureHandler {
	return &FeeStructureHandler{svc: svc}
}

// Get godoc
// @Summary Fee heads and total of a course year
// @Tags fee-structure
// @Produce json
// @Security BearerAuth
// @Param course_id query string true "Course ID"
// @Param year query string true "Study year"
// @Success 200 {object} dto.FeeStructureResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/fee-structure [get]
func (h *FeeStructureHandler) Get(c *gin.Context) {
	var q dto.FeeStructureQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), uuid.MustParse(q.CourseID), q.Year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddHead godoc
// @Summary Add a fee head to a course year
// @Tags fee-structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateFeeHeadRequest true "Fee head"
// @Success 201 {object} dto.FeeHeadResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/fee-structure/heads [post]
func (h *FeeStructureHandler) AddHead(c *gin.Context) {
	var req dto.CreateFeeHeadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddHead(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *FeeStructureHandler) UpdateHead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateFeeHeadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateHead(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FeeStructureHandler) DeleteHead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteHead(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Apply godoc
// @Summary Set the total fee of every active student of a course year to its fee structure total
// @Tags fee-structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ApplyFeeStructureRequest true "Course year"
// @Success 200 {object} dto.ApplyFeeStructureResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/fee-structure/apply [post]
func (h *FeeStructureHandler) Apply(c *gin.Context) {
	var req dto.ApplyFeeStructureRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
