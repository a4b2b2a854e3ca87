package handler

import (
	"net/http"

	"feedesk/internal/dto"
	"feedesk/internal/service"

	"github.com/gin-gonic/gin"
)

type StudentsHandler struct{ svc service.StudentService }

func NewStudentsHandler(svc service.StudentService) *StudentsHandler {
	return &StudentsHandler{svc: svc}
}

// Lookup godoc
// @Summary Find active students by name or roll number for fee collection
// @Tags collection
// @Produce json
// @Security BearerAuth
// @Param q query string true "Name or roll number"
// @Success 200 {array} dto.StudentResponse
// @Router /v1/collection/students [get]
func (h *StudentsHandler) Lookup(c *gin.Context) {
	resp, err := h.svc.Lookup(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary List students with fee status
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name or roll number"
// @Param course query string false "Course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.StudentPage
// @Router /v1/students [get]
func (h *StudentsHandler) List(c *gin.Context) {
	var f dto.StudentFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Student detail with payment history
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} dto.StudentDetail
// @Failure 404 {object} apierror.APIError
// @Router /v1/students/{id} [get]
func (h *StudentsHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary Register a student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateStudentRequest true "Student"
// @Success 201 {object} dto.StudentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/students [post]
func (h *StudentsHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StudentsHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStudentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
