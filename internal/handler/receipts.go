package handler

import (
	"net/http"
	"strings"

	"feedesk/internal/apierror"
	"feedesk/internal/repository"
	"feedesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReceiptsHandler struct{ svc service.ReceiptService }

func NewReceiptsHandler(svc service.ReceiptService) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc}
}

// Receipt numbers contain slashes (RCP/2024/000042); clients send them
// percent-encoded and the router unescapes the parameter.
func receiptNo(c *gin.Context) string {
	return strings.TrimSpace(c.Param("no"))
}

// Search godoc
// @Summary Search receipts by student name, roll number or receipt number
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search term (empty lists the latest receipts)"
// @Param limit query int false "Max results"
// @Success 200 {array} dto.ReceiptResponse
// @Router /v1/receipts [get]
func (h *ReceiptsHandler) Search(c *gin.Context) {
	resp, err := h.svc.Search(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Fetch one receipt
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param no path string true "Receipt number"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/receipts/{no} [get]
func (h *ReceiptsHandler) Get(c *gin.Context) {
	resp, err := h.svc.Find(c.Request.Context(), receiptNo(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reprint godoc
// @Summary Render a stored receipt again as a duplicate copy
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param no path string true "Receipt number"
// @Success 200 {object} dto.ReprintResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/receipts/{no}/reprint [post]
func (h *ReceiptsHandler) Reprint(c *gin.Context) {
	resp, err := h.svc.Reprint(c.Request.Context(), actorFrom(c), receiptNo(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ForStudent lists a student's receipts in the order they were issued.
// The student is addressed by id or, with ?by=roll, by roll number.
func (h *ReceiptsHandler) ForStudent(c *gin.Context) {
	q := repository.StudentQuery{}
	if c.Query("by") == "roll" {
		q.RollNumber = c.Param("id")
	} else {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "id must be a UUID"))
			return
		}
		q.StudentID = id
	}
	resp, err := h.svc.ForStudent(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
