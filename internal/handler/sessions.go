package handler

import (
	"net/http"

	"feedesk/internal/dto"
	"feedesk/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionsHandler struct{ svc service.SessionService }

func NewSessionsHandler(svc service.SessionService) *SessionsHandler {
	return &SessionsHandler{svc: svc}
}

// Open godoc
// @Summary Open the daily collection session
// @Description A date opens at most once; only one date may be open at a time.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest false "Date (defaults to today)"
// @Success 201 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/sessions/open [post]
func (h *SessionsHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), actorFrom(c), req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Close the daily session, optionally reconciling declared amounts
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseSessionRequest false "Declaration and remarks"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/sessions/close [post]
func (h *SessionsHandler) Close(c *gin.Context) {
	var req dto.CloseSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Current godoc
// @Summary The currently open session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sessions/current [get]
func (h *SessionsHandler) Current(c *gin.Context) {
	resp, err := h.svc.Current(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionsHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionsHandler) History(c *gin.Context) {
	resp, err := h.svc.History(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Record godoc
// @Summary Record a fee payment against the open session
// @Tags collection
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordReceiptRequest true "Payment"
// @Success 201 {object} dto.RecordReceiptResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/collection/receipts [post]
func (h *SessionsHandler) Record(c *gin.Context) {
	var req dto.RecordReceiptRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Record(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
