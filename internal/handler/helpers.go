package handler

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"feedesk/internal/access"
	"feedesk/internal/apierror"
	"feedesk/internal/middleware"
	"feedesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal validates as a number, so tags like min=0 and gt=0 work.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds the JSON body and runs validator tags.
// On failure it writes the response and returns false; the caller returns.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindOptionalJSON is bindAndValidate for bodies that may be absent. Chunked
// requests carry no Content-Length, so only an empty stream counts as absent.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", "invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// ── Error mapping ─────────────────────────────────────────────────────────────

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrAlreadyOpen, http.StatusConflict, "already_open"},
	{service.ErrAlreadyClosed, http.StatusConflict, "already_closed"},
	{service.ErrSessionClosed, http.StatusConflict, "session_closed"},
	{service.ErrDuplicate, http.StatusConflict, "duplicate"},
	{service.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{service.ErrInvalidMode, http.StatusUnprocessableEntity, "invalid_mode"},
	{service.ErrRemarksRequired, http.StatusUnprocessableEntity, "remarks_required"},
	{service.ErrInvalidDate, http.StatusUnprocessableEntity, "invalid_date"},
	{service.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid_role"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrWrongPassword, http.StatusUnprocessableEntity, "wrong_password"},
	{service.ErrNoOpenSession, http.StatusNotFound, "no_open_session"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
}

// writeError maps a service error onto its HTTP status. Anything unknown is
// attached to the context for ErrorHandler to log and answered with a 500.
func writeError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, apierror.WithCode(e.code, err.Error()))
			return
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.WithCode("internal", "internal server error"))
}

// actorFrom builds the service identity from the JWT claims.
func actorFrom(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	id, _ := uuid.Parse(claims.UserID)
	role, _ := access.ParseRole(claims.Role)
	return service.Actor{UserID: id, Username: claims.Username, Name: claims.Name, Role: role}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("bad_request", name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
}
