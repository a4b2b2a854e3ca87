package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"feedesk/internal/dto"
	"feedesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

func TestWriteError_MapsServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("open 2024-11-05: %w", service.ErrAlreadyOpen), http.StatusConflict},
		{service.ErrSessionClosed, http.StatusConflict},
		{fmt.Errorf("amount -5: %w", service.ErrInvalidAmount), http.StatusUnprocessableEntity},
		{service.ErrRemarksRequired, http.StatusUnprocessableEntity},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrNoOpenSession, http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeError(c, tc.err)
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}

func TestWriteError_HidesUnknownErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	writeError(c, errors.New("pq: password authentication failed for user feedesk"))
	assert.NotContains(t, w.Body.String(), "password")
	assert.Len(t, c.Errors, 1)
}

func TestBindAndValidate(t *testing.T) {
	run := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		var req dto.CreateStudentRequest
		if bindAndValidate(c, &req) {
			c.String(http.StatusOK, "ok")
		}
		return w
	}

	assert.Equal(t, http.StatusBadRequest, run(`{"roll_number":`).Code)

	w := run(`{"roll_number":"CS2024009","name":"Neha Gupta","course":"B.Tech CSE","total_fee":-1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "TotalFee")

	w = run(`{"roll_number":"CS2024009","name":"Neha Gupta","course":"B.Tech CSE","total_fee":"125000.00"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindOptionalJSON(t *testing.T) {
	run := func(body io.Reader, contentLength int64) (*httptest.ResponseRecorder, dto.OpenSessionRequest, bool) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", body)
		c.Request.Header.Set("Content-Type", "application/json")
		c.Request.ContentLength = contentLength
		var req dto.OpenSessionRequest
		ok := bindOptionalJSON(c, &req)
		return w, req, ok
	}

	_, req, ok := run(nil, 0)
	assert.True(t, ok)
	assert.Empty(t, req.Date)

	// chunked: no Content-Length, body still present
	_, req, ok = run(strings.NewReader(`{"date":"2024-11-05"}`), -1)
	assert.True(t, ok)
	assert.Equal(t, "2024-11-05", req.Date)

	_, req, ok = run(strings.NewReader(""), -1)
	assert.True(t, ok)
	assert.Empty(t, req.Date)

	w, _, ok := run(strings.NewReader(`{"date":"05/11/2024"}`), -1)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _, ok = run(strings.NewReader(`{"date":`), -1)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
