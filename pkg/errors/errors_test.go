package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	err := NewValidationError("message must not be empty")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, CodeValidation, err.Code)

	err = NewNotFoundError("plan not found")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)

	cause := errors.New("connection refused")
	err = NewOracleUnavailableError("completion failed", cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
	assert.Equal(t, "connection refused", err.Details)

	err = NewStorageError("write failed", cause)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
}

func TestIsCode(t *testing.T) {
	err := NewValidationError("bad input")
	assert.True(t, IsCode(err, CodeValidation))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeValidation))
	assert.False(t, IsCode(nil, CodeValidation))
}

func TestFromError(t *testing.T) {
	app := NewNotFoundError("missing")
	assert.Same(t, app, FromError(app))

	wrapped := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
	assert.Nil(t, FromError(nil))
}

func TestErrorHandlerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		c.Error(NewNotFoundError("session not found"))
		c.Abort()
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, CodeNotFound, envelope.Error.Code)
	assert.Equal(t, "session not found", envelope.Error.Message)
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryWithLogger())
	router.GET("/panic", func(*gin.Context) {
		panic("something broke")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "SERVER_ERROR", envelope.Error.Code)
}
