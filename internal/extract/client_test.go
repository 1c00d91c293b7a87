package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func TestExtractPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/extract/pdf", r.URL.Path)
		require.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, []byte("%PDF-1.4 fake"), body)
		json.NewEncoder(w).Encode(map[string]string{"text": "  Lab results: all normal.  "})
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL, time.Second, testLogger())
	text, err := e.ExtractPDF(context.Background(), []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, "Lab results: all normal.", text)
}

func TestExtractPDFServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL, time.Second, testLogger())
	_, err := e.ExtractPDF(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeOracleUnavailable))
}

func TestNormalizeImageData(t *testing.T) {
	got, err := NormalizeImageData("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", got)

	got, err = NormalizeImageData("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", got)
}

func TestNormalizeImageDataInvalid(t *testing.T) {
	_, err := NormalizeImageData("data:image/png;base64,")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = NormalizeImageData("not%%base64")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}
