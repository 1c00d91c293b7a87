package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
)

// Extractor turns uploaded documents into text usable as chat context
type Extractor interface {
	// ExtractPDF returns the text content of a PDF document
	ExtractPDF(ctx context.Context, pdf []byte) (string, error)
}

// HTTPExtractor talks to an external document extraction service
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewHTTPExtractor creates an extraction client for the given service URL
func NewHTTPExtractor(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type extractResponse struct {
	Text string `json:"text"`
}

func (e *HTTPExtractor) ExtractPDF(ctx context.Context, pdf []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract/pdf", bytes.NewReader(pdf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", apperrors.NewOracleUnavailableError("pdf extraction failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewOracleUnavailableError(
			fmt.Sprintf("extraction service returned status %d", resp.StatusCode), nil)
	}

	var parsed extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperrors.NewOracleUnavailableError("malformed extraction response", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

// NormalizeImageData validates base64 image data and strips any data-URL
// prefix, returning the bare base64 payload.
func NormalizeImageData(imageData string) (string, error) {
	payload := imageData
	if idx := strings.Index(payload, ","); idx != -1 {
		payload = payload[idx+1:]
	}
	if payload == "" {
		return "", apperrors.NewValidationError("empty image data")
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return "", apperrors.NewValidationError("image data is not valid base64")
	}
	return payload, nil
}
