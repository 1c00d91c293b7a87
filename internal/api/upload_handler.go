package api

import (
	"encoding/base64"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"health-concierge/backend/internal/extract"
	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
)

// UploadHandler serves document upload endpoints. Uploads are converted
// to text or base64 for the client to attach to a later chat turn.
type UploadHandler struct {
	extractor extract.Extractor
}

// NewUploadHandler creates the upload handler
func NewUploadHandler(extractor extract.Extractor) *UploadHandler {
	return &UploadHandler{extractor: extractor}
}

// RegisterRoutes mounts the upload routes on the router group
func (h *UploadHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload/pdf", h.UploadPDF)
	r.POST("/upload/image", h.UploadImage)
}

// UploadPDF handles POST /upload/pdf
func (h *UploadHandler) UploadPDF(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.Error(apperrors.NewValidationError("file field is required"))
		c.Abort()
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.Error(apperrors.NewValidationError("failed to read upload"))
		c.Abort()
		return
	}

	text, err := h.extractor.ExtractPDF(c.Request.Context(), data)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	logger.FromContext(c).Info("PDF extracted",
		"filename", header.Filename,
		"bytes", len(data),
		"text_length", len(text),
	)
	c.JSON(http.StatusOK, gin.H{
		"filename": header.Filename,
		"text":     text,
	})
}

// UploadImage handles POST /upload/image
func (h *UploadHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.Error(apperrors.NewValidationError("file field is required"))
		c.Abort()
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.Error(apperrors.NewValidationError("failed to read upload"))
		c.Abort()
		return
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	if _, err := extract.NormalizeImageData(encoded); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename":   header.Filename,
		"image_data": encoded,
	})
}
