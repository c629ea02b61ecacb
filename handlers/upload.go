package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eliteexplore/media"
)

const (
	maxPhotoSize  = 10 << 20
	uploadTimeout = 30 * time.Second
)

// UploadPhoto stores a multipart "photo" and returns its hosted URL.
func (h *Handler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoSize+1<<20)
	if err := c.Request.ParseMultipartForm(maxPhotoSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Photo must be 10MB or smaller"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo file provided"})
		return
	}
	defer file.Close()

	if header.Size > maxPhotoSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Photo must be 10MB or smaller"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadTimeout)
	defer cancel()

	url, err := h.uploader.Upload(ctx, file, uuid.NewString())
	if errors.Is(err, media.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo uploads are not available"})
		return
	}
	if err != nil {
		h.fail(c, http.StatusBadGateway, "Failed to upload photo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
