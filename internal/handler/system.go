package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports the store mode and Redis state. It answers 503 only when
// the connected database stops answering; degraded mode is healthy.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	db, state, status := "connected", "ok", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		db, state, status = "unreachable", "unavailable", http.StatusServiceUnavailable
	}
	if h.mode == "degraded" {
		db = "offline (fixtures)"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"db":      db,
		"backend": h.store.Name(),
		"mode":    h.mode,
		"redis":   h.redis.Status(ctx),
	})
}

// Upload stores an image and returns its URL for use as a profilePhoto or
// complaint image. It accepts a multipart "file" field or a JSON body
// {"data": "<image data URL>"}.
func (h *Handler) Upload(c *gin.Context) {
	if h.uploads == nil || !h.uploads.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "image storage not configured"})
		return
	}
	ctx := c.Request.Context()

	var (
		url, publicID string
		err           error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "file field required"})
			return
		}
		defer file.Close()
		res, uerr := h.uploads.Upload(ctx, file, header.Filename)
		if uerr == nil {
			url, publicID = res.SecureURL, res.PublicID
		}
		err = uerr
	} else {
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if !bind(c, &body) {
			return
		}
		res, uerr := h.uploads.UploadDataURL(ctx, body.Data)
		if uerr == nil {
			url, publicID = res.SecureURL, res.PublicID
		}
		err = uerr
	}
	if err != nil {
		h.logger.Warn("image upload failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "image upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "publicId": publicID})
}
