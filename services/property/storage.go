package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/pavitra93/go-facility-platform/shared/utils"
)

type UploadURLRequest struct {
	ContentType string `json:"content_type"`
}

type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	StorageID string `json:"storage_id"`
}

func (a *App) uploadURL(c *gin.Context) {
	if a.blobs == nil {
		utils.ServiceUnavailableResponse(c, "File storage is not configured")
		return
	}
	p := principal(c)
	if p == nil {
		utils.DomainErrorResponse(c, tenancy.ErrUnauthenticated)
		return
	}
	var req UploadURLRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
	}

	url, storageID, err := a.blobs.UploadURL(c.Request.Context(), p.TenantID, req.ContentType)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Upload URL generated successfully", UploadURLResponse{UploadURL: url, StorageID: storageID})
}

func (a *App) fileURL(c *gin.Context) {
	if a.blobs == nil {
		utils.ServiceUnavailableResponse(c, "File storage is not configured")
		return
	}
	p := principal(c)
	if p == nil {
		utils.DomainErrorResponse(c, tenancy.ErrUnauthenticated)
		return
	}
	storageID := c.Query("storage_id")
	if storageID == "" {
		utils.BadRequestResponse(c, "storage_id is required")
		return
	}

	url, err := a.blobs.URL(c.Request.Context(), p.TenantID, storageID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "File URL resolved successfully", gin.H{"url": url})
}
