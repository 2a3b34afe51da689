package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadBytes = 20 << 20

// allowedUploadExts lists the attachment types a node may link to.
var allowedUploadExts = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".txt": true, ".md": true, ".csv": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".zip": true,
}

// UploadFile handles POST /api/uploads
// It saves a node attachment under UPLOAD_DIR and returns its public URL
// plus the original file name, ready for attachment_url / attachment_name.
func (h *Handlers) UploadFile(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	if file.Size > maxUploadBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExts[ext] {
		abortWithError(c, http.StatusBadRequest, "File type not allowed")
		return
	}

	// 2. Create the upload directory if it doesn't exist
	uploadPath := h.Config.UploadDir
	if err := os.MkdirAll(uploadPath, 0o755); err != nil {
		h.Log.Error("Failed to create upload dir", "dir", uploadPath, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to save file")
		return
	}

	// 3. Generate a safe unique filename (uuid + extension)
	newFilename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	savePath := filepath.Join(uploadPath, newFilename)

	// 4. Save the file
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		h.Log.Error("Failed to save upload", "path", savePath, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to save file")
		return
	}

	// 5. Return the public URL
	c.JSON(http.StatusOK, gin.H{
		"url":  fmt.Sprintf("%s/uploads/%s", h.Config.BaseURL, newFilename),
		"name": filepath.Base(file.Filename),
	})
}
