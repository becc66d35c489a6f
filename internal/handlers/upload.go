package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JunoAX/schoolbag-go/internal/config"
	"github.com/JunoAX/schoolbag-go/internal/middleware"
)

// Max upload size (5MB)
const maxUploadSize = 5 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// UploadImage stores an item image and returns the public path to
// reference from an item's image field.
func UploadImage(cfg config.UploadConfig, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file provided"})
			return
		}
		if file.Filename == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No filename provided"})
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid file type. Allowed: .png, .jpg, .jpeg, .gif, .svg, .webp"})
			return
		}
		if file.Size > maxUploadSize {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "File too large (max 5MB)"})
			return
		}

		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create upload directory"})
			return
		}

		// Only allow alphanumeric, dash and underscore in the stored name
		stem := unsafeNameChars.ReplaceAllString(strings.TrimSuffix(filepath.Base(file.Filename), ext), "_")
		safeName := stem + ext
		dest := filepath.Join(cfg.Dir, safeName)

		// If the file exists, add a number suffix
		for counter := 1; ; counter++ {
			if _, err := os.Stat(dest); os.IsNotExist(err) {
				break
			}
			safeName = fmt.Sprintf("%s_%d%s", stem, counter, ext)
			dest = filepath.Join(cfg.Dir, safeName)
		}

		if err := c.SaveUploadedFile(file, dest); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save file", "details": err.Error()})
			return
		}

		username, _ := middleware.GetAuthUsername(c)
		log.Info("image uploaded",
			zap.String("filename", safeName),
			zap.String("uploaded_by", username))

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"path":     cfg.PublicPath + "/" + safeName,
			"filename": safeName,
		})
	}
}
