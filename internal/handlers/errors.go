package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JunoAX/schoolbag-go/internal/schedule"
)

// writeScheduleError maps coordinator errors onto HTTP status codes.
// Anything that is not a domain error is a storage failure.
func writeScheduleError(c *gin.Context, err error) {
	switch {
	case schedule.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case schedule.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case schedule.IsInvalid(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update schedule", "details": err.Error()})
	}
}
