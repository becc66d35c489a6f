package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JunoAX/schoolbag-go/internal/schedule"
)

type CreateChildRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateChild adds a new child with an empty weekly schedule
func CreateChild(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateChildRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		if err := coord.AddChild(c.Request.Context(), req.Name); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Child added successfully",
			"name":    req.Name,
		})
	}
}

// DeleteChild removes a child and all of their items and schedules
func DeleteChild(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		if err := coord.RemoveChild(c.Request.Context(), name); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Child removed successfully",
			"name":    name,
		})
	}
}
