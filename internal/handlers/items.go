package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JunoAX/schoolbag-go/internal/models"
	"github.com/JunoAX/schoolbag-go/internal/schedule"
)

type AddItemRequest struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Image string `json:"image"`
}

type UpdateItemRequest struct {
	Name  *string `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}

// AddItem adds a private item to a child
func AddItem(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		childName := c.Param("name")

		var req AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		item := models.Item{ID: req.ID, Name: req.Name, Image: req.Image}
		if err := coord.AddItem(c.Request.Context(), childName, item); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Item added successfully",
			"child":   childName,
			"item_id": req.ID,
		})
	}
}

// UpdateItem changes a child item's name and/or image
func UpdateItem(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		childName := c.Param("name")
		itemID := c.Param("id")

		var req UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		if err := coord.UpdateItem(c.Request.Context(), childName, itemID, req.Name, req.Image); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Item updated successfully",
			"child":   childName,
			"item_id": itemID,
		})
	}
}

// DeleteItem removes a child's item and purges it from their schedules
func DeleteItem(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		childName := c.Param("name")
		itemID := c.Param("id")

		if err := coord.RemoveItem(c.Request.Context(), childName, itemID); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Item removed successfully",
			"child":   childName,
			"item_id": itemID,
		})
	}
}
