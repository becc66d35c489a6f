package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JunoAX/schoolbag-go/internal/models"
	"github.com/JunoAX/schoolbag-go/internal/schedule"
)

// AddLibraryItem adds an item to the shared library
func AddLibraryItem(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		item := models.Item{ID: req.ID, Name: req.Name, Image: req.Image}
		if err := coord.AddLibraryItem(c.Request.Context(), item); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Library item added successfully",
			"item_id": req.ID,
		})
	}
}

// UpdateLibraryItem changes a library item's name and/or image
func UpdateLibraryItem(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID := c.Param("id")

		var req UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		if err := coord.UpdateLibraryItem(c.Request.Context(), itemID, req.Name, req.Image); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Library item updated successfully",
			"item_id": itemID,
		})
	}
}

// DeleteLibraryItem removes a library item. Copies already assigned to
// children are left untouched.
func DeleteLibraryItem(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID := c.Param("id")

		if err := coord.RemoveLibraryItem(c.Request.Context(), itemID); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Library item removed successfully",
			"item_id": itemID,
		})
	}
}

// AssignLibraryItem copies a library item into a child's private items
func AssignLibraryItem(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		childName := c.Param("name")
		itemID := c.Param("id")

		if err := coord.AssignLibraryItem(c.Request.Context(), childName, itemID); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Library item assigned successfully",
			"child":   childName,
			"item_id": itemID,
		})
	}
}
