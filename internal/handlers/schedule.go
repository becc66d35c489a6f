package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JunoAX/schoolbag-go/internal/schedule"
)

type SetScheduleDayRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type AddExceptionRequest struct {
	Date    string   `json:"date" binding:"required"`
	ItemIDs []string `json:"item_ids"`
}

type SetSwitchoverRequest struct {
	Time string `json:"time" binding:"required"`
}

// SetScheduleDay replaces the item sequence for one weekday
func SetScheduleDay(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		childName := c.Param("name")
		day := c.Param("day")

		var req SetScheduleDayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		if req.ItemIDs == nil {
			req.ItemIDs = []string{}
		}

		if err := coord.SetWeeklySchedule(c.Request.Context(), childName, day, req.ItemIDs); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":  "Schedule updated successfully",
			"child":    childName,
			"day":      day,
			"item_ids": req.ItemIDs,
		})
	}
}

// AddException sets a date-specific override. An empty item list marks a
// day with nothing needed, e.g. a day off school.
func AddException(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		childName := c.Param("name")

		var req AddExceptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		if req.ItemIDs == nil {
			req.ItemIDs = []string{}
		}

		if err := coord.AddException(c.Request.Context(), childName, req.Date, req.ItemIDs); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":  "Exception added successfully",
			"child":    childName,
			"date":     req.Date,
			"item_ids": req.ItemIDs,
		})
	}
}

// DeleteException removes the override for one date
func DeleteException(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		childName := c.Param("name")
		date := c.Param("date")

		if err := coord.RemoveException(c.Request.Context(), childName, date); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Exception removed successfully",
			"child":   childName,
			"date":    date,
		})
	}
}

// SetSwitchover stores the time of day when the display flips to
// tomorrow. Invalid input normalizes to 12:00 rather than failing.
func SetSwitchover(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetSwitchoverRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		if err := coord.SetSwitchoverTime(c.Request.Context(), req.Time); err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":         "Switchover time updated successfully",
			"switchover_time": schedule.NormalizeSwitchover(req.Time),
		})
	}
}
