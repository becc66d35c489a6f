package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JunoAX/schoolbag-go/internal/middleware"
	"github.com/JunoAX/schoolbag-go/internal/schedule"
)

// GetSchedule returns the denormalized schedule snapshot
func GetSchedule(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, coord.Snapshot())
	}
}

// GetCalendar returns one event per date in [start, end] on which the
// child needs at least one item. Defaults to the next 30 days.
func GetCalendar(coord *schedule.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		childName := c.Param("name")

		startParam := c.DefaultQuery("start", time.Now().Format(schedule.DateLayout))
		start, err := time.Parse(schedule.DateLayout, startParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start date. Use YYYY-MM-DD"})
			return
		}

		endParam := c.DefaultQuery("end", start.AddDate(0, 0, 30).Format(schedule.DateLayout))
		end, err := time.Parse(schedule.DateLayout, endParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end date. Use YYYY-MM-DD"})
			return
		}
		if end.Before(start) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
			return
		}

		events, err := coord.CalendarEvents(childName, start, end)
		if err != nil {
			writeScheduleError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"child":  childName,
			"start":  start.Format(schedule.DateLayout),
			"end":    end.Format(schedule.DateLayout),
			"events": events,
			"count":  len(events),
		})
	}
}

// DeleteData wipes the persisted document (parent only, wired in router)
func DeleteData(coord *schedule.Coordinator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := coord.Destroy(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove data", "details": err.Error()})
			return
		}
		username, _ := middleware.GetAuthUsername(c)
		log.Info("all schedule data removed", zap.String("requested_by", username))
		c.JSON(http.StatusOK, gin.H{"message": "All schedule data removed"})
	}
}
