package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JunoAX/schoolbag-go/internal/auth"
	"github.com/JunoAX/schoolbag-go/internal/config"
	"github.com/JunoAX/schoolbag-go/internal/middleware"
	"github.com/JunoAX/schoolbag-go/internal/schedule"
)

// Deps carries everything the route table needs.
type Deps struct {
	Coordinator   *schedule.Coordinator
	Authenticator *auth.Authenticator
	JWT           *auth.JWTService
	Uploads       config.UploadConfig
	Log           *zap.Logger
	Version       string
}

// RegisterRoutes wires the full HTTP surface onto the engine.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": deps.Version,
		})
	})

	r.POST("/api/auth/login", Login(deps.Authenticator, deps.JWT))

	// Uploaded item images are served statically
	r.Static(deps.Uploads.PublicPath, deps.Uploads.Dir)

	api := r.Group("/api", middleware.RequireAuth(deps.JWT))
	{
		api.GET("/schedule", GetSchedule(deps.Coordinator))
		api.GET("/children/:name/calendar", GetCalendar(deps.Coordinator))

		api.POST("/children", CreateChild(deps.Coordinator))
		api.DELETE("/children/:name", DeleteChild(deps.Coordinator))

		api.POST("/children/:name/items", AddItem(deps.Coordinator))
		api.PATCH("/children/:name/items/:id", UpdateItem(deps.Coordinator))
		api.DELETE("/children/:name/items/:id", DeleteItem(deps.Coordinator))

		api.PUT("/children/:name/schedule/:day", SetScheduleDay(deps.Coordinator))
		api.PUT("/children/:name/exceptions", AddException(deps.Coordinator))
		api.DELETE("/children/:name/exceptions/:date", DeleteException(deps.Coordinator))

		api.PUT("/switchover", SetSwitchover(deps.Coordinator))

		api.POST("/library", AddLibraryItem(deps.Coordinator))
		api.PATCH("/library/:id", UpdateLibraryItem(deps.Coordinator))
		api.DELETE("/library/:id", DeleteLibraryItem(deps.Coordinator))
		api.POST("/children/:name/library/:id", AssignLibraryItem(deps.Coordinator))

		api.POST("/upload", UploadImage(deps.Uploads, deps.Log))

		api.DELETE("/data", middleware.RequireParent(), DeleteData(deps.Coordinator, deps.Log))
	}
}
