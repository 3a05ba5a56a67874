package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"elaview/internal/infra/config"
	"elaview/internal/infra/obs"
)

type SpaceHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Availability(c *gin.Context)
	Bookings(c *gin.Context)
}

type SessionHTTP interface {
	Open(c *gin.Context)
	Get(c *gin.Context)
	Close(c *gin.Context)
	Calendar(c *gin.Context)
	Click(c *gin.Context)
	SelectRange(c *gin.Context)
	Hover(c *gin.Context)
	Reset(c *gin.Context)
	SaveDetails(c *gin.Context)
	RestoreDetails(c *gin.Context)
	AttachCreative(c *gin.Context)
	Submit(c *gin.Context)
}

type BookingHTTP interface {
	ChangeStatus(c *gin.Context)
}

type Handlers struct {
	Spaces   SpaceHTTP
	Sessions SessionHTTP
	Bookings BookingHTTP
	Identity gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without touching the process-wide gin mode.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Idempotency-Key",
			userIDHeader,
			userRoleHeader,
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.Identity != nil {
		router.Use(h.Identity)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Spaces != nil {
		api.POST("/spaces", h.Spaces.Create)
		api.GET("/spaces/:id", h.Spaces.Get)
		api.GET("/spaces/:id/availability", h.Spaces.Availability)
		api.GET("/spaces/:id/bookings", h.Spaces.Bookings)
	}
	if h.Sessions != nil {
		api.POST("/spaces/:id/sessions", h.Sessions.Open)
		sessions := api.Group("/sessions/:id")
		sessions.GET("", h.Sessions.Get)
		sessions.DELETE("", h.Sessions.Close)
		sessions.GET("/calendar", h.Sessions.Calendar)
		sessions.POST("/clicks", h.Sessions.Click)
		sessions.POST("/range", h.Sessions.SelectRange)
		sessions.POST("/hover", h.Sessions.Hover)
		sessions.POST("/reset", h.Sessions.Reset)
		sessions.PUT("/details", h.Sessions.SaveDetails)
		sessions.GET("/details", h.Sessions.RestoreDetails)
		sessions.POST("/creative", h.Sessions.AttachCreative)
		sessions.POST("/submit", h.Sessions.Submit)
	}
	if h.Bookings != nil {
		api.POST("/bookings/:id/:action", h.Bookings.ChangeStatus)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
