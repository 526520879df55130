package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/auth"
	"github.com/eventdesk/backend/internal/emaillogs"
	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/export"
	"github.com/eventdesk/backend/internal/metrics"
	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/registrations"
	"github.com/eventdesk/backend/pkg/response"
)

// handlers groups everything the router mounts.
type handlers struct {
	auth          *auth.Handler
	events        *events.Handler
	registrations *registrations.Handler
	export        *export.Handler
	emails        *emaillogs.Handler
}

type routerDeps struct {
	handlers
	jwt      *auth.JWTService
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	origins  []string
	logger   *zap.Logger
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(d.origins))
	router.Use(middleware.Logger(d.logger))
	router.Use(middleware.Metrics(d.metrics))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{})))
	router.NoRoute(func(c *gin.Context) { response.NotFound(c, http.StatusText(http.StatusNotFound)) })

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", d.auth.Register)
		authGroup.POST("/login", d.auth.Login)
	}

	api := router.Group("")
	api.Use(middleware.JWT(d.jwt))
	{
		api.GET("/users/me", d.auth.Me)

		api.GET("/events", d.events.List)
		api.GET("/events/joined", d.events.ListJoined)
		api.GET("/events/:id", d.events.GetByID)

		api.GET("/events/:id/registration", d.registrations.Get)
		api.POST("/events/:id/registration", d.registrations.Create)
		api.PUT("/events/:id/registration", d.registrations.Update)
		api.DELETE("/events/:id/registration", d.registrations.Delete)
	}

	admin := api.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", d.auth.List)
		admin.POST("/users/:id/admin", d.auth.Promote)
		admin.DELETE("/users/:id/admin", d.auth.Demote)

		admin.POST("/events", d.events.Create)
		admin.PUT("/events/:id", d.events.Update)
		admin.DELETE("/events/:id", d.events.Delete)

		admin.GET("/events/:id/registrations", d.registrations.ListByEvent)
		admin.DELETE("/events/:id/registrations/:userId", d.registrations.AdminDelete)

		admin.GET("/events/:id/export", d.export.Download)
		admin.POST("/events/:id/export/archive", d.export.Archive)

		admin.GET("/events/:id/emails", d.emails.ListByEvent)
		admin.POST("/events/:id/emails/:emailId/resend", d.emails.Resend)
	}
	return router
}
