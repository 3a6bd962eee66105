package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/cvs"
	"jobtracker/internal/jobs"
	"jobtracker/internal/services/health"
	"jobtracker/internal/shared/config"
	"jobtracker/internal/shared/metrics"
	"jobtracker/internal/shared/server/middleware"
	"jobtracker/internal/shared/server/respond"
	"jobtracker/internal/shared/storage/db"
	"jobtracker/internal/webhooks"
)

// RouterDeps holds the handlers and shared state the router mounts.
type RouterDeps struct {
	Config          config.Config
	JobHandler      *jobs.Handler
	CvHandler       *cvs.Handler
	WorkflowHandler *webhooks.Handler
	// Cache is nil when the in-memory repositories are in use.
	Cache *db.Cache
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.RedirectTrailingSlash = false

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		metrics.Middleware(),
		middleware.RateLimit(middleware.RateLimitConfig{
			RPS:   deps.Config.RateLimitRPS,
			Burst: deps.Config.RateLimitBurst,
		}),
	)
	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	r.GET("/metrics", metrics.Handler())
	register(&r.RouterGroup, deps)
	register(r.Group("/api/v1"), deps)

	return r
}

func register(rg *gin.RouterGroup, deps RouterDeps) {
	rg.GET("/health", healthCheck(health.NewService(deps.Cache)))
	if deps.JobHandler != nil {
		deps.JobHandler.RegisterRoutes(rg)
	}
	if deps.CvHandler != nil {
		deps.CvHandler.RegisterRoutes(rg)
	}
	if deps.WorkflowHandler != nil {
		deps.WorkflowHandler.RegisterRoutes(rg)
	}
}

func healthCheck(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		respond.OK(c, svc.Status())
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
