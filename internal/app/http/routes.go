package routes

import (
	"net/http"
	"time"

	syncapi "participations-app/internal/api/collectionsync"
	participationsapi "participations-app/internal/api/participations"
	"participations-app/internal/app/http/middleware"
	"participations-app/internal/infra/telemetry"

	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Participations *participationsapi.Handler
	Sync           *syncapi.Handler
	Metrics        *telemetry.Metrics

	RequestTimeout time.Duration
	SyncTimeout    time.Duration
	// Empty disables the /sync guard.
	SyncSecret string
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	participations := r.Group("/participations")
	participations.Use(middleware.Timeout(deps.RequestTimeout))
	participations.GET("", deps.Participations.List)
	participations.GET("/embedded", deps.Participations.ListEmbedded)
	participations.GET("/:id", deps.Participations.Get)
	participations.GET("/:id/embedded", deps.Participations.GetEmbedded)

	// Sync
	r.GET("/sync",
		middleware.SyncGuard(deps.SyncSecret),
		middleware.Timeout(deps.SyncTimeout),
		deps.Sync.Sync,
	)
}
