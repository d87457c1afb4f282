// Package web exposes campaigns, cadet progress and the shop over HTTP.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/missionhq/internal/logger"
)

// RouterConfig holds the handlers to mount. Nil handlers leave their routes
// out.
type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string // otelgin server name; tracing middleware is skipped when empty
	Ping        func(ctx context.Context) error

	Campaigns *CampaignHandler
	Cadets    *CadetHandler
	Shop      *ShopHandler
	QR        *QRHandler
	Briefs    *BriefHandler
}

// NewRouter builds the gin engine and its middleware, and mounts the routes
// of every non-nil handler in cfg.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(TraceContext())
	r.Use(RequestLogger(cfg.Log))
	r.Use(Recovery(cfg.Log))

	r.GET("/healthz", func(c *gin.Context) {
		if cfg.Ping != nil {
			if err := cfg.Ping(c.Request.Context()); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Campaigns
	if h := cfg.Campaigns; h != nil {
		api.GET("/campaigns", h.List)
		api.POST("/campaigns", h.Import)
		api.GET("/campaigns/:id", h.Get)
	}

	// Cadets
	if h := cfg.Cadets; h != nil {
		api.POST("/campaigns/:id/cadets/:user", h.Initialize)
		api.GET("/campaigns/:id/cadets/:user/progress", h.Progress)
		api.POST("/cadets/:user/missions/:mission/transitions", h.Transition)
		api.POST("/cadets/:user/missions/:mission/reconcile", h.Reconcile)
		api.GET("/cadets/:user/standing", h.Standing)
		api.GET("/cadets/:user/events", h.Events)
	}

	// QR confirmation
	if h := cfg.QR; h != nil {
		api.POST("/missions/:mission/qr", h.Issue)
		api.POST("/cadets/:user/missions/:mission/qr", h.Redeem)
	}

	// Shop
	if h := cfg.Shop; h != nil {
		api.GET("/shop", h.List)
		api.POST("/shop", h.Add)
		api.GET("/cadets/:user/purchases", h.Purchases)
		api.POST("/cadets/:user/purchases", h.Buy)
	}

	// Briefs
	if h := cfg.Briefs; h != nil {
		api.POST("/briefs", h.Draft)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorEnvelope{Error: APIError{Code: "not_found", Message: "no such route"}})
	})
	return r
}
