package http

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/dkeye/stagehand/internal/adapters/signal"
	"github.com/dkeye/stagehand/internal/app/orch"
	"github.com/dkeye/stagehand/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Client bundles served from <static_path>/<name>.
var Bundles = []string{"camera", "control", "navi"}

// SetupRouter builds the gin engine. gatherer may be nil, in which case
// /metrics is not served.
func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, gatherer prometheus.Gatherer, version string) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	for _, name := range Bundles {
		dir := filepath.Join(cfg.StaticPath, name)
		index := filepath.Join(dir, "index.html")
		r.GET("/"+name, func(c *gin.Context) {
			c.File(index)
		})
		r.Static("/"+name, dir)
	}
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/control")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:         cfg.ReadLimit,
		PingPeriod:        cfg.PingPeriod,
		SendBuffer:        cfg.SendBuffer,
		MessagesPerSecond: cfg.RateLimit,
		Burst:             cfg.RateBurst,
	})
	r.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("addr", c.ClientIP()).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	h := &Handlers{
		Registry:  o.Registry,
		Photos:    o.Photos,
		Orch:      o,
		Version:   version,
		PublicURL: cfg.PublicURL,
	}
	r.GET("/healthz", h.Health)
	r.GET("/version", h.ShowVersion)
	r.GET("/qr/:role", h.QR)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/state", h.State)
	api.GET("/photos", h.ListPhotos)
	api.DELETE("/photos", func(c *gin.Context) { h.ResetPhotos(ctx, c) })
	api.GET("/photos/:number/:count/thumbnail", h.Thumbnail)

	return r
}

// WithCORS opens every route to any origin, as the clients are loaded
// from whatever host the operator points them at.
func WithCORS(h http.Handler) http.Handler {
	return cors.AllowAll().Handler(h)
}
