package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roombridge/internal/app"
	"github.com/dkeye/roombridge/internal/config"
	"github.com/dkeye/roombridge/internal/core"
	"github.com/dkeye/roombridge/internal/domain"
	"github.com/dkeye/roombridge/internal/job"
)

// JanusHandler serves the client side of the gateway bridge.
type JanusHandler interface {
	HandleJanus(ctx context.Context, c *gin.Context)
}

type Deps struct {
	Janus    JanusHandler
	Events   app.EventSink
	Streams  core.StreamRegistry
	Gatherer prometheus.Gatherer
}

type eventAccepted struct {
	JobID string `json:"jobId"`
	Job   string `json:"job"`
}

type streamList struct {
	Streams []domain.Stream `json:"streams"`
	Count   int             `json:"count"`
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	api.GET("/ws/janus", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws janus endpoint hit")
		deps.Janus.HandleJanus(ctx, c)
	})
	api.POST("/events", func(c *gin.Context) {
		handleEvent(c, deps.Events)
	})
	api.GET("/streams", func(c *gin.Context) {
		snapshot := deps.Streams.Snapshot()
		c.JSON(http.StatusOK, streamList{Streams: snapshot, Count: len(snapshot)})
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}

func handleEvent(c *gin.Context, sink app.EventSink) {
	var ev domain.GatewayEvent
	if err := c.ShouldBindJSON(&ev); err != nil || ev.Plugin == "" || ev.Event == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid event"})
		return
	}

	j, err := sink.Dispatch(ev)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, eventAccepted{JobID: j.ID(), Job: j.Name()})
	case errors.Is(err, app.ErrNoFactory):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, app.ErrDispatcherStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, job.ErrMissingField):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("event", ev.Key().String()).Msg("event rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
