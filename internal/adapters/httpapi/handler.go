// Package httpapi exposes the portal service over HTTP. Each request acts on
// the device named by the X-Device-ID header.
package httpapi

import (
	"net/http"
	"time"

	"heritagecore/internal/core"

	"github.com/gin-gonic/gin"
)

// DeviceHeader selects the device a request acts on.
const DeviceHeader = "X-Device-ID"

const (
	ctxDevice  = "heritagecore.device"
	ctxSession = "heritagecore.session"
)

// Option customises a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger core.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(metrics http.Handler) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// Handler routes portal requests to a core.Service.
type Handler struct {
	svc     *core.Service
	logger  core.Logger
	metrics http.Handler
	engine  *gin.Engine
}

// NewHandler builds the router for svc.
func NewHandler(svc *core.Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: core.NewLogger(core.LogConfig{Level: core.LogError})}
	for _, opt := range opts {
		opt(h)
	}
	h.engine = gin.New()
	h.engine.Use(gin.Recovery(), h.requestLogger(), h.device())
	h.routes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.engine.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	r := h.engine
	r.GET("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
	r.GET("/media/*key", h.handleMedia)

	api := r.Group("/api/v1")
	api.GET("/villages", h.handleVillages)
	api.POST("/session", h.handleLogin)
	api.GET("/session", h.handleCurrentSession)
	api.DELETE("/session", h.handleLogout)

	authed := api.Group("", h.requireSession())
	authed.GET("/gate", h.handleGate)
	authed.PUT("/gate/village", h.handleSelectVillage)
	authed.PUT("/gate/tab", h.handleSelectTab)
	authed.POST("/gate/challenge", h.handleChallenge)
	authed.DELETE("/gate/challenge", h.handleCancelChallenge)

	authed.GET("/gallery", h.handleGallery)
	authed.GET("/chat", h.handleChat)
	authed.POST("/chat", h.handlePostMessage)

	authed.GET("/items", h.handleSearchItems)
	authed.POST("/items", h.handleCreateItem)
	authed.PUT("/items/:id", h.handleUpdateItem)
	authed.DELETE("/items/:id", h.handleDeleteItem)
	authed.POST("/items/:id/media", h.handleUploadMedia)

	authed.GET("/lineage", h.handleLineage)
	authed.PUT("/lineage/:relation", h.handleSetLineageSlot)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"device", c.GetHeader(DeviceHeader),
			"duration", time.Since(start),
		)
	}
}

func (h *Handler) device() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxDevice, h.svc.Device(c.GetHeader(DeviceHeader)))
		c.Next()
	}
}

func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := deviceOf(c).Session(c.Request.Context())
		if !ok {
			writeError(c, http.StatusUnauthorized, codeUnauthorized, "login required")
			c.Abort()
			return
		}
		c.Set(ctxSession, session)
		c.Next()
	}
}

func deviceOf(c *gin.Context) *core.Device {
	return c.MustGet(ctxDevice).(*core.Device)
}

func sessionOf(c *gin.Context) core.Session {
	return c.MustGet(ctxSession).(core.Session)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
