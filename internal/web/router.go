// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves the search form, the relevance feedback endpoint, and
// a JSON search endpoint over gin.
package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/websearch/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// NewRouter wires the handlers into a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(h.logger),
	)
	router.SetHTMLTemplate(pageTemplates)

	router.GET("/", h.Index)
	router.POST("/", h.SearchForm)
	router.POST("/relevant", h.Relevant)
	router.GET("/api/search", h.SearchJSON)
	router.GET("/healthz", h.Health)

	return router
}

// NewServer returns an http.Server for the router using cfg's address and
// timeouts.
func NewServer(cfg types.ServerConfig, h *Handler) *http.Server {
	return &http.Server{
		Addr:           cfg.Address,
		Handler:        NewRouter(h),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
