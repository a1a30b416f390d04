// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/websearch/internal/engine"
	"github.com/pdiddy/websearch/internal/search"
	"github.com/pdiddy/websearch/internal/store"
	"github.com/pdiddy/websearch/pkg/types"
)

// Service is the part of the engine the handlers use.
type Service interface {
	SearchRanked(ctx context.Context, query string) ([]types.ResultRecord, error)
	MarkRelevant(ctx context.Context, query, link string) error
}

// Handler wires the HTTP transport to the search engine.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// NewHandler constructs the HTTP handler.
func NewHandler(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:    svc,
		logger: logger.With("component", "web"),
	}
}

// pageData is the model rendered by index.html.
type pageData struct {
	Query   string
	Results []types.ResultRecord
	Error   string
}

type relevantRequest struct {
	Query string `json:"query"`
	Link  string `json:"link"`
}

type relevantResponse struct {
	Success bool `json:"success"`
}

// Index renders the empty search form.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{})
}

// SearchForm runs the ranked search for the posted query and renders the
// results. An empty query renders the form alone.
func (h *Handler) SearchForm(c *gin.Context) {
	query := c.PostForm("query")

	results, err := h.svc.SearchRanked(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyQuery) {
			c.HTML(http.StatusOK, "index.html", pageData{})
			return
		}
		status := errorStatus(err)
		h.logger.Error("search failed", "query", query, "status", status, "error", err)
		c.HTML(status, "index.html", pageData{Query: query, Error: errorMessage(status)})
		return
	}

	c.HTML(http.StatusOK, "index.html", pageData{Query: query, Results: results})
}

// Relevant records relevance feedback for a (query, link) pair. Success is
// reported whether or not a row matched; only an undecodable body is
// rejected.
func (h *Handler) Relevant(c *gin.Context) {
	var req relevantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, relevantResponse{Success: false})
		return
	}

	if err := h.svc.MarkRelevant(c.Request.Context(), req.Query, req.Link); err != nil {
		h.logger.Error("mark relevant failed", "query", req.Query, "link", req.Link, "error", err)
		c.JSON(http.StatusInternalServerError, relevantResponse{Success: false})
		return
	}

	c.JSON(http.StatusOK, relevantResponse{Success: true})
}

// SearchJSON returns the ranked results for q without page content.
func (h *Handler) SearchJSON(c *gin.Context) {
	query := c.Query("q")

	results, err := h.svc.SearchRanked(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status := errorStatus(err)
		h.logger.Error("search failed", "query", query, "status", status, "error", err)
		c.JSON(status, gin.H{"error": errorMessage(status)})
		return
	}

	out := make([]types.ResultRecord, len(results))
	for i, r := range results {
		out[i] = r.WithoutContent()
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": out})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// errorMessage is the client-facing text for a failed search. Error
// details stay in the log.
func errorMessage(status int) string {
	if status == http.StatusBadGateway {
		return "search service unavailable"
	}
	return "internal error"
}

// errorStatus maps search API failures to 502 and everything else,
// storage faults included, to 500.
func errorStatus(err error) int {
	var storeErr *store.Error
	switch {
	case errors.As(err, &storeErr):
		return http.StatusInternalServerError
	case search.IsAPIError(err), errors.Is(err, search.ErrMalformedPage), errors.Is(err, search.ErrMissingCredentials):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
