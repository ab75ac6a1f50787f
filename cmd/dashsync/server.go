package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightpath/dashsync/dashboard"
	"github.com/brightpath/dashsync/model"
)

// maxUpdateBody bounds optimistic-update request bodies.
const maxUpdateBody = 1 << 20 // 1MB

// server exposes the engine's read-only view and its two write affordances
// (refetch, optimistic update) to the rendering layer.
type server struct {
	addr      string
	svc       *dashboard.Service
	httpSrv   *http.Server
	startTime time.Time
}

func newServer(addr string, svc *dashboard.Service) *server {
	return &server{addr: addr, svc: svc}
}

// routes builds the gin engine serving the rendering-layer API.
func (s *server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/dashboard", s.handleDashboard)
	r.POST("/api/dashboard/refetch", s.handleRefetch)
	r.PUT("/api/dashboard/:entity", s.handleUpdate)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		s.svc.Metrics().Registry(),
		promhttp.HandlerOpts{})))
	return r
}

// Start serves HTTP requests until Stop is called.
func (s *server) Start() error {
	r := s.routes()

	s.httpSrv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.startTime = time.Now()

	if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *server) Stop() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *server) handleHealth(c *gin.Context) {
	view := s.svc.View()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"uptime":          time.Since(s.startTime).String(),
		"last_fetch_time": view.LastFetchTime,
	})
}

func (s *server) handleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, viewResponse(s.svc.View()))
}

func (s *server) handleRefetch(c *gin.Context) {
	if err := s.svc.Refetch(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "refetching"})
}

func (s *server) handleUpdate(c *gin.Context) {
	entity, err := model.ParseEntityType(c.Param("entity"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUpdateBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	payload, err := model.DecodePayload(entity, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.svc.UpdateData(entity, payload); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, viewResponse(s.svc.View()))
}

// viewResponse converts a View into its JSON shape; errors become strings.
func viewResponse(v dashboard.View) gin.H {
	var errText *string
	if v.Err != nil {
		text := v.Err.Error()
		errText = &text
	}
	return gin.H{
		"snapshot":        v.Snapshot,
		"loading":         v.Loading,
		"refreshing":      v.Refreshing,
		"error":           errText,
		"last_fetch_time": v.LastFetchTime,
		"retry_count":     v.RetryCount,
	}
}
