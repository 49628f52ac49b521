// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stubserver is an in-memory stand-in for the CRM backend, used for
// local development and end-to-end tests of the gateway.
//
// It serves the same /api/v1 routes the client consumes, seeded from the
// fallback dataset so that online and offline listings look alike. It can
// be switched "down" at runtime to answer 503 everywhere, and can demand a
// bearer token to exercise the 401 path.
//
//	/api/v1
//	  ├── /health, /properties/health
//	  ├── /auth/login, /auth/logout, /auth/refresh
//	  ├── /users, /users/register, /users/:id
//	  ├── /leads, /leads/:id, /leads/:id/assign, /leads/:id/status
//	  └── /properties/{sites,buildings,units,owners}/...
//	/metrics
//
// It is a fixture, not a model of the real backend's business rules.
package stubserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/realestatecrm/crmgateway/internal/fallback"
	"github.com/realestatecrm/crmgateway/internal/models"
	"github.com/realestatecrm/crmgateway/pkg/logging"
)

// APIPrefix is the route group every CRM endpoint lives under.
const APIPrefix = "/api/v1"

// DefaultPassword is accepted for every seeded user.
const DefaultPassword = "password"

// TokenTTL is reported as expiresIn on login.
const TokenTTL = time.Hour

// Options configures a Server.
type Options struct {
	// Password is accepted for every user. Defaults to DefaultPassword.
	Password string

	// RequireAuth rejects requests without a known bearer token, except
	// health, login and registration.
	RequireAuth bool

	// Registry receives the stub's request metrics and backs /metrics.
	// Defaults to a private registry.
	Registry *prometheus.Registry

	Logger *logging.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the stub backend.
//
// # Thread Safety
//
// Safe for concurrent use. SetDown and SetRequireAuth take effect on the
// next request.
type Server struct {
	engine      *gin.Engine
	logger      *logging.Logger
	now         func() time.Time
	password    string
	down        atomic.Bool
	requireAuth atomic.Bool

	tokensMu sync.Mutex
	tokens   map[string]models.Role

	users     *table[models.User]
	leads     *table[models.Lead]
	sites     *table[models.Site]
	buildings *table[models.Building]
	units     *table[models.Unit]
	owners    *table[models.Owner]

	requests *prometheus.CounterVec
}

// New builds a Server seeded with the fallback dataset.
//
// # Example
//
//	srv := stubserver.New(stubserver.Options{Logger: logger})
//	go srv.Run(ctx, ":8080")
func New(opts Options) *Server {
	s := &Server{
		logger:   opts.Logger,
		now:      opts.Now,
		password: opts.Password,
		tokens:   make(map[string]models.Role),
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	s.logger = s.logger.With("component", "stubserver")
	if s.now == nil {
		s.now = time.Now
	}
	if s.password == "" {
		s.password = DefaultPassword
	}
	s.requireAuth.Store(opts.RequireAuth)

	seed := fallback.NewDataset(s.now())
	s.users = newTable(func(u models.User) string { return u.ID }, seed.Users())
	s.leads = newTable(func(l models.Lead) string { return l.ID }, seed.Leads())
	s.sites = newTable(func(v models.Site) string { return v.ID }, seed.Sites())
	s.buildings = newTable(func(b models.Building) string { return b.ID }, seed.Buildings())
	s.units = newTable(func(u models.Unit) string { return u.ID }, seed.Units(models.UnitFilter{}))
	s.owners = newTable(func(o models.Owner) string { return o.ID }, seed.Owners())

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s.requests = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "stub",
			Name:      "requests_total",
			Help:      "Requests served by the stub backend by route and status",
		},
		[]string{"route", "status"},
	)

	s.initRouter(reg)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// SetDown makes every API route answer 503 while down is true.
func (s *Server) SetDown(down bool) {
	s.down.Store(down)
	s.logger.Info("stub availability changed", "down", down)
}

// SetRequireAuth toggles bearer-token enforcement.
func (s *Server) SetRequireAuth(required bool) { s.requireAuth.Store(required) }

// IssueToken registers a token for role, as a successful login would.
func (s *Server) IssueToken(role models.Role) string {
	token := newID()
	s.tokensMu.Lock()
	s.tokens[token] = role
	s.tokensMu.Unlock()
	return token
}

// RevokeTokens forgets every issued token.
func (s *Server) RevokeTokens() {
	s.tokensMu.Lock()
	s.tokens = make(map[string]models.Role)
	s.tokensMu.Unlock()
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("stub backend listening", "addr", addr, "prefix", APIPrefix)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) initRouter(reg *prometheus.Registry) {
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(otelgin.Middleware("crm-stub"))
	s.engine.Use(s.observe())

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	v1 := s.engine.Group(APIPrefix)
	v1.Use(s.availability(), s.authenticate())

	v1.GET("/health", s.health)
	v1.GET("/properties/health", s.health)

	auth := v1.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/logout", s.logout)
	auth.POST("/refresh", s.refresh)

	users := v1.Group("/users")
	users.POST("/register", s.createUser)
	users.POST("", s.createUser)
	users.GET("", s.listUsers)
	users.GET("/:id", s.getUser)
	users.PUT("/:id", s.updateUser)
	users.DELETE("/:id", s.deleteUser)

	leads := v1.Group("/leads")
	leads.GET("", s.listLeads)
	leads.POST("", s.createLead)
	leads.GET("/:id", s.getLead)
	leads.PUT("/:id", s.updateLead)
	leads.DELETE("/:id", s.deleteLead)
	leads.PUT("/:id/assign", s.assignLead)
	leads.PATCH("/:id/status", s.updateLeadStatus)

	props := v1.Group("/properties")

	sites := props.Group("/sites")
	sites.GET("", s.listSites)
	sites.POST("", s.createSite)
	sites.GET("/:id", s.getSite)
	sites.PUT("/:id", s.updateSite)
	sites.DELETE("/:id", s.deleteSite)
	sites.GET("/:id/buildings", s.listSiteBuildings)

	buildings := props.Group("/buildings")
	buildings.GET("", s.listBuildings)
	buildings.POST("", s.createBuilding)
	buildings.GET("/:id", s.getBuilding)
	buildings.PUT("/:id", s.updateBuilding)
	buildings.DELETE("/:id", s.deleteBuilding)

	units := props.Group("/units")
	units.GET("", s.listUnits)
	units.POST("", s.createUnit)
	units.GET("/:id", s.getUnit)
	units.PUT("/:id", s.updateUnit)
	units.DELETE("/:id", s.deleteUnit)
	units.PATCH("/:id/status", s.updateUnitStatus)
	units.PATCH("/:id/assign-owner", s.assignUnitOwner)

	owners := props.Group("/owners")
	owners.GET("", s.listOwners)
	owners.POST("", s.createOwner)
	owners.GET("/:id", s.getOwner)
	owners.PUT("/:id", s.updateOwner)
	owners.DELETE("/:id", s.deleteOwner)
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.logger.Debug("stub request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", s.now().Sub(start))
	}
}

func (s *Server) availability() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.down.Load() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service Unavailable"})
			return
		}
		c.Next()
	}
}

// publicRoutes never require a token.
var publicRoutes = map[string]bool{
	APIPrefix + "/health":            true,
	APIPrefix + "/properties/health": true,
	APIPrefix + "/auth/login":        true,
	APIPrefix + "/users/register":    true,
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireAuth.Load() || publicRoutes[c.FullPath()] {
			c.Next()
			return
		}
		if _, ok := s.roleFor(bearerToken(c)); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) roleFor(token string) (models.Role, bool) {
	if token == "" {
		return "", false
	}
	s.tokensMu.Lock()
	defer s.tokensMu.Unlock()
	role, ok := s.tokens[token]
	return role, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
