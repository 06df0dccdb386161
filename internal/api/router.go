package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.metricsMiddleware)

	// Prometheus scrape endpoint (no auth required)
	r.Handle("/metrics", metricsHandler())

	r.Route("/api", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Session endpoints. Rate limited; auth context is read from
		// cookies inside the handlers themselves.
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitMiddleware)
			r.Post("/auth/login", s.handleLogin)
			r.Post("/auth/refresh", s.handleRefresh)
			r.Post("/auth/logout", s.handleLogout)
		})

		// Everything below resolves the caller's principal. Resolution is
		// soft: anonymous requests pass through and the permission gates
		// on each subtree decide.
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Live event stream. Requires a logged-in caller; channel
			// subscription happens over the socket.
			r.Get("/events", s.handleEvents)

			// Room endpoints
			r.Route("/rooms", func(r chi.Router) {
				r.With(s.requirePermission("ROOM", "READ")).Get("/", s.handleListRooms)
				r.With(s.requirePermission("ROOM", "WRITE")).Post("/", s.handleCreateRoom)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission("ROOM", "READ")).Get("/", s.handleGetRoom)
					r.With(s.requirePermission("ROOM", "READ")).Get("/devices", s.handleListRoomDevices)
					r.With(s.requirePermission("ROOM", "WRITE")).Put("/", s.handleUpdateRoom)
					r.With(s.requirePermission("ROOM", "WRITE")).Delete("/", s.handleDeleteRoom)
				})
			})

			// Device endpoints
			r.Route("/devices", func(r chi.Router) {
				r.With(s.requirePermission("DEVICE", "READ")).Get("/", s.handleListDevices)
				r.With(s.requirePermission("DEVICE", "WRITE")).Post("/", s.handleCreateDevice)
				r.With(s.requirePermission("DEVICE", "WRITE")).Post("/import", s.handleImportDevices)
				r.With(s.requirePermission("STATS", "READ")).Get("/stats", s.handleDeviceStats)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission("DEVICE", "READ")).Get("/", s.handleGetDevice)
					r.With(s.requirePermission("DEVICE", "READ")).Get("/readings", s.handleListDeviceReadings)
					r.With(s.requirePermission("STATS", "READ")).Get("/average", s.handleDeviceAverage)
					r.With(s.requirePermission("DEVICE", "WRITE")).Put("/", s.handleUpdateDevice)
					r.With(s.requirePermission("DEVICE", "WRITE")).Delete("/", s.handleDeleteDevice)
				})
			})

			// Product endpoints
			r.Route("/products", func(r chi.Router) {
				r.With(s.requirePermission("PRODUCT", "READ")).Get("/", s.handleListProducts)
				r.With(s.requirePermission("PRODUCT", "WRITE")).Post("/", s.handleCreateProduct)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission("PRODUCT", "READ")).Get("/", s.handleGetProduct)
					r.With(s.requirePermission("PRODUCT", "WRITE")).Put("/", s.handleUpdateProduct)
					r.With(s.requirePermission("PRODUCT", "WRITE")).Delete("/", s.handleDeleteProduct)
				})
			})

			// Session activity trail, admin only
			r.With(s.requirePermission("USER", "READ")).Get("/audit", s.handleListAuditEvents)

			// User administration
			r.Route("/users", func(r chi.Router) {
				r.With(s.requirePermission("USER", "READ")).Get("/", s.handleListUsers)
				r.With(s.requirePermission("USER", "WRITE")).Post("/", s.handleCreateUser)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission("USER", "READ")).Get("/", s.handleGetUser)
					r.With(s.requirePermission("USER", "WRITE")).Delete("/", s.handleDeleteUser)
					r.With(s.requirePermission("USER", "WRITE")).Post("/revoke-sessions", s.handleRevokeUserSessions)
				})
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"ws_clients":     0,
	}
	if s.hub != nil {
		resp["ws_clients"] = s.hub.ClientCount()
	}
	if s.db != nil {
		stats := s.db.Stats()
		resp["db"] = map[string]any{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
