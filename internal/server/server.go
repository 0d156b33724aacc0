// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"

	"SafeHerAPI/internal/config"
	"SafeHerAPI/internal/handler"
	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/middleware"
	"SafeHerAPI/internal/websocket"

	"github.com/gorilla/mux"
)

type Server struct {
	httpServer *http.Server
	router     *mux.Router
	cfg        *config.Config
	log        *logger.Logger
}

func New(cfg *config.Config, log *logger.Logger) *Server {
	router := mux.NewRouter()

	server := &Server{
		router: router,
		cfg:    cfg,
		log:    log,
		httpServer: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}

	return server
}

// RegisterHandlers wires all routes. The SOS surface is registered
// outside the rate limiter: an emergency must never get a 429.
func (s *Server) RegisterHandlers(
	sosHandler *handler.SOSHandler,
	contactHandler *handler.ContactHandler,
	reportHandler *handler.ReportHandler,
	zoneHandler *handler.ZoneHandler,
	alertHandler *handler.AlertHandler,
	locationHandler *handler.LocationHandler,
	settingsHandler *handler.SettingsHandler,
	healthHandler *handler.HealthHandler,
	hub *websocket.Hub,
) {
	common := []mux.MiddlewareFunc{
		middleware.RequestLogger(s.log),
		middleware.CORS(s.cfg.Security.CORSAllowedOrigins, s.cfg.Security.CORSAllowedMethods),
		middleware.Recovery(s.log),
	}

	sos := s.router.PathPrefix("/api/v1").Subrouter()
	sos.Use(common...)
	sosHandler.RegisterRoutes(sos)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(common...)
	if s.cfg.Security.EnableRateLimit {
		api.Use(middleware.RateLimit(s.cfg.Security.RateLimitPerMinute))
	}

	contactHandler.RegisterRoutes(api)
	reportHandler.RegisterRoutes(api)
	zoneHandler.RegisterRoutes(api)
	alertHandler.RegisterRoutes(api)
	locationHandler.RegisterRoutes(api)
	settingsHandler.RegisterRoutes(api)

	healthHandler.RegisterRoutes(s.router)

	s.router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(hub, w, r, s.log)
	})

	s.log.Info("All handlers registered")
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}
