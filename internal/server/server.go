package server

import (
	"context"
	"fmt"

	"github.com/grachmannico95/einvoice-sync/internal/config"
	"github.com/grachmannico95/einvoice-sync/internal/handler"
	"github.com/grachmannico95/einvoice-sync/internal/middleware"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Health      *handler.HealthHandler
	Carrier     *handler.CarrierHandler
	Sync        *handler.SyncHandler
	Transaction *handler.TransactionHandler
	Invoice     *handler.InvoiceHandler
}

type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	logger   *logger.Logger
	handlers Handlers
}

func New(cfg *config.Config, log *logger.Logger, handlers Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		cfg:      cfg,
		logger:   log,
		handlers: handlers,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info(context.Background(), "Starting HTTP server",
		"address", addr,
	)

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(echoMiddleware.CORS())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.UserContext())
	s.echo.Use(middleware.Logging(s.logger))
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.echo.GET("/health", h.Health.Check)

	carriers := s.echo.Group("/carriers")
	carriers.GET("", h.Carrier.List)
	carriers.POST("", h.Carrier.Create)
	carriers.PUT("/:id/default", h.Carrier.SetDefault)
	carriers.DELETE("/:id", h.Carrier.Delete)

	sync := s.echo.Group("/sync")
	sync.POST("", h.Sync.Sync)
	sync.GET("/status", h.Sync.Status)
	sync.GET("/history", h.Sync.History)
	sync.PUT("/auto", h.Sync.SetAutoSync)

	s.echo.GET("/transactions", h.Transaction.List)

	invoices := s.echo.Group("/invoices")
	invoices.POST("/lookup", h.Invoice.Lookup)
	invoices.POST("/scan", h.Invoice.Scan)
	invoices.POST("/import", h.Invoice.Import)
}

func (s *Server) Handler() *echo.Echo {
	return s.echo
}
