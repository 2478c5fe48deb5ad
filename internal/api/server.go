package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"kinogate/internal/cache"
	"kinogate/internal/clock"
	"kinogate/internal/config"
	"kinogate/internal/database"
	"kinogate/internal/handlers"
	"kinogate/internal/logger"
	"kinogate/internal/messaging"
	"kinogate/internal/metrics"
	"kinogate/internal/middleware"
	"kinogate/internal/qr"
	"kinogate/internal/repository"
	"kinogate/internal/search"
	"kinogate/internal/service"
)

// Server wires the ticket lifecycle API. The database is required; NATS,
// Valkey and Elasticsearch are best-effort collaborators and the server
// runs without any of them.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
	handlers *handlers.Handlers
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	codec, err := qr.NewCodec(cfg.QR)
	if err != nil {
		logger.Fatal("Failed to initialize QR codec", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Get().Warn("NATS unavailable, notifications disabled", "error", err)
		natsClient = nil
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		logger.Get().Warn("Valkey unavailable, ticket cache disabled", "error", err)
		valkeyClient = nil
	}

	ticketIndex, err := search.NewTicketIndex(cfg.Elasticsearch)
	if err != nil {
		logger.Get().Warn("Elasticsearch unavailable, ticket search disabled", "error", err)
		ticketIndex = nil
	}

	repos := repository.NewRepositories(db)

	// Interface values holding typed nils must stay nil; the services
	// check their optional collaborators against nil before use.
	var pub service.Publisher
	if natsClient != nil {
		pub = natsClient
	}
	var ticketCache service.TicketCache
	if valkeyClient != nil {
		ticketCache = valkeyClient
	}
	var indexer service.TicketIndexer
	if ticketIndex != nil {
		indexer = ticketIndex
	}

	services := service.NewServices(repos.Tickets, codec, clock.NewSystem(), pub, ticketCache, indexer)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
		handlers: handlers.NewHandlers(services, repos.Tickets, ticketIndex),
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := s.handlers

	api := s.router.Group("/api")
	api.Use(middleware.JWTAuth(s.config.JWTSecret))
	{
		tickets := api.Group("/tickets")
		{
			tickets.POST("", h.IssueTickets)
			tickets.POST("/codes", h.IssueTicketsFromCodes)
			tickets.POST("/verify", h.VerifyTicket)
			tickets.PATCH("/use", h.MarkTicketUsed)
			tickets.PATCH("/cancel", h.CancelSelectedTickets)
			tickets.GET("/search", h.SearchTickets)
			tickets.DELETE("/:id", h.DeleteTicket)
		}

		bookings := api.Group("/bookings")
		{
			bookings.PATCH("/cancel", h.CancelBooking)
			bookings.GET("/:id/tickets", h.GetBookingTickets)
			bookings.GET("/:id/pricing", h.GetBookingPricing)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	dbHealth := s.db.HealthCheck(c.Request.Context())
	s.db.ValidateConnectionPool()

	status := http.StatusOK
	if dbHealth.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbHealth.Status,
		"service":  "kinogate-api",
		"version":  "1.0.0",
		"database": dbHealth,
	})
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			logger.Get().Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
