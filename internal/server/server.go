package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tokenbook/internal/assignment"
	"tokenbook/internal/auth"
	"tokenbook/internal/booking"
	"tokenbook/internal/chat"
	"tokenbook/internal/config"
	"tokenbook/internal/dispute"
	"tokenbook/internal/logger"
	"tokenbook/internal/realtime"
	"tokenbook/internal/templates"
	"tokenbook/internal/user"
	"tokenbook/internal/wallet"
)

type Handlers struct {
	User       *user.Handler
	Wallet     *wallet.Handler
	Booking    *booking.Handler
	Chat       *chat.Handler
	Dispute    *dispute.Handler
	Templates  *templates.Handler
	Assignment *assignment.Handler
	Realtime   *realtime.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, h Handlers, checks ...HealthCheck) *Server {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		corsMiddleware(),
	)

	router.GET("/health", Health(checks...))
	router.GET("/metrics", Metrics())
	router.GET("/swagger/*any", Swagger())

	// The WebSocket handshake carries its token in the query string.
	router.GET("/ws", h.Realtime.Handle)

	limited := router.Group("/")
	limited.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	public := limited.Group("/auth")
	{
		public.POST("/register", h.User.Register)
		public.POST("/login", h.User.Login)
		public.POST("/refresh", h.User.RefreshToken)
	}

	protected := limited.Group("/")
	protected.Use(auth.AuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/me", h.User.GetMe)

		protected.POST("/bookings", h.Booking.CreateBooking)
		protected.GET("/bookings", h.Booking.ListMyBookings)
		protected.GET("/bookings/:id", h.Booking.GetBooking)
		protected.PUT("/bookings/:id/status", h.Booking.UpdateStatus)
		protected.POST("/bookings/:id/dispute", h.Dispute.FileDispute)
		protected.GET("/bookings/:id/dispute", h.Dispute.GetBookingDispute)

		protected.GET("/tokens/wallet", h.Wallet.GetWallet)
		protected.GET("/tokens/transactions", h.Wallet.ListTransactions)
		protected.POST("/tokens/purchase", h.Wallet.Purchase)
		protected.POST("/tokens/withdraw", h.Wallet.Withdraw)

		protected.POST("/chat/:bookingId/messages", h.Chat.SendMessage)
		protected.GET("/chat/:bookingId/messages", h.Chat.ListMessages)

		protected.GET("/templates", h.Templates.ListTemplates)
		protected.POST("/templates/send", h.Templates.SendTemplate)
	}

	admin := limited.Group("/admin")
	admin.Use(auth.AuthMiddleware(cfg.JWTSecret), auth.RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin))
	{
		admin.GET("/bookings", h.Booking.ListAllBookings)
		admin.PUT("/bookings/:id/monitor", h.Assignment.AssignMonitor)

		admin.GET("/disputes", h.Dispute.ListDisputes)
		admin.POST("/disputes/:id/review", h.Dispute.ReviewDispute)
		admin.POST("/disputes/:id/resolve", h.Dispute.ResolveDispute)

		admin.PATCH("/messages/:id/flag", h.Chat.SetFlag)

		admin.GET("/templates", h.Templates.AdminListTemplates)
		admin.POST("/templates", h.Templates.CreateTemplate)
		admin.PUT("/templates/:id", h.Templates.UpdateTemplate)
		admin.DELETE("/templates/:id", h.Templates.DeleteTemplate)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
