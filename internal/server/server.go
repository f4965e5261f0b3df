package server

import (
	"context"
	"net/http"
	"time"

	"speakbook/internal/auth"
	"speakbook/internal/booking"
	"speakbook/internal/config"
	"speakbook/internal/provider"
	"speakbook/internal/slot"
	"speakbook/internal/user"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	User     *user.Handler
	Provider *provider.Handler
	Slot     *slot.Handler
	Booking  *booking.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, h Handlers, checks map[string]HealthCheck) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	router.GET("/health", Health(checks))
	router.GET("/metrics", Metrics())

	limited := router.Group("/")
	limited.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	public := limited.Group("/auth")
	{
		public.POST("/register/client", h.User.RegisterClient)
		public.POST("/register/provider", h.User.RegisterProvider)
		public.POST("/login", h.User.Login)
		public.POST("/refresh", h.User.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := limited.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", h.User.GetMe)
		protected.GET("/providers", h.Provider.ListProviders)
		protected.GET("/providers/:providerID/slots", h.Provider.ListProviderSlots)
	}

	client := limited.Group("/")
	client.Use(authMiddleware, auth.RequireRole(auth.RoleClient))
	{
		client.GET("/dashboard", h.Booking.ClientDashboard)
		client.POST("/checkout/:slotID", h.Booking.Checkout)
		client.POST("/payment/verify", h.Booking.VerifyPayment)
		client.GET("/bookings", h.Booking.ListMyBookings)
		client.POST("/bookings/:bookingID/cancel", h.Booking.CancelBooking)
		client.GET("/bookings/:bookingID/invoice", h.Booking.DownloadInvoice)
	}

	providerGroup := limited.Group("/provider")
	providerGroup.Use(authMiddleware, auth.RequireRole(auth.RoleProvider))
	{
		providerGroup.GET("/dashboard", h.Booking.ProviderDashboard)
	}

	admin := limited.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/providers", h.Provider.AdminListProviders)
		admin.POST("/providers/:providerID/approve", h.Provider.ApproveProvider)
		admin.POST("/slots/generate", h.Slot.Generate)
		admin.GET("/bookings", h.Booking.AdminListBookings)
		admin.GET("/stats", h.Booking.AdminStats)
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

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
