package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"trekbook/internal/auth"
	"trekbook/internal/booking"
	"trekbook/internal/config"
	"trekbook/internal/inventory"
)

// QueueStats reports the depth of the notification queue.
type QueueStats interface {
	QueueLength(ctx context.Context) int64
}

type Handlers struct {
	Bookings *booking.Handler
	Batches  *inventory.Handler
	Queue    QueueStats
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, h Handlers) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware, RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		protected.GET("/treks/:trekID/batches", h.Batches.ListTrekBatches)
		protected.GET("/batches/:batchID", h.Batches.GetBatch)
		protected.POST("/batches/:batchID/bookings", h.Bookings.CreateBooking)
		protected.GET("/bookings", h.Bookings.ListMyBookings)
		protected.GET("/bookings/:bookingID", h.Bookings.GetBooking)
		protected.POST("/bookings/:bookingID/cancel", h.Bookings.CancelBooking)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/batches/:batchID/bookings", h.Bookings.ListBookingsByBatch)
		if h.Queue != nil {
			admin.GET("/notifications/queue", NotificationQueue(h.Queue))
		}
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

// corsMiddleware allows browser calls from the configured origins. Auth is a
// bearer header, so credentials (cookies) are never allowed.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
