package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"parking-reservation-backend/config"
	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/mw"
	"parking-reservation-backend/internal/realtime"
)

const wsPath = "/api/ws"

// NewRouter creates and configures a new Gin router.
// responseCache backs the GET cache on public slot listings; flush it when slots or bookings change.
func NewRouter(cfg config.ServerConfig, handler *Handler, tokens mw.TokenParser, hub *realtime.Hub, responseCache *cache.Cache) *gin.Engine {
	r := gin.New()
	// Socket clients authenticate with ?token=, so that path stays out of the access log.
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{SkipPaths: []string{wsPath}}), gin.Recovery())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(responseCache, cacheTTL)
	authenticate := mw.Authenticate(tokens)
	adminOnly := mw.RequireRole(model.RoleAdmin)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter, mw.Timeout(cfg.RequestTimeout))
	{
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		api.GET("/slots", caching, handler.ListSlots)
		api.GET("/slots/available", caching, handler.GetAvailableSlots)
		api.GET("/slots/:id", caching, handler.GetSlot)
	}

	// The socket outlives any request timeout, so it sits outside the timed group.
	r.GET(wsPath, rateLimiter, mw.AuthenticateWebSocket(tokens), realtime.ServeWS(hub, cfg.CORSOrigins, func(c *gin.Context) string {
		return principal(c).ID
	}))

	authed := api.Group("", authenticate)
	{
		authed.GET("/auth/me", handler.Me)

		authed.POST("/bookings", handler.CreateBooking)
		authed.GET("/bookings", handler.ListMyBookings)
		authed.GET("/bookings/:id", handler.GetBooking)
		authed.POST("/bookings/:id/cancel", handler.CancelBooking)
		authed.GET("/bookings/:id/qr", handler.GetBookingQR)
		authed.GET("/bookings/:id/pass", handler.GetBookingPass)

		authed.POST("/qr/verify", handler.VerifyQR)

		authed.POST("/feedback", handler.SubmitFeedback)
		authed.GET("/feedback", handler.ListMyFeedback)

		authed.GET("/subscriptions", handler.GetSubscription)
		authed.PUT("/subscriptions", handler.PutSubscription)
		authed.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	admin := authed.Group("/admin", adminOnly)
	{
		admin.POST("/slots", handler.CreateSlot)
		admin.PATCH("/slots/:id", handler.UpdateSlot)
		admin.DELETE("/slots/:id", handler.DeleteSlot)
		admin.GET("/bookings", handler.ListAllBookings)
		admin.GET("/stats", handler.GetStats)
		admin.GET("/feedback", handler.ListAllFeedback)
	}

	return r
}

// WithCORS wraps h with the CORS policy for the configured browser origins.
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(h)
}
