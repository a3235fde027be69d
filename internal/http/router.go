package api

import (
	stdhttp "net/http"

	intconfig "bookbus/internal/config"
	"bookbus/internal/domain"
	h "bookbus/internal/http/handlers"
	"bookbus/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func NewRouter(env intconfig.Env, a h.API) *gin.Engine {
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		logrus.WithError(err).Warn("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"code":   "not_found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	auth := middleware.Auth(a.Secret)
	customer := middleware.RequireRoles(domain.RoleCustomer)
	operator := middleware.RequireRoles(domain.RoleOperator)
	admin := middleware.RequireRoles(domain.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", a.DBCheck)
		api.GET("/routes", h.Routes)

		// Auth
		authGroup := api.Group("/auth")
		authGroup.POST("/register", a.Register)
		authGroup.POST("/verify", a.Verify)
		authGroup.POST("/resend", a.Resend)
		authGroup.POST("/login", a.Login)
		authGroup.GET("/me", auth, a.Me)

		// Public catalog
		api.GET("/search", a.Search)
		api.GET("/stops", a.ListStops)
		api.GET("/stops.geojson", a.StopsGeoJSON)
		api.POST("/stops", auth, middleware.RequireRoles(domain.RoleOperator, domain.RoleAdmin), a.CreateStop)

		buses := api.Group("/buses")
		buses.GET("/:id", a.GetBus)
		buses.GET("/:id/seats", a.SeatMap)
		buses.GET("/:id/route.geojson", a.RouteGeoJSON)

		// Bookings
		bookings := api.Group("/bookings", auth)
		bookings.POST("", customer, a.CreateBooking)
		bookings.GET("", a.ListBookings)
		bookings.GET("/:id", a.GetBooking)
		bookings.GET("/:id/ticket", a.BookingTicket)
		bookings.POST("/:id/cancel", customer, a.CancelBooking)

		// Wallet
		wallet := api.Group("/wallet", auth)
		wallet.GET("", a.Wallet)
		wallet.POST("/topup", a.TopUp)

		// Operator
		op := api.Group("/operator", auth, operator)
		op.GET("/buses", a.ListMyBuses)
		op.POST("/buses", a.CreateBus)
		op.PUT("/buses/:id", a.UpdateBus)
		op.DELETE("/buses/:id", a.DeleteBus)
		op.GET("/bookings/export", a.ExportBookings)

		// Admin
		adm := api.Group("/admin", auth, admin)
		adm.POST("/bookings/complete", a.CompleteBookings)
		adm.GET("/ledger/:user_id/reconcile", a.Reconcile)
	}

	h.SetRouter(r)
	return r
}
