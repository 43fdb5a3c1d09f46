// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rideloop/internal/auth"
	"rideloop/internal/http/handlers"
	"rideloop/internal/http/middleware"
	"rideloop/internal/modules/account"
	"rideloop/internal/modules/location"
	"rideloop/internal/modules/ride"
	"rideloop/internal/push"
)

type RouterDeps struct {
	Verifier auth.Verifier
	Accounts *account.Service
	Rides    *ride.Service
	Location *location.Service
	Hub      *push.Hub
	Log      *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))
	r.Use(middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	accountHandler := handlers.NewAccountHandler(deps.Accounts)
	r.POST("/api/auth/signup", accountHandler.Signup)
	r.POST("/api/auth/login", accountHandler.Login)

	authed := r.Group("/", middleware.Auth(deps.Verifier))
	authed.GET("/api/profile", accountHandler.Profile)

	rideHandler := handlers.NewRideHandler(deps.Rides)
	authed.POST("/api/rides", rideHandler.Create)
	authed.GET("/api/rides/:id", rideHandler.Get)
	authed.POST("/api/rides/:id/accept", rideHandler.Accept)
	authed.POST("/api/rides/:id/advance", rideHandler.Advance)
	authed.POST("/api/rides/:id/cancel", rideHandler.Cancel)

	driverHandler := handlers.NewDriverHandler(deps.Rides)
	authed.GET("/api/rides/available", driverHandler.ListAvailable)

	locationHandler := handlers.NewLocationHandler(deps.Location)
	authed.PATCH("/api/driver/location", locationHandler.Update)

	wsHandler := handlers.NewWSHandler(deps.Rides, deps.Hub, deps.Log)
	authed.GET("/ws/rides/:id", wsHandler.Subscribe)

	return r
}
