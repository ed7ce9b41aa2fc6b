package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"upi-gateway/utils"
	"upi-gateway/web/controllers"
	"upi-gateway/web/db"
	"upi-gateway/web/middleware"
	"upi-gateway/web/order"
)

func init() {
	utils.LoadEnv()
	db.Connect()
	db.Sync()
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	origin := utils.Env("APP_BASE_URL", "")
	if origin == "" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{origin}
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.AllowCredentials = origin != ""
	return cfg
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	controllers.EnsureAdmin()

	engineCfg := order.Config{
		DefaultTTL:      time.Duration(utils.EnvInt("ORDER_TTL_SEC", 5400)) * time.Second,
		IDLength:        utils.EnvInt("ORDER_ID_LENGTH", 12),
		RateLimitWindow: time.Duration(utils.EnvInt("UTR_WINDOW_SEC", 600)) * time.Second,
		RateLimitMax:    utils.EnvInt("UTR_MAX_PER_WINDOW", 5),
	}
	engine := order.New(order.NewGormStore(db.DB), engineCfg)

	orders := controllers.NewOrderController(engine, utils.Env("APP_BASE_URL", "http://localhost:8080"))

	utrLimiter := middleware.NewRateLimiter(engine.Config().RateLimitMax, engine.Config().RateLimitWindow)
	utrLimiter.StartCleanup(10 * time.Minute)

	r := gin.Default()
	r.Use(cors.New(corsConfig()))

	loginGuard := middleware.IPThrottle(15, 15) // 15/min per IP on credential routes

	r.POST("/login", loginGuard, controllers.Login)

	r.POST("/orders", middleware.RequireAuth, orders.Create)
	r.GET("/orders/:orderId", orders.Get)
	r.GET("/orders/:orderId/qr", orders.QR)
	r.POST("/orders/:orderId/utr", utrLimiter.Middleware(middleware.ByClientIPAndParam("orderId")), orders.SubmitUTR)
	r.POST("/orders/:orderId/verify", middleware.RequireAuth, middleware.RequireAdmin, orders.Verify)
	r.POST("/orders/:orderId/cancel", middleware.RequireAuth, middleware.RequireAdmin, orders.Cancel)

	r.GET("/users", middleware.RequireAuth, middleware.RequireAdmin, controllers.ListUsers)
	r.POST("/users", loginGuard, middleware.RequireAuth, middleware.RequireAdmin, controllers.CreateUser)
	r.DELETE("/users/:id", middleware.RequireAuth, middleware.RequireAdmin, controllers.DeleteUser)

	r.GET("/dashboard/stats", middleware.RequireAuth, middleware.RequireAdmin, controllers.Stats)

	r.Run(":" + utils.Env("GIN_PORT", "8080"))
}
