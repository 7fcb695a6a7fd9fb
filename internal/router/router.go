// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/lab-occupancy/internal/config"
	"github.com/iliyamo/lab-occupancy/internal/handler"
	"github.com/iliyamo/lab-occupancy/internal/hub"
	"github.com/iliyamo/lab-occupancy/internal/middleware"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg   config.Config
	Auth  *handler.AuthHandler
	Lab   *handler.LabHandler
	Admin *handler.AdminHandler
	Hub   *hub.Hub
	Redis *redis.Client
}

// Register sets up the whole surface:
//
//	public reads   – seats, users, logs, statistics, the WebSocket feed
//	auth exchange  – register, chat-bot identity, admin gate (rate limited)
//	session ops    – claim/end/touch, JWT protected
//	admin surface  – maintenance, users, logs, statistics, snapshot, wipe
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Read endpoints are public so the floor plan renders before login.
	// A short-TTL response cache absorbs bursts from polling viewers.
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)
	e.GET("/v1/seats", d.Lab.GetSeats, cacheMW)
	e.GET("/v1/users", d.Lab.GetUsers, cacheMW)
	e.GET("/v1/logs", d.Lab.GetLogs, cacheMW)
	e.GET("/v1/statistics", d.Lab.GetStatistics, cacheMW)

	// Push channel: full snapshot on connect, deltas afterwards.
	e.GET("/v1/ws", d.Hub.Serve)

	// Auth endpoints sit behind the token bucket.
	auth := e.Group("/v1/auth")
	auth.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis))
	auth.POST("/register", d.Auth.Register)
	auth.POST("/telegram", d.Auth.Telegram)
	auth.POST("/admin", d.Auth.Admin)

	// Session operations require a valid token of either role.
	sess := e.Group("/v1")
	sess.Use(middleware.JWTAuth(d.Cfg.JWTSecret))
	sess.Use(middleware.RequireRole("USER", "ADMIN"))
	sess.GET("/me", d.Auth.Me)
	sess.POST("/seats/:id/claim", d.Lab.ClaimSeat)
	sess.POST("/sessions/:id/end", d.Lab.EndSession)
	sess.POST("/sessions/:id/touch", d.Lab.TouchSession)

	// Management surface, ADMIN only.
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(d.Cfg.JWTSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/seats/:id/maintenance", d.Admin.SetMaintenance)
	admin.DELETE("/seats/:id/maintenance", d.Admin.ClearMaintenance)
	admin.POST("/users", d.Admin.AddUser)
	admin.PUT("/users/:id", d.Admin.UpdateUser)
	admin.DELETE("/logs", d.Admin.ClearLogs)
	admin.POST("/statistics/refresh", d.Admin.RefreshStatistics)
	admin.POST("/statistics/reset", d.Admin.ResetStatistics)
	admin.GET("/snapshot", d.Admin.ExportSnapshot)
	admin.POST("/snapshot", d.Admin.ImportSnapshot)
	admin.DELETE("/database", d.Admin.ClearDatabase)
}
