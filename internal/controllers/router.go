package controllers

import (
	"time"

	"github.com/npolukhin/shortlink/internal/config"
	"github.com/npolukhin/shortlink/internal/controllers/middlewares"
	"github.com/npolukhin/shortlink/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type RouterParams struct {
	LinkService LinkAllocator
	StatsReader StatsReader
	PingService ConnectionChecker
	AppConf     config.Config
	Logger      *logrus.Logger
	// Лимитеры создания: общий и для кастомных алиасов.
	CreateLimiter *ratelimit.Limiter
	AliasLimiter  *ratelimit.Limiter
}

func SetupRouter(p RouterParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestIDMiddleware())
	r.Use(middlewares.LoggerMiddleware(p.Logger))
	r.Use(middlewares.MetricsMiddleware())

	maxAge := p.AppConf.SessionMaxAge
	if maxAge <= 0 {
		maxAge = 2 * time.Hour
	}
	secret := []byte(p.AppConf.AdminSecret)

	shortLinkController := NewShortLinkController(p.LinkService, p.AliasLimiter, p.AppConf.BaseURL)
	adminController := NewAdminController(p.StatsReader, secret, maxAge)
	pingController := NewPingController(p.PingService)

	r.GET("/ping", pingController.Ping)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/shorten", middlewares.RateLimitMiddleware(p.CreateLimiter), shortLinkController.Shorten)

	admin := r.Group("/admin")
	admin.GET("/login", adminController.LoginPage)
	admin.POST("/login", adminController.Login)
	admin.GET("/logout", adminController.Logout)

	adminAPI := r.Group("/api/admin")
	adminAPI.Use(middlewares.AdminAuthMiddleware(secret, maxAge))
	adminAPI.GET("/overview", adminController.Overview)
	adminAPI.GET("/links/:id", adminController.Detail)
	adminAPI.GET("/search", adminController.Search)

	// самый общий маршрут регистрируем последним
	r.GET("/:code", shortLinkController.Redirect)

	return r
}
