package app

import (
	"symposium_backend/docs"
	"symposium_backend/internal/config"
	"symposium_backend/internal/middleware"
	"symposium_backend/internal/util"
	"symposium_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 参赛者接口
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerParticipantRoutes(authGroup, c)
	}

	// 3. 管理员接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/realtime/ws", c.realtime.ServeWs)
	}
}

func (a *App) registerParticipantRoutes(rg *gin.RouterGroup, c *controllers) {
	// 作答
	rg.POST("/rounds/:roundId/attempts", c.attempt.StartAttempt)
	rg.GET("/rounds/:roundId/attempts/current", c.attempt.GetCurrentAttempt)
	rg.GET("/rounds/:roundId/rules", c.attempt.GetRules)
	rg.GET("/attempts/:id", c.attempt.GetAttempt)
	rg.PUT("/attempts/:id/answers/:questionId", c.attempt.SubmitAnswer)
	rg.POST("/attempts/:id/violations", c.attempt.RecordViolation)
	rg.POST("/attempts/:id/submit", c.attempt.Submit)

	// 排行榜
	rg.GET("/rounds/:roundId/leaderboard", c.leaderboard.RoundLeaderboard)
	rg.GET("/events/:eventId/leaderboard", c.leaderboard.EventLeaderboard)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(util.RoleAdmin))
	{
		admin.POST("/attempts/:id/override", c.admin.Override)
		admin.POST("/attempts/:id/finalize", c.admin.Finalize)
		admin.PUT("/attempts/:id/answers/:questionId/grade", c.admin.GradeAnswer)
		admin.GET("/rounds/:roundId/attempts", c.admin.ListRoundAttempts)
		admin.POST("/rounds/:roundId/status", c.admin.SetRoundStatus)
		admin.POST("/rounds/:roundId/results/publish", c.admin.PublishRoundResults)
		admin.POST("/events/:eventId/results/publish", c.admin.PublishEventResults)
	}
}
