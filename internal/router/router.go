package router

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/insure-ai/internal/handler"
	"github.com/ashwinyue/insure-ai/internal/middleware"
	"github.com/ashwinyue/insure-ai/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services, redisClient *redis.Client) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware(svc.Logger, svc.Monitor))
	r.Use(middleware.LoggingMiddleware(svc.Logger))
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SessionMiddleware())

	// 页面与静态资源
	r.LoadHTMLGlob("web/templates/*.html")
	r.GET("/", h.Pages.Index)
	r.GET("/analytics/dashboard", h.Pages.AnalyticsDashboard)
	r.GET("/health", h.Pages.Health)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// Chat 问答（带限流）
		chat := v1.Group("")
		if svc.Config.Security.EnableRateLimiting {
			chat.Use(middleware.RateLimitMiddleware(redisClient, svc.Config.Security.MaxQueriesPerHour, svc.Logger))
		}
		chat.POST("/chat", h.Chat.Chat)

		// FAQ 常见问题
		faqs := v1.Group("/faqs")
		{
			faqs.POST("", h.FAQ.CreateFAQ)
			faqs.GET("", h.FAQ.ListFAQs)
			faqs.GET("/active", h.FAQ.ListActiveFAQs)
			faqs.GET("/search", h.FAQ.SearchFAQs)
			faqs.GET("/:id", h.FAQ.GetFAQ)
			faqs.PUT("/:id", h.FAQ.UpdateFAQ)
			faqs.DELETE("/:id", h.FAQ.DeleteFAQ)
		}

		// Analytics 统计
		analytics := v1.Group("/analytics")
		{
			analytics.GET("", h.Analytics.GetInsights)
			analytics.GET("/dashboard.png", h.Analytics.GetDashboardImage)
		}

		// Privacy 合规
		privacy := v1.Group("/privacy")
		{
			privacy.GET("/policy", h.Privacy.GetPolicy)
			privacy.GET("/consent", h.Privacy.RequestConsent)
			privacy.POST("/consent", h.Privacy.RecordConsent)
			privacy.GET("/consent/check", h.Privacy.CheckConsent)
			privacy.POST("/consent/withdraw", h.Privacy.WithdrawConsent)
			privacy.GET("/export", h.Privacy.ExportData)
			privacy.POST("/delete", h.Privacy.DeleteData)
			privacy.POST("/anonymize", h.Privacy.AnonymizeData)
		}

		// Auth 管理端登录
		v1.POST("/auth/login", h.Auth.Login)

		// Admin 管理端（需要 JWT）
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAuth(svc))
		{
			admin.GET("/security/status", h.Security.GetStatus)
			admin.GET("/security/audit", h.Security.GetAuditLogs)
			admin.POST("/security/rotate-key", h.Security.RotateKey)
			admin.POST("/security/purge-expired", h.Security.PurgeExpired)

			admin.GET("/monitor/summary", h.Monitor.GetSummary)
			admin.GET("/monitor/alerts", h.Monitor.ListAlerts)
			admin.POST("/monitor/alerts/:id/acknowledge", h.Monitor.AcknowledgeAlert)
			admin.POST("/monitor/errors/:id/resolve", h.Monitor.ResolveError)

			admin.GET("/privacy/compliance", h.Privacy.GetComplianceStatus)
		}
	}

	return r
}
