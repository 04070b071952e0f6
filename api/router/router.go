// Package router assembles the gin engine: middleware, rate-limit classes
// and route registration.
package router

import (
	"github.com/gin-gonic/gin"

	"realnews/api/handlers"
	"realnews/api/middleware"
	"realnews/config"
	"realnews/ratelimit"
)

// New builds the HTTP engine. authGuard protects the admin routes;
// authentication itself lives outside this service, so callers inject
// whatever guard fits their deployment and the default lets everything
// through.
func New(h *handlers.Handlers, cfg *config.AppConfig, authGuard gin.HandlerFunc) *gin.Engine {
	if authGuard == nil {
		authGuard = func(c *gin.Context) { c.Next() }
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())

	general := ratelimit.Middleware(
		ratelimit.PerMinute(cfg.RateLimits.GeneralPerMinute),
		"Juda ko'p so'rovlar. Iltimos, keyinroq urinib ko'ring.")
	auth := ratelimit.Middleware(
		ratelimit.PerMinute(cfg.RateLimits.AuthPerMinute),
		"Juda ko'p urinishlar. Iltimos, bir daqiqadan so'ng urinib ko'ring.")
	ai := ratelimit.Middleware(
		ratelimit.PerMinute(cfg.RateLimits.AIPerMinute),
		"AI so'rovlari chegarasi oshib ketdi. Iltimos, keyinroq urinib ko'ring.")

	r.GET("/health", h.Health)
	r.GET("/sitemap.xml", h.Sitemap)
	r.GET("/robots.txt", h.Robots)

	api := r.Group("/api", general)
	{
		api.GET("/articles", h.ListArticles)
		api.GET("/articles/drafts", authGuard, h.ListDrafts)
		api.GET("/articles/:id", h.GetArticle)
		api.GET("/search", h.SearchArticles)
		api.GET("/trends", h.ListTrends)
		api.GET("/logs", authGuard, h.ListLogs)
		api.GET("/rss/feeds", h.FeedsCatalog)

		// cron services authenticate with the bearer secret, not the guard
		api.POST("/cron/generate", h.CronGenerate)

		admin := api.Group("", auth, authGuard)
		{
			admin.PATCH("/articles/:id", h.UpdateArticle)
			admin.PATCH("/articles/:id/publish", h.PublishArticle)
			admin.DELETE("/articles/:id", h.DeleteArticle)
			admin.POST("/trends/fetch", h.FetchTrends)
		}

		aiRoutes := api.Group("", ai, authGuard)
		{
			aiRoutes.POST("/articles/generate", h.GenerateFromTrend)
			aiRoutes.POST("/articles/generate/local-rss", h.GenerateLocalRSS)
			aiRoutes.POST("/articles/generate/foreign-rss", h.GenerateForeignRSS)
			aiRoutes.POST("/articles/generate/all", h.GenerateAll)
		}
	}

	return r
}
