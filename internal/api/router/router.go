package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ahmeeeeedddddd/Studify/config"
	"github.com/ahmeeeeedddddd/Studify/internal/api/handler"
	"github.com/ahmeeeeedddddd/Studify/internal/api/middleware"
	"github.com/ahmeeeeedddddd/Studify/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时生成接口不限流；gatherer 为 nil 时不暴露 /metrics
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 生成服务探测（运维用，无需调用方身份）
		v1.GET("/generator/probe", h.Roadmap.Probe)

		authorized := v1.Group("")
		authorized.Use(middleware.GatewayIdentity())
		{
			// 学习路线模块
			roadmaps := authorized.Group("/roadmaps")
			{
				roadmaps.POST("",
					middleware.RateLimit(rdb, cfg.RateLimit.GenerateLimit, cfg.RateLimit.GenerateWindow),
					h.Roadmap.Generate,
				)
				roadmaps.GET("", h.Roadmap.ListMine)
				roadmaps.GET("/:id", h.Roadmap.Get)
				roadmaps.GET("/:id/days/:day/quiz", h.Roadmap.GetQuiz)
				roadmaps.GET("/:id/progress", h.Progress.GetProgress)
				roadmaps.PUT("/:id/progress", h.Progress.SyncProgress)
				roadmaps.GET("/:id/export", h.Export.ExportRoadmap)
			}

			// 完成状态
			authorized.PUT("/tasks/:id/complete", h.Progress.ToggleTask)
			authorized.PUT("/days/:id/complete", h.Progress.ToggleDay)
		}
	}

	return r
}
