package api

import (
	"Pulseboard/internal/api/middleware"
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	r.GET("/health", group.ReportHandler.Health)
	r.GET("/ws/ingest", group.WsHandler.Connect)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})
		apiGroup.GET("/health", group.ReportHandler.Health)

		// 聚合
		apiGroup.GET("/stats", group.ReportHandler.Stats)
		apiGroup.GET("/platform-engagement", group.ReportHandler.PlatformEngagement)
		apiGroup.GET("/engagement-by-day", group.ReportHandler.EngagementByDay)
		apiGroup.GET("/sentiment-by-platform", group.ReportHandler.SentimentByPlatform)
		apiGroup.GET("/sentiment-by-post-type", group.ReportHandler.SentimentByPostType)
		apiGroup.GET("/average-likes-by-date-platform", group.ReportHandler.AverageByDatePlatform(model.MetricLikes))
		apiGroup.GET("/average-comments-by-date-platform", group.ReportHandler.AverageByDatePlatform(model.MetricComments))
		apiGroup.GET("/average-shares-by-date-platform", group.ReportHandler.AverageByDatePlatform(model.MetricShares))
		apiGroup.GET("/shares-by-post-type", group.ReportHandler.SharesByPostType)
		apiGroup.GET("/decomposition-tree", group.ReportHandler.DecompositionTree)
		apiGroup.GET("/trends", group.ReportHandler.Trends)
		apiGroup.GET("/post-types", group.ReportHandler.PostTypes)
		apiGroup.GET("/sentiment", group.ReportHandler.Sentiment)

		platformGroup := apiGroup.Group("/platform/:platform")
		{
			platformGroup.GET("", group.PostHandler.ListByPlatform)
			platformGroup.GET("/stats", group.ReportHandler.PlatformStats)
		}

		// 帖子
		apiGroup.GET("/data", group.PostHandler.ListPosts)
		postGroup := apiGroup.Group("/posts")
		{
			postGroup.GET("/:post_id", group.PostHandler.GetPost)
			postGroup.PUT("/:post_id", group.PostHandler.UpdatePost)
			postGroup.DELETE("/:post_id", group.PostHandler.DeletePost)
			postGroup.DELETE("", group.PostHandler.DeleteAll)
		}

		// 导入与调度
		apiGroup.POST("/ingest-csv", group.IngestHandler.IngestCSV)
		apiGroup.POST("/start-scheduler", group.IngestHandler.StartScheduler)
		apiGroup.POST("/stop-scheduler", group.IngestHandler.StopScheduler)
		apiGroup.GET("/scheduler-status", group.IngestHandler.SchedulerStatus)
	}

	return r
}
