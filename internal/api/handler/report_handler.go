package handler

import (
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/response"
	"Pulseboard/internal/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler 看板读取的聚合接口
type ReportHandler struct {
	reportSvc service.ReportService
}

func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportSvc: reportSvc,
	}
}

func (s *ReportHandler) Health(c *gin.Context) {
	response.Success(c, s.reportSvc.Health(c.Request.Context()))
}

func (s *ReportHandler) Stats(c *gin.Context) {
	response.Success(c, s.reportSvc.Stats(c.Request.Context()))
}

func (s *ReportHandler) PlatformEngagement(c *gin.Context) {
	response.Success(c, s.reportSvc.PlatformTotals(c.Request.Context()))
}

func (s *ReportHandler) EngagementByDay(c *gin.Context) {
	response.Success(c, s.reportSvc.EngagementByDay(c.Request.Context()))
}

func (s *ReportHandler) SentimentByPlatform(c *gin.Context) {
	response.Success(c, s.reportSvc.SentimentByPlatform(c.Request.Context()))
}

func (s *ReportHandler) SentimentByPostType(c *gin.Context) {
	response.Success(c, s.reportSvc.SentimentByPostType(c.Request.Context()))
}

// AverageByDatePlatform 按指标生成对应的 handler
func (s *ReportHandler) AverageByDatePlatform(metric model.Metric) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, s.reportSvc.AverageByDatePlatform(c.Request.Context(), metric))
	}
}

func (s *ReportHandler) SharesByPostType(c *gin.Context) {
	response.Success(c, s.reportSvc.SharesByPostType(c.Request.Context()))
}

func (s *ReportHandler) DecompositionTree(c *gin.Context) {
	var filter model.DecompositionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, s.reportSvc.Decomposition(c.Request.Context(), filter))
}

func (s *ReportHandler) Trends(c *gin.Context) {
	response.Success(c, s.reportSvc.TimeTrend(c.Request.Context()))
}

func (s *ReportHandler) PostTypes(c *gin.Context) {
	response.Success(c, s.reportSvc.PostTypeStats(c.Request.Context()))
}

func (s *ReportHandler) Sentiment(c *gin.Context) {
	response.Success(c, s.reportSvc.SentimentAnalysis(c.Request.Context()))
}

func (s *ReportHandler) PlatformStats(c *gin.Context) {
	response.Success(c, s.reportSvc.PlatformStats(c.Request.Context(), c.Param("platform")))
}
