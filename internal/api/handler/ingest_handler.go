package handler

import (
	"Pulseboard/internal/pkg/response"
	"Pulseboard/internal/service"

	"github.com/gin-gonic/gin"
)

// IngestHandler 导入与调度控制
type IngestHandler struct {
	ingestSvc service.IngestService
	reportSvc service.ReportService
}

func NewIngestHandler(ingestSvc service.IngestService, reportSvc service.ReportService) *IngestHandler {
	return &IngestHandler{
		ingestSvc: ingestSvc,
		reportSvc: reportSvc,
	}
}

func (s *IngestHandler) IngestCSV(c *gin.Context) {
	response.Success(c, s.ingestSvc.Bootstrap(c.Request.Context()))
}

func (s *IngestHandler) StartScheduler(c *gin.Context) {
	response.Success(c, s.reportSvc.StartScheduler(c.Request.Context()))
}

func (s *IngestHandler) StopScheduler(c *gin.Context) {
	response.Success(c, s.reportSvc.StopScheduler(c.Request.Context()))
}

func (s *IngestHandler) SchedulerStatus(c *gin.Context) {
	response.Success(c, s.reportSvc.SchedulerStatus(c.Request.Context()))
}
