package service

import (
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/cron"
	"context"
	log "log/slog"
	"time"
)

// Scheduler 定时生成任务的控制面
type Scheduler interface {
	Start() (bool, error)
	Stop() bool
	Status() cron.Status
}

// QueryResult 聚合结果与成功标记。失败时 Data 为空集合
type QueryResult[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

func newResult[T any](data T, err error) *QueryResult[T] {
	res := &QueryResult[T]{Success: err == nil, Data: data}
	if err != nil {
		res.Message = err.Error()
	}
	return res
}

type PlatformTotalsResult struct {
	Success bool                        `json:"success"`
	Data    []*model.PlatformTotal      `json:"platform_engagement_totals"`
	Summary model.PlatformTotalsSummary `json:"summary"`
	Message string                      `json:"message,omitempty"`
}

type StatsResult struct {
	Success      bool                `json:"success"`
	TotalRecords int64               `json:"total_records"`
	Stats        *model.OverallStats `json:"stats"`
	Message      string              `json:"message,omitempty"`
}

type ControlResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SchedulerStatusResult struct {
	Success bool `json:"success"`
	cron.Status
}

type HealthResult struct {
	Status            string    `json:"status"`
	DatabaseConnected bool      `json:"database_connected"`
	TotalRecords      int64     `json:"total_records"`
	SchedulerRunning  bool      `json:"scheduler_running"`
	Timestamp         time.Time `json:"timestamp"`
}

// ReportService HTTP 层调用的门面，每个方法直接透传网关的聚合结果
type ReportService interface {
	Health(ctx context.Context) *HealthResult
	Stats(ctx context.Context) *StatsResult
	PlatformTotals(ctx context.Context) *PlatformTotalsResult
	EngagementByDay(ctx context.Context) *QueryResult[[]*model.DayEngagement]
	SentimentByPlatform(ctx context.Context) *QueryResult[[]*model.SentimentGroup]
	SentimentByPostType(ctx context.Context) *QueryResult[[]*model.SentimentGroup]
	AverageByDatePlatform(ctx context.Context, metric model.Metric) *QueryResult[[]*model.DateMetricAverage]
	SharesByPostType(ctx context.Context) *QueryResult[[]*model.PostTypeShares]
	Decomposition(ctx context.Context, filter model.DecompositionFilter) *QueryResult[[]*model.DecompositionEntry]
	TimeTrend(ctx context.Context) *QueryResult[[]*model.TrendPoint]
	PostTypeStats(ctx context.Context) *QueryResult[[]*model.PostTypeStats]
	SentimentAnalysis(ctx context.Context) *QueryResult[[]*model.SentimentStats]
	PlatformStats(ctx context.Context, platform string) *QueryResult[*model.PlatformStats]

	StartScheduler(ctx context.Context) *ControlResult
	StopScheduler(ctx context.Context) *ControlResult
	SchedulerStatus(ctx context.Context) *SchedulerStatusResult
}

type reportServiceImpl struct {
	store     PostStoreService
	scheduler Scheduler
}

func NewReportService(store PostStoreService, scheduler Scheduler) ReportService {
	return &reportServiceImpl{
		store:     store,
		scheduler: scheduler,
	}
}

func (s *reportServiceImpl) Health(ctx context.Context) *HealthResult {
	res := &HealthResult{
		Status:           "healthy",
		SchedulerRunning: s.scheduler.Status().Running,
		Timestamp:        time.Now(),
	}
	if err := s.store.Ping(ctx); err != nil {
		log.WarnContext(ctx, "health check ping failed", "err", err)
		res.Status = "unhealthy"
		return res
	}
	res.DatabaseConnected = true
	if n, err := s.store.Count(ctx); err == nil {
		res.TotalRecords = n
	}
	return res
}

func (s *reportServiceImpl) Stats(ctx context.Context) *StatsResult {
	stats, err := s.store.OverallStats(ctx)
	res := &StatsResult{Success: err == nil, Stats: stats, TotalRecords: stats.EngagementStats.TotalPosts}
	if err != nil {
		res.Message = err.Error()
	}
	return res
}

func (s *reportServiceImpl) PlatformTotals(ctx context.Context) *PlatformTotalsResult {
	totals, err := s.store.PlatformTotals(ctx)
	res := &PlatformTotalsResult{Success: err == nil, Data: totals, Summary: model.Summarize(totals)}
	if err != nil {
		res.Message = err.Error()
	}
	return res
}

func (s *reportServiceImpl) EngagementByDay(ctx context.Context) *QueryResult[[]*model.DayEngagement] {
	return newResult(s.store.EngagementByDay(ctx))
}

func (s *reportServiceImpl) SentimentByPlatform(ctx context.Context) *QueryResult[[]*model.SentimentGroup] {
	return newResult(s.store.SentimentByPlatform(ctx))
}

func (s *reportServiceImpl) SentimentByPostType(ctx context.Context) *QueryResult[[]*model.SentimentGroup] {
	return newResult(s.store.SentimentByPostType(ctx))
}

func (s *reportServiceImpl) AverageByDatePlatform(ctx context.Context, metric model.Metric) *QueryResult[[]*model.DateMetricAverage] {
	return newResult(s.store.AverageByDatePlatform(ctx, metric))
}

func (s *reportServiceImpl) SharesByPostType(ctx context.Context) *QueryResult[[]*model.PostTypeShares] {
	return newResult(s.store.SharesByPostType(ctx))
}

func (s *reportServiceImpl) Decomposition(ctx context.Context, filter model.DecompositionFilter) *QueryResult[[]*model.DecompositionEntry] {
	return newResult(s.store.Decomposition(ctx, filter))
}

func (s *reportServiceImpl) TimeTrend(ctx context.Context) *QueryResult[[]*model.TrendPoint] {
	return newResult(s.store.TimeTrend(ctx))
}

func (s *reportServiceImpl) PostTypeStats(ctx context.Context) *QueryResult[[]*model.PostTypeStats] {
	return newResult(s.store.PostTypeStats(ctx))
}

func (s *reportServiceImpl) SentimentAnalysis(ctx context.Context) *QueryResult[[]*model.SentimentStats] {
	return newResult(s.store.SentimentStats(ctx))
}

func (s *reportServiceImpl) PlatformStats(ctx context.Context, platform string) *QueryResult[*model.PlatformStats] {
	return newResult(s.store.PlatformStats(ctx, platform))
}

func (s *reportServiceImpl) StartScheduler(ctx context.Context) *ControlResult {
	started, err := s.scheduler.Start()
	if err != nil {
		log.ErrorContext(ctx, "start scheduler failed", "err", err)
		return &ControlResult{Message: err.Error()}
	}
	if !started {
		return &ControlResult{Message: ErrSchedulerRunning.Error()}
	}
	log.InfoContext(ctx, "scheduler started")
	return &ControlResult{Success: true, Message: "Scheduler started"}
}

func (s *reportServiceImpl) StopScheduler(ctx context.Context) *ControlResult {
	if !s.scheduler.Stop() {
		return &ControlResult{Message: ErrSchedulerStopped.Error()}
	}
	log.InfoContext(ctx, "scheduler stopped")
	return &ControlResult{Success: true, Message: "Scheduler stopped"}
}

func (s *reportServiceImpl) SchedulerStatus(_ context.Context) *SchedulerStatusResult {
	return &SchedulerStatusResult{Success: true, Status: s.scheduler.Status()}
}
