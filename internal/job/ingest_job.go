package job

import (
	"Pulseboard/internal/pkg/logger"
	"Pulseboard/internal/service"
	"context"
	log "log/slog"
	"time"
)

// tickTimeout 单次生成批次的上限
const tickTimeout = 30 * time.Second

// IngestJob 定时生成并写入一批模拟帖子
type IngestJob struct {
	ingestSvc service.IngestService
}

func NewIngestJob(ingestSvc service.IngestService) *IngestJob {
	return &IngestJob{ingestSvc: ingestSvc}
}

// Run 单次失败只记录日志，下一次调度照常执行
func (s *IngestJob) Run() {
	ctx := logger.WithTrace(context.Background(), logger.TracePrefixJob)
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	evt, err := s.ingestSvc.Tick(ctx)
	if err != nil {
		log.ErrorContext(ctx, "scheduled ingest tick failed", "err", err)
		return
	}
	log.InfoContext(ctx, "scheduled ingest tick success",
		"inserted", evt.Inserted,
		"first_post_id", evt.FirstPostID,
		"last_post_id", evt.LastPostID,
		"total_records", evt.TotalRecords)
}
