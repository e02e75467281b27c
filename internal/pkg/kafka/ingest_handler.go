package kafka

import (
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/consts"
	"Pulseboard/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
)

// IngestFunc 把一批原始帖子送入清洗与入库流程
type IngestFunc func(ctx context.Context, records []model.RawPost, source string) error

// IngestHandler 消费外部原始帖子流
type IngestHandler struct {
	ingest IngestFunc
	size   int
	window time.Duration
}

func NewIngestHandler(ingest IngestFunc, size int, window time.Duration) *IngestHandler {
	if size <= 0 {
		size = 50
	}
	if window <= 0 {
		window = time.Second
	}
	return &IngestHandler{ingest: ingest, size: size, window: window}
}

func (s *IngestHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("ingest consumer setup")
	return nil
}

func (s *IngestHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("ingest consumer cleanup")
	return nil
}

func (s *IngestHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-ingest consume claim", "partition", claim.Partition())
	return pullMessageBatch(session, claim, s.size, s.window, s.logic)
}

func (s *IngestHandler) logic(ctx context.Context, msgs []*sarama.ConsumerMessage) error {
	ctx = logger.WithTrace(ctx, logger.TracePrefixKafka)
	records := decodeRawPosts(ctx, msgs)
	if len(records) == 0 {
		return nil
	}
	return s.ingest(ctx, records, consts.SourceKafka)
}
