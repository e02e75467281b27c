package service

import (
	"Pulseboard/internal/api/config"
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/consts"
	"Pulseboard/internal/pkg/csvsource"
	"Pulseboard/internal/pkg/logger"
	"Pulseboard/internal/pkg/mock"
	"Pulseboard/internal/pkg/transform"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// EventPublisher 入库事件的下游，如 Kafka 与 WebSocket
type EventPublisher interface {
	Publish(ctx context.Context, evt model.IngestEvent) error
}

// BootstrapResult 首次导入结果，IngestionPerformed 区分"本次导入"与"已有数据"
type BootstrapResult struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	TotalRecords       int64  `json:"total_records"`
	IngestionPerformed bool   `json:"ingestion_performed"`
	MockSeeded         int    `json:"mock_seeded,omitempty"`
}

type IngestService interface {
	// Bootstrap 集合为空时导入 CSV，否则跳过
	Bootstrap(ctx context.Context) *BootstrapResult
	// Tick 随机批量生成模拟帖子并写入
	Tick(ctx context.Context) (*model.IngestEvent, error)
	// GenerateMock 生成指定数量的模拟帖子并写入
	GenerateMock(ctx context.Context, count int, source string) (*model.IngestEvent, error)
	// IngestRaw 清洗并写入外部原始记录，整批成功或整批拒绝
	IngestRaw(ctx context.Context, records []model.RawPost, source string) (*model.IngestEvent, error)
}

type ingestServiceImpl struct {
	store      PostStoreService
	source     csvsource.Source
	generator  *mock.Generator
	rng        *rand.Rand
	cfg        config.IngestConfig
	publishers []EventPublisher

	// mu 串行化 "读最大 id -> 生成 -> 清洗 -> 写入"
	mu          sync.Mutex
	bootstrapMu sync.Mutex
}

// NewIngestService source 为 nil 表示未配置 CSV；rng 为 nil 时使用随机种子
func NewIngestService(store PostStoreService, source csvsource.Source, rng *rand.Rand, cfg config.IngestConfig, publishers ...EventPublisher) IngestService {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &ingestServiceImpl{
		store:      store,
		source:     source,
		generator:  mock.NewGenerator(rng, time.Now),
		rng:        rng,
		cfg:        cfg,
		publishers: publishers,
	}
}

func (s *ingestServiceImpl) Bootstrap(ctx context.Context) *BootstrapResult {
	s.bootstrapMu.Lock()
	defer s.bootstrapMu.Unlock()

	count, err := s.store.Count(ctx)
	if err != nil {
		return &BootstrapResult{Message: err.Error()}
	}
	if count > 0 {
		log.InfoContext(ctx, "bootstrap skipped, store already populated", "total_records", count)
		return &BootstrapResult{
			Success:      true,
			Message:      fmt.Sprintf("Database already contains %d records", count),
			TotalRecords: count,
		}
	}

	res := &BootstrapResult{Success: true, IngestionPerformed: true}
	if s.source != nil {
		records, err := csvsource.Load(ctx, s.source)
		if err != nil {
			log.ErrorContext(ctx, "bootstrap load csv failed", "source", s.source.String(), "err", err)
			if !errors.Is(err, model.ErrSchemaViolation) {
				err = fmt.Errorf("%w: %v", ErrCSVSource, err)
			}
			return &BootstrapResult{Message: err.Error()}
		}
		evt, err := s.IngestRaw(ctx, records, consts.SourceCSV)
		if err != nil {
			return &BootstrapResult{Message: err.Error()}
		}
		res.TotalRecords = int64(evt.Inserted)
		res.Message = fmt.Sprintf("Successfully ingested %d records from %s", evt.Inserted, s.source.String())
	} else {
		res.Message = "No CSV source configured"
	}

	if n := s.cfg.BootstrapMockCount; n > 0 {
		evt, err := s.GenerateMock(ctx, n, consts.SourceBootstrap)
		if err != nil {
			log.WarnContext(ctx, "bootstrap mock seed failed", "count", n, "err", err)
		} else {
			res.MockSeeded = evt.Inserted
		}
	}
	if s.source == nil {
		res.TotalRecords = int64(res.MockSeeded)
		res.IngestionPerformed = res.MockSeeded > 0
	}
	return res
}

func (s *ingestServiceImpl) Tick(ctx context.Context) (*model.IngestEvent, error) {
	low, high := s.cfg.BatchMin, s.cfg.BatchMax
	if low < 1 {
		low = 1
	}
	if high < low {
		high = low
	}
	// rng 与 generator 共用，抽取批量也要在 mu 内
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateLocked(ctx, low+s.rng.IntN(high-low+1), consts.SourceMock)
}

func (s *ingestServiceImpl) GenerateMock(ctx context.Context, count int, source string) (*model.IngestEvent, error) {
	if count < 1 {
		return nil, ErrParamInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateLocked(ctx, count, source)
}

// generateLocked 调用方持有 mu
func (s *ingestServiceImpl) generateLocked(ctx context.Context, count int, source string) (*model.IngestEvent, error) {
	maxID, err := s.store.MaxPostID(ctx)
	if err != nil {
		// 查询失败时从 1 开始编号，写入若冲突会整批失败
		log.WarnContext(ctx, "max post_id lookup failed, generator falls back to id 1", "err", err)
		maxID = 0
	}
	records := s.generator.Generate(count, maxID)
	return s.ingestLocked(ctx, records, source, maxID)
}

func (s *ingestServiceImpl) IngestRaw(ctx context.Context, records []model.RawPost, source string) (*model.IngestEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxID, err := s.store.MaxPostID(ctx)
	if err != nil {
		log.ErrorContext(ctx, "max post_id lookup failed", "source", source, "err", err)
		return nil, err
	}
	return s.ingestLocked(ctx, records, source, maxID)
}

// ingestLocked 清洗、分配 id、校验并写入。调用方持有 mu
func (s *ingestServiceImpl) ingestLocked(ctx context.Context, records []model.RawPost, source string, maxID int64) (*model.IngestEvent, error) {
	posts := transform.Transform(ctx, records)
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrParamInvalid)
	}
	if err := assignPostIDs(posts, maxID); err != nil {
		log.WarnContext(ctx, "batch rejected", "source", source, "err", err)
		return nil, err
	}
	if err := model.ValidatePosts(posts); err != nil {
		log.WarnContext(ctx, "batch rejected", "source", source, "err", err)
		return nil, err
	}
	if err := s.store.InsertPosts(ctx, posts); err != nil {
		log.WarnContext(ctx, "batch rejected by store", "source", source, "err", err)
		return nil, err
	}

	evt := model.IngestEvent{
		Source:      source,
		Inserted:    len(posts),
		FirstPostID: posts[0].PostID,
		LastPostID:  posts[len(posts)-1].PostID,
		At:          time.Now(),
	}
	if traceID, ok := logger.TraceID(ctx); ok {
		evt.TraceID = traceID
	}
	if total, err := s.store.Count(ctx); err == nil {
		evt.TotalRecords = total
	}
	log.InfoContext(ctx, "batch ingested", "source", source, "inserted", evt.Inserted,
		"first_post_id", evt.FirstPostID, "last_post_id", evt.LastPostID)

	for _, p := range s.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			log.WarnContext(ctx, "publish ingest event failed", "err", err)
		}
	}
	return &evt, nil
}

// assignPostIDs 保留已有 post_id，缺失的从当前最大值之后依次分配；批内重复视为违规
func assignPostIDs(posts []*model.Post, maxID int64) error {
	next := maxID
	seen := make(map[int64]struct{}, len(posts))
	for _, p := range posts {
		if p.PostID > next {
			next = p.PostID
		}
	}
	for i, p := range posts {
		if p.PostID == 0 {
			next++
			p.PostID = next
		}
		if _, dup := seen[p.PostID]; dup {
			return &model.SchemaViolation{Index: i, Field: "post_id", Rule: "unique", Value: p.PostID}
		}
		seen[p.PostID] = struct{}{}
	}
	return nil
}
