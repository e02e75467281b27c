package service

import (
	"Pulseboard/internal/api/config"
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/cron"
	"Pulseboard/internal/repository"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// csvString 内存中的 CSV 来源
type csvString string

func (s csvString) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

func (s csvString) String() string { return "memory.csv" }

// flakyRepo 可按需让部分查询失败
type flakyRepo struct {
	*repository.PostMemoryRepo
	failMax       bool
	failCount     bool
	failAggregate bool
	failInsert    bool
}

var errBoom = errors.New("connection refused")

func (r *flakyRepo) MaxPostID(ctx context.Context) (int64, error) {
	if r.failMax {
		return 0, errBoom
	}
	return r.PostMemoryRepo.MaxPostID(ctx)
}

func (r *flakyRepo) InsertMany(ctx context.Context, posts []*model.Post) error {
	if r.failInsert {
		return errBoom
	}
	return r.PostMemoryRepo.InsertMany(ctx, posts)
}

func (r *flakyRepo) Count(ctx context.Context) (int64, error) {
	if r.failCount {
		return 0, errBoom
	}
	return r.PostMemoryRepo.Count(ctx)
}

func (r *flakyRepo) PlatformTotals(ctx context.Context) ([]*model.PlatformTotal, error) {
	if r.failAggregate {
		return make([]*model.PlatformTotal, 0), errBoom
	}
	return r.PostMemoryRepo.PlatformTotals(ctx)
}

func (r *flakyRepo) SentimentByPlatform(ctx context.Context) ([]*model.SentimentGroup, error) {
	if r.failAggregate {
		return make([]*model.SentimentGroup, 0), errBoom
	}
	return r.PostMemoryRepo.SentimentByPlatform(ctx)
}

func newFlakyRepo() *flakyRepo {
	return &flakyRepo{PostMemoryRepo: repository.NewPostMemoryRepo()}
}

// mapCache 进程内的缓存实现，记录命中次数
type mapCache struct {
	mu    sync.Mutex
	gen   int64
	items map[string][]byte
	hits  int
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, query string, dest any) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[fmt.Sprintf("%d:%s", c.gen, query)]
	if !ok {
		return c.gen, false, nil
	}
	c.hits++
	return c.gen, true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, gen int64, query string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[fmt.Sprintf("%d:%s", gen, query)] = raw
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return nil
}

// slowTotalsRepo 计算出平台汇总后停在 release 上，模拟慢聚合
type slowTotalsRepo struct {
	*flakyRepo
	entered chan struct{}
	release chan struct{}
}

func (r *slowTotalsRepo) PlatformTotals(ctx context.Context) ([]*model.PlatformTotal, error) {
	res, err := r.flakyRepo.PlatformTotals(ctx)
	r.entered <- struct{}{}
	<-r.release
	return res, err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.IngestEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt model.IngestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

type fakeScheduler struct {
	running bool
}

func (s *fakeScheduler) Start() (bool, error) {
	if s.running {
		return false, nil
	}
	s.running = true
	return true, nil
}

func (s *fakeScheduler) Stop() bool {
	if !s.running {
		return false
	}
	s.running = false
	return true
}

func (s *fakeScheduler) Status() cron.Status {
	return cron.Status{Running: s.running, Interval: "30s"}
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{BatchMin: 5, BatchMax: 10, Interval: 30}
}

func seededRNG() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func post(id int64, platform, sentiment string, likes, comments, shares int64) *model.Post {
	total, ratio := model.Engagement(likes, comments, shares)
	return &model.Post{
		PostID:          id,
		Platform:        platform,
		PostType:        model.PostTypeText,
		PostedDate:      "2024-03-04",
		PostedTime:      "09:30:00",
		Likes:           likes,
		Comments:        comments,
		Shares:          shares,
		SentimentScore:  sentiment,
		TotalEngagement: total,
		EngagementRatio: ratio,
		PostedHour:      9,
		PostedDayOfWeek: "Monday",
		PostedMonth:     "March",
		EngagementLevel: model.EngagementMedium,
	}
}
