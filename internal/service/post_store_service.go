package service

import (
	"Pulseboard/internal/model"
	"Pulseboard/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"golang.org/x/sync/errgroup"
)

// AggCache 聚合结果缓存，nil 表示不缓存
type AggCache interface {
	// Get 返回读取时的缓存代数
	Get(ctx context.Context, query string, dest any) (gen int64, hit bool, err error)
	// Set 写入 gen 代，gen 必须来自同一次查询的 Get
	Set(ctx context.Context, gen int64, query string, value any) error
	Invalidate(ctx context.Context) error
}

// PostStoreService 帖子集合的网关：写入、点查与固定的聚合目录。
// 聚合失败时返回空结果并记录 query 与错误，错误同时返回给调用方用于标记 success
type PostStoreService interface {
	// InsertMany 全部写入成功返回 true，失败只记录日志
	InsertMany(ctx context.Context, posts []*model.Post) bool
	// InsertPosts 同 InsertMany，但返回分类后的错误：
	// post_id 与已有记录冲突为 SchemaViolation，其余为 ErrInsertFailed
	InsertPosts(ctx context.Context, posts []*model.Post) error
	Count(ctx context.Context) (int64, error)
	MaxPostID(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error

	GetPost(ctx context.Context, postID int64) (*model.Post, error)
	ListPosts(ctx context.Context, limit int) ([]*model.Post, error)
	ListByPlatform(ctx context.Context, platform string) ([]*model.Post, error)
	UpdatePost(ctx context.Context, postID int64, patch *model.PostPatch) (*model.Post, error)
	DeletePost(ctx context.Context, postID int64) error
	DeleteAll(ctx context.Context) (int64, error)

	PlatformTotals(ctx context.Context) ([]*model.PlatformTotal, error)
	EngagementByDay(ctx context.Context) ([]*model.DayEngagement, error)
	SentimentByPlatform(ctx context.Context) ([]*model.SentimentGroup, error)
	SentimentByPostType(ctx context.Context) ([]*model.SentimentGroup, error)
	AverageByDatePlatform(ctx context.Context, metric model.Metric) ([]*model.DateMetricAverage, error)
	SharesByPostType(ctx context.Context) ([]*model.PostTypeShares, error)
	Decomposition(ctx context.Context, filter model.DecompositionFilter) ([]*model.DecompositionEntry, error)
	TimeTrend(ctx context.Context) ([]*model.TrendPoint, error)
	OverallStats(ctx context.Context) (*model.OverallStats, error)
	PlatformStats(ctx context.Context, platform string) (*model.PlatformStats, error)
	PostTypeStats(ctx context.Context) ([]*model.PostTypeStats, error)
	SentimentStats(ctx context.Context) ([]*model.SentimentStats, error)
}

type postStoreServiceImpl struct {
	repo  repository.PostRepo
	cache AggCache
}

func NewPostStoreService(repo repository.PostRepo, cache AggCache) PostStoreService {
	return &postStoreServiceImpl{
		repo:  repo,
		cache: cache,
	}
}

func (s *postStoreServiceImpl) InsertMany(ctx context.Context, posts []*model.Post) bool {
	return s.InsertPosts(ctx, posts) == nil
}

func (s *postStoreServiceImpl) InsertPosts(ctx context.Context, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if err := s.repo.InsertMany(ctx, posts); err != nil {
		log.ErrorContext(ctx, "insert posts failed", "count", len(posts), "err", err)
		if errors.Is(err, repository.ErrDuplicatePostID) {
			// 重试不会成功，按数据违规处理
			return &model.SchemaViolation{Index: -1, Field: "post_id", Rule: "unique", Value: conflictRange(posts)}
		}
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	s.invalidate(ctx)
	return nil
}

// conflictRange 批次的 post_id 区间，仅用于错误信息
func conflictRange(posts []*model.Post) string {
	return fmt.Sprintf("%d..%d", posts[0].PostID, posts[len(posts)-1].PostID)
}

func (s *postStoreServiceImpl) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		log.ErrorContext(ctx, "count posts failed", "err", err)
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

func (s *postStoreServiceImpl) MaxPostID(ctx context.Context) (int64, error) {
	n, err := s.repo.MaxPostID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

func (s *postStoreServiceImpl) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *postStoreServiceImpl) GetPost(ctx context.Context, postID int64) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		log.ErrorContext(ctx, "find post failed", "post_id", postID, "err", err)
		return nil, UnExpectedError
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postStoreServiceImpl) ListPosts(ctx context.Context, limit int) ([]*model.Post, error) {
	posts, err := s.repo.FindAll(ctx, limit)
	if err != nil {
		log.ErrorContext(ctx, "list posts failed", "limit", limit, "err", err)
		return make([]*model.Post, 0), err
	}
	return posts, nil
}

func (s *postStoreServiceImpl) ListByPlatform(ctx context.Context, platform string) ([]*model.Post, error) {
	posts, err := s.repo.FindByPlatform(ctx, platform)
	if err != nil {
		log.ErrorContext(ctx, "list posts by platform failed", "platform", platform, "err", err)
		return make([]*model.Post, 0), err
	}
	return posts, nil
}

// UpdatePost 应用补丁、重算派生字段并校验后写回
func (s *postStoreServiceImpl) UpdatePost(ctx context.Context, postID int64, patch *model.PostPatch) (*model.Post, error) {
	if patch == nil || patch.Empty() {
		return nil, ErrParamInvalid
	}
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	patch.Apply(post)
	if err = model.ValidatePost(post); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateByID(ctx, post)
	if err != nil {
		log.ErrorContext(ctx, "update post failed", "post_id", postID, "err", err)
		return nil, UnExpectedError
	}
	if !ok {
		return nil, ErrPostNotFound
	}
	s.invalidate(ctx)
	return post, nil
}

func (s *postStoreServiceImpl) DeletePost(ctx context.Context, postID int64) error {
	ok, err := s.repo.DeleteByID(ctx, postID)
	if err != nil {
		log.ErrorContext(ctx, "delete post failed", "post_id", postID, "err", err)
		return UnExpectedError
	}
	if !ok {
		return ErrPostNotFound
	}
	s.invalidate(ctx)
	return nil
}

func (s *postStoreServiceImpl) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		log.ErrorContext(ctx, "delete all posts failed", "err", err)
		return 0, UnExpectedError
	}
	log.WarnContext(ctx, "all posts deleted", "deleted", n)
	s.invalidate(ctx)
	return n, nil
}

func (s *postStoreServiceImpl) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.WarnContext(ctx, "invalidate aggregation cache failed", "err", err)
	}
}

// cachedQuery 先查缓存，未命中再执行聚合；失败时返回 empty。
// 回写使用聚合前读到的代数，聚合期间发生写入时结果不会被后续读取命中
func cachedQuery[T any](ctx context.Context, s *postStoreServiceImpl, query string, empty T, load func(context.Context) (T, error)) (T, error) {
	var gen int64
	writable := false
	if s.cache != nil {
		var hit T
		g, ok, err := s.cache.Get(ctx, query, &hit)
		if err != nil {
			log.WarnContext(ctx, "read aggregation cache failed", "query", query, "err", err)
		} else if ok {
			return hit, nil
		} else {
			gen, writable = g, true
		}
	}

	res, err := load(ctx)
	if err != nil {
		log.ErrorContext(ctx, "aggregation failed", "query", query, "err", err)
		return empty, err
	}

	if writable {
		if err = s.cache.Set(ctx, gen, query, res); err != nil {
			log.WarnContext(ctx, "write aggregation cache failed", "query", query, "err", err)
		}
	}
	return res, nil
}

func (s *postStoreServiceImpl) PlatformTotals(ctx context.Context) ([]*model.PlatformTotal, error) {
	return cachedQuery(ctx, s, "platform_totals", make([]*model.PlatformTotal, 0), s.repo.PlatformTotals)
}

func (s *postStoreServiceImpl) EngagementByDay(ctx context.Context) ([]*model.DayEngagement, error) {
	return cachedQuery(ctx, s, "engagement_by_day", make([]*model.DayEngagement, 0), s.repo.EngagementByDay)
}

func (s *postStoreServiceImpl) SentimentByPlatform(ctx context.Context) ([]*model.SentimentGroup, error) {
	return cachedQuery(ctx, s, "sentiment_by_platform", make([]*model.SentimentGroup, 0), s.repo.SentimentByPlatform)
}

func (s *postStoreServiceImpl) SentimentByPostType(ctx context.Context) ([]*model.SentimentGroup, error) {
	return cachedQuery(ctx, s, "sentiment_by_post_type", make([]*model.SentimentGroup, 0), s.repo.SentimentByPostType)
}

func (s *postStoreServiceImpl) AverageByDatePlatform(ctx context.Context, metric model.Metric) ([]*model.DateMetricAverage, error) {
	if !metric.Valid() {
		return make([]*model.DateMetricAverage, 0), ErrParamInvalid
	}
	return cachedQuery(ctx, s, "average_by_date_platform:"+string(metric), make([]*model.DateMetricAverage, 0),
		func(ctx context.Context) ([]*model.DateMetricAverage, error) {
			return s.repo.AverageByDatePlatform(ctx, metric)
		})
}

func (s *postStoreServiceImpl) SharesByPostType(ctx context.Context) ([]*model.PostTypeShares, error) {
	return cachedQuery(ctx, s, "shares_by_post_type", make([]*model.PostTypeShares, 0), s.repo.SharesByPostType)
}

func (s *postStoreServiceImpl) Decomposition(ctx context.Context, filter model.DecompositionFilter) ([]*model.DecompositionEntry, error) {
	query := fmt.Sprintf("decomposition:%s|%s", filter.Platform, filter.PostType)
	return cachedQuery(ctx, s, query, make([]*model.DecompositionEntry, 0),
		func(ctx context.Context) ([]*model.DecompositionEntry, error) {
			return s.repo.Decomposition(ctx, filter)
		})
}

func (s *postStoreServiceImpl) TimeTrend(ctx context.Context) ([]*model.TrendPoint, error) {
	return cachedQuery(ctx, s, "time_trend", make([]*model.TrendPoint, 0), s.repo.TimeTrend)
}

// OverallStats 并发执行三个计数与全量平均
func (s *postStoreServiceImpl) OverallStats(ctx context.Context) (*model.OverallStats, error) {
	empty := &model.OverallStats{
		PlatformStats:  make([]*model.CategoryCount, 0),
		PostTypeStats:  make([]*model.CategoryCount, 0),
		SentimentStats: make([]*model.CategoryCount, 0),
	}
	return cachedQuery(ctx, s, "overall_stats", empty, func(ctx context.Context) (*model.OverallStats, error) {
		stats := &model.OverallStats{}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			stats.PlatformStats, err = s.repo.CountBy(gctx, model.GroupByPlatform)
			return err
		})
		g.Go(func() (err error) {
			stats.PostTypeStats, err = s.repo.CountBy(gctx, model.GroupByPostType)
			return err
		})
		g.Go(func() (err error) {
			stats.SentimentStats, err = s.repo.CountBy(gctx, model.GroupBySentiment)
			return err
		})
		g.Go(func() error {
			avg, err := s.repo.EngagementAverages(gctx)
			if err != nil {
				return err
			}
			stats.EngagementStats = *avg
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return stats, nil
	})
}

func (s *postStoreServiceImpl) PlatformStats(ctx context.Context, platform string) (*model.PlatformStats, error) {
	return cachedQuery(ctx, s, "platform_stats:"+platform, &model.PlatformStats{Platform: platform},
		func(ctx context.Context) (*model.PlatformStats, error) {
			return s.repo.PlatformStats(ctx, platform)
		})
}

func (s *postStoreServiceImpl) PostTypeStats(ctx context.Context) ([]*model.PostTypeStats, error) {
	return cachedQuery(ctx, s, "post_type_stats", make([]*model.PostTypeStats, 0), s.repo.PostTypeStats)
}

func (s *postStoreServiceImpl) SentimentStats(ctx context.Context) ([]*model.SentimentStats, error) {
	return cachedQuery(ctx, s, "sentiment_stats", make([]*model.SentimentStats, 0), s.repo.SentimentStats)
}
