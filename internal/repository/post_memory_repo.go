package repository

import (
	"Pulseboard/internal/model"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var _ PostRepo = (*PostMemoryRepo)(nil)

// PostMemoryRepo 进程内存储，用于开发环境与测试，聚合语义与 mongo 管道保持一致
type PostMemoryRepo struct {
	mu    sync.RWMutex
	posts []*model.Post
}

func NewPostMemoryRepo() *PostMemoryRepo {
	return &PostMemoryRepo{posts: make([]*model.Post, 0)}
}

func (s *PostMemoryRepo) snapshot() []*model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.posts, func(p *model.Post, _ int) *model.Post {
		cp := *p
		return &cp
	})
}

func (s *PostMemoryRepo) InsertMany(_ context.Context, posts []*model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[int64]struct{}, len(s.posts)+len(posts))
	for _, p := range s.posts {
		existing[p.PostID] = struct{}{}
	}
	batch := make([]*model.Post, 0, len(posts))
	for _, p := range posts {
		if _, ok := existing[p.PostID]; ok {
			return errors.Wrapf(ErrDuplicatePostID, "insert posts: post_id %d", p.PostID)
		}
		existing[p.PostID] = struct{}{}
		cp := *p
		batch = append(batch, &cp)
	}
	s.posts = append(s.posts, batch...)
	return nil
}

func (s *PostMemoryRepo) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.posts)), nil
}

func (s *PostMemoryRepo) MaxPostID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.posts) == 0 {
		return 0, nil
	}
	return lo.MaxBy(s.posts, func(a, b *model.Post) bool { return a.PostID > b.PostID }).PostID, nil
}

func (s *PostMemoryRepo) FindByID(_ context.Context, postID int64) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := lo.Find(s.posts, func(p *model.Post) bool { return p.PostID == postID })
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *PostMemoryRepo) FindAll(_ context.Context, limit int) ([]*model.Post, error) {
	posts := s.snapshot()
	sort.Slice(posts, func(i, j int) bool { return posts[i].PostID < posts[j].PostID })
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *PostMemoryRepo) FindByPlatform(ctx context.Context, platform string) ([]*model.Post, error) {
	posts, _ := s.FindAll(ctx, 0)
	return lo.Filter(posts, func(p *model.Post, _ int) bool { return p.Platform == platform }), nil
}

func (s *PostMemoryRepo) UpdateByID(_ context.Context, post *model.Post) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, idx, ok := lo.FindIndexOf(s.posts, func(p *model.Post) bool { return p.PostID == post.PostID })
	if !ok {
		return false, nil
	}
	cur := s.posts[idx]
	cur.Platform = post.Platform
	cur.PostType = post.PostType
	cur.Likes = post.Likes
	cur.Comments = post.Comments
	cur.Shares = post.Shares
	cur.SentimentScore = post.SentimentScore
	cur.TotalEngagement = post.TotalEngagement
	cur.EngagementRatio = post.EngagementRatio
	return true, nil
}

func (s *PostMemoryRepo) DeleteByID(_ context.Context, postID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.posts)
	s.posts = lo.Reject(s.posts, func(p *model.Post, _ int) bool { return p.PostID == postID })
	return len(s.posts) < before, nil
}

func (s *PostMemoryRepo) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.posts))
	s.posts = make([]*model.Post, 0)
	return n, nil
}

func (s *PostMemoryRepo) Ping(_ context.Context) error {
	return nil
}

// ---- 聚合 ----

func (s *PostMemoryRepo) PlatformTotals(_ context.Context) ([]*model.PlatformTotal, error) {
	groups := lo.GroupBy(s.snapshot(), func(p *model.Post) string { return p.Platform })
	rows := make([]*model.PlatformTotal, 0, len(groups))
	for platform, posts := range groups {
		rows = append(rows, &model.PlatformTotal{
			Platform:        platform,
			TotalLikes:      lo.SumBy(posts, func(p *model.Post) int64 { return p.Likes }),
			TotalComments:   lo.SumBy(posts, func(p *model.Post) int64 { return p.Comments }),
			TotalShares:     lo.SumBy(posts, func(p *model.Post) int64 { return p.Shares }),
			TotalEngagement: lo.SumBy(posts, func(p *model.Post) int64 { return p.TotalEngagement }),
			PostCount:       int64(len(posts)),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalEngagement != rows[j].TotalEngagement {
			return rows[i].TotalEngagement > rows[j].TotalEngagement
		}
		return rows[i].Platform < rows[j].Platform
	})
	return rows, nil
}

func (s *PostMemoryRepo) EngagementByDay(_ context.Context) ([]*model.DayEngagement, error) {
	groups := lo.GroupBy(s.snapshot(), func(p *model.Post) string { return p.PostedDayOfWeek })
	rows := make([]*model.DayEngagement, 0, len(groups))
	for day, posts := range groups {
		rows = append(rows, &model.DayEngagement{
			Day:         day,
			AvgLikes:    mean(posts, func(p *model.Post) int64 { return p.Likes }),
			AvgComments: mean(posts, func(p *model.Post) int64 { return p.Comments }),
			AvgShares:   mean(posts, func(p *model.Post) int64 { return p.Shares }),
			PostCount:   int64(len(posts)),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })
	return rows, nil
}

func (s *PostMemoryRepo) SentimentByPlatform(_ context.Context) ([]*model.SentimentGroup, error) {
	return model.GroupSentiments(sentimentRows(s.snapshot(), func(p *model.Post) string { return p.Platform })), nil
}

func (s *PostMemoryRepo) SentimentByPostType(_ context.Context) ([]*model.SentimentGroup, error) {
	return model.GroupSentiments(sentimentRows(s.snapshot(), func(p *model.Post) string { return p.PostType })), nil
}

func sentimentRows(posts []*model.Post, category func(p *model.Post) string) []*model.CategorySentimentRow {
	type key struct{ category, sentiment string }
	counts := lo.CountValuesBy(posts, func(p *model.Post) key {
		return key{category: category(p), sentiment: p.SentimentScore}
	})
	rows := make([]*model.CategorySentimentRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, &model.CategorySentimentRow{Category: k.category, Sentiment: k.sentiment, Count: int64(n)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Category != rows[j].Category {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].Sentiment < rows[j].Sentiment
	})
	return rows
}

type datePlatform struct{ date, platform string }

// byDatePlatform 按 (日期, 平台) 分组，跳过没有日期的记录
func byDatePlatform(posts []*model.Post) (map[datePlatform][]*model.Post, []datePlatform) {
	dated := lo.Filter(posts, func(p *model.Post, _ int) bool { return p.PostedDate != "" })
	groups := lo.GroupBy(dated, func(p *model.Post) datePlatform {
		return datePlatform{date: p.PostedDate, platform: p.Platform}
	})
	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].platform < keys[j].platform
	})
	return groups, keys
}

func (s *PostMemoryRepo) AverageByDatePlatform(_ context.Context, metric model.Metric) ([]*model.DateMetricAverage, error) {
	rows := make([]*model.DateMetricAverage, 0)
	if !metric.Valid() {
		return rows, errors.Errorf("unsupported metric %q", metric)
	}
	groups, keys := byDatePlatform(s.snapshot())
	for _, k := range keys {
		posts := groups[k]
		row := &model.DateMetricAverage{Date: k.date, Platform: k.platform, TotalPosts: int64(len(posts))}
		switch metric {
		case model.MetricLikes:
			row.AvgLikes = model.Ptr(mean(posts, func(p *model.Post) int64 { return p.Likes }))
		case model.MetricComments:
			row.AvgComments = model.Ptr(mean(posts, func(p *model.Post) int64 { return p.Comments }))
		case model.MetricShares:
			row.AvgShares = model.Ptr(mean(posts, func(p *model.Post) int64 { return p.Shares }))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *PostMemoryRepo) SharesByPostType(_ context.Context) ([]*model.PostTypeShares, error) {
	groups := lo.GroupBy(s.snapshot(), func(p *model.Post) string { return p.PostType })
	rows := make([]*model.PostTypeShares, 0, len(groups))
	for postType, posts := range groups {
		rows = append(rows, &model.PostTypeShares{
			PostType:    postType,
			TotalShares: lo.SumBy(posts, func(p *model.Post) int64 { return p.Shares }),
			AvgShares:   mean(posts, func(p *model.Post) int64 { return p.Shares }),
			TotalPosts:  int64(len(posts)),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalShares != rows[j].TotalShares {
			return rows[i].TotalShares > rows[j].TotalShares
		}
		return rows[i].PostType < rows[j].PostType
	})
	return rows, nil
}

func (s *PostMemoryRepo) Decomposition(_ context.Context, filter model.DecompositionFilter) ([]*model.DecompositionEntry, error) {
	posts := lo.Filter(s.snapshot(), func(p *model.Post, _ int) bool {
		return (filter.Platform == "" || p.Platform == filter.Platform) &&
			(filter.PostType == "" || p.PostType == filter.PostType)
	})
	type key struct{ platform, postType, sentiment string }
	groups := lo.GroupBy(posts, func(p *model.Post) key { return key{p.Platform, p.PostType, p.SentimentScore} })
	rows := make([]*model.DecompositionEntry, 0, len(groups))
	for k, g := range groups {
		rows = append(rows, &model.DecompositionEntry{
			Platform:       k.platform,
			PostType:       k.postType,
			SentimentScore: k.sentiment,
			TotalPosts:     int64(len(g)),
			TotalLikes:     lo.SumBy(g, func(p *model.Post) int64 { return p.Likes }),
			TotalComments:  lo.SumBy(g, func(p *model.Post) int64 { return p.Comments }),
			TotalShares:    lo.SumBy(g, func(p *model.Post) int64 { return p.Shares }),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := strings.Compare(a.Platform, b.Platform); c != 0 {
			return c < 0
		}
		if c := strings.Compare(a.PostType, b.PostType); c != 0 {
			return c < 0
		}
		return a.SentimentScore < b.SentimentScore
	})
	return rows, nil
}

func (s *PostMemoryRepo) TimeTrend(_ context.Context) ([]*model.TrendPoint, error) {
	groups, keys := byDatePlatform(s.snapshot())
	rows := make([]*model.TrendPoint, 0, len(keys))
	for _, k := range keys {
		posts := groups[k]
		rows = append(rows, &model.TrendPoint{
			Date:        k.date,
			Platform:    k.platform,
			AvgLikes:    mean(posts, func(p *model.Post) int64 { return p.Likes }),
			AvgComments: mean(posts, func(p *model.Post) int64 { return p.Comments }),
			AvgShares:   mean(posts, func(p *model.Post) int64 { return p.Shares }),
			Count:       int64(len(posts)),
		})
	}
	return rows, nil
}

func (s *PostMemoryRepo) CountBy(_ context.Context, field model.GroupField) ([]*model.CategoryCount, error) {
	rows := make([]*model.CategoryCount, 0)
	var pick func(p *model.Post) string
	switch field {
	case model.GroupByPlatform:
		pick = func(p *model.Post) string { return p.Platform }
	case model.GroupByPostType:
		pick = func(p *model.Post) string { return p.PostType }
	case model.GroupBySentiment:
		pick = func(p *model.Post) string { return p.SentimentScore }
	default:
		return rows, errors.Errorf("unsupported group field %q", field)
	}
	for category, n := range lo.CountValuesBy(s.snapshot(), pick) {
		rows = append(rows, &model.CategoryCount{Category: category, Count: int64(n)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })
	return rows, nil
}

func (s *PostMemoryRepo) EngagementAverages(_ context.Context) (*model.EngagementAverages, error) {
	posts := s.snapshot()
	return &model.EngagementAverages{
		AvgLikes:    mean(posts, func(p *model.Post) int64 { return p.Likes }),
		AvgComments: mean(posts, func(p *model.Post) int64 { return p.Comments }),
		AvgShares:   mean(posts, func(p *model.Post) int64 { return p.Shares }),
		TotalPosts:  int64(len(posts)),
	}, nil
}

func (s *PostMemoryRepo) PlatformStats(_ context.Context, platform string) (*model.PlatformStats, error) {
	posts := lo.Filter(s.snapshot(), func(p *model.Post, _ int) bool { return p.Platform == platform })
	return &model.PlatformStats{
		Platform:        platform,
		TotalPosts:      int64(len(posts)),
		AvgLikes:        mean(posts, func(p *model.Post) int64 { return p.Likes }),
		AvgComments:     mean(posts, func(p *model.Post) int64 { return p.Comments }),
		AvgShares:       mean(posts, func(p *model.Post) int64 { return p.Shares }),
		TotalEngagement: lo.SumBy(posts, func(p *model.Post) int64 { return p.TotalEngagement }),
	}, nil
}

func (s *PostMemoryRepo) PostTypeStats(_ context.Context) ([]*model.PostTypeStats, error) {
	groups := lo.GroupBy(s.snapshot(), func(p *model.Post) string { return p.PostType })
	rows := make([]*model.PostTypeStats, 0, len(groups))
	for postType, posts := range groups {
		rows = append(rows, &model.PostTypeStats{
			PostType:    postType,
			Count:       int64(len(posts)),
			AvgLikes:    mean(posts, func(p *model.Post) int64 { return p.Likes }),
			AvgComments: mean(posts, func(p *model.Post) int64 { return p.Comments }),
			AvgShares:   mean(posts, func(p *model.Post) int64 { return p.Shares }),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].PostType < rows[j].PostType
	})
	return rows, nil
}

func (s *PostMemoryRepo) SentimentStats(_ context.Context) ([]*model.SentimentStats, error) {
	groups := lo.GroupBy(s.snapshot(), func(p *model.Post) string { return p.SentimentScore })
	rows := make([]*model.SentimentStats, 0, len(groups))
	for sentiment, posts := range groups {
		rows = append(rows, &model.SentimentStats{
			Sentiment:     sentiment,
			Count:         int64(len(posts)),
			AvgEngagement: mean(posts, func(p *model.Post) int64 { return p.TotalEngagement }),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Sentiment < rows[j].Sentiment
	})
	return rows, nil
}

func mean(posts []*model.Post, value func(p *model.Post) int64) float64 {
	if len(posts) == 0 {
		return 0
	}
	return float64(lo.SumBy(posts, value)) / float64(len(posts))
}
