package repository

import (
	"Pulseboard/internal/model"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// metricColumns 指标到列名的白名单，避免拼接任意字段
var metricColumns = map[model.Metric]string{
	model.MetricLikes:    "likes",
	model.MetricComments: "comments",
	model.MetricShares:   "shares",
}

func (s *PostRepoImpl) posts(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&model.Post{})
}

func (s *PostRepoImpl) PlatformTotals(ctx context.Context) ([]*model.PlatformTotal, error) {
	rows := make([]*model.PlatformTotal, 0)
	err := s.posts(ctx).
		Select("platform, SUM(likes) AS total_likes, SUM(comments) AS total_comments, " +
			"SUM(shares) AS total_shares, SUM(total_engagement) AS total_engagement, COUNT(*) AS post_count").
		Group("platform").
		Order("total_engagement DESC, platform ASC").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "aggregate platform totals")
}

func (s *PostRepoImpl) EngagementByDay(ctx context.Context) ([]*model.DayEngagement, error) {
	rows := make([]*model.DayEngagement, 0)
	err := s.posts(ctx).
		Select("posted_day_of_week AS day, AVG(likes) AS avg_likes, AVG(comments) AS avg_comments, " +
			"AVG(shares) AS avg_shares, COUNT(*) AS post_count").
		Group("posted_day_of_week").
		Order("day ASC").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "aggregate engagement by day")
}

func (s *PostRepoImpl) SentimentByPlatform(ctx context.Context) ([]*model.SentimentGroup, error) {
	return s.sentimentBy(ctx, "platform")
}

func (s *PostRepoImpl) SentimentByPostType(ctx context.Context) ([]*model.SentimentGroup, error) {
	return s.sentimentBy(ctx, "post_type")
}

func (s *PostRepoImpl) sentimentBy(ctx context.Context, column string) ([]*model.SentimentGroup, error) {
	rows := make([]*model.CategorySentimentRow, 0)
	err := s.posts(ctx).
		Select(fmt.Sprintf("%s AS category, sentiment_score AS sentiment, COUNT(*) AS count", column)).
		Group(column + ", sentiment_score").
		Order("category ASC, sentiment ASC").
		Scan(&rows).Error
	if err != nil {
		return make([]*model.SentimentGroup, 0), errors.Wrapf(err, "aggregate sentiment by %s", column)
	}
	return model.GroupSentiments(rows), nil
}

func (s *PostRepoImpl) AverageByDatePlatform(ctx context.Context, metric model.Metric) ([]*model.DateMetricAverage, error) {
	rows := make([]*model.DateMetricAverage, 0)
	column, ok := metricColumns[metric]
	if !ok {
		return rows, errors.Errorf("unsupported metric %q", metric)
	}
	err := s.posts(ctx).
		Select(fmt.Sprintf("posted_date AS date, platform, AVG(%s) AS avg_%s, COUNT(*) AS total_posts", column, column)).
		Where("posted_date <> ''").
		Group("posted_date, platform").
		Order("date ASC, platform ASC").
		Scan(&rows).Error
	return rows, errors.Wrapf(err, "aggregate average %s by date and platform", column)
}

func (s *PostRepoImpl) SharesByPostType(ctx context.Context) ([]*model.PostTypeShares, error) {
	rows := make([]*model.PostTypeShares, 0)
	err := s.posts(ctx).
		Select("post_type, SUM(shares) AS total_shares, AVG(shares) AS avg_shares, COUNT(*) AS total_posts").
		Group("post_type").
		Order("total_shares DESC, post_type ASC").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "aggregate shares by post type")
}

func (s *PostRepoImpl) Decomposition(ctx context.Context, filter model.DecompositionFilter) ([]*model.DecompositionEntry, error) {
	rows := make([]*model.DecompositionEntry, 0)
	q := s.posts(ctx)
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	if filter.PostType != "" {
		q = q.Where("post_type = ?", filter.PostType)
	}
	err := q.
		Select("platform, post_type, sentiment_score, COUNT(*) AS total_posts, SUM(likes) AS total_likes, " +
			"SUM(comments) AS total_comments, SUM(shares) AS total_shares").
		Group("platform, post_type, sentiment_score").
		Order("platform ASC, post_type ASC, sentiment_score ASC").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "aggregate decomposition")
}

func (s *PostRepoImpl) TimeTrend(ctx context.Context) ([]*model.TrendPoint, error) {
	rows := make([]*model.TrendPoint, 0)
	err := s.posts(ctx).
		Select("posted_date AS date, platform, AVG(likes) AS avg_likes, AVG(comments) AS avg_comments, " +
			"AVG(shares) AS avg_shares, COUNT(*) AS count").
		Where("posted_date <> ''").
		Group("posted_date, platform").
		Order("date ASC, platform ASC").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "aggregate time trend")
}

func (s *PostRepoImpl) CountBy(ctx context.Context, field model.GroupField) ([]*model.CategoryCount, error) {
	rows := make([]*model.CategoryCount, 0)
	if !field.Valid() {
		return rows, errors.Errorf("unsupported group field %q", field)
	}
	column := string(field)
	err := s.posts(ctx).
		Select(column + " AS category, COUNT(*) AS count").
		Group(column).
		Order("category ASC").
		Scan(&rows).Error
	return rows, errors.Wrapf(err, "count by %s", column)
}

func (s *PostRepoImpl) EngagementAverages(ctx context.Context) (*model.EngagementAverages, error) {
	avg := &model.EngagementAverages{}
	err := s.posts(ctx).
		Select("COALESCE(AVG(likes), 0) AS avg_likes, COALESCE(AVG(comments), 0) AS avg_comments, " +
			"COALESCE(AVG(shares), 0) AS avg_shares, COUNT(*) AS total_posts").
		Scan(avg).Error
	if err != nil {
		return &model.EngagementAverages{}, errors.Wrap(err, "aggregate engagement averages")
	}
	return avg, nil
}

func (s *PostRepoImpl) PlatformStats(ctx context.Context, platform string) (*model.PlatformStats, error) {
	stats := &model.PlatformStats{}
	err := s.posts(ctx).
		Select("COUNT(*) AS total_posts, COALESCE(AVG(likes), 0) AS avg_likes, " +
			"COALESCE(AVG(comments), 0) AS avg_comments, COALESCE(AVG(shares), 0) AS avg_shares, " +
			"COALESCE(SUM(total_engagement), 0) AS total_engagement").
		Where("platform = ?", platform).
		Scan(stats).Error
	stats.Platform = platform
	if err != nil {
		return &model.PlatformStats{Platform: platform}, errors.Wrap(err, "aggregate platform stats")
	}
	return stats, nil
}

func (s *PostRepoImpl) PostTypeStats(ctx context.Context) ([]*model.PostTypeStats, error) {
	rows := make([]*model.PostTypeStats, 0)
	err := s.posts(ctx).
		Select("post_type, COUNT(*) AS count, AVG(likes) AS avg_likes, AVG(comments) AS avg_comments, AVG(shares) AS avg_shares").
		Group("post_type").
		Order("count DESC, post_type ASC").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "aggregate post type stats")
}

func (s *PostRepoImpl) SentimentStats(ctx context.Context) ([]*model.SentimentStats, error) {
	rows := make([]*model.SentimentStats, 0)
	err := s.posts(ctx).
		Select("sentiment_score AS sentiment, COUNT(*) AS count, AVG(total_engagement) AS avg_engagement").
		Group("sentiment_score").
		Order("count DESC, sentiment ASC").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "aggregate sentiment stats")
}
