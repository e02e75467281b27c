package repository

import (
	"Pulseboard/internal/model"
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newSQLRepo 内存 SQLite 上的 gorm 仓库，与线上相同的建表与错误翻译
func newSQLRepo(t *testing.T, posts ...*model.Post) *PostRepoImpl {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: 每个连接一个库
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewPostRepo(db).(*PostRepoImpl)
	require.NoError(t, repo.AutoMigrate())
	if len(posts) > 0 {
		require.NoError(t, repo.InsertMany(context.Background(), posts))
	}
	return repo
}

func TestSQLRepo_MaxPostIDOnEmptyTable(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t)

	maxID, err := repo.MaxPostID(ctx)
	require.NoError(t, err)
	assert.Zero(t, maxID)
	require.NoError(t, repo.Ping(ctx))

	require.NoError(t, repo.InsertMany(ctx, []*model.Post{
		fixture(7, model.PlatformFacebook, model.PostTypeText, model.SentimentPositive, "2024-01-01", 1, 1, 1),
		fixture(3, model.PlatformFacebook, model.PostTypeText, model.SentimentPositive, "2024-01-01", 1, 1, 1),
	}))
	maxID, err = repo.MaxPostID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), maxID)
	n, _ := repo.Count(ctx)
	assert.Equal(t, int64(2), n)
}

func TestSQLRepo_InsertManyDuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t, fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentNeutral, "2024-01-01", 1, 0, 0))

	err := repo.InsertMany(ctx, []*model.Post{
		fixture(2, model.PlatformTwitter, model.PostTypeText, model.SentimentNeutral, "2024-01-01", 1, 0, 0),
		fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentNeutral, "2024-01-01", 1, 0, 0),
	})
	assert.True(t, errors.Is(err, ErrDuplicatePostID))
	n, _ := repo.Count(ctx)
	assert.Equal(t, int64(1), n, "failed batch must not be partially written")
}

func TestSQLRepo_UpdateByIDOnlyTouchesUpdatableColumns(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t, fixture(1, model.PlatformLinkedIn, model.PostTypePoll, model.SentimentPositive, "2024-01-02", 8, 1, 1))

	p, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)

	p.Likes = 0
	p.Platform = model.PlatformTwitter
	p.TotalEngagement, p.EngagementRatio = model.Engagement(p.Likes, p.Comments, p.Shares)
	// 不在可更新列内
	p.PostedDate = "1999-12-31"
	p.EngagementLevel = model.EngagementVeryHigh
	ok, err := repo.UpdateByID(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	// 零值也要写入
	assert.Zero(t, got.Likes)
	assert.Equal(t, model.PlatformTwitter, got.Platform)
	assert.Equal(t, int64(2), got.TotalEngagement)
	assert.Equal(t, "2024-01-02", got.PostedDate)
	assert.Equal(t, model.EngagementMedium, got.EngagementLevel)

	ok, err = repo.UpdateByID(ctx, &model.Post{PostID: 42})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLRepo_FindAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t,
		fixture(2, model.PlatformTwitter, model.PostTypeText, model.SentimentNeutral, "2024-01-01", 5, 0, 0),
		fixture(1, model.PlatformLinkedIn, model.PostTypePoll, model.SentimentPositive, "2024-01-02", 8, 1, 1),
	)

	missing, err := repo.FindByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := repo.FindAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].PostID)
	limited, _ := repo.FindAll(ctx, 1)
	assert.Len(t, limited, 1)

	twitter, err := repo.FindByPlatform(ctx, model.PlatformTwitter)
	require.NoError(t, err)
	require.Len(t, twitter, 1)
	assert.Equal(t, int64(2), twitter[0].PostID)

	ok, _ := repo.DeleteByID(ctx, 2)
	assert.True(t, ok)
	ok, _ = repo.DeleteByID(ctx, 2)
	assert.False(t, ok)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	count, _ := repo.Count(ctx)
	assert.Zero(t, count)
}

func mixedPlatformPosts() []*model.Post {
	return []*model.Post{
		fixture(1, model.PlatformFacebook, model.PostTypeText, model.SentimentPositive, "2024-01-01", 10, 1, 0),
		fixture(2, model.PlatformFacebook, model.PostTypeImage, model.SentimentNeutral, "2024-01-01", 20, 2, 0),
		fixture(3, model.PlatformFacebook, model.PostTypeVideo, model.SentimentPositive, "2024-01-02", 30, 3, 0),
		fixture(4, model.PlatformTwitter, model.PostTypeText, model.SentimentNegative, "2024-01-02", 100, 0, 0),
	}
}

func TestSQLRepo_PlatformTotalsAndSentiment(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t, mixedPlatformPosts()...)
	mem := seeded(t, mixedPlatformPosts()...)

	rows, err := repo.PlatformTotals(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.PlatformTotal{Platform: model.PlatformTwitter, TotalLikes: 100, TotalEngagement: 100, PostCount: 1}, *rows[0])
	assert.Equal(t, model.PlatformTotal{
		Platform: model.PlatformFacebook, TotalLikes: 60, TotalComments: 6, TotalEngagement: 66, PostCount: 3,
	}, *rows[1])

	// 两级分组与内存实现结果一致
	byPlatform, err := repo.SentimentByPlatform(ctx)
	require.NoError(t, err)
	want, _ := mem.SentimentByPlatform(ctx)
	assert.Equal(t, want, byPlatform)

	byType, err := repo.SentimentByPostType(ctx)
	require.NoError(t, err)
	want, _ = mem.SentimentByPostType(ctx)
	assert.Equal(t, want, byType)
	require.Len(t, byType, 3)
	assert.Equal(t, model.PostTypeImage, byType[0].Category)
	assert.Equal(t, int64(2), byType[1].TotalPosts)
}

func TestSQLRepo_DecompositionFilters(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t,
		fixture(1, model.PlatformLinkedIn, model.PostTypeText, model.SentimentPositive, "2024-01-01", 10, 0, 0),
		fixture(2, model.PlatformLinkedIn, model.PostTypeText, model.SentimentPositive, "2024-01-01", 20, 0, 0),
		fixture(3, model.PlatformLinkedIn, model.PostTypeImage, model.SentimentNeutral, "2024-01-01", 5, 0, 0),
		fixture(4, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-01", 1, 0, 0),
	)

	rows, err := repo.Decomposition(ctx, model.DecompositionFilter{Platform: model.PlatformLinkedIn})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.DecompositionEntry{
		Platform: model.PlatformLinkedIn, PostType: model.PostTypeImage, SentimentScore: model.SentimentNeutral,
		TotalPosts: 1, TotalLikes: 5,
	}, *rows[0])
	assert.Equal(t, int64(30), rows[1].TotalLikes)

	rows, _ = repo.Decomposition(ctx, model.DecompositionFilter{Platform: model.PlatformLinkedIn, PostType: model.PostTypeText})
	assert.Len(t, rows, 1)
	rows, _ = repo.Decomposition(ctx, model.DecompositionFilter{})
	assert.Len(t, rows, 3)

	rows, err = repo.Decomposition(ctx, model.DecompositionFilter{Platform: model.PlatformInstagram})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSQLRepo_DateAggregationsSkipUndated(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t,
		fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-02", 10, 2, 4),
		fixture(2, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-02", 20, 4, 8),
		fixture(3, model.PlatformFacebook, model.PostTypeText, model.SentimentPositive, "2024-01-02", 6, 0, 0),
		fixture(4, model.PlatformFacebook, model.PostTypeText, model.SentimentPositive, "2024-01-01", 8, 0, 0),
		fixture(5, model.PlatformFacebook, model.PostTypeText, model.SentimentPositive, "", 1000, 0, 0),
	)

	avg, err := repo.AverageByDatePlatform(ctx, model.MetricLikes)
	require.NoError(t, err)
	require.Len(t, avg, 3)
	assert.Equal(t, "2024-01-01", avg[0].Date)
	assert.Equal(t, model.PlatformFacebook, avg[1].Platform)
	assert.Equal(t, model.PlatformTwitter, avg[2].Platform)
	require.NotNil(t, avg[2].AvgLikes)
	assert.InDelta(t, 15.0, *avg[2].AvgLikes, 1e-9)
	assert.Nil(t, avg[2].AvgShares)
	assert.Equal(t, int64(2), avg[2].TotalPosts)

	shares, err := repo.AverageByDatePlatform(ctx, model.MetricShares)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, shares[2].Average(model.MetricShares), 1e-9)

	_, err = repo.AverageByDatePlatform(ctx, model.Metric("views"))
	assert.Error(t, err)

	trend, err := repo.TimeTrend(ctx)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, model.TrendPoint{Date: "2024-01-02", Platform: model.PlatformTwitter, AvgLikes: 15, AvgComments: 3, AvgShares: 6, Count: 2}, *trend[2])
}

func TestSQLRepo_SharesAndTypeStats(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t,
		fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-01", 10, 0, 4),
		fixture(2, model.PlatformTwitter, model.PostTypeText, model.SentimentNegative, "2024-01-01", 10, 0, 6),
		fixture(3, model.PlatformTwitter, model.PostTypeVideo, model.SentimentPositive, "2024-01-01", 10, 0, 30),
	)

	shares, err := repo.SharesByPostType(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, model.PostTypeShares{PostType: model.PostTypeVideo, TotalShares: 30, AvgShares: 30, TotalPosts: 1}, *shares[0])
	assert.Equal(t, model.PostTypeShares{PostType: model.PostTypeText, TotalShares: 10, AvgShares: 5, TotalPosts: 2}, *shares[1])

	types, err := repo.PostTypeStats(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, model.PostTypeText, types[0].PostType)
	assert.Equal(t, int64(2), types[0].Count)

	sentiments, err := repo.SentimentStats(ctx)
	require.NoError(t, err)
	require.Len(t, sentiments, 2)
	assert.Equal(t, model.SentimentPositive, sentiments[0].Sentiment)
	assert.InDelta(t, 27.0, sentiments[0].AvgEngagement, 1e-9)
}

func TestSQLRepo_GeneralStats(t *testing.T) {
	ctx := context.Background()
	repo := newSQLRepo(t,
		fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-01", 10, 2, 0),
		fixture(2, model.PlatformFacebook, model.PostTypeText, model.SentimentNegative, "2024-01-01", 20, 4, 6),
	)

	counts, err := repo.CountBy(ctx, model.GroupByPlatform)
	require.NoError(t, err)
	assert.Equal(t, []*model.CategoryCount{
		{Category: model.PlatformFacebook, Count: 1},
		{Category: model.PlatformTwitter, Count: 1},
	}, counts)

	_, err = repo.CountBy(ctx, model.GroupField("likes; DROP TABLE posts"))
	assert.Error(t, err)

	avg, err := repo.EngagementAverages(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.EngagementAverages{AvgLikes: 15, AvgComments: 3, AvgShares: 3, TotalPosts: 2}, *avg)

	fb, err := repo.PlatformStats(ctx, model.PlatformFacebook)
	require.NoError(t, err)
	assert.Equal(t, model.PlatformStats{
		Platform: model.PlatformFacebook, TotalPosts: 1, AvgLikes: 20, AvgComments: 4, AvgShares: 6, TotalEngagement: 30,
	}, *fb)

	// COALESCE 保证空集合返回 0 而不是 NULL
	none, err := repo.PlatformStats(ctx, model.PlatformInstagram)
	require.NoError(t, err)
	assert.Equal(t, model.PlatformStats{Platform: model.PlatformInstagram}, *none)

	days, err := repo.EngagementByDay(ctx)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "Monday", days[0].Day)
	assert.Equal(t, int64(2), days[0].PostCount)
	assert.InDelta(t, 15.0, days[0].AvgLikes, 1e-9)
}

func TestSQLRepo_EmptyTableAverages(t *testing.T) {
	avg, err := newSQLRepo(t).EngagementAverages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.EngagementAverages{}, *avg)
}
