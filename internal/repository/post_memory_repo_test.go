package repository

import (
	"Pulseboard/internal/model"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(id int64, platform, postType, sentiment, date string, likes, comments, shares int64) *model.Post {
	total, ratio := model.Engagement(likes, comments, shares)
	return &model.Post{
		PostID:          id,
		Platform:        platform,
		PostType:        postType,
		PostedDate:      date,
		PostedTime:      "10:00:00",
		Likes:           likes,
		Comments:        comments,
		Shares:          shares,
		SentimentScore:  sentiment,
		TotalEngagement: total,
		EngagementRatio: ratio,
		PostedHour:      10,
		PostedDayOfWeek: "Monday",
		PostedMonth:     "January",
		EngagementLevel: model.EngagementMedium,
	}
}

func seeded(t *testing.T, posts ...*model.Post) *PostMemoryRepo {
	t.Helper()
	repo := NewPostMemoryRepo()
	require.NoError(t, repo.InsertMany(context.Background(), posts))
	return repo
}

func TestMemoryRepo_CountAndMaxPostID(t *testing.T) {
	ctx := context.Background()
	repo := NewPostMemoryRepo()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	maxID, err := repo.MaxPostID(ctx)
	require.NoError(t, err)
	assert.Zero(t, maxID)

	require.NoError(t, repo.InsertMany(ctx, []*model.Post{
		fixture(7, model.PlatformFacebook, model.PostTypeText, model.SentimentPositive, "2024-01-01", 1, 1, 1),
		fixture(3, model.PlatformFacebook, model.PostTypeText, model.SentimentPositive, "2024-01-01", 1, 1, 1),
	}))
	n, _ = repo.Count(ctx)
	assert.Equal(t, int64(2), n)
	maxID, _ = repo.MaxPostID(ctx)
	assert.Equal(t, int64(7), maxID)
}

func TestMemoryRepo_InsertManyRejectsDuplicateBatch(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t, fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentNeutral, "2024-01-01", 1, 0, 0))

	err := repo.InsertMany(ctx, []*model.Post{
		fixture(2, model.PlatformTwitter, model.PostTypeText, model.SentimentNeutral, "2024-01-01", 1, 0, 0),
		fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentNeutral, "2024-01-01", 1, 0, 0),
	})
	assert.True(t, errors.Is(err, ErrDuplicatePostID))
	n, _ := repo.Count(ctx)
	assert.Equal(t, int64(1), n, "failed batch must not be partially written")
}

func TestMemoryRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t,
		fixture(2, model.PlatformTwitter, model.PostTypeText, model.SentimentNeutral, "2024-01-01", 5, 0, 0),
		fixture(1, model.PlatformLinkedIn, model.PostTypePoll, model.SentimentPositive, "2024-01-02", 8, 1, 1),
	)

	p, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, model.PlatformLinkedIn, p.Platform)

	missing, err := repo.FindByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, _ := repo.FindAll(ctx, 0)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].PostID)
	limited, _ := repo.FindAll(ctx, 1)
	assert.Len(t, limited, 1)

	twitter, _ := repo.FindByPlatform(ctx, model.PlatformTwitter)
	require.Len(t, twitter, 1)
	assert.Equal(t, int64(2), twitter[0].PostID)

	p.Likes = 100
	ok, err := repo.UpdateByID(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)
	again, _ := repo.FindByID(ctx, 1)
	assert.Equal(t, int64(100), again.Likes)

	ok, _ = repo.UpdateByID(ctx, &model.Post{PostID: 42})
	assert.False(t, ok)

	ok, _ = repo.DeleteByID(ctx, 2)
	assert.True(t, ok)
	ok, _ = repo.DeleteByID(ctx, 2)
	assert.False(t, ok)

	n, _ := repo.DeleteAll(ctx)
	assert.Equal(t, int64(1), n)
	count, _ := repo.Count(ctx)
	assert.Zero(t, count)
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t, fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentNeutral, "2024-01-01", 5, 0, 0))
	p, _ := repo.FindByID(ctx, 1)
	p.Likes = 999
	again, _ := repo.FindByID(ctx, 1)
	assert.Equal(t, int64(5), again.Likes)
}

func TestMemoryRepo_PlatformTotals(t *testing.T) {
	repo := seeded(t,
		fixture(1, model.PlatformFacebook, model.PostTypeText, model.SentimentPositive, "2024-01-01", 10, 1, 0),
		fixture(2, model.PlatformFacebook, model.PostTypeImage, model.SentimentNeutral, "2024-01-01", 20, 2, 0),
		fixture(3, model.PlatformFacebook, model.PostTypeVideo, model.SentimentNegative, "2024-01-02", 30, 3, 0),
		fixture(4, model.PlatformTwitter, model.PostTypeText, model.SentimentNegative, "2024-01-02", 100, 0, 0),
	)
	rows, err := repo.PlatformTotals(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.PlatformTotal{Platform: model.PlatformTwitter, TotalLikes: 100, TotalEngagement: 100, PostCount: 1}, *rows[0])
	assert.Equal(t, model.PlatformTotal{
		Platform: model.PlatformFacebook, TotalLikes: 60, TotalComments: 6, TotalShares: 0, TotalEngagement: 66, PostCount: 3,
	}, *rows[1])

	summary := model.Summarize(rows)
	assert.Equal(t, 2, summary.TotalPlatforms)
	assert.Equal(t, int64(166), summary.GrandTotalEngagement)
	assert.Equal(t, int64(4), summary.GrandTotalPosts)
}

func TestMemoryRepo_SentimentByPlatform(t *testing.T) {
	repo := seeded(t,
		fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-01", 1, 0, 0),
		fixture(2, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-01", 1, 0, 0),
		fixture(3, model.PlatformTwitter, model.PostTypeImage, model.SentimentNegative, "2024-01-01", 1, 0, 0),
	)
	groups, err := repo.SentimentByPlatform(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, model.PlatformTwitter, groups[0].Category)
	assert.Equal(t, int64(3), groups[0].TotalPosts)
	assert.ElementsMatch(t, []*model.SentimentCount{
		{Sentiment: model.SentimentPositive, Count: 2},
		{Sentiment: model.SentimentNegative, Count: 1},
	}, groups[0].Sentiments)

	byType, err := repo.SentimentByPostType(context.Background())
	require.NoError(t, err)
	require.Len(t, byType, 2)
	assert.Equal(t, model.PostTypeImage, byType[0].Category)
	assert.Equal(t, model.PostTypeText, byType[1].Category)
}

func TestMemoryRepo_Decomposition(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t,
		fixture(1, model.PlatformLinkedIn, model.PostTypeText, model.SentimentPositive, "2024-01-01", 10, 1, 1),
		fixture(2, model.PlatformLinkedIn, model.PostTypeText, model.SentimentPositive, "2024-01-01", 20, 2, 2),
		fixture(3, model.PlatformLinkedIn, model.PostTypeImage, model.SentimentNeutral, "2024-01-01", 5, 0, 0),
		fixture(4, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-01", 7, 0, 0),
	)

	rows, err := repo.Decomposition(ctx, model.DecompositionFilter{Platform: model.PlatformLinkedIn})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, model.PlatformLinkedIn, r.Platform)
	}
	assert.Equal(t, model.DecompositionEntry{
		Platform: model.PlatformLinkedIn, PostType: model.PostTypeImage, SentimentScore: model.SentimentNeutral,
		TotalPosts: 1, TotalLikes: 5,
	}, *rows[0])
	assert.Equal(t, int64(30), rows[1].TotalLikes)
	assert.Equal(t, int64(2), rows[1].TotalPosts)

	rows, _ = repo.Decomposition(ctx, model.DecompositionFilter{Platform: model.PlatformLinkedIn, PostType: model.PostTypeText})
	assert.Len(t, rows, 1)

	rows, _ = repo.Decomposition(ctx, model.DecompositionFilter{})
	assert.Len(t, rows, 3)

	empty := seeded(t, fixture(9, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-01", 1, 0, 0))
	rows, err = empty.Decomposition(ctx, model.DecompositionFilter{Platform: model.PlatformLinkedIn})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestMemoryRepo_DateAggregationsSkipUndated(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t,
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

func TestMemoryRepo_SharesAndTypeStats(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t,
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

func TestMemoryRepo_GeneralStats(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t,
		fixture(1, model.PlatformTwitter, model.PostTypeText, model.SentimentPositive, "2024-01-01", 10, 2, 0),
		fixture(2, model.PlatformFacebook, model.PostTypeText, model.SentimentNegative, "2024-01-01", 20, 4, 6),
	)

	counts, err := repo.CountBy(ctx, model.GroupByPlatform)
	require.NoError(t, err)
	assert.Equal(t, []*model.CategoryCount{
		{Category: model.PlatformFacebook, Count: 1},
		{Category: model.PlatformTwitter, Count: 1},
	}, counts)

	_, err = repo.CountBy(ctx, model.GroupField("likes"))
	assert.Error(t, err)

	avg, err := repo.EngagementAverages(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.EngagementAverages{AvgLikes: 15, AvgComments: 3, AvgShares: 3, TotalPosts: 2}, *avg)

	fb, err := repo.PlatformStats(ctx, model.PlatformFacebook)
	require.NoError(t, err)
	assert.Equal(t, model.PlatformStats{
		Platform: model.PlatformFacebook, TotalPosts: 1, AvgLikes: 20, AvgComments: 4, AvgShares: 6, TotalEngagement: 30,
	}, *fb)

	none, err := repo.PlatformStats(ctx, model.PlatformInstagram)
	require.NoError(t, err)
	assert.Equal(t, model.PlatformStats{Platform: model.PlatformInstagram}, *none)

	days, err := repo.EngagementByDay(ctx)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, int64(2), days[0].PostCount)
}
