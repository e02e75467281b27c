package service

import (
	"Pulseboard/internal/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_PlatformTotalsWithSummary(t *testing.T) {
	ctx := context.Background()
	store := NewPostStoreService(newFlakyRepo(), nil)
	require.True(t, store.InsertMany(ctx, []*model.Post{
		post(1, model.PlatformFacebook, model.SentimentPositive, 10, 1, 0),
		post(2, model.PlatformFacebook, model.SentimentPositive, 20, 2, 0),
		post(3, model.PlatformFacebook, model.SentimentPositive, 30, 3, 0),
	}))
	report := NewReportService(store, &fakeScheduler{})

	res := report.PlatformTotals(ctx)
	require.True(t, res.Success)
	require.Len(t, res.Data, 1)
	assert.Equal(t, &model.PlatformTotal{
		Platform: model.PlatformFacebook, TotalLikes: 60, TotalComments: 6, TotalShares: 0, TotalEngagement: 66, PostCount: 3,
	}, res.Data[0])
	assert.Equal(t, model.PlatformTotalsSummary{TotalPlatforms: 1, GrandTotalEngagement: 66, GrandTotalPosts: 3}, res.Summary)
}

func TestReport_FailureIsNotRaised(t *testing.T) {
	repo := newFlakyRepo()
	repo.failAggregate = true
	report := NewReportService(NewPostStoreService(repo, nil), &fakeScheduler{})

	res := report.SentimentByPlatform(context.Background())
	assert.False(t, res.Success)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.NotEmpty(t, res.Message)

	totals := report.PlatformTotals(context.Background())
	assert.False(t, totals.Success)
	assert.Zero(t, totals.Summary.TotalPlatforms)
}

func TestReport_SchedulerControlIsIdempotent(t *testing.T) {
	ctx := context.Background()
	report := NewReportService(NewPostStoreService(newFlakyRepo(), nil), &fakeScheduler{})

	stop := report.StopScheduler(ctx)
	assert.False(t, stop.Success)
	assert.Equal(t, ErrSchedulerStopped.Error(), stop.Message)

	assert.True(t, report.StartScheduler(ctx).Success)
	again := report.StartScheduler(ctx)
	assert.False(t, again.Success)
	assert.Equal(t, ErrSchedulerRunning.Error(), again.Message)
	assert.True(t, report.SchedulerStatus(ctx).Running)

	assert.True(t, report.StopScheduler(ctx).Success)
	assert.False(t, report.SchedulerStatus(ctx).Running)
}

func TestReport_Health(t *testing.T) {
	ctx := context.Background()
	store := NewPostStoreService(newFlakyRepo(), nil)
	require.True(t, store.InsertMany(ctx, []*model.Post{post(1, model.PlatformLinkedIn, model.SentimentNeutral, 1, 0, 0)}))
	report := NewReportService(store, &fakeScheduler{running: true})

	h := report.Health(ctx)
	assert.Equal(t, "healthy", h.Status)
	assert.True(t, h.DatabaseConnected)
	assert.True(t, h.SchedulerRunning)
	assert.Equal(t, int64(1), h.TotalRecords)
}

func TestReport_PlatformStatsForEmptyPlatform(t *testing.T) {
	report := NewReportService(NewPostStoreService(newFlakyRepo(), nil), &fakeScheduler{})
	res := report.PlatformStats(context.Background(), model.PlatformInstagram)
	require.True(t, res.Success)
	assert.Equal(t, model.PlatformInstagram, res.Data.Platform)
	assert.Zero(t, res.Data.TotalPosts)
}
