package service

import (
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/consts"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `post_id,platform,post_type,post_time,likes,comments,shares,sentiment_score,extra
1,Facebook,image,01/15/2024 10:30,120,10,5,positive,x
2,Twitter,text,2024-02-01T08:00:00,40,3,9,neutral,y
2,Twitter,text,2024-02-01T08:00:00,40,3,9,neutral,y
3,LinkedIn,poll,03/02/2024 18:45,,7,2,negative,z
`

func TestBootstrap_EmptyStoreIngestsCSV(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	pub := &recordingPublisher{}
	svc := NewIngestService(NewPostStoreService(repo, nil), csvString(sampleCSV), seededRNG(), testIngestConfig(), pub)

	res := svc.Bootstrap(ctx)
	require.True(t, res.Success, res.Message)
	assert.True(t, res.IngestionPerformed)
	assert.Equal(t, int64(3), res.TotalRecords)
	assert.Zero(t, res.MockSeeded)

	n, _ := repo.Count(ctx)
	assert.Equal(t, int64(3), n)

	linkedIn, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, linkedIn)
	// 缺失的 likes 用中位数填充
	assert.Equal(t, int64(80), linkedIn.Likes)
	assert.Equal(t, "2024-03-02", linkedIn.PostedDate)
	assert.Equal(t, "Saturday", linkedIn.PostedDayOfWeek)
	assert.True(t, linkedIn.IsWeekend)

	require.Len(t, pub.events, 1)
	assert.Equal(t, consts.SourceCSV, pub.events[0].Source)
	assert.Equal(t, 3, pub.events[0].Inserted)
}

func TestBootstrap_PopulatedStoreSkips(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	require.NoError(t, repo.InsertMany(ctx, []*model.Post{post(10, model.PlatformTwitter, model.SentimentPositive, 1, 1, 1)}))
	svc := NewIngestService(NewPostStoreService(repo, nil), csvString(sampleCSV), seededRNG(), testIngestConfig())

	res := svc.Bootstrap(ctx)
	assert.True(t, res.Success)
	assert.False(t, res.IngestionPerformed)
	assert.Equal(t, int64(1), res.TotalRecords)

	n, _ := repo.Count(ctx)
	assert.Equal(t, int64(1), n)
}

func TestBootstrap_SeedsMockAfterCSV(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	cfg := testIngestConfig()
	cfg.BootstrapMockCount = 5
	svc := NewIngestService(NewPostStoreService(repo, nil), csvString(sampleCSV), seededRNG(), cfg)

	res := svc.Bootstrap(ctx)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, int64(3), res.TotalRecords)
	assert.Equal(t, 5, res.MockSeeded)

	maxID, _ := repo.MaxPostID(ctx)
	assert.Equal(t, int64(8), maxID)
}

func TestBootstrap_NoSourceSeedsMockOnly(t *testing.T) {
	ctx := context.Background()
	cfg := testIngestConfig()
	cfg.BootstrapMockCount = 4
	svc := NewIngestService(NewPostStoreService(newFlakyRepo(), nil), nil, seededRNG(), cfg)

	res := svc.Bootstrap(ctx)
	assert.True(t, res.Success)
	assert.True(t, res.IngestionPerformed)
	assert.Equal(t, int64(4), res.TotalRecords)
}

func TestBootstrap_BadCSVRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	bad := "platform,post_type,post_time,likes,comments,shares,sentiment_score\n" +
		"Facebook,image,01/15/2024 10:30,12,1,1,positive\n" +
		"Twitter,text,01/16/2024 10:30,lots,1,1,negative\n"
	svc := NewIngestService(NewPostStoreService(repo, nil), csvString(bad), seededRNG(), testIngestConfig())

	res := svc.Bootstrap(ctx)
	assert.False(t, res.Success)
	assert.False(t, res.IngestionPerformed)
	assert.Contains(t, res.Message, "likes")

	n, _ := repo.Count(ctx)
	assert.Zero(t, n)
}

func TestBootstrap_StoreUnavailable(t *testing.T) {
	repo := newFlakyRepo()
	repo.failCount = true
	svc := NewIngestService(NewPostStoreService(repo, nil), csvString(sampleCSV), seededRNG(), testIngestConfig())

	res := svc.Bootstrap(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, ErrStoreUnavailable.Error())
}

func TestTick_ContinuesFromMaxID(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	require.NoError(t, repo.InsertMany(ctx, []*model.Post{post(41, model.PlatformTwitter, model.SentimentPositive, 1, 1, 1)}))
	pub := &recordingPublisher{}
	svc := NewIngestService(NewPostStoreService(repo, nil), nil, seededRNG(), testIngestConfig(), pub)

	evt, err := svc.Tick(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, evt.Inserted, 5)
	assert.LessOrEqual(t, evt.Inserted, 10)
	assert.Equal(t, int64(42), evt.FirstPostID)
	assert.Equal(t, int64(41+evt.Inserted), evt.LastPostID)
	assert.Equal(t, int64(1+evt.Inserted), evt.TotalRecords)
	assert.Len(t, pub.events, 1)

	posts, err := repo.FindAll(ctx, 0)
	require.NoError(t, err)
	for _, p := range posts {
		assert.NoError(t, model.ValidatePost(p))
	}
}

func TestTick_MaxLookupFailureStartsAtOne(t *testing.T) {
	repo := newFlakyRepo()
	repo.failMax = true
	svc := NewIngestService(NewPostStoreService(repo, nil), nil, seededRNG(), testIngestConfig())

	evt, err := svc.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), evt.FirstPostID)
}

func TestTick_InsertFailureIsReported(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	repo.failInsert = true
	svc := NewIngestService(NewPostStoreService(repo, nil), nil, seededRNG(), testIngestConfig())

	_, err := svc.Tick(ctx)
	assert.ErrorIs(t, err, ErrInsertFailed)
	assert.NotErrorIs(t, err, model.ErrSchemaViolation)

	// 下一次恢复后照常写入
	repo.failInsert = false
	evt, err := svc.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), evt.FirstPostID)
}

func TestTick_ConflictWithStoredIDIsSchemaViolation(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	require.NoError(t, repo.InsertMany(ctx, []*model.Post{post(1, model.PlatformTwitter, model.SentimentPositive, 1, 1, 1)}))
	repo.failMax = true
	svc := NewIngestService(NewPostStoreService(repo, nil), nil, seededRNG(), testIngestConfig())

	_, err := svc.Tick(ctx)
	require.ErrorIs(t, err, model.ErrSchemaViolation)
	assert.NotErrorIs(t, err, ErrInsertFailed)
	var violation *model.SchemaViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "post_id", violation.Field)
	assert.Equal(t, "unique", violation.Rule)

	repo.failMax = false
	evt, err := svc.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), evt.FirstPostID)
}

func TestTick_ConcurrentTicksNeverDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	svc := NewIngestService(NewPostStoreService(repo, nil), nil, seededRNG(), testIngestConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Tick(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	posts, err := repo.FindAll(ctx, 0)
	require.NoError(t, err)
	ids := make(map[int64]struct{}, len(posts))
	for _, p := range posts {
		ids[p.PostID] = struct{}{}
	}
	assert.Len(t, ids, len(posts))
	maxID, _ := repo.MaxPostID(ctx)
	assert.Equal(t, int64(len(posts)), maxID)
}

func TestTick_ConcurrentWithGenerateMock(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	svc := NewIngestService(NewPostStoreService(repo, nil), nil, seededRNG(), testIngestConfig())

	var wg sync.WaitGroup
	inserted := make(chan int, 16)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			evt, err := svc.Tick(ctx)
			if assert.NoError(t, err) {
				inserted <- evt.Inserted
			}
		}()
		go func() {
			defer wg.Done()
			evt, err := svc.GenerateMock(ctx, 3, consts.SourceCLI)
			if assert.NoError(t, err) {
				inserted <- evt.Inserted
			}
		}()
	}
	wg.Wait()
	close(inserted)

	total := 0
	for n := range inserted {
		total += n
	}
	posts, err := repo.FindAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, posts, total)
	// 编号连续且无重复
	for i, p := range posts {
		assert.Equal(t, int64(i+1), p.PostID)
	}
}

func TestIngestRaw_AssignsMissingIDs(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	require.NoError(t, repo.InsertMany(ctx, []*model.Post{post(5, model.PlatformTwitter, model.SentimentPositive, 1, 1, 1)}))
	svc := NewIngestService(NewPostStoreService(repo, nil), nil, seededRNG(), testIngestConfig())

	records := []model.RawPost{
		{Platform: model.Ptr(model.PlatformFacebook), PostType: model.Ptr("video"), Likes: model.Ptr(int64(3)),
			Comments: model.Ptr(int64(1)), Shares: model.Ptr(int64(0)), SentimentScore: model.Ptr("positive")},
		{PostID: model.Ptr(int64(20)), Platform: model.Ptr(model.PlatformLinkedIn), PostType: model.Ptr("poll"),
			Likes: model.Ptr(int64(0)), Comments: model.Ptr(int64(2)), Shares: model.Ptr(int64(2)), SentimentScore: model.Ptr("neutral")},
	}
	evt, err := svc.IngestRaw(ctx, records, consts.SourceKafka)
	require.NoError(t, err)
	assert.Equal(t, 2, evt.Inserted)

	got, err := repo.FindByID(ctx, 21)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.PlatformFacebook, got.Platform)

	linkedIn, err := repo.FindByID(ctx, 20)
	require.NoError(t, err)
	assert.Zero(t, linkedIn.EngagementRatio)
}

func TestIngestRaw_DuplicateIDsInBatchAreRejected(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	svc := NewIngestService(NewPostStoreService(repo, nil), nil, seededRNG(), testIngestConfig())

	records := []model.RawPost{
		{PostID: model.Ptr(int64(1)), Platform: model.Ptr("Twitter"), Likes: model.Ptr(int64(1))},
		{PostID: model.Ptr(int64(1)), Platform: model.Ptr("Facebook"), Likes: model.Ptr(int64(2))},
	}
	_, err := svc.IngestRaw(ctx, records, consts.SourceKafka)
	require.ErrorIs(t, err, model.ErrSchemaViolation)

	var violation *model.SchemaViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "post_id", violation.Field)
	assert.Equal(t, "unique", violation.Rule)

	n, _ := repo.Count(ctx)
	assert.Zero(t, n)
}

func TestIngestRaw_ExistingPostIDIsSchemaViolation(t *testing.T) {
	ctx := context.Background()
	repo := newFlakyRepo()
	require.NoError(t, repo.InsertMany(ctx, []*model.Post{post(3, model.PlatformTwitter, model.SentimentPositive, 1, 1, 1)}))
	svc := NewIngestService(NewPostStoreService(repo, nil), nil, seededRNG(), testIngestConfig())

	records := []model.RawPost{
		{PostID: model.Ptr(int64(3)), Platform: model.Ptr(model.PlatformFacebook), PostType: model.Ptr("video"),
			Likes: model.Ptr(int64(3)), Comments: model.Ptr(int64(1)), Shares: model.Ptr(int64(0)), SentimentScore: model.Ptr("positive")},
	}
	_, err := svc.IngestRaw(ctx, records, consts.SourceKafka)
	require.ErrorIs(t, err, model.ErrSchemaViolation)
	code, ok := Code(err)
	require.True(t, ok)
	assert.Equal(t, UnprocessableEntity, code)

	n, _ := repo.Count(ctx)
	assert.Equal(t, int64(1), n)
}

func TestGenerateMock_RejectsNonPositiveCount(t *testing.T) {
	svc := NewIngestService(NewPostStoreService(newFlakyRepo(), nil), nil, seededRNG(), testIngestConfig())
	_, err := svc.GenerateMock(context.Background(), 0, consts.SourceCLI)
	assert.ErrorIs(t, err, ErrParamInvalid)
}
