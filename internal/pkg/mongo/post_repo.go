package mongo

import (
	"Pulseboard/internal/model"
	"Pulseboard/internal/repository"
	"context"
	stdErrors "errors"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postRepoImpl struct {
	col *mongo.Collection
}

// NewPostRepo 基于集合的帖子存储，集合的校验规则与索引由 EnsurePostCollection 负责
func NewPostRepo(db *mongo.Database, collection string) repository.PostRepo {
	return &postRepoImpl{
		col: db.Collection(collection),
	}
}

func (s *postRepoImpl) InsertMany(ctx context.Context, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(posts))
	for _, p := range posts {
		docs = append(docs, p)
	}
	_, err := s.col.InsertMany(ctx, docs)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(repository.ErrDuplicatePostID, err.Error())
	}
	return errors.Wrap(err, "insert posts")
}

func (s *postRepoImpl) Count(ctx context.Context) (int64, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "count posts")
}

func (s *postRepoImpl) MaxPostID(ctx context.Context) (int64, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "post_id", Value: -1}}).
		SetProjection(bson.M{"post_id": 1})

	var doc struct {
		PostID int64 `bson:"post_id"`
	}
	err := s.col.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err != nil {
		if stdErrors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "max post_id")
	}
	return doc.PostID, nil
}

func (s *postRepoImpl) FindByID(ctx context.Context, postID int64) (*model.Post, error) {
	var post model.Post
	err := s.col.FindOne(ctx, bson.M{"post_id": postID}).Decode(&post)
	if err != nil {
		if stdErrors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find post")
	}
	return &post, nil
}

func (s *postRepoImpl) FindAll(ctx context.Context, limit int) ([]*model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "post_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.find(ctx, bson.M{}, opts)
}

func (s *postRepoImpl) FindByPlatform(ctx context.Context, platform string) ([]*model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "post_id", Value: 1}})
	return s.find(ctx, bson.M{"platform": platform}, opts)
}

func (s *postRepoImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return posts, errors.Wrap(err, "find posts")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	if err = cursor.All(ctx, &posts); err != nil {
		return make([]*model.Post, 0), errors.Wrap(err, "decode posts")
	}
	return posts, nil
}

func (s *postRepoImpl) UpdateByID(ctx context.Context, post *model.Post) (bool, error) {
	update := bson.M{"$set": bson.M{
		"platform":         post.Platform,
		"post_type":        post.PostType,
		"likes":            post.Likes,
		"comments":         post.Comments,
		"shares":           post.Shares,
		"sentiment_score":  post.SentimentScore,
		"total_engagement": post.TotalEngagement,
		"engagement_ratio": post.EngagementRatio,
	}}
	res, err := s.col.UpdateOne(ctx, bson.M{"post_id": post.PostID}, update)
	if err != nil {
		return false, errors.Wrap(err, "update post")
	}
	return res.MatchedCount > 0, nil
}

func (s *postRepoImpl) DeleteByID(ctx context.Context, postID int64) (bool, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"post_id": postID})
	if err != nil {
		return false, errors.Wrap(err, "delete post")
	}
	return res.DeletedCount > 0, nil
}

func (s *postRepoImpl) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, errors.Wrap(err, "delete all posts")
	}
	return res.DeletedCount, nil
}

func (s *postRepoImpl) Ping(ctx context.Context) error {
	return errors.Wrap(s.col.Database().Client().Ping(ctx, nil), "ping mongo")
}

// aggregate 执行管道并解码全部结果，失败时返回空切片
func aggregate[T any](ctx context.Context, col *mongo.Collection, pipeline mongo.Pipeline, query string) ([]*T, error) {
	rows := make([]*T, 0)
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return rows, errors.Wrap(err, query)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	if err = cursor.All(ctx, &rows); err != nil {
		return make([]*T, 0), errors.Wrap(err, query)
	}
	if rows == nil {
		rows = make([]*T, 0)
	}
	return rows, nil
}

func (s *postRepoImpl) PlatformTotals(ctx context.Context) ([]*model.PlatformTotal, error) {
	return aggregate[model.PlatformTotal](ctx, s.col, platformTotalsPipeline(), "aggregate platform totals")
}

func (s *postRepoImpl) EngagementByDay(ctx context.Context) ([]*model.DayEngagement, error) {
	return aggregate[model.DayEngagement](ctx, s.col, engagementByDayPipeline(), "aggregate engagement by day")
}

func (s *postRepoImpl) SentimentByPlatform(ctx context.Context) ([]*model.SentimentGroup, error) {
	return aggregate[model.SentimentGroup](ctx, s.col, sentimentByPipeline(model.GroupByPlatform), "aggregate sentiment by platform")
}

func (s *postRepoImpl) SentimentByPostType(ctx context.Context) ([]*model.SentimentGroup, error) {
	return aggregate[model.SentimentGroup](ctx, s.col, sentimentByPipeline(model.GroupByPostType), "aggregate sentiment by post type")
}

func (s *postRepoImpl) AverageByDatePlatform(ctx context.Context, metric model.Metric) ([]*model.DateMetricAverage, error) {
	if !metric.Valid() {
		return make([]*model.DateMetricAverage, 0), errors.Errorf("unsupported metric %q", metric)
	}
	return aggregate[model.DateMetricAverage](ctx, s.col, averageByDatePlatformPipeline(metric),
		"aggregate average "+string(metric)+" by date and platform")
}

func (s *postRepoImpl) SharesByPostType(ctx context.Context) ([]*model.PostTypeShares, error) {
	return aggregate[model.PostTypeShares](ctx, s.col, sharesByPostTypePipeline(), "aggregate shares by post type")
}

func (s *postRepoImpl) Decomposition(ctx context.Context, filter model.DecompositionFilter) ([]*model.DecompositionEntry, error) {
	return aggregate[model.DecompositionEntry](ctx, s.col, decompositionPipeline(filter), "aggregate decomposition")
}

func (s *postRepoImpl) TimeTrend(ctx context.Context) ([]*model.TrendPoint, error) {
	return aggregate[model.TrendPoint](ctx, s.col, timeTrendPipeline(), "aggregate time trend")
}

func (s *postRepoImpl) CountBy(ctx context.Context, field model.GroupField) ([]*model.CategoryCount, error) {
	if !field.Valid() {
		return make([]*model.CategoryCount, 0), errors.Errorf("unsupported group field %q", field)
	}
	return aggregate[model.CategoryCount](ctx, s.col, countByPipeline(field), "count by "+string(field))
}

// overallRow 单组汇总的解码结构
type overallRow struct {
	AvgLikes        float64 `bson:"avg_likes"`
	AvgComments     float64 `bson:"avg_comments"`
	AvgShares       float64 `bson:"avg_shares"`
	TotalEngagement int64   `bson:"total_engagement"`
	TotalPosts      int64   `bson:"total_posts"`
}

func (s *postRepoImpl) overall(ctx context.Context, match bson.M, query string) (*overallRow, error) {
	rows, err := aggregate[overallRow](ctx, s.col, overallPipeline(match), query)
	if err != nil {
		return &overallRow{}, err
	}
	if len(rows) == 0 {
		return &overallRow{}, nil
	}
	return rows[0], nil
}

func (s *postRepoImpl) EngagementAverages(ctx context.Context) (*model.EngagementAverages, error) {
	row, err := s.overall(ctx, nil, "aggregate engagement averages")
	return &model.EngagementAverages{
		AvgLikes:    row.AvgLikes,
		AvgComments: row.AvgComments,
		AvgShares:   row.AvgShares,
		TotalPosts:  row.TotalPosts,
	}, err
}

func (s *postRepoImpl) PlatformStats(ctx context.Context, platform string) (*model.PlatformStats, error) {
	row, err := s.overall(ctx, bson.M{"platform": platform}, "aggregate platform stats")
	return &model.PlatformStats{
		Platform:        platform,
		TotalPosts:      row.TotalPosts,
		AvgLikes:        row.AvgLikes,
		AvgComments:     row.AvgComments,
		AvgShares:       row.AvgShares,
		TotalEngagement: row.TotalEngagement,
	}, err
}

func (s *postRepoImpl) PostTypeStats(ctx context.Context) ([]*model.PostTypeStats, error) {
	return aggregate[model.PostTypeStats](ctx, s.col, postTypeStatsPipeline(), "aggregate post type stats")
}

func (s *postRepoImpl) SentimentStats(ctx context.Context) ([]*model.SentimentStats, error) {
	return aggregate[model.SentimentStats](ctx, s.col, sentimentStatsPipeline(), "aggregate sentiment stats")
}
