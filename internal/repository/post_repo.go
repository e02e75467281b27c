package repository

import (
	"Pulseboard/internal/model"
	"context"
	stdErrors "errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrDuplicatePostID 批量写入时 post_id 与已有记录冲突
var ErrDuplicatePostID = stdErrors.New("duplicate post_id")

// PostRepo 帖子集合的存储抽象，mongo / gorm / 内存三种实现语义一致
type PostRepo interface {
	InsertMany(ctx context.Context, posts []*model.Post) error
	Count(ctx context.Context) (int64, error)
	// MaxPostID 集合为空时返回 0
	MaxPostID(ctx context.Context) (int64, error)
	// FindByID 不存在时返回 nil, nil
	FindByID(ctx context.Context, postID int64) (*model.Post, error)
	// FindAll limit <= 0 表示不限制，按 post_id 升序
	FindAll(ctx context.Context, limit int) ([]*model.Post, error)
	FindByPlatform(ctx context.Context, platform string) ([]*model.Post, error)
	// UpdateByID 以 post.PostID 定位并覆盖可修改字段，返回是否命中
	UpdateByID(ctx context.Context, post *model.Post) (bool, error)
	DeleteByID(ctx context.Context, postID int64) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	PostStatsRepo
}

// PostStatsRepo 固定的聚合查询目录
type PostStatsRepo interface {
	PlatformTotals(ctx context.Context) ([]*model.PlatformTotal, error)
	EngagementByDay(ctx context.Context) ([]*model.DayEngagement, error)
	SentimentByPlatform(ctx context.Context) ([]*model.SentimentGroup, error)
	SentimentByPostType(ctx context.Context) ([]*model.SentimentGroup, error)
	AverageByDatePlatform(ctx context.Context, metric model.Metric) ([]*model.DateMetricAverage, error)
	SharesByPostType(ctx context.Context) ([]*model.PostTypeShares, error)
	Decomposition(ctx context.Context, filter model.DecompositionFilter) ([]*model.DecompositionEntry, error)
	TimeTrend(ctx context.Context) ([]*model.TrendPoint, error)
	CountBy(ctx context.Context, field model.GroupField) ([]*model.CategoryCount, error)
	EngagementAverages(ctx context.Context) (*model.EngagementAverages, error)
	PlatformStats(ctx context.Context, platform string) (*model.PlatformStats, error)
	PostTypeStats(ctx context.Context) ([]*model.PostTypeStats, error)
	SentimentStats(ctx context.Context) ([]*model.SentimentStats, error)
}

// updatableColumns UpdateByID 覆盖的列，其余字段由清洗流程派生后不再变化
var updatableColumns = []string{
	"platform", "post_type", "likes", "comments", "shares",
	"sentiment_score", "total_engagement", "engagement_ratio",
}

type PostRepoImpl struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) PostRepo {
	return &PostRepoImpl{db: db}
}

// AutoMigrate 建表及 post_id 唯一索引
func (s *PostRepoImpl) AutoMigrate() error {
	return errors.Wrap(s.db.AutoMigrate(&model.Post{}), "auto migrate posts")
}

func (s *PostRepoImpl) InsertMany(ctx context.Context, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(posts, 500).Error
	})
	if stdErrors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(ErrDuplicatePostID, "insert posts")
	}
	return errors.Wrap(err, "insert posts")
}

func (s *PostRepoImpl) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.Post{}).Count(&total).Error
	return total, errors.Wrap(err, "count posts")
}

func (s *PostRepoImpl) MaxPostID(ctx context.Context) (int64, error) {
	var maxID int64
	row := s.db.WithContext(ctx).Model(&model.Post{}).Select("COALESCE(MAX(post_id), 0)").Row()
	if err := row.Scan(&maxID); err != nil {
		return 0, errors.Wrap(err, "max post_id")
	}
	return maxID, nil
}

func (s *PostRepoImpl) FindByID(ctx context.Context, postID int64) (*model.Post, error) {
	post := &model.Post{}
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).First(post).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find post")
	}
	return post, nil
}

func (s *PostRepoImpl) FindAll(ctx context.Context, limit int) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	q := s.db.WithContext(ctx).Order("post_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&posts).Error
	return posts, errors.Wrap(err, "find posts")
}

func (s *PostRepoImpl) FindByPlatform(ctx context.Context, platform string) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	err := s.db.WithContext(ctx).
		Where("platform = ?", platform).
		Order("post_id ASC").
		Find(&posts).Error
	return posts, errors.Wrap(err, "find posts by platform")
}

func (s *PostRepoImpl) UpdateByID(ctx context.Context, post *model.Post) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("post_id = ?", post.PostID).
		Select(updatableColumns).
		Updates(post)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "update post")
	}
	return result.RowsAffected > 0, nil
}

func (s *PostRepoImpl) DeleteByID(ctx context.Context, postID int64) (bool, error) {
	result := s.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&model.Post{})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "delete post")
	}
	return result.RowsAffected > 0, nil
}

func (s *PostRepoImpl) DeleteAll(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.Post{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "delete all posts")
	}
	return result.RowsAffected, nil
}

func (s *PostRepoImpl) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	return errors.Wrap(sqlDB.PingContext(ctx), "ping database")
}
