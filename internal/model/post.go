package model

import (
	"time"
)

// 平台
const (
	PlatformFacebook  = "Facebook"
	PlatformTwitter   = "Twitter"
	PlatformInstagram = "Instagram"
	PlatformLinkedIn  = "LinkedIn"
)

// 帖子类型
const (
	PostTypeText     = "text"
	PostTypeImage    = "image"
	PostTypeVideo    = "video"
	PostTypePoll     = "poll"
	PostTypeCarousel = "carousel"
	PostTypeStory    = "story"
)

// 情感倾向
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// 互动等级
const (
	EngagementLow      = "Low"
	EngagementMedium   = "Medium"
	EngagementHigh     = "High"
	EngagementVeryHigh = "Very High"
)

// Unknown 缺失分类字段的填充值
const Unknown = "Unknown"

var (
	Platforms        = []string{PlatformFacebook, PlatformTwitter, PlatformInstagram, PlatformLinkedIn}
	PostTypes        = []string{PostTypeText, PostTypeImage, PostTypeVideo, PostTypePoll, PostTypeCarousel, PostTypeStory}
	Sentiments       = []string{SentimentPositive, SentimentNegative, SentimentNeutral}
	EngagementLevels = []string{EngagementLow, EngagementMedium, EngagementHigh, EngagementVeryHigh}
)

// 日期字段格式
const (
	DateLayout = time.DateOnly
	TimeLayout = time.TimeOnly
)

// Post 帖子互动记录，经过清洗与派生后的最终形态
type Post struct {
	ID              uint64  `bson:"-" json:"-" gorm:"primaryKey"`
	PostID          int64   `bson:"post_id" json:"post_id" gorm:"not null;uniqueIndex:uk_post_id" validate:"gte=1"`
	Platform        string  `bson:"platform" json:"platform" gorm:"type:varchar(16);not null;index:idx_platform" validate:"required,platform"`
	PostType        string  `bson:"post_type" json:"post_type" gorm:"type:varchar(16);not null;index:idx_post_type" validate:"required,post_type"`
	PostTime        string  `bson:"post_time,omitempty" json:"post_time,omitempty" gorm:"type:varchar(64)"` // 仅在时间拆分失败时保留原值
	PostedDate      string  `bson:"posted_date" json:"posted_date" gorm:"type:varchar(10);index:idx_posted_date"`
	PostedTime      string  `bson:"posted_time" json:"posted_time" gorm:"type:varchar(8)"`
	Likes           int64   `bson:"likes" json:"likes" gorm:"not null;default:0" validate:"gte=0"`
	Comments        int64   `bson:"comments" json:"comments" gorm:"not null;default:0" validate:"gte=0"`
	Shares          int64   `bson:"shares" json:"shares" gorm:"not null;default:0" validate:"gte=0"`
	SentimentScore  string  `bson:"sentiment_score" json:"sentiment_score" gorm:"type:varchar(16);not null" validate:"required,sentiment"`
	TotalEngagement int64   `bson:"total_engagement" json:"total_engagement" gorm:"not null;default:0" validate:"gte=0"`
	EngagementRatio float64 `bson:"engagement_ratio" json:"engagement_ratio" gorm:"not null;default:0" validate:"gte=0"`
	PostedHour      int     `bson:"posted_hour" json:"posted_hour" gorm:"not null;default:12" validate:"gte=0,lte=23"`
	PostedDayOfWeek string  `bson:"posted_day_of_week" json:"posted_day_of_week" gorm:"type:varchar(16)" validate:"required,weekday"`
	PostedMonth     string  `bson:"posted_month" json:"posted_month" gorm:"type:varchar(16)" validate:"required,month"`
	IsWeekend       bool    `bson:"is_weekend" json:"is_weekend" gorm:"not null;default:false"`
	EngagementLevel string  `bson:"engagement_level" json:"engagement_level" gorm:"type:varchar(16)" validate:"required,engagement_level"`
}

func (Post) TableName() string {
	return "posts"
}

// Raw 转回未派生形态，用于重复清洗
func (p *Post) Raw() RawPost {
	raw := RawPost{
		PostID:         &p.PostID,
		Platform:       &p.Platform,
		PostType:       &p.PostType,
		Likes:          &p.Likes,
		Comments:       &p.Comments,
		Shares:         &p.Shares,
		SentimentScore: &p.SentimentScore,
	}
	if p.PostTime != "" {
		raw.PostTime = &p.PostTime
	}
	if p.PostedDate != "" {
		raw.PostedDate = &p.PostedDate
	}
	if p.PostedTime != "" {
		raw.PostedTime = &p.PostedTime
	}
	return raw.Clone()
}

// RawPost 清洗前的原始记录，nil 表示该字段缺失
type RawPost struct {
	PostID         *int64  `json:"post_id,omitempty"`
	Platform       *string `json:"platform,omitempty"`
	PostType       *string `json:"post_type,omitempty"`
	PostTime       *string `json:"post_time,omitempty"`
	PostedDate     *string `json:"posted_date,omitempty"`
	PostedTime     *string `json:"posted_time,omitempty"`
	Likes          *int64  `json:"likes,omitempty"`
	Comments       *int64  `json:"comments,omitempty"`
	Shares         *int64  `json:"shares,omitempty"`
	SentimentScore *string `json:"sentiment_score,omitempty"`
}

// Clone 深拷贝，避免清洗过程修改调用方的数据
func (r RawPost) Clone() RawPost {
	return RawPost{
		PostID:         clonePtr(r.PostID),
		Platform:       clonePtr(r.Platform),
		PostType:       clonePtr(r.PostType),
		PostTime:       clonePtr(r.PostTime),
		PostedDate:     clonePtr(r.PostedDate),
		PostedTime:     clonePtr(r.PostedTime),
		Likes:          clonePtr(r.Likes),
		Comments:       clonePtr(r.Comments),
		Shares:         clonePtr(r.Shares),
		SentimentScore: clonePtr(r.SentimentScore),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr 取地址辅助
func Ptr[T any](v T) *T {
	return &v
}
