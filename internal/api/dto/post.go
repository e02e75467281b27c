package dto

import "Pulseboard/internal/model"

// PostResp 帖子对外展示结构
type PostResp struct {
	PostID          int64   `json:"post_id"`
	Platform        string  `json:"platform"`
	PostType        string  `json:"post_type"`
	PostedDate      string  `json:"posted_date"`
	PostedTime      string  `json:"posted_time"`
	Likes           int64   `json:"likes"`
	Comments        int64   `json:"comments"`
	Shares          int64   `json:"shares"`
	SentimentScore  string  `json:"sentiment_score"`
	TotalEngagement int64   `json:"total_engagement"`
	EngagementRatio float64 `json:"engagement_ratio"`
	PostedHour      int     `json:"posted_hour"`
	PostedDayOfWeek string  `json:"posted_day_of_week"`
	PostedMonth     string  `json:"posted_month"`
	IsWeekend       bool    `json:"is_weekend"`
	EngagementLevel string  `json:"engagement_level"`
}

// PostListResp 帖子列表
type PostListResp struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Data    []*PostResp `json:"data"`
}

// ListQuery /api/data 查询参数，limit 为空表示不限制
type ListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100000"`
}

// PostPatchReq 更新帖子的可选字段
type PostPatchReq struct {
	Platform       *string `json:"platform" binding:"omitempty,oneof=Facebook Twitter Instagram LinkedIn"`
	PostType       *string `json:"post_type" binding:"omitempty,oneof=text image video poll carousel story"`
	Likes          *int64  `json:"likes" binding:"omitempty,gte=0"`
	Comments       *int64  `json:"comments" binding:"omitempty,gte=0"`
	Shares         *int64  `json:"shares" binding:"omitempty,gte=0"`
	SentimentScore *string `json:"sentiment_score" binding:"omitempty,oneof=positive negative neutral"`
}

func (r *PostPatchReq) ToPatch() *model.PostPatch {
	return &model.PostPatch{
		Platform:       r.Platform,
		PostType:       r.PostType,
		Likes:          r.Likes,
		Comments:       r.Comments,
		Shares:         r.Shares,
		SentimentScore: r.SentimentScore,
	}
}

// DeleteAllResp 批量删除结果
type DeleteAllResp struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}
