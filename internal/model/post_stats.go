package model

import "sort"

// Metric 可做日期/平台平均的互动指标
type Metric string

const (
	MetricLikes    Metric = "likes"
	MetricComments Metric = "comments"
	MetricShares   Metric = "shares"
)

func (m Metric) Valid() bool {
	switch m {
	case MetricLikes, MetricComments, MetricShares:
		return true
	}
	return false
}

// PlatformTotal 平台互动汇总
type PlatformTotal struct {
	Platform        string `bson:"platform" json:"platform" gorm:"column:platform"`
	TotalLikes      int64  `bson:"total_likes" json:"total_likes" gorm:"column:total_likes"`
	TotalComments   int64  `bson:"total_comments" json:"total_comments" gorm:"column:total_comments"`
	TotalShares     int64  `bson:"total_shares" json:"total_shares" gorm:"column:total_shares"`
	TotalEngagement int64  `bson:"total_engagement" json:"total_engagement" gorm:"column:total_engagement"`
	PostCount       int64  `bson:"post_count" json:"post_count" gorm:"column:post_count"`
}

// PlatformTotalsSummary 平台汇总的总计
type PlatformTotalsSummary struct {
	TotalPlatforms       int   `json:"total_platforms"`
	GrandTotalEngagement int64 `json:"grand_total_engagement"`
	GrandTotalPosts      int64 `json:"grand_total_posts"`
}

// Summarize 计算平台汇总的总计
func Summarize(totals []*PlatformTotal) PlatformTotalsSummary {
	s := PlatformTotalsSummary{TotalPlatforms: len(totals)}
	for _, t := range totals {
		s.GrandTotalEngagement += t.TotalEngagement
		s.GrandTotalPosts += t.PostCount
	}
	return s
}

// DayEngagement 按星期的平均互动
type DayEngagement struct {
	Day         string  `bson:"day" json:"day" gorm:"column:day"`
	AvgLikes    float64 `bson:"avg_likes" json:"avg_likes" gorm:"column:avg_likes"`
	AvgComments float64 `bson:"avg_comments" json:"avg_comments" gorm:"column:avg_comments"`
	AvgShares   float64 `bson:"avg_shares" json:"avg_shares" gorm:"column:avg_shares"`
	PostCount   int64   `bson:"post_count" json:"post_count" gorm:"column:post_count"`
}

// SentimentCount 情感计数
type SentimentCount struct {
	Sentiment string `bson:"sentiment" json:"sentiment"`
	Count     int64  `bson:"count" json:"count"`
}

// SentimentGroup 某一分类下的情感分布
type SentimentGroup struct {
	Category   string            `bson:"category" json:"category"`
	Sentiments []*SentimentCount `bson:"sentiments" json:"sentiments"`
	TotalPosts int64             `bson:"total_posts" json:"total_posts"`
}

// CategorySentimentRow 两级分组的扁平行 (分类, 情感, 数量)
type CategorySentimentRow struct {
	Category  string `bson:"category" gorm:"column:category"`
	Sentiment string `bson:"sentiment" gorm:"column:sentiment"`
	Count     int64  `bson:"count" gorm:"column:count"`
}

// DateMetricAverage 日期+平台维度的单指标平均值，仅对应指标字段非空
type DateMetricAverage struct {
	Date        string   `bson:"date" json:"date" gorm:"column:date"`
	Platform    string   `bson:"platform" json:"platform" gorm:"column:platform"`
	AvgLikes    *float64 `bson:"avg_likes,omitempty" json:"avg_likes,omitempty" gorm:"column:avg_likes"`
	AvgComments *float64 `bson:"avg_comments,omitempty" json:"avg_comments,omitempty" gorm:"column:avg_comments"`
	AvgShares   *float64 `bson:"avg_shares,omitempty" json:"avg_shares,omitempty" gorm:"column:avg_shares"`
	TotalPosts  int64    `bson:"total_posts" json:"total_posts" gorm:"column:total_posts"`
}

// Average 取出对应指标的平均值
func (d *DateMetricAverage) Average(metric Metric) float64 {
	var v *float64
	switch metric {
	case MetricLikes:
		v = d.AvgLikes
	case MetricComments:
		v = d.AvgComments
	case MetricShares:
		v = d.AvgShares
	}
	if v == nil {
		return 0
	}
	return *v
}

// PostTypeShares 帖子类型的分享统计
type PostTypeShares struct {
	PostType    string  `bson:"post_type" json:"post_type" gorm:"column:post_type"`
	TotalShares int64   `bson:"total_shares" json:"total_shares" gorm:"column:total_shares"`
	AvgShares   float64 `bson:"avg_shares" json:"avg_shares" gorm:"column:avg_shares"`
	TotalPosts  int64   `bson:"total_posts" json:"total_posts" gorm:"column:total_posts"`
}

// DecompositionFilter 分解树的可选前置过滤，空串表示不过滤
type DecompositionFilter struct {
	Platform string `form:"platform"`
	PostType string `form:"post_type"`
}

// DecompositionEntry 平台 × 类型 × 情感 三级分组
type DecompositionEntry struct {
	Platform       string `bson:"platform" json:"platform" gorm:"column:platform"`
	PostType       string `bson:"post_type" json:"post_type" gorm:"column:post_type"`
	SentimentScore string `bson:"sentiment_score" json:"sentiment_score" gorm:"column:sentiment_score"`
	TotalPosts     int64  `bson:"total_posts" json:"total_posts" gorm:"column:total_posts"`
	TotalLikes     int64  `bson:"total_likes" json:"total_likes" gorm:"column:total_likes"`
	TotalComments  int64  `bson:"total_comments" json:"total_comments" gorm:"column:total_comments"`
	TotalShares    int64  `bson:"total_shares" json:"total_shares" gorm:"column:total_shares"`
}

// TrendPoint 日期+平台的时间趋势
type TrendPoint struct {
	Date        string  `bson:"date" json:"date" gorm:"column:date"`
	Platform    string  `bson:"platform" json:"platform" gorm:"column:platform"`
	AvgLikes    float64 `bson:"avg_likes" json:"avg_likes" gorm:"column:avg_likes"`
	AvgComments float64 `bson:"avg_comments" json:"avg_comments" gorm:"column:avg_comments"`
	AvgShares   float64 `bson:"avg_shares" json:"avg_shares" gorm:"column:avg_shares"`
	Count       int64   `bson:"count" json:"count" gorm:"column:count"`
}

// CategoryCount 单字段计数
type CategoryCount struct {
	Category string `bson:"category" json:"category" gorm:"column:category"`
	Count    int64  `bson:"count" json:"count" gorm:"column:count"`
}

// EngagementAverages 全量平均互动
type EngagementAverages struct {
	AvgLikes    float64 `bson:"avg_likes" json:"avg_likes" gorm:"column:avg_likes"`
	AvgComments float64 `bson:"avg_comments" json:"avg_comments" gorm:"column:avg_comments"`
	AvgShares   float64 `bson:"avg_shares" json:"avg_shares" gorm:"column:avg_shares"`
	TotalPosts  int64   `bson:"total_posts" json:"total_posts" gorm:"column:total_posts"`
}

// OverallStats 概览统计
type OverallStats struct {
	PlatformStats   []*CategoryCount   `json:"platform_stats"`
	PostTypeStats   []*CategoryCount   `json:"post_type_stats"`
	SentimentStats  []*CategoryCount   `json:"sentiment_stats"`
	EngagementStats EngagementAverages `json:"engagement_stats"`
}

// PlatformStats 单平台统计
type PlatformStats struct {
	Platform        string  `bson:"platform" json:"platform" gorm:"column:platform"`
	TotalPosts      int64   `bson:"total_posts" json:"total_posts" gorm:"column:total_posts"`
	AvgLikes        float64 `bson:"avg_likes" json:"avg_likes" gorm:"column:avg_likes"`
	AvgComments     float64 `bson:"avg_comments" json:"avg_comments" gorm:"column:avg_comments"`
	AvgShares       float64 `bson:"avg_shares" json:"avg_shares" gorm:"column:avg_shares"`
	TotalEngagement int64   `bson:"total_engagement" json:"total_engagement" gorm:"column:total_engagement"`
}

// PostTypeStats 帖子类型统计
type PostTypeStats struct {
	PostType    string  `bson:"post_type" json:"post_type" gorm:"column:post_type"`
	Count       int64   `bson:"count" json:"count" gorm:"column:count"`
	AvgLikes    float64 `bson:"avg_likes" json:"avg_likes" gorm:"column:avg_likes"`
	AvgComments float64 `bson:"avg_comments" json:"avg_comments" gorm:"column:avg_comments"`
	AvgShares   float64 `bson:"avg_shares" json:"avg_shares" gorm:"column:avg_shares"`
}

// SentimentStats 情感统计
type SentimentStats struct {
	Sentiment     string  `bson:"sentiment" json:"sentiment" gorm:"column:sentiment"`
	Count         int64   `bson:"count" json:"count" gorm:"column:count"`
	AvgEngagement float64 `bson:"avg_engagement" json:"avg_engagement" gorm:"column:avg_engagement"`
}

// PostPatch 允许更新的字段，nil 表示不修改
type PostPatch struct {
	Platform       *string `json:"platform,omitempty" bson:"platform,omitempty"`
	PostType       *string `json:"post_type,omitempty" bson:"post_type,omitempty"`
	Likes          *int64  `json:"likes,omitempty" bson:"likes,omitempty"`
	Comments       *int64  `json:"comments,omitempty" bson:"comments,omitempty"`
	Shares         *int64  `json:"shares,omitempty" bson:"shares,omitempty"`
	SentimentScore *string `json:"sentiment_score,omitempty" bson:"sentiment_score,omitempty"`
}

// Apply 把补丁应用到记录上并重算总互动与互动比
func (p *PostPatch) Apply(post *Post) {
	if p.Platform != nil {
		post.Platform = *p.Platform
	}
	if p.PostType != nil {
		post.PostType = *p.PostType
	}
	if p.Likes != nil {
		post.Likes = *p.Likes
	}
	if p.Comments != nil {
		post.Comments = *p.Comments
	}
	if p.Shares != nil {
		post.Shares = *p.Shares
	}
	if p.SentimentScore != nil {
		post.SentimentScore = *p.SentimentScore
	}
	post.TotalEngagement, post.EngagementRatio = Engagement(post.Likes, post.Comments, post.Shares)
}

// Empty 补丁是否没有任何字段
func (p *PostPatch) Empty() bool {
	return p.Platform == nil && p.PostType == nil && p.Likes == nil &&
		p.Comments == nil && p.Shares == nil && p.SentimentScore == nil
}

// Engagement 计算总互动与互动比，likes 为 0 时比值记为 0
func Engagement(likes, comments, shares int64) (int64, float64) {
	total := likes + comments + shares
	if likes <= 0 {
		return total, 0
	}
	return total, float64(comments+shares) / float64(likes)
}

// GroupField 单字段计数可用的分组字段
type GroupField string

const (
	GroupByPlatform  GroupField = "platform"
	GroupByPostType  GroupField = "post_type"
	GroupBySentiment GroupField = "sentiment_score"
)

func (f GroupField) Valid() bool {
	switch f {
	case GroupByPlatform, GroupByPostType, GroupBySentiment:
		return true
	}
	return false
}

// GroupSentiments 把 (分类, 情感, 数量) 扁平行整理为每个分类一条，按分类升序
func GroupSentiments(rows []*CategorySentimentRow) []*SentimentGroup {
	index := make(map[string]*SentimentGroup)
	groups := make([]*SentimentGroup, 0)
	for _, r := range rows {
		g, ok := index[r.Category]
		if !ok {
			g = &SentimentGroup{Category: r.Category, Sentiments: make([]*SentimentCount, 0, len(Sentiments))}
			index[r.Category] = g
			groups = append(groups, g)
		}
		g.Sentiments = append(g.Sentiments, &SentimentCount{Sentiment: r.Sentiment, Count: r.Count})
		g.TotalPosts += r.Count
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups
}
