package mock

import "Pulseboard/internal/model"

type intRange struct {
	Min, Max int
}

type engagementPattern struct {
	Likes, Comments, Shares intRange
}

type multiplier struct {
	Likes, Comments, Shares float64
}

// platformPatterns 各平台的互动区间（闭区间）
var platformPatterns = map[string]engagementPattern{
	model.PlatformFacebook:  {Likes: intRange{50, 800}, Comments: intRange{10, 200}, Shares: intRange{5, 150}},
	model.PlatformTwitter:   {Likes: intRange{20, 500}, Comments: intRange{5, 100}, Shares: intRange{10, 300}},
	model.PlatformInstagram: {Likes: intRange{100, 1000}, Comments: intRange{15, 250}, Shares: intRange{2, 50}},
	model.PlatformLinkedIn:  {Likes: intRange{30, 400}, Comments: intRange{8, 120}, Shares: intRange{15, 200}},
}

// postTypeMultipliers 帖子类型对互动的放大系数
var postTypeMultipliers = map[string]multiplier{
	model.PostTypeText:     {Likes: 0.8, Comments: 1.2, Shares: 0.9},
	model.PostTypeImage:    {Likes: 1.3, Comments: 1.0, Shares: 1.1},
	model.PostTypeVideo:    {Likes: 1.5, Comments: 1.3, Shares: 1.4},
	model.PostTypePoll:     {Likes: 1.1, Comments: 1.5, Shares: 0.8},
	model.PostTypeCarousel: {Likes: 1.2, Comments: 1.1, Shares: 1.2},
	model.PostTypeStory:    {Likes: 0.9, Comments: 0.7, Shares: 0.6},
}

// hourWeights 0-23 点的发帖权重，工作时间更高
var hourWeights = [24]float64{
	0.1, 0.05, 0.05, 0.05, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7,
	0.8, 0.9, 1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1,
}

// 情感分布按总互动分档，顺序为 positive / negative / neutral
var (
	highEngagementSentiment   = sentimentSampler(0.7, 0.1, 0.2)
	mediumEngagementSentiment = sentimentSampler(0.5, 0.2, 0.3)
	lowEngagementSentiment    = sentimentSampler(0.3, 0.3, 0.4)
)

const (
	highEngagementThreshold   = 500
	mediumEngagementThreshold = 200
)

func sentimentSampler(pos, neg, neu float64) *Sampler[string] {
	return MustSampler([]Weighted[string]{
		{Value: model.SentimentPositive, Weight: pos},
		{Value: model.SentimentNegative, Weight: neg},
		{Value: model.SentimentNeutral, Weight: neu},
	})
}

// sentimentFor 根据总互动选择情感分布
func sentimentFor(total int64) *Sampler[string] {
	switch {
	case total > highEngagementThreshold:
		return highEngagementSentiment
	case total > mediumEngagementThreshold:
		return mediumEngagementSentiment
	default:
		return lowEngagementSentiment
	}
}

func hourSampler() *Sampler[int] {
	choices := make([]Weighted[int], 0, len(hourWeights))
	for h, w := range hourWeights {
		choices = append(choices, Weighted[int]{Value: h, Weight: w})
	}
	return MustSampler(choices)
}
