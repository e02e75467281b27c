package mock

import (
	"Pulseboard/internal/model"
	"math/rand/v2"
	"time"
)

// PostTimeLayout 生成记录使用的时间格式，与 CSV 源一致
const PostTimeLayout = "01/02/2006 15:04"

const maxDayOffset = 365

// Generator 生成带统计特征的模拟帖子。不是并发安全的，调用方需串行使用
type Generator struct {
	rng   *rand.Rand
	now   func() time.Time
	hours *Sampler[int]
}

// NewGenerator 随机源与时钟均可注入，测试中固定种子即可复现
func NewGenerator(rng *rand.Rand, now func() time.Time) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{
		rng:   rng,
		now:   now,
		hours: hourSampler(),
	}
}

// Generate 生成 count 条记录，post_id 依次为 currentMaxID+1 ... currentMaxID+count
func (g *Generator) Generate(count int, currentMaxID int64) []model.RawPost {
	if count <= 0 {
		return []model.RawPost{}
	}
	if currentMaxID < 0 {
		currentMaxID = 0
	}

	now := g.now()
	posts := make([]model.RawPost, 0, count)
	for i := 0; i < count; i++ {
		platform := model.Platforms[g.rng.IntN(len(model.Platforms))]
		postType := model.PostTypes[g.rng.IntN(len(model.PostTypes))]

		postTime := g.postTime(now).Format(PostTimeLayout)

		pattern := platformPatterns[platform]
		mult := postTypeMultipliers[postType]
		likes := scale(g.between(pattern.Likes), mult.Likes)
		comments := scale(g.between(pattern.Comments), mult.Comments)
		shares := scale(g.between(pattern.Shares), mult.Shares)

		sentiment := sentimentFor(likes + comments + shares).Sample(g.rng)

		posts = append(posts, model.RawPost{
			PostID:         model.Ptr(currentMaxID + int64(i) + 1),
			Platform:       model.Ptr(platform),
			PostType:       model.Ptr(postType),
			PostTime:       model.Ptr(postTime),
			Likes:          model.Ptr(likes),
			Comments:       model.Ptr(comments),
			Shares:         model.Ptr(shares),
			SentimentScore: model.Ptr(sentiment),
		})
	}
	return posts
}

// postTime 过去一年内的随机日期，小时按权重表抽取，分钟均匀分布
func (g *Generator) postTime(now time.Time) time.Time {
	t := now.Add(-time.Duration(g.rng.IntN(maxDayOffset+1)) * 24 * time.Hour).
		Add(-time.Duration(g.rng.IntN(24)) * time.Hour).
		Add(-time.Duration(g.rng.IntN(60)) * time.Minute)
	hour := g.hours.Sample(g.rng)
	return time.Date(t.Year(), t.Month(), t.Day(), hour, t.Minute(), 0, 0, t.Location())
}

// between 闭区间均匀整数
func (g *Generator) between(r intRange) int {
	return r.Min + g.rng.IntN(r.Max-r.Min+1)
}

func scale(v int, factor float64) int64 {
	return int64(float64(v) * factor)
}
