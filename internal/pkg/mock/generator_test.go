package mock

import (
	"Pulseboard/internal/model"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func newTestGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), func() time.Time { return fixedNow })
}

func TestGenerate_IDsContinueFromMax(t *testing.T) {
	g := newTestGenerator(1)
	posts := g.Generate(25, 40)
	require.Len(t, posts, 25)

	seen := make(map[int64]struct{}, len(posts))
	for i, p := range posts {
		require.NotNil(t, p.PostID)
		assert.Equal(t, int64(41+i), *p.PostID)
		seen[*p.PostID] = struct{}{}
	}
	assert.Len(t, seen, 25)
}

func TestGenerate_ZeroCountAndNegativeMax(t *testing.T) {
	g := newTestGenerator(2)
	assert.Empty(t, g.Generate(0, 10))

	posts := g.Generate(3, -7)
	require.Len(t, posts, 3)
	assert.Equal(t, int64(1), *posts[0].PostID)
}

func TestGenerate_FieldsWithinDeclaredRanges(t *testing.T) {
	g := newTestGenerator(3)
	for _, p := range g.Generate(2000, 0) {
		assert.Contains(t, model.Platforms, *p.Platform)
		assert.Contains(t, model.PostTypes, *p.PostType)
		assert.Contains(t, model.Sentiments, *p.SentimentScore)

		pattern := platformPatterns[*p.Platform]
		mult := postTypeMultipliers[*p.PostType]
		assertScaledRange(t, *p.Likes, pattern.Likes, mult.Likes)
		assertScaledRange(t, *p.Comments, pattern.Comments, mult.Comments)
		assertScaledRange(t, *p.Shares, pattern.Shares, mult.Shares)

		ts, err := time.ParseInLocation(PostTimeLayout, *p.PostTime, time.UTC)
		require.NoError(t, err)
		assert.False(t, ts.After(fixedNow.Add(24*time.Hour)), "timestamp in the future: %s", ts)
		assert.True(t, ts.After(fixedNow.AddDate(0, 0, -maxDayOffset-2)), "timestamp too old: %s", ts)
	}
}

func assertScaledRange(t *testing.T, v int64, r intRange, factor float64) {
	t.Helper()
	assert.GreaterOrEqual(t, v, scale(r.Min, factor))
	assert.LessOrEqual(t, v, scale(r.Max, factor))
	assert.GreaterOrEqual(t, v, int64(0))
}

func TestGenerate_BusinessHoursSkew(t *testing.T) {
	g := newTestGenerator(4)
	counts := make([]int, 24)
	for _, p := range g.Generate(20000, 0) {
		ts, err := time.ParseInLocation(PostTimeLayout, *p.PostTime, time.UTC)
		require.NoError(t, err)
		counts[ts.Hour()]++
	}

	business, night := 0, 0
	for h := 9; h <= 17; h++ {
		business += counts[h]
	}
	for h := 1; h <= 5; h++ {
		night += counts[h]
	}
	// 9-17 点权重之和为 7.1，1-5 点为 0.25
	assert.Greater(t, business, night*10)
	assert.Greater(t, counts[14], counts[3])
}

func TestGenerate_SentimentFollowsEngagementTier(t *testing.T) {
	g := newTestGenerator(5)
	type tally struct{ pos, neg, neu, n int }
	tiers := map[string]*tally{"high": {}, "medium": {}, "low": {}}

	for _, p := range g.Generate(60000, 0) {
		total := *p.Likes + *p.Comments + *p.Shares
		var tier *tally
		switch {
		case total > highEngagementThreshold:
			tier = tiers["high"]
		case total > mediumEngagementThreshold:
			tier = tiers["medium"]
		default:
			tier = tiers["low"]
		}
		tier.n++
		switch *p.SentimentScore {
		case model.SentimentPositive:
			tier.pos++
		case model.SentimentNegative:
			tier.neg++
		default:
			tier.neu++
		}
	}

	expect := map[string][3]float64{
		"high":   {0.7, 0.1, 0.2},
		"medium": {0.5, 0.2, 0.3},
		"low":    {0.3, 0.3, 0.4},
	}
	for name, w := range expect {
		tl := tiers[name]
		require.Greater(t, tl.n, 500, "tier %s has too few samples", name)
		n := float64(tl.n)
		assert.InDelta(t, w[0], float64(tl.pos)/n, 0.05, "tier %s positive", name)
		assert.InDelta(t, w[1], float64(tl.neg)/n, 0.05, "tier %s negative", name)
		assert.InDelta(t, w[2], float64(tl.neu)/n, 0.05, "tier %s neutral", name)
	}
}

func TestGenerate_DeterministicWithSeed(t *testing.T) {
	a := newTestGenerator(42).Generate(10, 0)
	b := newTestGenerator(42).Generate(10, 0)
	assert.Equal(t, a, b)
}
