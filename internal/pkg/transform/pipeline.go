package transform

import (
	"Pulseboard/internal/model"
	"context"
	log "log/slog"
	"math"

	"github.com/goccy/go-json"
	"github.com/montanaflynn/stats"
)

// Transform 依次执行去重、缺失值填充、时间拆分、互动派生、时间维度派生、互动分级。
// 输入不会被修改；缺失整列的步骤会被跳过。post_id 缺失时保持 0，由调用方分配
func Transform(ctx context.Context, records []model.RawPost) []*model.Post {
	rows := dedupe(ctx, records)
	impute(rows)
	splitTimestamps(ctx, rows)

	posts := make([]*model.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, derivePost(&rows[i]))
	}
	assignLevels(posts)
	return posts
}

// dedupe 去除完全相同的行，保留首次出现的顺序
func dedupe(ctx context.Context, records []model.RawPost) []model.RawPost {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.RawPost, 0, len(records))
	for _, r := range records {
		key, err := json.Marshal(r)
		if err != nil {
			out = append(out, r.Clone())
			continue
		}
		if _, ok := seen[string(key)]; ok {
			continue
		}
		seen[string(key)] = struct{}{}
		out = append(out, r.Clone())
	}
	if dropped := len(records) - len(out); dropped > 0 {
		log.InfoContext(ctx, "transform: duplicate rows removed", "dropped", dropped, "kept", len(out))
	}
	return out
}

// impute 数值列用中位数填充，分类列用 Unknown 填充
func impute(rows []model.RawPost) {
	numeric := []func(r *model.RawPost) **int64{
		func(r *model.RawPost) **int64 { return &r.Likes },
		func(r *model.RawPost) **int64 { return &r.Comments },
		func(r *model.RawPost) **int64 { return &r.Shares },
	}
	for _, field := range numeric {
		present := make([]float64, 0, len(rows))
		for i := range rows {
			if v := *field(&rows[i]); v != nil {
				present = append(present, float64(*v))
			}
		}
		// 整列缺失时跳过
		if len(present) == 0 || len(present) == len(rows) {
			continue
		}
		median, err := stats.Median(present)
		if err != nil {
			continue
		}
		fill := int64(math.Round(median))
		for i := range rows {
			if p := field(&rows[i]); *p == nil {
				*p = model.Ptr(fill)
			}
		}
	}

	categorical := []func(r *model.RawPost) **string{
		func(r *model.RawPost) **string { return &r.Platform },
		func(r *model.RawPost) **string { return &r.PostType },
		func(r *model.RawPost) **string { return &r.SentimentScore },
	}
	for _, field := range categorical {
		columnPresent := false
		for i := range rows {
			if *field(&rows[i]) != nil {
				columnPresent = true
				break
			}
		}
		if !columnPresent {
			continue
		}
		for i := range rows {
			if p := field(&rows[i]); *p == nil || **p == "" {
				*p = model.Ptr(model.Unknown)
			}
		}
	}
}

// splitTimestamps 把 post_time 拆分为 posted_date / posted_time，失败时保留原值
func splitTimestamps(ctx context.Context, rows []model.RawPost) {
	failed := 0
	for i := range rows {
		r := &rows[i]
		if r.PostTime == nil {
			continue
		}
		t, ok := parseTimestamp(*r.PostTime)
		if !ok {
			failed++
			log.WarnContext(ctx, "transform: unrecognized post_time, left untouched", "post_time", *r.PostTime)
			continue
		}
		date, clock := splitTimestamp(t)
		r.PostedDate = model.Ptr(date)
		r.PostedTime = model.Ptr(clock)
		r.PostTime = nil
	}
	if failed > 0 {
		log.WarnContext(ctx, "transform: timestamp split incomplete", "failed", failed, "total", len(rows))
	}
}

// derivePost 生成最终记录并计算互动与时间维度
func derivePost(r *model.RawPost) *model.Post {
	p := &model.Post{
		PostID:         deref(r.PostID),
		Platform:       deref(r.Platform),
		PostType:       deref(r.PostType),
		PostTime:       deref(r.PostTime),
		PostedDate:     deref(r.PostedDate),
		PostedTime:     deref(r.PostedTime),
		Likes:          deref(r.Likes),
		Comments:       deref(r.Comments),
		Shares:         deref(r.Shares),
		SentimentScore: deref(r.SentimentScore),
	}

	if r.Likes != nil && r.Comments != nil && r.Shares != nil {
		p.TotalEngagement, p.EngagementRatio = model.Engagement(p.Likes, p.Comments, p.Shares)
	} else {
		p.TotalEngagement = p.Likes + p.Comments + p.Shares
	}

	parts := derive(p.PostedDate, p.PostedTime)
	p.PostedHour = parts.hour
	p.PostedDayOfWeek = parts.dayOfWeek
	p.PostedMonth = parts.month
	p.IsWeekend = parts.isWeekend
	return p
}

// assignLevels 按批内分布为每条记录分级
func assignLevels(posts []*model.Post) {
	values := make([]float64, 0, len(posts))
	for _, p := range posts {
		values = append(values, float64(p.TotalEngagement))
	}
	binner := newLevelBinner(values)
	for _, p := range posts {
		p.EngagementLevel = binner.level(float64(p.TotalEngagement))
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
