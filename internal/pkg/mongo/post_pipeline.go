package mongo

import (
	"Pulseboard/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// 聚合管道构造函数，均为纯函数，便于单独校验结构

func sortBy(keys ...bson.E) bson.D {
	return bson.D{{Key: "$sort", Value: bson.D(keys)}}
}

func asc(field string) bson.E  { return bson.E{Key: field, Value: 1} }
func desc(field string) bson.E { return bson.E{Key: field, Value: -1} }

// datedOnly 日期维度的聚合跳过没有 posted_date 的记录
var datedOnly = bson.D{{Key: "$match", Value: bson.M{"posted_date": bson.M{"$exists": true, "$ne": ""}}}}

func platformTotalsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":              "$platform",
			"total_likes":      bson.M{"$sum": "$likes"},
			"total_comments":   bson.M{"$sum": "$comments"},
			"total_shares":     bson.M{"$sum": "$shares"},
			"total_engagement": bson.M{"$sum": "$total_engagement"},
			"post_count":       bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id": 0, "platform": "$_id",
			"total_likes": 1, "total_comments": 1, "total_shares": 1, "total_engagement": 1, "post_count": 1,
		}}},
		sortBy(desc("total_engagement"), asc("platform")),
	}
}

func engagementByDayPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$posted_day_of_week",
			"avg_likes":    bson.M{"$avg": "$likes"},
			"avg_comments": bson.M{"$avg": "$comments"},
			"avg_shares":   bson.M{"$avg": "$shares"},
			"post_count":   bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id": 0, "day": "$_id", "avg_likes": 1, "avg_comments": 1, "avg_shares": 1, "post_count": 1,
		}}},
		sortBy(asc("day")),
	}
}

// sentimentByPipeline 两级分组后按分类收拢为 {category, sentiments, total_posts}
func sentimentByPipeline(field model.GroupField) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"category": "$" + string(field), "sentiment": "$sentiment_score"},
			"count": bson.M{"$sum": 1},
		}}},
		sortBy(asc("_id.category"), asc("_id.sentiment")),
		{{Key: "$group", Value: bson.M{
			"_id":         "$_id.category",
			"sentiments":  bson.M{"$push": bson.M{"sentiment": "$_id.sentiment", "count": "$count"}},
			"total_posts": bson.M{"$sum": "$count"},
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "category": "$_id", "sentiments": 1, "total_posts": 1}}},
		sortBy(asc("category")),
	}
}

func averageByDatePlatformPipeline(metric model.Metric) mongo.Pipeline {
	avgField := "avg_" + string(metric)
	return mongo.Pipeline{
		datedOnly,
		{{Key: "$group", Value: bson.M{
			"_id":         bson.M{"date": "$posted_date", "platform": "$platform"},
			avgField:      bson.M{"$avg": "$" + string(metric)},
			"total_posts": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id": 0, "date": "$_id.date", "platform": "$_id.platform", avgField: 1, "total_posts": 1,
		}}},
		sortBy(asc("date"), asc("platform")),
	}
}

func sharesByPostTypePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$post_type",
			"total_shares": bson.M{"$sum": "$shares"},
			"avg_shares":   bson.M{"$avg": "$shares"},
			"total_posts":  bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id": 0, "post_type": "$_id", "total_shares": 1, "avg_shares": 1, "total_posts": 1,
		}}},
		sortBy(desc("total_shares"), asc("post_type")),
	}
}

func decompositionPipeline(filter model.DecompositionFilter) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	match := bson.M{}
	if filter.Platform != "" {
		match["platform"] = filter.Platform
	}
	if filter.PostType != "" {
		match["post_type"] = filter.PostType
	}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	return append(pipeline,
		bson.D{{Key: "$group", Value: bson.M{
			"_id":            bson.M{"platform": "$platform", "post_type": "$post_type", "sentiment_score": "$sentiment_score"},
			"total_posts":    bson.M{"$sum": 1},
			"total_likes":    bson.M{"$sum": "$likes"},
			"total_comments": bson.M{"$sum": "$comments"},
			"total_shares":   bson.M{"$sum": "$shares"},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"_id":             0,
			"platform":        "$_id.platform",
			"post_type":       "$_id.post_type",
			"sentiment_score": "$_id.sentiment_score",
			"total_posts":     1, "total_likes": 1, "total_comments": 1, "total_shares": 1,
		}}},
		sortBy(asc("platform"), asc("post_type"), asc("sentiment_score")),
	)
}

func timeTrendPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		datedOnly,
		{{Key: "$group", Value: bson.M{
			"_id":          bson.M{"date": "$posted_date", "platform": "$platform"},
			"avg_likes":    bson.M{"$avg": "$likes"},
			"avg_comments": bson.M{"$avg": "$comments"},
			"avg_shares":   bson.M{"$avg": "$shares"},
			"count":        bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id": 0, "date": "$_id.date", "platform": "$_id.platform",
			"avg_likes": 1, "avg_comments": 1, "avg_shares": 1, "count": 1,
		}}},
		sortBy(asc("date"), asc("platform")),
	}
}

func countByPipeline(field model.GroupField) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + string(field), "count": bson.M{"$sum": 1}}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "category": "$_id", "count": 1}}},
		sortBy(asc("category")),
	}
}

// overallPipeline 单组汇总，match 为空时覆盖全集合
func overallPipeline(match bson.M) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	return append(pipeline,
		bson.D{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"avg_likes":        bson.M{"$avg": "$likes"},
			"avg_comments":     bson.M{"$avg": "$comments"},
			"avg_shares":       bson.M{"$avg": "$shares"},
			"total_engagement": bson.M{"$sum": "$total_engagement"},
			"total_posts":      bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"_id": 0}}},
	)
}

func postTypeStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$post_type",
			"count":        bson.M{"$sum": 1},
			"avg_likes":    bson.M{"$avg": "$likes"},
			"avg_comments": bson.M{"$avg": "$comments"},
			"avg_shares":   bson.M{"$avg": "$shares"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id": 0, "post_type": "$_id", "count": 1, "avg_likes": 1, "avg_comments": 1, "avg_shares": 1,
		}}},
		sortBy(desc("count"), asc("post_type")),
	}
}

func sentimentStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            "$sentiment_score",
			"count":          bson.M{"$sum": 1},
			"avg_engagement": bson.M{"$avg": "$total_engagement"},
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "sentiment": "$_id", "count": 1, "avg_engagement": 1}}},
		sortBy(desc("count"), asc("sentiment")),
	}
}
