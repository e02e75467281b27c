package mongo

import (
	"Pulseboard/internal/model"
	"context"
	log "log/slog"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// integer int64 字段在数值较小时也可能以 int32 写入
var integer = bson.A{"int", "long"}

func enumOf(values []string, extra ...string) bson.A {
	out := bson.A{}
	for _, v := range append(append([]string{}, values...), extra...) {
		out = append(out, v)
	}
	return out
}

// postJSONSchema 集合级校验规则，与应用层校验器保持一致
func postJSONSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"post_id", "platform", "post_type", "likes", "comments", "shares", "sentiment_score"},
		"properties": bson.M{
			"post_id":            bson.M{"bsonType": integer, "minimum": 1},
			"platform":           bson.M{"bsonType": "string", "enum": enumOf(model.Platforms, model.Unknown)},
			"post_type":          bson.M{"bsonType": "string", "enum": enumOf(model.PostTypes, model.Unknown)},
			"posted_date":        bson.M{"bsonType": "string"},
			"posted_time":        bson.M{"bsonType": "string"},
			"likes":              bson.M{"bsonType": integer, "minimum": 0},
			"comments":           bson.M{"bsonType": integer, "minimum": 0},
			"shares":             bson.M{"bsonType": integer, "minimum": 0},
			"sentiment_score":    bson.M{"bsonType": "string", "enum": enumOf(model.Sentiments, model.Unknown)},
			"total_engagement":   bson.M{"bsonType": integer, "minimum": 0},
			"engagement_ratio":   bson.M{"bsonType": "double", "minimum": 0},
			"posted_hour":        bson.M{"bsonType": integer, "minimum": 0, "maximum": 23},
			"posted_day_of_week": bson.M{"bsonType": "string"},
			"posted_month":       bson.M{"bsonType": "string"},
			"is_weekend":         bson.M{"bsonType": "bool"},
			"engagement_level":   bson.M{"bsonType": "string", "enum": enumOf(model.EngagementLevels)},
		},
	}
}

// EnsurePostCollection 集合不存在时带校验规则创建，并保证 post_id 唯一索引
func EnsurePostCollection(ctx context.Context, db *mongo.Database, name string) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return errors.Wrap(err, "list collections")
	}
	if len(names) == 0 {
		opts := options.CreateCollection().SetValidator(bson.M{"$jsonSchema": postJSONSchema()})
		if err = db.CreateCollection(ctx, name, opts); err != nil {
			return errors.Wrap(err, "create collection")
		}
		log.InfoContext(ctx, "MongoDB collection created", "collection", name)
	}

	_, err = db.Collection(name).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uk_post_id")},
		{Keys: bson.D{{Key: "platform", Value: 1}, {Key: "posted_date", Value: 1}}, Options: options.Index().SetName("idx_platform_date")},
	})
	return errors.Wrap(err, "create indexes")
}
